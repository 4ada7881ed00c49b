package midi

import "time"

// Standard MIDI status bytes (channel bits masked off).
const (
	StatusNoteOff       uint8 = 0x80
	StatusNoteOn        uint8 = 0x90
	StatusControlChange uint8 = 0xB0
	StatusSysExStart    uint8 = 0xF0
	StatusSysExEnd      uint8 = 0xF7
)

// Origin identifies which producer created an event. The dispatcher uses
// it for feedback-loop suppression and the queue keeps per-origin counts.
type Origin uint8

const (
	// OriginHardwareUSB marks events read from the raw USB endpoint.
	OriginHardwareUSB Origin = iota

	// OriginHardwareNative marks events from the OS MIDI port backend.
	OriginHardwareNative

	// OriginApplication marks events submitted by application code.
	OriginApplication

	// OriginSimulation marks events injected by test producers.
	OriginSimulation

	// OriginCount is the number of distinct origins.
	OriginCount
)

// String returns the origin name.
func (o Origin) String() string {
	switch o {
	case OriginHardwareUSB:
		return "hardware-usb"
	case OriginHardwareNative:
		return "hardware-native"
	case OriginApplication:
		return "application"
	case OriginSimulation:
		return "simulation"
	default:
		return "unknown"
	}
}

// Valid reports whether o is a defined origin.
func (o Origin) Valid() bool {
	return o < OriginCount
}

// StatusClass groups status bytes into the categories the pipeline
// filters and prioritizes on.
type StatusClass uint8

const (
	ClassNoteOn StatusClass = iota
	ClassNoteOff
	ClassControlChange
	ClassSysEx
	ClassRealTime
	ClassOther
)

// String returns the class name.
func (c StatusClass) String() string {
	switch c {
	case ClassNoteOn:
		return "note-on"
	case ClassNoteOff:
		return "note-off"
	case ClassControlChange:
		return "control-change"
	case ClassSysEx:
		return "sysex"
	case ClassRealTime:
		return "real-time"
	default:
		return "other"
	}
}

// Priority orders events for scheduling purposes. Lower values are more
// urgent. Priority is informational only: the dispatcher processes events
// strictly in arrival order and never reorders by priority.
type Priority uint8

const (
	PriorityRealTime Priority = iota
	PriorityHigh
	PriorityNormal
	PriorityLow
)

// String returns the priority name.
func (p Priority) String() string {
	switch p {
	case PriorityRealTime:
		return "realtime"
	case PriorityHigh:
		return "high"
	case PriorityNormal:
		return "normal"
	case PriorityLow:
		return "low"
	default:
		return "unknown"
	}
}

// Event is a single MIDI event captured from hardware or submitted by the
// application. Events are created once at capture time, enqueued exactly
// once, dequeued exactly once by the single consumer, and then discarded.
type Event struct {
	// Status is the raw MIDI status byte, channel bits included.
	Status uint8

	// Data1 and Data2 are the two short data fields (note/controller
	// number and velocity/value). Unused for pure SysEx events.
	Data1 uint8
	Data2 uint8

	// SysEx holds the variable-length payload for system-exclusive
	// events, excluding the 0xF0/0xF7 framing bytes. Nil otherwise.
	SysEx []byte

	// Origin tags the producer that created the event.
	Origin Origin

	// Priority is the scheduling class derived from Status at capture.
	Priority Priority

	// Timestamp is the capture time. The queue stamps it on enqueue if
	// the producer left it zero.
	Timestamp time.Time

	// Sequence is a system-wide strictly increasing number assigned by
	// the queue on enqueue.
	Sequence uint64
}

// NewEvent builds a three-byte event with the default priority for its
// status class and a capture timestamp of now.
func NewEvent(status, data1, data2 uint8, origin Origin) Event {
	return Event{
		Status:    status,
		Data1:     data1,
		Data2:     data2,
		Origin:    origin,
		Priority:  DefaultPriority(status),
		Timestamp: time.Now(),
	}
}

// NewSysExEvent builds a system-exclusive event carrying payload. The
// payload excludes the 0xF0/0xF7 framing bytes; the caller retains no
// ownership of the slice after the call.
func NewSysExEvent(payload []byte, origin Origin) Event {
	ev := Event{
		Status:    StatusSysExStart,
		SysEx:     payload,
		Origin:    origin,
		Priority:  PriorityLow,
		Timestamp: time.Now(),
	}
	if len(payload) > 0 {
		ev.Data1 = payload[0]
	}
	if len(payload) > 1 {
		ev.Data2 = payload[1]
	}
	return ev
}

// Class returns the status class of the event.
func (e Event) Class() StatusClass {
	return Classify(e.Status)
}

// Channel returns the 0-based MIDI channel for channel voice messages.
func (e Event) Channel() uint8 {
	return e.Status & 0x0F
}

// IsSysEx reports whether the event is a system-exclusive message.
func (e Event) IsSysEx() bool {
	return e.Class() == ClassSysEx
}

// EchoKey identifies the logical channel of the event for feedback
// suppression: status (type + channel) plus the first data byte, so a
// fader write and a pad write never suppress each other.
func (e Event) EchoKey() uint16 {
	return uint16(e.Status)<<8 | uint16(e.Data1)
}

// Classify maps a status byte to its status class.
func Classify(status uint8) StatusClass {
	switch status & 0xF0 {
	case StatusNoteOn:
		return ClassNoteOn
	case StatusNoteOff:
		return ClassNoteOff
	case StatusControlChange:
		return ClassControlChange
	case 0xF0:
		if status >= 0xF8 {
			return ClassRealTime
		}
		return ClassSysEx
	default:
		return ClassOther
	}
}

// DefaultPriority returns the scheduling class assigned to a status byte:
// real-time messages highest, then note on/off, then control changes,
// with SysEx lowest.
func DefaultPriority(status uint8) Priority {
	switch Classify(status) {
	case ClassRealTime:
		return PriorityRealTime
	case ClassNoteOn, ClassNoteOff:
		return PriorityHigh
	case ClassControlChange:
		return PriorityNormal
	case ClassSysEx:
		return PriorityLow
	default:
		return PriorityNormal
	}
}
