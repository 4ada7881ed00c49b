package transport

import (
	"github.com/dshills/gridpipe/internal/midi"
)

// USB-MIDI code index numbers: the low nibble of a frame's header byte.
const (
	cinSysExStart uint8 = 0x4 // also continuation
	cinSysExEnd1  uint8 = 0x5 // end with 1 trailing byte
	cinSysExEnd2  uint8 = 0x6 // end with 2 trailing bytes
	cinSysExEnd3  uint8 = 0x7 // end with 3 trailing bytes
	cinNoteOff    uint8 = 0x8
	cinNoteOn     uint8 = 0x9
	cinCC         uint8 = 0xB
	cinSingleByte uint8 = 0xF
)

// Frame is the fixed 4-byte wire unit: one framing byte (4-bit cable
// number + 4-bit code index) followed by up to 3 raw MIDI bytes. One
// logical event maps to one frame, except system-exclusive payloads
// which are chunked across consecutive frames.
type Frame struct {
	Header uint8
	MIDI   [3]uint8
}

// Cable returns the frame's cable number.
func (f Frame) Cable() uint8 { return f.Header >> 4 }

// CIN returns the frame's code index number.
func (f Frame) CIN() uint8 { return f.Header & 0x0F }

// Bytes returns the frame as its 4 wire bytes.
func (f Frame) Bytes() [4]byte {
	return [4]byte{f.Header, f.MIDI[0], f.MIDI[1], f.MIDI[2]}
}

// cinFor maps a status byte to its code index number.
func cinFor(status uint8) uint8 {
	switch status & 0xF0 {
	case midi.StatusNoteOff:
		return cinNoteOff
	case midi.StatusNoteOn:
		return cinNoteOn
	case midi.StatusControlChange:
		return cinCC
	default:
		return cinSingleByte
	}
}

// EncodeShort packs a three-byte MIDI message into one frame on cable 0.
func EncodeShort(status, data1, data2 uint8) Frame {
	return Frame{
		Header: cinFor(status),
		MIDI:   [3]uint8{status, data1, data2},
	}
}

// EncodeSysEx chunks a system-exclusive payload (excluding framing
// bytes) into frames: 0xF0 and 0xF7 are added on the wire, split 3
// bytes per frame with the final frame's code index marking how many
// trailing bytes it carries.
func EncodeSysEx(payload []byte) []Frame {
	wire := make([]byte, 0, len(payload)+2)
	wire = append(wire, midi.StatusSysExStart)
	wire = append(wire, payload...)
	wire = append(wire, midi.StatusSysExEnd)

	frames := make([]Frame, 0, (len(wire)+2)/3)
	for len(wire) > 3 {
		frames = append(frames, Frame{
			Header: cinSysExStart,
			MIDI:   [3]uint8{wire[0], wire[1], wire[2]},
		})
		wire = wire[3:]
	}

	last := Frame{Header: cinSysExEnd1 + uint8(len(wire)) - 1}
	copy(last.MIDI[:], wire)
	return append(frames, last)
}

// Encode converts an event to its wire frames.
func Encode(ev midi.Event) []Frame {
	if ev.IsSysEx() {
		return EncodeSysEx(ev.SysEx)
	}
	return []Frame{EncodeShort(ev.Status, ev.Data1, ev.Data2)}
}

// Decoder reassembles events from a frame stream. It is stateful only
// for in-flight system-exclusive payloads and is owned by a single
// reader goroutine.
type Decoder struct {
	sysex     []byte
	inSysEx   bool
	malformed uint64
}

// Malformed returns the count of frames dropped as undecodable.
func (d *Decoder) Malformed() uint64 { return d.malformed }

// Feed consumes one frame. It returns a complete event and true when the
// frame finishes a message; chunk frames in the middle of a SysEx
// payload return false. Malformed frames are dropped and counted, never
// an error: the reader loop must survive garbage from the wire.
func (d *Decoder) Feed(f Frame) (midi.Event, bool) {
	// Only cable 0 carries this device's traffic.
	if f.Cable() != 0 {
		return midi.Event{}, false
	}

	switch f.CIN() {
	case cinNoteOff, cinNoteOn, cinCC:
		// Short messages may legally interleave with an in-flight
		// SysEx; pass them through without touching the buffer.
		return midi.Event{
			Status:   f.MIDI[0],
			Data1:    f.MIDI[1],
			Data2:    f.MIDI[2],
			Priority: midi.DefaultPriority(f.MIDI[0]),
		}, true

	case cinSingleByte:
		if f.MIDI[0] < 0xF8 {
			d.malformed++
			return midi.Event{}, false
		}
		return midi.Event{
			Status:   f.MIDI[0],
			Priority: midi.PriorityRealTime,
		}, true

	case cinSysExStart:
		if !d.inSysEx {
			d.inSysEx = true
			d.sysex = d.sysex[:0]
		}
		d.sysex = append(d.sysex, f.MIDI[:]...)
		return midi.Event{}, false

	case cinSysExEnd1, cinSysExEnd2, cinSysExEnd3:
		if !d.inSysEx {
			// Short messages fit a lone end frame with no start chunk.
			d.sysex = d.sysex[:0]
		}
		n := int(f.CIN()-cinSysExEnd1) + 1
		d.sysex = append(d.sysex, f.MIDI[:n]...)
		d.inSysEx = false
		return d.finishSysEx()

	default:
		// Reserved code indices (0x0-0x3, 0xA, 0xC-0xE in this
		// device's usage) carry nothing we understand.
		d.malformed++
		return midi.Event{}, false
	}
}

// finishSysEx validates the reassembled wire bytes and strips framing.
func (d *Decoder) finishSysEx() (midi.Event, bool) {
	wire := d.sysex
	if len(wire) < 2 || wire[0] != midi.StatusSysExStart || wire[len(wire)-1] != midi.StatusSysExEnd {
		d.malformed++
		return midi.Event{}, false
	}
	payload := make([]byte, len(wire)-2)
	copy(payload, wire[1:len(wire)-1])
	return midi.Event{
		Status:   midi.StatusSysExStart,
		SysEx:    payload,
		Priority: midi.PriorityLow,
	}, true
}
