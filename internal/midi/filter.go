package midi

// Filter is a pure predicate over status class, origin, and velocity.
// It is stateless and copyable; the zero value rejects everything, use
// AllowAll as a starting point.
type Filter struct {
	AcceptNoteOn        bool
	AcceptNoteOff       bool
	AcceptControlChange bool
	AcceptSysEx         bool
	AcceptRealTime      bool

	AcceptHardware    bool
	AcceptApplication bool
	AcceptSimulation  bool

	// MinVelocity and MaxVelocity bound the second data byte of note-on
	// events. Other classes ignore the range.
	MinVelocity uint8
	MaxVelocity uint8
}

// AllowAll returns a filter that accepts every event.
func AllowAll() Filter {
	return Filter{
		AcceptNoteOn:        true,
		AcceptNoteOff:       true,
		AcceptControlChange: true,
		AcceptSysEx:         true,
		AcceptRealTime:      true,
		AcceptHardware:      true,
		AcceptApplication:   true,
		AcceptSimulation:    true,
		MinVelocity:         0,
		MaxVelocity:         127,
	}
}

// Accept reports whether the event passes the filter.
func (f Filter) Accept(ev Event) bool {
	switch ev.Class() {
	case ClassNoteOn:
		if !f.AcceptNoteOn {
			return false
		}
		if ev.Data2 < f.MinVelocity || ev.Data2 > f.MaxVelocity {
			return false
		}
	case ClassNoteOff:
		if !f.AcceptNoteOff {
			return false
		}
	case ClassControlChange:
		if !f.AcceptControlChange {
			return false
		}
	case ClassSysEx:
		if !f.AcceptSysEx {
			return false
		}
	case ClassRealTime:
		if !f.AcceptRealTime {
			return false
		}
	}

	switch ev.Origin {
	case OriginHardwareUSB, OriginHardwareNative:
		if !f.AcceptHardware {
			return false
		}
	case OriginApplication:
		if !f.AcceptApplication {
			return false
		}
	case OriginSimulation:
		if !f.AcceptSimulation {
			return false
		}
	}

	return true
}

// NotesOnly returns a filter accepting only note on/off events from any
// origin.
func NotesOnly() Filter {
	f := AllowAll()
	f.AcceptControlChange = false
	f.AcceptSysEx = false
	f.AcceptRealTime = false
	return f
}

// HardwareOnly returns a filter accepting every class but only events
// captured from hardware.
func HardwareOnly() Filter {
	f := AllowAll()
	f.AcceptApplication = false
	f.AcceptSimulation = false
	return f
}

// VelocityRange returns a copy of f bounded to [min, max] for note-on
// velocities.
func (f Filter) VelocityRange(min, max uint8) Filter {
	f.MinVelocity = min
	f.MaxVelocity = max
	return f
}
