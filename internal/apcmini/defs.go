// Package apcmini holds the static protocol tables for the Akai APC Mini
// and APC Mini MK2 grid controllers: USB identity, note and controller
// maps, LED color codes, and the vendor SysEx commands.
package apcmini

// USB identity used for device discovery.
const (
	VendorID     uint16 = 0x09E8 // Akai Professional M.I. Corp.
	ProductID    uint16 = 0x0028 // APC Mini (original)
	ProductIDMK2 uint16 = 0x004F // APC Mini MK2
)

// Channel is the 0-based MIDI channel the device speaks on.
const Channel uint8 = 0

// Pad matrix layout: 8x8 grid.
const (
	PadRows  = 8
	PadCols  = 8
	PadCount = PadRows * PadCols
)

// Note number ranges.
const (
	PadNoteStart   uint8 = 0x00 // 0
	PadNoteEnd     uint8 = 0x3F // 63
	TrackNoteStart uint8 = 0x64 // 100
	TrackNoteEnd   uint8 = 0x6B // 107
	SceneNoteStart uint8 = 0x70 // 112
	SceneNoteEnd   uint8 = 0x77 // 119
	ShiftNote      uint8 = 0x7A // 122
)

// Fader controller numbers. Physical layout is eight track faders and a
// master fader on consecutive CCs.
const (
	FaderCCStart    uint8 = 0x30 // 48, track fader 1
	FaderCCEnd      uint8 = 0x37 // 55, track fader 8
	MasterFaderCC   uint8 = 0x38 // 56
	TrackFaderCount       = 8
	TotalFaderCount       = 9
)

// Color is a legacy (non-RGB) pad LED color code, sent as note-on
// velocity.
type Color uint8

const (
	ColorOff         Color = 0x00
	ColorGreen       Color = 0x01
	ColorGreenBlink  Color = 0x02
	ColorRed         Color = 0x03
	ColorRedBlink    Color = 0x04
	ColorYellow      Color = 0x05
	ColorYellowBlink Color = 0x06
)

// String returns the color name.
func (c Color) String() string {
	switch c {
	case ColorOff:
		return "off"
	case ColorGreen:
		return "green"
	case ColorGreenBlink:
		return "green-blink"
	case ColorRed:
		return "red"
	case ColorRedBlink:
		return "red-blink"
	case ColorYellow:
		return "yellow"
	case ColorYellowBlink:
		return "yellow-blink"
	default:
		return "unknown"
	}
}

// PadToNote converts grid coordinates to the pad's note number. Row 0 is
// the bottom row.
func PadToNote(x, y int) uint8 {
	return uint8(y*PadCols + x)
}

// NoteToPad converts a pad note number back to grid coordinates.
func NoteToPad(note uint8) (x, y int) {
	return int(note) % PadCols, int(note) / PadCols
}

// IsPadNote reports whether note addresses one of the 64 grid pads.
func IsPadNote(note uint8) bool {
	return note <= PadNoteEnd
}

// IsTrackNote reports whether note is a track button.
func IsTrackNote(note uint8) bool {
	return note >= TrackNoteStart && note <= TrackNoteEnd
}

// IsSceneNote reports whether note is a scene launch button.
func IsSceneNote(note uint8) bool {
	return note >= SceneNoteStart && note <= SceneNoteEnd
}

// IsShiftNote reports whether note is the shift button.
func IsShiftNote(note uint8) bool {
	return note == ShiftNote
}

// IsTrackFaderCC reports whether cc is one of the eight track faders.
func IsTrackFaderCC(cc uint8) bool {
	return cc >= FaderCCStart && cc <= FaderCCEnd
}

// IsFaderCC reports whether cc is any fader, master included.
func IsFaderCC(cc uint8) bool {
	return IsTrackFaderCC(cc) || cc == MasterFaderCC
}
