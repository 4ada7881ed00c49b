package apcmini

// Vendor SysEx protocol for the MK2. All payloads here exclude the
// 0xF0/0xF7 framing bytes; the transport adds those when chunking.
const (
	sysexManufacturer uint8 = 0x47 // Akai
	sysexDeviceID     uint8 = 0x7F // all-call
	sysexProductMK2   uint8 = 0x4F

	// Command bytes.
	CmdIntroduction     uint8 = 0x60
	CmdIntroductionResp uint8 = 0x61
	CmdModeChange       uint8 = 0x62
	CmdRGBLighting      uint8 = 0x24
)

// Mode is an MK2 operating mode.
type Mode uint8

const (
	ModeSession Mode = 0
	ModeNote    Mode = 1
	ModeDrum    Mode = 2
)

// header returns the vendor SysEx prefix for a command.
func header(cmd uint8) []byte {
	return []byte{sysexManufacturer, sysexDeviceID, sysexProductMK2, cmd}
}

// IntroductionMessage builds the one-time session handshake payload: the
// vendor header, the introduction command, and the host application's
// version fields. It must be sent once after the transport opens, while
// the reader is paused, before any other traffic.
func IntroductionMessage(verMajor, verMinor, verPatch uint8) []byte {
	msg := header(CmdIntroduction)
	msg = append(msg,
		0x00, 0x04, // payload length, MSB then LSB
		0x01, // application ID
		verMajor&0x7F, verMinor&0x7F, verPatch&0x7F,
	)
	return msg
}

// ModeChangeMessage builds the payload switching the MK2 between
// session, note, and drum modes.
func ModeChangeMessage(mode Mode) []byte {
	return append(header(CmdModeChange), uint8(mode)&0x7F)
}

// RGB is an MK2 RGB color with 7-bit components.
type RGB struct {
	R, G, B uint8
}

// RGBRangeMessage builds the payload painting a contiguous pad range
// [first, last] in a single RGB color. Each 8-bit component is split
// into an MSB/LSB pair so it fits 7-bit MIDI data bytes.
func RGBRangeMessage(first, last uint8, c RGB) []byte {
	msg := header(CmdRGBLighting)
	return append(msg,
		0x00, 0x08, // data length MSB, LSB: start pad through B LSB
		first&0x3F, last&0x3F,
		(c.R>>7)&0x7F, c.R&0x7F,
		(c.G>>7)&0x7F, c.G&0x7F,
		(c.B>>7)&0x7F, c.B&0x7F,
	)
}
