package transport

import (
	"fmt"
	"strings"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // register MIDI backend
)

// Known vendor/product identities for the supported controllers. Port
// backends expose names rather than USB descriptors, so discovery
// matches on name and reports the identity of the matched model.
var knownDevices = []struct {
	match     string
	vendorID  uint16
	productID uint16
}{
	{"apc mini mk2", 0x09E8, 0x004F},
	{"apc mini", 0x09E8, 0x0028},
}

// PortOpener discovers grid controllers through the system MIDI backend.
type PortOpener struct{}

func (PortOpener) Discover() ([]DeviceInfo, error) {
	var found []DeviceInfo
	for _, in := range gomidi.GetInPorts() {
		name := strings.ToLower(in.String())
		for _, kd := range knownDevices {
			if strings.Contains(name, kd.match) {
				found = append(found, DeviceInfo{
					Name:      in.String(),
					VendorID:  kd.vendorID,
					ProductID: kd.productID,
					Port:      in.Number(),
				})
				break
			}
		}
	}
	return found, nil
}

func (PortOpener) Open(dev DeviceInfo) (Driver, error) {
	in, err := gomidi.FindInPort(dev.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: input port %q: %v", ErrOpenFailed, dev.Name, err)
	}

	var out drivers.Out
	for _, op := range gomidi.GetOutPorts() {
		if op.String() == dev.Name {
			out = op
			break
		}
	}
	if out == nil {
		return nil, fmt.Errorf("%w: no output port matching %q", ErrOpenFailed, dev.Name)
	}

	send, err := gomidi.SendTo(out)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrClaimFailed, dev.Name, err)
	}

	pd := &portDriver{
		send:    send,
		inbound: make(chan Frame, 512),
	}
	stop, err := gomidi.ListenTo(in, pd.onMessage, gomidi.UseSysEx())
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrClaimFailed, dev.Name, err)
	}
	pd.stop = stop
	return pd, nil
}

// portDriver adapts a pair of system MIDI ports to the frame interface.
// The backend delivers whole messages; onMessage re-frames them so the
// transport sees the same wire units on every backend.
type portDriver struct {
	send    func(gomidi.Message) error
	stop    func()
	inbound chan Frame

	// dec reassembles outbound frames back into whole messages, since
	// the port backend cannot send partial SysEx chunks.
	dec Decoder
}

func (p *portDriver) onMessage(msg gomidi.Message, _ int32) {
	raw := msg.Bytes()
	var frames []Frame
	switch {
	case len(raw) >= 2 && raw[0] == 0xF0:
		frames = EncodeSysEx(raw[1 : len(raw)-1])
	case len(raw) >= 3:
		frames = []Frame{EncodeShort(raw[0], raw[1], raw[2])}
	default:
		return
	}
	for _, f := range frames {
		select {
		case p.inbound <- f:
		default:
			// Reader has fallen behind; shedding here mirrors what a
			// saturated bulk endpoint does.
		}
	}
}

func (p *portDriver) ReadFrame(timeout time.Duration) (Frame, error) {
	select {
	case f := <-p.inbound:
		return f, nil
	case <-time.After(timeout):
		return Frame{}, errReadTimeout
	}
}

func (p *portDriver) WriteFrame(f Frame) error {
	ev, ok := p.dec.Feed(f)
	if !ok {
		// Mid-SysEx chunk; the message goes out when the end frame lands.
		return nil
	}
	var msg gomidi.Message
	if ev.IsSysEx() {
		msg = gomidi.SysEx(ev.SysEx)
	} else {
		msg = gomidi.Message([]byte{ev.Status, ev.Data1, ev.Data2})
	}
	if err := p.send(msg); err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	return nil
}

func (p *portDriver) Close() error {
	if p.stop != nil {
		p.stop()
	}
	return nil
}

// Discover lists attached grid controllers using the system backend.
func Discover() ([]DeviceInfo, error) {
	return PortOpener{}.Discover()
}
