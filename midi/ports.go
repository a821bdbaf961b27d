package midi

import (
	"errors"
	"fmt"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// ErrPortScanTimeout is returned when the driver does not list its ports in time.
var ErrPortScanTimeout = errors.New("midi: port scan timed out")

// Get current MIDI ports with timeout (CoreMIDI can hang)
func scanOutPorts(timeout time.Duration) ([]drivers.Out, error) {
	ch := make(chan []drivers.Out, 1)
	go func() {
		ch <- gomidi.GetOutPorts()
	}()
	select {
	case outs := <-ch:
		return outs, nil
	case <-time.After(timeout):
		// User needs to run: sudo killall coreaudiod midiserver
		return nil, ErrPortScanTimeout
	}
}

// OutPortNames lists the output ports the driver can see.
func OutPortNames(timeout time.Duration) ([]string, error) {
	outs, err := scanOutPorts(timeout)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(outs))
	for i, p := range outs {
		names[i] = p.String()
	}
	return names, nil
}

// OpenSender finds an output port by name (substring match, as gomidi does)
// and opens a sender on it.
func OpenSender(portName string) (Sender, error) {
	out, err := gomidi.FindOutPort(portName)
	if err != nil {
		return nil, fmt.Errorf("can't find output %q: %w", portName, err)
	}
	send, err := gomidi.SendTo(out)
	if err != nil {
		return nil, fmt.Errorf("failed to open port %q: %w", out.String(), err)
	}
	return send, nil
}

// CloseDriver releases the registered MIDI driver.
func CloseDriver() {
	gomidi.CloseDriver()
}
