package midi

import (
	"fmt"

	"go-stepseq/sequencer"
)

// MIDI message types
const (
	NoteOn  uint8 = 0x90
	NoteOff uint8 = 0x80
)

// Event is a note message before it is encoded for the wire.
type Event struct {
	Type     uint8 // NoteOn, NoteOff
	Channel  uint8 // 0-15
	Note     uint8
	Velocity uint8
}

// Events translates an instruction into the note-ons to send now and the
// note-offs to send when it is released. A one-shot is released at once.
func Events(in sequencer.Instruction, channel, velocity uint8) (on, off []Event, err error) {
	var names []string
	switch in.Kind {
	case sequencer.OneShot:
		names = []string{in.Sample}
	case sequencer.Chord:
		names = in.Pitches
	default:
		return nil, nil, fmt.Errorf("unknown instruction kind %v", in.Kind)
	}
	if len(names) == 0 {
		return nil, nil, fmt.Errorf("%v has no notes", in)
	}
	for _, name := range names {
		key, err := ParseNote(name)
		if err != nil {
			return nil, nil, err
		}
		on = append(on, Event{Type: NoteOn, Channel: channel, Note: key, Velocity: velocity})
		off = append(off, Event{Type: NoteOff, Channel: channel, Note: key})
	}
	return on, off, nil
}
