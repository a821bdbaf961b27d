package sequencer

import (
	"fmt"
	"strings"
)

// Kind tags an Instruction.
type Kind uint8

const (
	// OneShot attacks a sample and lets it ring out.
	OneShot Kind = iota
	// Chord attacks several pitches and releases them after Duration.
	Chord
)

func (k Kind) String() string {
	switch k {
	case OneShot:
		return "oneshot"
	case Chord:
		return "chord"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Instruction is an engine-agnostic description of a sound event.
type Instruction struct {
	Kind  Kind
	Track int
	Step  int

	// OneShot
	Sample string

	// Chord. Duration is in seconds.
	Pitches  []string
	Duration float64
}

func (in Instruction) String() string {
	switch in.Kind {
	case OneShot:
		return fmt.Sprintf("oneshot(%s)", in.Sample)
	case Chord:
		return fmt.Sprintf("chord(%s, %gs)", strings.Join(in.Pitches, " "), in.Duration)
	default:
		return in.Kind.String()
	}
}

// Output receives trigger instructions. Implementations must not block the
// caller: the tick handler emits straight from the clock goroutine.
type Output interface {
	Trigger(in Instruction) error
}

// OutputFunc adapts a function to Output.
type OutputFunc func(in Instruction) error

func (f OutputFunc) Trigger(in Instruction) error {
	return f(in)
}
