package sequencer

// PatternLength is the number of steps in every track.
const PatternLength = 16

// Step values. Anything other than StepOn reads as inactive.
const (
	StepOff uint8 = 0
	StepOn  uint8 = 1
)

// Track is one row of the step grid.
type Track struct {
	Name  string
	Steps [PatternLength]uint8
}

// NewTrack creates a track with all steps off.
func NewTrack(name string) Track {
	return Track{Name: name}
}

// Active reports whether a raw step value triggers.
func Active(v uint8) bool {
	return v == StepOn
}

// Active reports whether the step at index triggers. Out of range steps never do.
func (t Track) Active(step int) bool {
	if step < 0 || step >= PatternLength {
		return false
	}
	return Active(t.Steps[step])
}

// Count returns the number of active steps.
func (t Track) Count() int {
	n := 0
	for _, v := range t.Steps {
		if Active(v) {
			n++
		}
	}
	return n
}
