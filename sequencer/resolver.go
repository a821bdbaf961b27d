package sequencer

import (
	"github.com/pkg/errors"
)

// Resolver maps an active cell to an Instruction through a voice table.
// The table is read-only after construction.
type Resolver struct {
	voices []Voice
}

// NewResolver validates voices and builds a resolver over a copy of them.
func NewResolver(voices []Voice) (*Resolver, error) {
	if err := ValidateVoices(voices); err != nil {
		return nil, err
	}
	r := &Resolver{voices: make([]Voice, len(voices))}
	copy(r.voices, voices)
	return r, nil
}

// Voices returns the voice table.
func (r *Resolver) Voices() []Voice {
	out := make([]Voice, len(r.voices))
	copy(out, r.voices)
	return out
}

// Resolve produces the instruction for an active cell at (track, step).
func (r *Resolver) Resolve(track, step int) (Instruction, error) {
	if track < 0 || track >= len(r.voices) {
		return Instruction{}, errors.Wrapf(ErrOutOfRange, "track %d (have %d voices)", track, len(r.voices))
	}
	if step < 0 || step >= PatternLength {
		return Instruction{}, errors.Wrapf(ErrOutOfRange, "step %d", step)
	}
	v := r.voices[track]
	switch v.Role {
	case RolePercussive:
		if v.Sample == "" {
			return Instruction{}, errors.Wrapf(ErrResolution, "voice %q has no sample", v.Name)
		}
		return Instruction{Kind: OneShot, Track: track, Step: step, Sample: v.Sample}, nil
	case RoleMelodic:
		for _, c := range v.Chords {
			if c.Contains(step) {
				pitches := make([]string, len(c.Pitches))
				copy(pitches, c.Pitches)
				return Instruction{
					Kind:     Chord,
					Track:    track,
					Step:     step,
					Pitches:  pitches,
					Duration: v.Duration,
				}, nil
			}
		}
		return Instruction{}, errors.Wrapf(ErrResolution, "voice %q has no chord for step %d", v.Name, step)
	default:
		return Instruction{}, errors.Wrapf(ErrResolution, "voice %q has unknown role %q", v.Name, v.Role)
	}
}

// ValidateVoices checks the structure of a voice table. Sample and pitch
// names are not parsed here; config.Validate parses them as MIDI notes.
func ValidateVoices(voices []Voice) error {
	if len(voices) == 0 {
		return errors.Wrap(ErrInvalidParameter, "no voices")
	}
	for i, v := range voices {
		switch v.Role {
		case RolePercussive:
			if v.Sample == "" {
				return errors.Wrapf(ErrInvalidParameter, "voice %d (%s): percussive voice needs a sample", i, v.Name)
			}
		case RoleMelodic:
			if len(v.Chords) == 0 {
				return errors.Wrapf(ErrInvalidParameter, "voice %d (%s): melodic voice needs chords", i, v.Name)
			}
			if v.Duration <= 0 {
				return errors.Wrapf(ErrInvalidParameter, "voice %d (%s): duration must be positive", i, v.Name)
			}
			for _, c := range v.Chords {
				if c.From < 0 || c.To >= PatternLength || c.From > c.To {
					return errors.Wrapf(ErrInvalidParameter, "voice %d (%s): bad chord range %d..%d", i, v.Name, c.From, c.To)
				}
				if len(c.Pitches) == 0 {
					return errors.Wrapf(ErrInvalidParameter, "voice %d (%s): empty chord %d..%d", i, v.Name, c.From, c.To)
				}
			}
		default:
			return errors.Wrapf(ErrInvalidParameter, "voice %d (%s): unknown role %q", i, v.Name, v.Role)
		}
	}
	return nil
}
