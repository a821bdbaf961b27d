package sequencer

import (
	"sync"

	"github.com/pkg/errors"
)

// Pattern is the step grid shared between user intents and the tick handler.
// Every read and write goes through one RWMutex, so a tick snapshot sees each
// cell either before or after a concurrent toggle.
type Pattern struct {
	mu     sync.RWMutex
	tracks []Track
}

// Snapshot is a copy of the pattern taken at one instant. Tracks hold their
// steps in arrays, so copying the slice elements copies the whole grid.
type Snapshot []Track

// NewPattern creates a pattern with one empty track per name.
func NewPattern(names ...string) *Pattern {
	p := &Pattern{tracks: make([]Track, len(names))}
	for i, name := range names {
		p.tracks[i] = NewTrack(name)
	}
	return p
}

// Len returns the number of tracks.
func (p *Pattern) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.tracks)
}

func (p *Pattern) check(track, step int) error {
	if track < 0 || track >= len(p.tracks) {
		return errors.Wrapf(ErrOutOfRange, "track %d (have %d)", track, len(p.tracks))
	}
	if step < 0 || step >= PatternLength {
		return errors.Wrapf(ErrOutOfRange, "step %d (have %d)", step, PatternLength)
	}
	return nil
}

// Toggle flips one cell. A non-canonical value counts as off and becomes on.
func (p *Pattern) Toggle(track, step int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.check(track, step); err != nil {
		return err
	}
	s := &p.tracks[track].Steps[step]
	if Active(*s) {
		*s = StepOff
	} else {
		*s = StepOn
	}
	return nil
}

// Set writes a raw value into one cell.
func (p *Pattern) Set(track, step int, v uint8) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.check(track, step); err != nil {
		return err
	}
	p.tracks[track].Steps[step] = v
	return nil
}

// Clear turns off every step of a track.
func (p *Pattern) Clear(track int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.check(track, 0); err != nil {
		return err
	}
	p.tracks[track].Steps = [PatternLength]uint8{}
	return nil
}

// Track returns a copy of one track.
func (p *Pattern) Track(track int) (Track, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if err := p.check(track, 0); err != nil {
		return Track{}, err
	}
	return p.tracks[track], nil
}

// Snapshot copies the whole grid under one read lock.
func (p *Pattern) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	snap := make(Snapshot, len(p.tracks))
	copy(snap, p.tracks)
	return snap
}

// Active reports whether a cell of the snapshot triggers.
func (s Snapshot) Active(track, step int) bool {
	if track < 0 || track >= len(s) {
		return false
	}
	return s[track].Active(step)
}
