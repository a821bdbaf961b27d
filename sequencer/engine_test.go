package sequencer

import (
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
)

type recorder struct {
	mu      sync.Mutex
	got     []Instruction
	failFor map[int]bool
}

func (r *recorder) Trigger(in Instruction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failFor[in.Track] {
		return errors.New("output unavailable")
	}
	r.got = append(r.got, in)
	return nil
}

func (r *recorder) all() []Instruction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Instruction, len(r.got))
	copy(out, r.got)
	return out
}

func newTestEngine(t *testing.T, opts Options) (*Engine, *recorder) {
	t.Helper()
	rec := &recorder{}
	opts.Output = rec
	e, err := New(opts)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	t.Cleanup(e.Close)
	return e, rec
}

func TestTickEmitsKickAndAdvances(t *testing.T) {
	e, rec := newTestEngine(t, Options{})
	if err := e.Toggle(0, 0); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	e.Tick()

	got := rec.all()
	want := []Instruction{{Kind: OneShot, Track: 0, Step: 0, Sample: "c0"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if e.Cursor() != 1 {
		t.Fatalf("expected cursor 1, got %d", e.Cursor())
	}
}

func TestTickEmitsChordB(t *testing.T) {
	e, rec := newTestEngine(t, Options{})
	if err := e.Toggle(5, 10); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	for i := 0; i < 10; i++ {
		e.Tick()
	}
	if len(rec.all()) != 0 {
		t.Fatalf("nothing should fire before step 10, got %v", rec.all())
	}

	e.Tick()

	got := rec.all()
	if len(got) != 1 {
		t.Fatalf("expected one instruction, got %v", got)
	}
	in := got[0]
	if in.Kind != Chord || !reflect.DeepEqual(in.Pitches, []string{"a#3", "d4", "g4"}) || in.Duration != 0.5 {
		t.Fatalf("expected chord B, got %v", in)
	}
}

func TestCursorWrapsAfterSixteenTicks(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	for start := 0; start < PatternLength; start++ {
		if e.Cursor() != start {
			t.Fatalf("expected cursor %d, got %d", start, e.Cursor())
		}
		for i := 0; i < PatternLength; i++ {
			e.Tick()
		}
		if e.Cursor() != start {
			t.Fatalf("16 ticks from %d landed on %d", start, e.Cursor())
		}
		e.Tick()
	}
}

func TestTickIsolatesTrackFailures(t *testing.T) {
	e, rec := newTestEngine(t, Options{})
	rec.failFor = map[int]bool{0: true}
	// broken voice in front of a working one
	e.resolver = &Resolver{voices: []Voice{
		{Name: "Broken", Role: RolePercussive},
		{Name: "Kick", Role: RolePercussive, Sample: "c0"},
		{Name: "Clap", Role: RolePercussive, Sample: "d0"},
	}}
	e.pattern = NewPattern("Broken", "Kick", "Clap")
	e.pattern.Toggle(0, 0)
	e.pattern.Toggle(1, 0)
	e.pattern.Toggle(2, 0)

	e.Tick()

	got := rec.all()
	if len(got) != 2 || got[0].Sample != "c0" || got[1].Sample != "d0" {
		t.Fatalf("expected kick and clap despite the broken voice, got %v", got)
	}
	if e.Cursor() != 1 {
		t.Fatalf("cursor should advance after failures, got %d", e.Cursor())
	}

	// output failure on track 1 must not stop track 2
	rec.failFor = map[int]bool{1: true}
	for i := 0; i < PatternLength; i++ {
		e.Tick()
	}
	got = rec.all()
	if last := got[len(got)-1]; last.Track != 2 {
		t.Fatalf("expected clap after failing kick, got %v", last)
	}
}

func TestEngineToggleOutOfRange(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	if err := e.Toggle(6, 0); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
	if err := e.ClearTrack(-1); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
}

func TestEngineReadoutsAreFloored(t *testing.T) {
	e, _ := newTestEngine(t, Options{Tempo: 110.7, Swing: -1.5})
	if e.Tempo() != 110 {
		t.Fatalf("expected tempo 110, got %d", e.Tempo())
	}
	if e.Swing() != -2 {
		t.Fatalf("expected swing -2, got %d", e.Swing())
	}
	if err := e.SetTempo(0); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
	want := State{Tempo: 110, Swing: -2, Step: 0, Playing: false}
	if got := e.State(); got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestNewRejectsBadOptions(t *testing.T) {
	if _, err := New(Options{Tempo: -3}); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter for tempo, got %v", err)
	}
	if _, err := New(Options{Voices: []Voice{}}); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter for voices, got %v", err)
	}
}

func TestAuditionPlaysEighthNote(t *testing.T) {
	e, rec := newTestEngine(t, Options{Tempo: 120})
	if err := e.Audition("c3"); err != nil {
		t.Fatalf("audition: %v", err)
	}
	got := rec.all()
	if len(got) != 1 {
		t.Fatalf("expected one instruction, got %v", got)
	}
	if got[0].Kind != Chord || !reflect.DeepEqual(got[0].Pitches, []string{"c3"}) || got[0].Duration != 0.25 {
		t.Fatalf("expected c3 for 0.25s, got %v", got[0])
	}
	if e.Cursor() != 0 {
		t.Fatalf("audition moved the cursor to %d", e.Cursor())
	}
}

func TestUpdatesAfterEdit(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	// drain the update from construction, if any
	select {
	case <-e.Updates():
	default:
	}
	if err := e.Toggle(2, 2); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	select {
	case <-e.Updates():
	case <-time.After(time.Second):
		t.Fatalf("no update after toggle")
	}
}

func TestNudgeTempoAndSwing(t *testing.T) {
	e, _ := newTestEngine(t, Options{Tempo: 1.5})
	if err := e.NudgeTempo(-1); err != nil {
		t.Fatalf("nudge to 0.5 bpm: %v", err)
	}
	if err := e.NudgeTempo(-1); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
	if e.Tempo() != 0 {
		t.Fatalf("tempo should stay at 0.5 (floored 0), got %d", e.Tempo())
	}
	e.NudgeTempo(110)
	if e.Tempo() != 110 {
		t.Fatalf("expected 110, got %d", e.Tempo())
	}

	for i := 0; i < 3; i++ {
		e.NudgeSwing(-1)
	}
	if e.Swing() != -3 {
		t.Fatalf("swing amount is unbounded, expected -3, got %d", e.Swing())
	}
}

func (c *Clock) armed() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

func TestConcurrentEditsArmNewestPattern(t *testing.T) {
	for run := 0; run < 200; run++ {
		e, _ := newTestEngine(t, Options{})
		var wg sync.WaitGroup
		for track := 0; track < 6; track++ {
			wg.Add(1)
			go func(track int) {
				defer wg.Done()
				for step := 0; step < 4; step++ {
					e.Toggle(track, step*4+track%4)
				}
				if track == 5 {
					e.ClearTrack(5)
				}
			}(track)
		}
		wg.Wait()

		if got, want := e.clock.armed(), e.Snapshot(); !reflect.DeepEqual(got, want) {
			t.Fatalf("run %d: armed snapshot %v, pattern %v", run, got, want)
		}
		e.Close()
	}
}

func TestConcurrentNudgesKeepEveryIncrement(t *testing.T) {
	e, _ := newTestEngine(t, Options{Tempo: 100})
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			e.NudgeTempo(1)
		}()
		go func() {
			defer wg.Done()
			e.NudgeSwing(1)
		}()
	}
	wg.Wait()
	if e.Tempo() != 150 || e.Swing() != 50 {
		t.Fatalf("expected 150 bpm swing 50, got %d/%d", e.Tempo(), e.Swing())
	}
}

func TestCloseClosesDone(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	select {
	case <-e.Done():
		t.Fatalf("done before Close")
	default:
	}
	e.Close()
	e.Close()
	select {
	case <-e.Done():
	case <-time.After(time.Second):
		t.Fatalf("done not closed")
	}
}
