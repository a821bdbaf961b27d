package sequencer

import (
	"io"
	"math"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
)

// Options configures an Engine.
type Options struct {
	Voices []Voice
	Tempo  float64
	Swing  float64
	Output Output
	Logger *log.Logger
}

// Engine owns the pattern, the cursor and the clock, and turns every tick
// into trigger instructions.
type Engine struct {
	pattern  *Pattern
	resolver *Resolver
	clock    *Clock
	out      Output
	log      *log.Logger

	cursor atomic.Int64

	// Serializes edit + snapshot + rearm, so the last armed snapshot is
	// always the newest pattern.
	editMu sync.Mutex

	// Notify UI of ticks and edits
	updates   chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// New builds a stopped engine with an empty pattern, one track per voice.
func New(opts Options) (*Engine, error) {
	if opts.Voices == nil {
		opts.Voices = DefaultVoices()
	}
	resolver, err := NewResolver(opts.Voices)
	if err != nil {
		return nil, err
	}
	if opts.Tempo == 0 {
		opts.Tempo = DefaultTempo
	}
	if !validTempo(opts.Tempo) {
		return nil, errors.Wrapf(ErrInvalidParameter, "tempo %v must be positive", opts.Tempo)
	}
	if opts.Output == nil {
		opts.Output = OutputFunc(func(Instruction) error { return nil })
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	e := &Engine{
		pattern:  NewPattern(VoiceNames(opts.Voices)...),
		resolver: resolver,
		out:      opts.Output,
		log:      opts.Logger.WithPrefix("engine"),
		updates:  make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	e.clock = NewClock(opts.Tempo, e.tick, e.Cursor)
	e.clock.SetSwing(opts.Swing)
	e.clock.Rearm(e.pattern.Snapshot())
	return e, nil
}

// tick is the clock handler: emit every active cell at the cursor, then
// advance the cursor whether or not anything fired.
func (e *Engine) tick(snap Snapshot) {
	step := e.Cursor()
	for track := range snap {
		if !snap.Active(track, step) {
			continue
		}
		in, err := e.resolver.Resolve(track, step)
		if err != nil {
			e.log.Warn("resolve failed", "track", track, "step", step, "err", err)
			continue
		}
		if err := e.out.Trigger(in); err != nil {
			e.log.Warn("trigger failed", "track", track, "step", step, "instruction", in, "err", err)
			continue
		}
		e.log.Debug("trigger", "track", track, "step", step, "instruction", in)
	}
	e.cursor.Store(int64((step + 1) % PatternLength))
	e.notifyUpdate()
}

// Tick runs one tick synchronously against the current pattern. The clock
// calls the same handler; this entry point drives the engine without it.
func (e *Engine) Tick() {
	e.clock.tickMu.Lock()
	defer e.clock.tickMu.Unlock()
	e.tick(e.pattern.Snapshot())
}

// Toggle flips one cell and re-arms the clock with the new pattern.
func (e *Engine) Toggle(track, step int) error {
	return e.edit(func() error { return e.pattern.Toggle(track, step) })
}

// ClearTrack turns off every step of a track and re-arms the clock.
func (e *Engine) ClearTrack(track int) error {
	return e.edit(func() error { return e.pattern.Clear(track) })
}

func (e *Engine) edit(change func() error) error {
	e.editMu.Lock()
	defer e.editMu.Unlock()
	if err := change(); err != nil {
		return err
	}
	e.clock.Rearm(e.pattern.Snapshot())
	e.notifyUpdate()
	return nil
}

// SetTempo rejects non-positive tempos with ErrInvalidParameter.
func (e *Engine) SetTempo(bpm float64) error {
	if err := e.clock.SetTempo(bpm); err != nil {
		return err
	}
	e.log.Debug("tempo", "bpm", bpm)
	e.notifyUpdate()
	return nil
}

func (e *Engine) SetSwing(amount float64) {
	e.clock.SetSwing(amount)
	e.log.Debug("swing", "amount", amount)
	e.notifyUpdate()
}

// NudgeTempo moves the tempo by delta BPM. A result that is not positive
// is rejected and the tempo stays.
func (e *Engine) NudgeTempo(delta float64) error {
	bpm, err := e.clock.NudgeTempo(delta)
	if err != nil {
		return err
	}
	e.log.Debug("tempo", "bpm", bpm)
	e.notifyUpdate()
	return nil
}

// NudgeSwing moves the swing amount by delta. The amount itself is not
// bounded; only its effect is.
func (e *Engine) NudgeSwing(delta float64) {
	amount := e.clock.NudgeSwing(delta)
	e.log.Debug("swing", "amount", amount)
	e.notifyUpdate()
}

// Start resumes ticking from the current cursor.
func (e *Engine) Start() {
	e.clock.Start()
	e.log.Info("start", "step", e.Cursor())
	e.notifyUpdate()
}

// Stop cancels pending ticks. The cursor keeps its position.
func (e *Engine) Stop() {
	e.clock.Stop()
	e.log.Info("stop", "step", e.Cursor())
	e.notifyUpdate()
}

// TogglePlay starts a stopped engine and stops a running one.
func (e *Engine) TogglePlay() {
	if e.Playing() {
		e.Stop()
	} else {
		e.Start()
	}
}

// Close stops the clock, waits for its goroutine to exit and closes Done.
func (e *Engine) Close() {
	e.clock.Stop()
	e.clock.Wait()
	e.closeOnce.Do(func() { close(e.done) })
}

// Done is closed by Close. Readers of Updates select on it to exit.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Audition plays a single pitch for an eighth note at the current tempo,
// outside the pattern.
func (e *Engine) Audition(pitch string) error {
	eighth := 2 * StepDuration(e.clock.Tempo()).Seconds()
	return e.out.Trigger(Instruction{
		Kind:     Chord,
		Track:    -1,
		Step:     -1,
		Pitches:  []string{pitch},
		Duration: eighth,
	})
}

// Cursor is the step the next tick plays.
func (e *Engine) Cursor() int {
	return int(e.cursor.Load())
}

func (e *Engine) Playing() bool {
	return e.clock.State() == Running
}

// Tempo is the tempo floored to a whole BPM, for display.
func (e *Engine) Tempo() int {
	return int(math.Floor(e.clock.Tempo()))
}

// Swing is the swing amount floored to an integer, for display.
func (e *Engine) Swing() int {
	return int(math.Floor(e.clock.Swing()))
}

// Snapshot copies the current pattern.
func (e *Engine) Snapshot() Snapshot {
	return e.pattern.Snapshot()
}

// Voices returns the voice table the engine resolves with.
func (e *Engine) Voices() []Voice {
	return e.resolver.Voices()
}

// State returns all readouts at once.
func (e *Engine) State() State {
	return State{
		Tempo:   e.Tempo(),
		Swing:   e.Swing(),
		Step:    e.Cursor(),
		Playing: e.Playing(),
	}
}

// Updates delivers a value after ticks and edits. It is coalescing: a slow
// reader sees one pending update, not one per event.
func (e *Engine) Updates() <-chan struct{} {
	return e.updates
}

func (e *Engine) notifyUpdate() {
	select {
	case e.updates <- struct{}{}:
	default:
	}
}
