package sequencer

import (
	"math"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// ClockState is the transport state.
type ClockState int

const (
	Stopped ClockState = iota
	Running
)

func (s ClockState) String() string {
	if s == Running {
		return "running"
	}
	return "stopped"
}

// Transport defaults.
const (
	DefaultTempo = 110.0
	// MaxSwing is the largest fraction of a step that swing shifts an off-beat by.
	MaxSwing = 0.5
	// StepsPerBeat makes one step a sixteenth note.
	StepsPerBeat = 4
)

// TickFunc handles one tick with the snapshot the clock was armed with.
type TickFunc func(snap Snapshot)

// Clock fires a TickFunc once per sixteenth note while running. One
// goroutine drives the schedule; arming bumps a generation number and
// closes the previous goroutine's cancel channel, so a stale wake-up never
// reaches the handler. Ticks are serialized by tickMu.
type Clock struct {
	mu    sync.Mutex
	state ClockState
	tempo float64
	swing float64
	snap  Snapshot

	onTick TickFunc
	step   func() int // step the next tick plays, for swing parity

	gen    uint64
	cancel chan struct{}
	next   time.Time // deadline of the pending tick

	tickMu sync.Mutex
	wg     sync.WaitGroup

	now   func() time.Time
	after func(time.Duration) <-chan time.Time
}

// NewClock creates a stopped clock. step reports the cursor the next tick
// will play; it is read once per tick before onTick runs.
func NewClock(tempo float64, onTick TickFunc, step func() int) *Clock {
	if !validTempo(tempo) {
		tempo = DefaultTempo
	}
	return &Clock{
		tempo:  tempo,
		onTick: onTick,
		step:   step,
		now:    time.Now,
		after:  time.After,
	}
}

func validTempo(bpm float64) bool {
	return bpm > 0 && !math.IsInf(bpm, 0) && !math.IsNaN(bpm)
}

// StepDuration is the length of one straight sixteenth note at bpm.
func StepDuration(bpm float64) time.Duration {
	return time.Duration(math.Round(float64(time.Minute) / bpm / StepsPerBeat))
}

// SwingRatio maps a swing amount (percent of a step) to the fraction an
// off-beat is delayed by. Negative amounts play straight.
func SwingRatio(amount float64) float64 {
	r := amount / 100
	if r < 0 || math.IsNaN(r) {
		return 0
	}
	if r > MaxSwing {
		return MaxSwing
	}
	return r
}

// Interval returns the wait before the tick that plays step. Odd steps land
// late, even steps early, so every pair of steps keeps its straight length.
func Interval(bpm, swing float64, step int) time.Duration {
	base := float64(StepDuration(bpm))
	r := SwingRatio(swing)
	if step%2 == 1 {
		return time.Duration(math.Round(base * (1 + r)))
	}
	return time.Duration(math.Round(base * (1 - r)))
}

// Start begins ticking. The first tick fires immediately at the current
// cursor. Starting a running clock does nothing.
func (c *Clock) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Running {
		return
	}
	c.state = Running
	c.next = c.now()
	c.arm(0)
}

// Stop cancels every pending tick. A tick already inside its handler
// finishes; no later tick fires until Start.
func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Stopped {
		return
	}
	c.state = Stopped
	c.disarm()
}

// Rearm replaces the armed snapshot and, when running, tears the schedule
// down and re-establishes it. The pending deadline is kept.
func (c *Clock) Rearm(snap Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap = snap
	if c.state != Running {
		return
	}
	wait := c.next.Sub(c.now())
	if wait < 0 {
		wait = 0
	}
	c.arm(wait)
}

// SetTempo changes the tempo for intervals scheduled from now on. The
// pending tick keeps its deadline.
func (c *Clock) SetTempo(bpm float64) error {
	if !validTempo(bpm) {
		return errors.Wrapf(ErrInvalidParameter, "tempo %v must be positive", bpm)
	}
	c.mu.Lock()
	c.tempo = bpm
	c.mu.Unlock()
	return nil
}

// NudgeTempo moves the tempo by delta in one step and returns the new tempo.
// A result that is not a valid tempo is rejected and the tempo stays.
func (c *Clock) NudgeTempo(delta float64) (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	bpm := c.tempo + delta
	if !validTempo(bpm) {
		return c.tempo, errors.Wrapf(ErrInvalidParameter, "tempo %v must be positive", bpm)
	}
	c.tempo = bpm
	return bpm, nil
}

// NudgeSwing moves the swing amount by delta and returns the new amount.
func (c *Clock) NudgeSwing(delta float64) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.swing += delta
	return c.swing
}

// SetSwing changes the off-beat offset for intervals scheduled from now on.
func (c *Clock) SetSwing(amount float64) {
	c.mu.Lock()
	c.swing = amount
	c.mu.Unlock()
}

func (c *Clock) Tempo() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tempo
}

func (c *Clock) Swing() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.swing
}

func (c *Clock) State() ClockState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Wait blocks until every schedule goroutine has exited. Use after Stop.
func (c *Clock) Wait() {
	c.wg.Wait()
}

// arm starts a new schedule goroutine. Caller holds mu.
func (c *Clock) arm(wait time.Duration) {
	c.disarm()
	c.cancel = make(chan struct{})
	c.wg.Add(1)
	go c.run(c.gen, c.cancel, wait)
}

// disarm invalidates the current schedule. Caller holds mu.
func (c *Clock) disarm() {
	c.gen++
	if c.cancel != nil {
		close(c.cancel)
		c.cancel = nil
	}
}

func (c *Clock) run(gen uint64, cancel <-chan struct{}, wait time.Duration) {
	defer c.wg.Done()
	for {
		if wait > 0 {
			select {
			case <-cancel:
				return
			case <-c.after(wait):
			}
		}
		if !c.fire(gen) {
			return
		}
		c.mu.Lock()
		if c.gen != gen {
			c.mu.Unlock()
			return
		}
		wait = c.next.Sub(c.now())
		c.mu.Unlock()
	}
}

// fire runs one tick if gen is still current.
func (c *Clock) fire(gen uint64) bool {
	c.tickMu.Lock()
	defer c.tickMu.Unlock()

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return false
	}
	snap, onTick := c.snap, c.onTick
	step := 0
	if c.step != nil {
		step = c.step()
	}
	interval := Interval(c.tempo, c.swing, (step+1)%PatternLength)
	c.next = c.next.Add(interval)
	// More than a step behind (suspended process, slow handler): resync
	// instead of firing a burst of late ticks.
	if now := c.now(); now.Sub(c.next) > interval {
		c.next = now.Add(interval)
	}
	c.mu.Unlock()

	if onTick != nil {
		onTick(snap)
	}
	return true
}
