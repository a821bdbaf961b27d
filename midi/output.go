package midi

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	gomidi "gitlab.com/gomidi/midi/v2"

	"go-stepseq/sequencer"
)

var (
	ErrQueueFull = errors.New("midi: send queue full")
	ErrClosed    = errors.New("midi: output closed")
)

// Sender writes one message to a port, as returned by gomidi.SendTo.
type Sender func(msg gomidi.Message) error

// OutputConfig configures an Output.
type OutputConfig struct {
	Channel   uint8 // MIDI channel 1-16
	Velocity  uint8
	QueueSize int
	Logger    *log.Logger
}

// Output plays trigger instructions on a MIDI port. Messages go through a
// buffered queue drained by one goroutine, so Trigger never waits on the
// driver; a full queue drops the message.
type Output struct {
	channel  uint8 // 0-based
	velocity uint8
	send     Sender
	log      *log.Logger

	queue  chan gomidi.Message
	done   chan struct{}
	closed atomic.Bool
	once   sync.Once
	wg     sync.WaitGroup

	// Instructions currently holding each key. The note-off goes out when
	// the last holder releases, so overlapping chords never cut each other.
	holdMu sync.Mutex
	held   map[uint8]int

	afterFunc func(d time.Duration, f func())
}

// NewOutput starts the drain goroutine. Close stops it.
func NewOutput(send Sender, cfg OutputConfig) *Output {
	if cfg.Channel < 1 || cfg.Channel > 16 {
		cfg.Channel = 1
	}
	if cfg.Velocity == 0 || cfg.Velocity > 127 {
		cfg.Velocity = 100
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}
	o := &Output{
		channel:  cfg.Channel - 1,
		velocity: cfg.Velocity,
		send:     send,
		log:      cfg.Logger.WithPrefix("midi"),
		queue:    make(chan gomidi.Message, cfg.QueueSize),
		done:     make(chan struct{}),
		held:     make(map[uint8]int),
		afterFunc: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
	}
	o.wg.Add(1)
	go o.drain()
	return o
}

func (o *Output) drain() {
	defer o.wg.Done()
	for {
		select {
		case msg := <-o.queue:
			o.write(msg)
		case <-o.done:
			// flush what is already queued
			for {
				select {
				case msg := <-o.queue:
					o.write(msg)
				default:
					return
				}
			}
		}
	}
}

func (o *Output) write(msg gomidi.Message) {
	if err := o.send(msg); err != nil {
		o.log.Error("send failed", "msg", msg.String(), "err", err)
	}
}

// Trigger queues the note-ons of an instruction and schedules its note-offs.
// A key struck again while sounding is re-attacked and held until its last
// instruction is released.
func (o *Output) Trigger(in sequencer.Instruction) error {
	if o.closed.Load() {
		return ErrClosed
	}
	on, off, err := Events(in, o.channel, o.velocity)
	if err != nil {
		return err
	}
	for i, ev := range on {
		if err := o.strike(ev); err != nil {
			o.release(off[:i])
			return err
		}
	}
	if in.Kind == sequencer.Chord && in.Duration > 0 {
		o.afterFunc(time.Duration(in.Duration*float64(time.Second)), func() { o.release(off) })
	} else {
		o.release(off)
	}
	return nil
}

// strike queues a note-on and takes a hold on its key. holdMu covers the
// enqueue so a note-off can never be queued behind a newer note-on.
func (o *Output) strike(ev Event) error {
	o.holdMu.Lock()
	defer o.holdMu.Unlock()
	if err := o.enqueue(ev); err != nil {
		return err
	}
	o.held[ev.Note]++
	return nil
}

// release drops one hold per event and sends the note-offs of keys no
// longer held.
func (o *Output) release(off []Event) {
	for _, ev := range off {
		if err := o.unhold(ev); err != nil && err != ErrClosed {
			o.log.Warn("note off dropped", "note", NoteName(ev.Note), "err", err)
		}
	}
}

func (o *Output) unhold(ev Event) error {
	o.holdMu.Lock()
	defer o.holdMu.Unlock()
	if o.held[ev.Note]--; o.held[ev.Note] > 0 {
		return nil
	}
	delete(o.held, ev.Note)
	return o.enqueue(ev)
}

func (o *Output) enqueue(ev Event) error {
	if o.closed.Load() {
		return ErrClosed
	}
	var msg gomidi.Message
	switch ev.Type {
	case NoteOn:
		msg = gomidi.NoteOn(ev.Channel, ev.Note, ev.Velocity)
	case NoteOff:
		msg = gomidi.NoteOff(ev.Channel, ev.Note)
	default:
		return nil
	}
	select {
	case o.queue <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close flushes queued messages and stops the drain goroutine. Note-offs
// scheduled after Close are dropped.
func (o *Output) Close() error {
	o.once.Do(func() {
		o.closed.Store(true)
		close(o.done)
	})
	o.wg.Wait()
	return nil
}
