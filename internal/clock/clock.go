// Package clock implements the local beat clock. Once armed, it wakes up
// every beat period corrected by skew and emits a cleaned beat.
package clock

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dudk/auditraq"
	"github.com/dudk/auditraq/internal/shutdown"
	"github.com/dudk/auditraq/log"
	"github.com/dudk/auditraq/metric"
)

// ErrInvalidState is returned if clock is armed more than once.
var ErrInvalidState = errors.New("invalid state")

// minInterval is the floor for a single clock period.
const minInterval = time.Millisecond

// State of the clock.
type State int32

// Clock states. Transitions are Unarmed -> Armed -> Stopped, Unarmed clock
// can also be stopped directly.
const (
	Unarmed State = iota
	Armed
	Stopped
)

func (s State) String() string {
	switch s {
	case Unarmed:
		return "unarmed"
	case Armed:
		return "armed"
	case Stopped:
		return "stopped"
	}
	return "unknown"
}

// Tempo is a snapshot of beat period and skew correction, both in seconds.
type Tempo struct {
	Period float64
	Skew   float64
}

// Interval returns the time between two clock beats.
func (t Tempo) Interval() time.Duration {
	d := time.Duration((t.Period + t.Skew) * float64(time.Second))
	if d < minInterval {
		return minInterval
	}
	return d
}

// Clock emits cleaned beats. Tempo is updated by a single writer and read by
// the clock goroutine on every wake.
type Clock struct {
	out    auditraq.Emitter
	stop   *shutdown.Signal
	now    func() time.Time
	log    log.Logger
	metric *metric.Metric

	state int32
	tempo atomic.Value
	done  chan struct{}

	mu    sync.Mutex
	size  int
	beats []int64
}

// Option configures the clock.
type Option func(*Clock)

// WithNow sets the wall clock source.
func WithNow(now func() time.Time) Option {
	return func(c *Clock) {
		c.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(c *Clock) {
		c.log = l
	}
}

// WithMetric sets the metric for emitted events.
func WithMetric(m *metric.Metric) Option {
	return func(c *Clock) {
		c.metric = m
	}
}

// WithHistorySize sets the number of kept local beats.
func WithHistorySize(size int) Option {
	return func(c *Clock) {
		c.size = size
	}
}

// New returns unarmed clock. Cleaned beats are pushed to out until stop is set.
func New(out auditraq.Emitter, stop *shutdown.Signal, options ...Option) *Clock {
	c := &Clock{
		out:  out,
		stop: stop,
		now:  time.Now,
		log:  log.GetLogger(),
		size: 8,
		done: make(chan struct{}),
	}
	for _, option := range options {
		option(c)
	}
	c.tempo.Store(Tempo{})
	return c
}

// Arm starts the clock with provided tempo. The first beat comes after one
// interval. Clock can be armed only once.
func (c *Clock) Arm(t Tempo) error {
	c.tempo.Store(t)
	if !atomic.CompareAndSwapInt32(&c.state, int32(Unarmed), int32(Armed)) {
		return ErrInvalidState
	}
	first := t.Interval()
	c.log.Debug("clock armed with interval ", first)
	go c.run(first)
	return nil
}

// Update replaces the tempo. It takes effect on the next wake.
func (c *Clock) Update(t Tempo) {
	c.tempo.Store(t)
}

// Tempo returns the current tempo.
func (c *Clock) Tempo() Tempo {
	return c.tempo.Load().(Tempo)
}

// State returns the current state.
func (c *Clock) State() State {
	return State(atomic.LoadInt32(&c.state))
}

// PreviousBeat returns the second to last local beat. It's only available
// when at least three beats were emitted.
func (c *Clock) PreviousBeat() (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.beats) < 3 {
		return 0, false
	}
	return c.beats[len(c.beats)-2], true
}

// Beats returns a copy of kept local beats, oldest first.
func (c *Clock) Beats() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	result := make([]int64, len(c.beats))
	copy(result, c.beats)
	return result
}

// Wait blocks until the armed clock is stopped. Unarmed clock becomes
// stopped right away and cannot be armed after that.
func (c *Clock) Wait() {
	if atomic.CompareAndSwapInt32(&c.state, int32(Unarmed), int32(Stopped)) {
		return
	}
	<-c.done
}

// run wakes after the armed interval first. Later intervals are read from
// the current tempo.
func (c *Clock) run(first time.Duration) {
	defer close(c.done)
	defer atomic.StoreInt32(&c.state, int32(Stopped))

	timer := time.NewTimer(first)
	defer timer.Stop()
	for {
		select {
		case <-c.stop.Done():
			c.log.Debug("clock stopped")
			return
		case <-timer.C:
		}
		// both cases might be ready, stop has priority
		if c.stop.IsSet() {
			c.log.Debug("clock stopped")
			return
		}
		ts := c.now().UnixNano() / int64(time.Millisecond)
		c.push(ts)
		c.out.Push(auditraq.TimestampEvent(auditraq.AddressBeatCleaned, ts))
		c.metric.Event(1)
		c.log.Debug("send osc: ", auditraq.AddressBeatCleaned, " ", ts)
		timer.Reset(c.Tempo().Interval())
	}
}

func (c *Clock) push(ts int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.size < 1 {
		return
	}
	if len(c.beats) == c.size {
		copy(c.beats, c.beats[1:])
		c.beats[len(c.beats)-1] = ts
		return
	}
	c.beats = append(c.beats, ts)
}
