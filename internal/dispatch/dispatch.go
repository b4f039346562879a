// Package dispatch drains the event queue into transport bundles.
package dispatch

import (
	"time"

	"github.com/dudk/auditraq"
	"github.com/dudk/auditraq/config"
	"github.com/dudk/auditraq/internal/shutdown"
	"github.com/dudk/auditraq/log"
	"github.com/dudk/auditraq/metric"
)

// Source of events. TryPull must not block.
type Source interface {
	TryPull(max int) []auditraq.Event
}

// Dispatcher sends events in bundles until the stop signal is set.
type Dispatcher struct {
	src       Source
	transport auditraq.Transport
	stop      *shutdown.Signal
	log       log.Logger
	metric    *metric.Metric

	bundleSize int
	idleWait   time.Duration
}

// Option configures the dispatcher.
type Option func(*Dispatcher)

// WithBundleSize sets the max number of events in a single bundle.
func WithBundleSize(n int) Option {
	return func(d *Dispatcher) {
		d.bundleSize = n
	}
}

// WithIdleWait sets the pause after an empty pull. Zero means busy polling.
func WithIdleWait(wait time.Duration) Option {
	return func(d *Dispatcher) {
		d.idleWait = wait
	}
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(d *Dispatcher) {
		d.log = l
	}
}

// WithMetric sets the metric for bundles and send errors.
func WithMetric(m *metric.Metric) Option {
	return func(d *Dispatcher) {
		d.metric = m
	}
}

// New returns a dispatcher with default bundle size and idle wait.
func New(src Source, transport auditraq.Transport, stop *shutdown.Signal, options ...Option) *Dispatcher {
	d := &Dispatcher{
		src:        src,
		transport:  transport,
		stop:       stop,
		log:        log.GetLogger(),
		bundleSize: config.DefaultBundleSize,
		idleWait:   config.DefaultIdleWait,
	}
	for _, option := range options {
		option(d)
	}
	if d.bundleSize <= 0 {
		d.bundleSize = config.DefaultBundleSize
	}
	return d
}

// Cycle pulls up to bundle size events and sends them as one bundle. It
// returns the number of sent events. Nothing is sent if queue is empty.
func (d *Dispatcher) Cycle() (int, error) {
	events := d.src.TryPull(d.bundleSize)
	if len(events) == 0 {
		return 0, nil
	}
	if err := d.transport.Send(auditraq.Bundle(events)); err != nil {
		d.metric.SendError()
		return 0, err
	}
	d.metric.Bundle()
	return len(events), nil
}

// Run executes cycles until stop is set, then drains the source. Failed
// bundles are dropped.
func (d *Dispatcher) Run() error {
	var timer *time.Timer
	if d.idleWait > 0 {
		timer = time.NewTimer(d.idleWait)
		defer timer.Stop()
	}
	for !d.stop.IsSet() {
		n, err := d.Cycle()
		if err != nil {
			d.log.Warn("send bundle: ", err)
			continue
		}
		if n > 0 || timer == nil {
			continue
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(d.idleWait)
		select {
		case <-d.stop.Done():
		case <-timer.C:
		}
	}
	d.drain()
	d.log.Debug("dispatcher stopped")
	return nil
}

// drain sends events pushed before the stop signal. Producers are stopped
// by the same signal, so the queue can't grow forever.
func (d *Dispatcher) drain() {
	for {
		n, err := d.Cycle()
		if err != nil {
			d.log.Warn("send bundle: ", err)
			continue
		}
		if n == 0 {
			return
		}
	}
}
