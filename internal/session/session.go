// Package session wires capture, engine, clock and dispatcher into a single
// unit with a shared stop signal.
package session

import (
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/dudk/auditraq"
	"github.com/dudk/auditraq/config"
	"github.com/dudk/auditraq/internal/clock"
	"github.com/dudk/auditraq/internal/dispatch"
	"github.com/dudk/auditraq/internal/engine"
	"github.com/dudk/auditraq/internal/queue"
	"github.com/dudk/auditraq/internal/shutdown"
	"github.com/dudk/auditraq/log"
	"github.com/dudk/auditraq/metric"
)

// ErrAlreadyStarted is returned when session is started more than once.
var ErrAlreadyStarted = errors.New("session already started")

// Session owns all units of a single run. It cannot be restarted.
type Session struct {
	id        string
	cfg       config.Config
	source    auditraq.FrameSource
	transport auditraq.Transport
	log       log.Logger
	now       func() time.Time

	queue      *queue.Queue
	stop       *shutdown.Signal
	clock      *clock.Clock
	engine     *engine.Engine
	dispatcher *dispatch.Dispatcher

	started     int32
	sourceOnce  sync.Once
	sourceErr   error
	done        chan struct{}
	err         error
	latencyMean float64
	latencyMed  float64
	latencyN    int
}

// Option configures the session.
type Option func(*Session)

// WithLogger sets the logger of all units.
func WithLogger(l log.Logger) Option {
	return func(s *Session) {
		s.log = l
	}
}

// WithID overrides the generated session id.
func WithID(id string) Option {
	return func(s *Session) {
		s.id = id
	}
}

// WithNow sets the wall clock source of engine and clock.
func WithNow(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// New creates a session. Source and transport are owned by the session and
// closed when it's done.
func New(cfg config.Config, source auditraq.FrameSource, detector auditraq.TempoDetector, transport auditraq.Transport, options ...Option) *Session {
	s := &Session{
		id:        auditraq.NewUID(),
		cfg:       cfg,
		source:    source,
		transport: transport,
		now:       time.Now,
		queue:     queue.New(),
		stop:      shutdown.New(),
		done:      make(chan struct{}),
	}
	for _, option := range options {
		option(s)
	}
	if s.log == nil {
		s.log = log.Component("session").WithField("session", s.id)
	}

	s.clock = clock.New(s.queue, s.stop,
		clock.WithNow(s.now),
		clock.WithLogger(s.log),
		clock.WithMetric(metric.Meter(s.id+".clock")),
		clock.WithHistorySize(cfg.LocalHistorySize),
	)
	s.engine = engine.New(cfg, detector, s.queue, s.clock,
		engine.WithNow(s.now),
		engine.WithLogger(s.log),
		engine.WithMetric(metric.Meter(s.id+".engine")),
	)
	s.dispatcher = dispatch.New(s.queue, transport, s.stop,
		dispatch.WithBundleSize(cfg.BundleSize),
		dispatch.WithIdleWait(cfg.IdleWait),
		dispatch.WithLogger(s.log),
		dispatch.WithMetric(metric.Meter(s.id+".dispatcher")),
	)
	return s
}

// ID returns unique session id.
func (s *Session) ID() string {
	return s.id
}

// Start runs engine and dispatcher in background. Clock is started by the
// engine with the first BPM. Invalid configuration is rejected and the
// session can still be stopped to release resources.
func (s *Session) Start() error {
	if err := s.cfg.Validate(); err != nil {
		return err
	}
	if !atomic.CompareAndSwapInt32(&s.started, 0, 1) {
		return ErrAlreadyStarted
	}
	s.log.Info("session started")
	var g errgroup.Group
	g.Go(func() error {
		return s.engine.Run(s.source, s.stop)
	})
	g.Go(s.dispatcher.Run)
	go s.wait(&g)
	return nil
}

func (s *Session) wait(g *errgroup.Group) {
	defer close(s.done)

	err := g.Wait()
	s.stop.Set()
	s.clock.Wait()
	if errors.Cause(err) == io.EOF {
		s.log.Info("end of stream")
		err = nil
	}

	var errs auditraq.Errors
	if cerr := s.closeSource(); cerr != nil {
		errs = append(errs, errors.Wrap(cerr, "closing source"))
	}
	if cerr := s.transport.Close(); cerr != nil {
		errs = append(errs, errors.Wrap(cerr, "closing transport"))
	}

	s.latencyMean, s.latencyMed, s.latencyN = s.engine.LatencySummary()
	s.log.Info("mean latency: ", s.latencyMean, " ms, median latency: ", s.latencyMed, " ms, samples: ", s.latencyN)

	if err != nil || len(errs) > 0 {
		s.err = &auditraq.RunError{
			ErrRun:   err,
			ErrClose: errs.Ret(),
		}
		s.log.Error("session failed: ", s.err)
		return
	}
	s.log.Info("session stopped")
}

func (s *Session) closeSource() error {
	s.sourceOnce.Do(func() {
		s.sourceErr = s.source.Close()
	})
	return s.sourceErr
}

// Stop sets the stop signal and waits for all units. If units don't stop
// within the timeout, the source is closed to release a blocked read. This
// is best-effort: a source may not support Close during a pending Next.
func (s *Session) Stop() error {
	s.stop.Set()
	if atomic.CompareAndSwapInt32(&s.started, 0, 1) {
		// never started, only resources to release
		go s.wait(new(errgroup.Group))
	}
	timeout := s.cfg.StopTimeout
	if timeout <= 0 {
		timeout = config.DefaultStopTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-s.done:
	case <-timer.C:
		s.log.Warn("units didn't stop in ", timeout, ", closing source")
		s.closeSource()
	}
	return s.Wait()
}

// Wait blocks until session is done and returns its error.
func (s *Session) Wait() error {
	<-s.done
	return s.err
}

// Done returns a channel that's closed when all units are stopped and
// resources are closed.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// LatencySummary returns mean and median latency per beat in ms and the
// number of samples. It's only valid after session is done.
func (s *Session) LatencySummary() (mean, med float64, n int) {
	<-s.done
	return s.latencyMean, s.latencyMed, s.latencyN
}
