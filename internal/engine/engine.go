// Package engine turns detected beats into BPM, clock skew and beat
// predictions.
package engine

import (
	"strconv"
	"time"

	"github.com/dudk/auditraq"
	"github.com/dudk/auditraq/config"
	"github.com/dudk/auditraq/internal/clock"
	"github.com/dudk/auditraq/internal/shutdown"
	"github.com/dudk/auditraq/log"
	"github.com/dudk/auditraq/metric"
	"github.com/pkg/errors"
)

// defaultPeriod is used until the first BPM is known.
const defaultPeriod = 0.5

// Clock is the local beat clock driven by the engine.
type Clock interface {
	Arm(clock.Tempo) error
	Update(clock.Tempo)
	PreviousBeat() (int64, bool)
}

// Prediction of the next beat in wall-clock milliseconds.
type Prediction struct {
	NextBeatAt      int64
	LastPeriodStart int64
}

// Engine owns all beat history. It's not safe for concurrent use: frames
// must come from a single goroutine.
type Engine struct {
	detector auditraq.TempoDetector
	out      auditraq.Emitter
	clock    Clock
	now      func() time.Time
	log      log.Logger
	metric   *metric.Metric

	beatsBufferSize int
	rawHistorySize  int
	skewGain        float64
	expectedDelay   float64

	mono       []float32
	window     []float64
	history    []int64
	bpm        float64
	period     float64
	skew       float64
	armed      bool
	prediction Prediction
	latencies  []int64
}

// Option configures the engine.
type Option func(*Engine)

// WithNow sets the wall clock source.
func WithNow(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// WithMetric sets the metric for beats and emitted events.
func WithMetric(m *metric.Metric) Option {
	return func(e *Engine) {
		e.metric = m
	}
}

// New creates a new engine. Events are pushed to out, clock is armed with the
// first BPM estimate.
func New(cfg config.Config, detector auditraq.TempoDetector, out auditraq.Emitter, c Clock, options ...Option) *Engine {
	e := &Engine{
		detector:        detector,
		out:             out,
		clock:           c,
		now:             time.Now,
		log:             log.GetLogger(),
		beatsBufferSize: cfg.BeatsBufferSize,
		rawHistorySize:  cfg.RawHistorySize,
		skewGain:        cfg.SkewGain,
		expectedDelay:   cfg.ExpectedDelay(),
		period:          defaultPeriod,
		window:          make([]float64, 0, cfg.BeatsBufferSize+1),
		history:         make([]int64, 0, cfg.RawHistorySize),
	}
	for _, option := range options {
		option(e)
	}
	return e
}

// Run reads frames until stop is set or source fails. Source failure sets
// stop, so other units don't outlive the capture.
func (e *Engine) Run(src auditraq.FrameSource, stop *shutdown.Signal) error {
	for !stop.IsSet() {
		frame, err := src.Next()
		if err != nil {
			if stop.IsSet() {
				return nil
			}
			stop.Set()
			return errors.Wrap(err, "reading frame")
		}
		e.OnFrame(frame)
	}
	e.log.Debug("engine stopped")
	return nil
}

// OnFrame processes a single frame.
func (e *Engine) OnFrame(frame auditraq.Frame) {
	e.mono = frame.Mono(e.mono)
	if !e.detector.Process(e.mono) {
		return
	}
	e.beat(toMillis(e.now()), e.detector.LastBeatSeconds())
}

func (e *Engine) beat(now int64, beatTime float64) {
	e.metric.Beat()
	e.emit(auditraq.TimestampEvent(auditraq.AddressBeatRaw, now))

	e.window = append(e.window, beatTime)
	e.history = append(e.history, now)
	if len(e.history) > e.rawHistorySize {
		e.history = shiftInt64(e.history)
	}

	e.skew = 0
	if local, ok := e.clock.PreviousBeat(); ok {
		e.skew = Skew(local, e.history, e.period, e.skewGain)
	}

	if len(e.window) > e.beatsBufferSize {
		e.updateBPM(now)
	}
	if e.armed {
		e.clock.Update(e.Tempo())
	}
}

func (e *Engine) updateBPM(now int64) {
	bpm, err := BPM(e.window)
	e.window = shiftFloat64(e.window)
	if err != nil {
		e.log.Debug("skip bpm: ", err)
		return
	}
	e.bpm = bpm
	e.period = 60 / bpm
	e.emit(auditraq.NewEvent(auditraq.AddressBPM, bpm))

	if !e.armed {
		e.armed = true
		e.prediction = Prediction{
			NextBeatAt:      now,
			LastPeriodStart: now,
		}
		if err := e.clock.Arm(e.Tempo()); err != nil {
			e.log.Warn("arm clock: ", err)
		}
	}
	e.predict(now)
}

// predict moves prediction four beats ahead once the previous one is due.
func (e *Engine) predict(now int64) {
	if e.prediction.NextBeatAt > now {
		return
	}
	previous := e.prediction.NextBeatAt
	offset := e.period * 4000
	e.prediction = Prediction{
		NextBeatAt:      int64(float64(now) + offset),
		LastPeriodStart: now,
	}
	latency := now - previous
	e.latencies = append(e.latencies, latency)
	e.metric.Latency(latency)

	e.emit(auditraq.TimestampEvent(auditraq.AddressNextBeat, e.prediction.NextBeatAt))
	e.emit(auditraq.NewEvent(auditraq.AddressLatency, formatLatency(latency, e.expectedDelay)))
}

func (e *Engine) emit(event auditraq.Event) {
	e.out.Push(event)
	e.metric.Event(1)
	e.log.Debug("send osc: ", event.Address, " ", event.Args)
}

// Tempo returns the current period and skew snapshot.
func (e *Engine) Tempo() clock.Tempo {
	return clock.Tempo{
		Period: e.period,
		Skew:   e.skew,
	}
}

// BPM returns the latest BPM estimate. It's zero until enough beats detected.
func (e *Engine) BPM() float64 {
	return e.bpm
}

// Armed reports whether the clock was armed.
func (e *Engine) Armed() bool {
	return e.armed
}

// Prediction returns the current prediction.
func (e *Engine) Prediction() Prediction {
	return e.prediction
}

// Window returns a copy of detector beat times used for BPM.
func (e *Engine) Window() []float64 {
	result := make([]float64, len(e.window))
	copy(result, e.window)
	return result
}

// History returns a copy of raw wall-clock beats used for skew.
func (e *Engine) History() []int64 {
	result := make([]int64, len(e.history))
	copy(result, e.history)
	return result
}

// Latencies returns a copy of all latency samples in ms.
func (e *Engine) Latencies() []int64 {
	result := make([]int64, len(e.latencies))
	copy(result, e.latencies)
	return result
}

// LatencySummary returns mean and median latency per beat in ms and the
// number of samples.
func (e *Engine) LatencySummary() (mean, med float64, n int) {
	n = len(e.latencies)
	if n == 0 {
		return 0, 0, 0
	}
	values := make([]float64, n)
	var sum float64
	for i, l := range e.latencies {
		values[i] = float64(l)
		sum += values[i]
	}
	// predictions are four beats apart
	return sum / float64(n) / 4, median(values) / 4, n
}

func formatLatency(latency int64, expected float64) string {
	return strconv.FormatInt(latency, 10) + " " + strconv.FormatFloat(float64(latency)-expected, 'f', -1, 64)
}

func toMillis(t time.Time) int64 {
	return t.UnixNano() / int64(time.Millisecond)
}

func shiftFloat64(s []float64) []float64 {
	copy(s, s[1:])
	return s[:len(s)-1]
}

func shiftInt64(s []int64) []int64 {
	copy(s, s[1:])
	return s[:len(s)-1]
}
