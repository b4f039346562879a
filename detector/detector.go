// Package detector finds beats in a mono signal by comparing the energy of
// the analysis window with the average energy of the last second.
package detector

import (
	"github.com/pkg/errors"
)

// Modes supported by the detector. Default is an alias for Energy.
const (
	ModeDefault = "default"
	ModeEnergy  = "energy"
)

// Defaults.
const (
	DefaultSensitivity = 1.4
	DefaultFloor       = 1e-4
	DefaultMinInterval = 0.25
)

// ErrUnknownMode is returned for unsupported detection mode.
var ErrUnknownMode = errors.New("unknown detection mode")

// Detector implements auditraq.TempoDetector. It's not safe for concurrent
// use.
type Detector struct {
	sampleRate  float64
	sensitivity float64
	floor       float64
	minInterval float64

	window []float32
	pos    int

	history []float64
	hpos    int
	hlen    int

	processed int64
	last      float64
	detected  bool
}

// Option configures the detector.
type Option func(*Detector)

// WithSensitivity sets the ratio between window energy and average energy
// required for a beat.
func WithSensitivity(v float64) Option {
	return func(d *Detector) {
		d.sensitivity = v
	}
}

// WithFloor sets the min mean square energy of a beat. Quieter windows are
// treated as silence.
func WithFloor(v float64) Option {
	return func(d *Detector) {
		d.floor = v
	}
}

// WithMinInterval sets the min time between two beats in seconds.
func WithMinInterval(v float64) Option {
	return func(d *Detector) {
		d.minInterval = v
	}
}

// New creates a detector. Energy is measured over bufferSize samples, frames
// are expected to carry hopSize samples.
func New(mode string, bufferSize, hopSize, sampleRate int, options ...Option) (*Detector, error) {
	switch mode {
	case ModeDefault, ModeEnergy:
	default:
		return nil, errors.Wrapf(ErrUnknownMode, "mode %q", mode)
	}
	if bufferSize <= 0 || hopSize <= 0 || hopSize > bufferSize || sampleRate <= 0 {
		return nil, errors.Errorf("invalid detector sizes: buffer %d hop %d rate %d", bufferSize, hopSize, sampleRate)
	}
	historySize := sampleRate / hopSize
	if historySize < 1 {
		historySize = 1
	}
	d := &Detector{
		sampleRate:  float64(sampleRate),
		sensitivity: DefaultSensitivity,
		floor:       DefaultFloor,
		minInterval: DefaultMinInterval,
		window:      make([]float32, bufferSize),
		history:     make([]float64, historySize),
	}
	for _, option := range options {
		option(d)
	}
	return d, nil
}

// Process consumes the next hop of samples and reports whether it contains a
// beat.
func (d *Detector) Process(mono []float32) bool {
	for _, s := range mono {
		d.window[d.pos] = s
		d.pos = (d.pos + 1) % len(d.window)
	}
	d.processed += int64(len(mono))

	energy := d.energy()
	average := d.average()
	hasHistory := d.hlen > 0
	d.record(energy)

	if energy < d.floor {
		return false
	}
	if hasHistory && energy <= d.sensitivity*average {
		return false
	}
	t := float64(d.processed-int64(len(mono))) / d.sampleRate
	if d.detected && t-d.last < d.minInterval {
		return false
	}
	d.detected = true
	d.last = t
	return true
}

// LastBeatSeconds returns the time of the last beat since stream start.
func (d *Detector) LastBeatSeconds() float64 {
	return d.last
}

func (d *Detector) energy() float64 {
	var sum float64
	for _, s := range d.window {
		sum += float64(s) * float64(s)
	}
	return sum / float64(len(d.window))
}

func (d *Detector) average() float64 {
	if d.hlen == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < d.hlen; i++ {
		sum += d.history[i]
	}
	return sum / float64(d.hlen)
}

func (d *Detector) record(energy float64) {
	d.history[d.hpos] = energy
	d.hpos = (d.hpos + 1) % len(d.history)
	if d.hlen < len(d.history) {
		d.hlen++
	}
}
