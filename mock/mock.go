// Package mock provides mocks for auditraq components and allows to execute
// integration tests without audio hardware or network.
package mock

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/dudk/auditraq"
)

// ErrClosed is returned by source after it was closed.
var ErrClosed = errors.New("source closed")

// Source mocks auditraq.FrameSource. It returns frames filled with Value.
type Source struct {
	counter
	Interval    time.Duration
	Limit       int
	Value       float64
	NumChannels int
	Size        int
	ErrorOnCall error
	Hooks
}

// Next returns new frame. It returns io.EOF after Limit frames, zero Limit
// means no limit.
func (m *Source) Next() (auditraq.Frame, error) {
	if m.Closed {
		return nil, ErrClosed
	}
	if m.ErrorOnCall != nil {
		return nil, m.ErrorOnCall
	}
	if m.Limit > 0 && m.messages >= m.Limit {
		return nil, io.EOF
	}
	time.Sleep(m.Interval)

	numChannels := m.NumChannels
	if numChannels == 0 {
		numChannels = 1
	}
	f := make(auditraq.Frame, numChannels)
	for i := range f {
		f[i] = make([]float64, m.Size)
		for j := range f[i] {
			f[i][j] = m.Value
		}
	}
	m.advance(m.Size)
	return f, nil
}

// Close implements auditraq.FrameSource.
func (m *Source) Close() error {
	m.Closed = true
	return m.ErrorOnClose
}

// Detector mocks auditraq.TempoDetector. Beats maps frame index to the beat
// time reported for that frame. If Beats is nil, a beat is reported every
// Every frames with time derived from FrameSeconds.
type Detector struct {
	Beats        map[int]float64
	Every        int
	FrameSeconds float64

	frames int
	last   float64
}

// Process implements auditraq.TempoDetector.
func (m *Detector) Process(mono []float32) bool {
	frame := m.frames
	m.frames++
	if m.Beats != nil {
		t, ok := m.Beats[frame]
		if ok {
			m.last = t
		}
		return ok
	}
	if m.Every > 0 && frame%m.Every == 0 {
		m.last = float64(frame) * m.FrameSeconds
		return true
	}
	return false
}

// LastBeatSeconds implements auditraq.TempoDetector.
func (m *Detector) LastBeatSeconds() float64 {
	return m.last
}

// Frames returns number of processed frames.
func (m *Detector) Frames() int {
	return m.frames
}

// Transport mocks auditraq.Transport. It's safe for concurrent use.
type Transport struct {
	mu          sync.Mutex
	bundles     []auditraq.Bundle
	calls       int
	ErrorOnCall error
	Discard     bool
	Hooks
}

// Send records the bundle.
func (m *Transport) Send(b auditraq.Bundle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.ErrorOnCall != nil {
		return m.ErrorOnCall
	}
	if !m.Discard {
		c := make(auditraq.Bundle, len(b))
		copy(c, b)
		m.bundles = append(m.bundles, c)
	}
	return nil
}

// Close implements auditraq.Transport.
func (m *Transport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return m.ErrorOnClose
}

// SetError changes error returned by Send.
func (m *Transport) SetError(err error) {
	m.mu.Lock()
	m.ErrorOnCall = err
	m.mu.Unlock()
}

// Bundles returns all recorded bundles.
func (m *Transport) Bundles() []auditraq.Bundle {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]auditraq.Bundle, len(m.bundles))
	copy(result, m.bundles)
	return result
}

// Events returns all recorded events in order.
func (m *Transport) Events() []auditraq.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []auditraq.Event
	for _, b := range m.bundles {
		result = append(result, b...)
	}
	return result
}

// Calls returns number of Send calls, including failed ones.
func (m *Transport) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// IsClosed reports whether Close was called.
func (m *Transport) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Closed
}

// Hooks allows to mock components hooks.
type Hooks struct {
	Closed       bool
	ErrorOnClose error
}

// counter counts frames and samples.
type counter struct {
	messages int
	samples  int
}

// advance counter's metrics.
func (c *counter) advance(size int) {
	c.messages++
	c.samples = c.samples + size
}

// Count returns frames and samples metrics.
func (c *counter) Count() (int, int) {
	return c.messages, c.samples
}
