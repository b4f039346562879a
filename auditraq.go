package auditraq

import (
	"strconv"

	"github.com/rs/xid"
)

// Addresses of the messages emitted by auditraq.
const (
	AddressBeatRaw     = "/beat/raw"
	AddressBeatCleaned = "/beat/cleaned"
	AddressBPM         = "/bpm"
	AddressNextBeat    = "/next_beat"
	AddressLatency     = "/latency"
)

// Frame is a block of samples where first dimension is for channels.
type Frame [][]float64

// NumChannels returns number of channels in the frame.
func (f Frame) NumChannels() int {
	return len(f)
}

// Size returns number of samples in a single channel.
func (f Frame) Size() int {
	if len(f) == 0 || f[0] == nil {
		return 0
	}
	return len(f[0])
}

// Mono mixes the frame down to a single channel by averaging all channels.
// The result is written into dst, which is grown if it's too short.
func (f Frame) Mono(dst []float32) []float32 {
	size := f.Size()
	if dst == nil || cap(dst) < size {
		dst = make([]float32, size)
	}
	dst = dst[:size]
	if size == 0 {
		return dst
	}
	n := float64(f.NumChannels())
	for i := 0; i < size; i++ {
		var sum float64
		for c := range f {
			sum += f[c][i]
		}
		dst[i] = float32(sum / n)
	}
	return dst
}

// FrameSource is a source of audio frames. Next blocks until the next frame
// is available. Implementations should return io.EOF when no frames left.
type FrameSource interface {
	Next() (Frame, error)
	Close() error
}

// TempoDetector finds beats in a mono signal. Process must be called once per
// frame, in order. LastBeatSeconds is only valid right after Process returned
// true and is measured in seconds since the stream start.
type TempoDetector interface {
	Process(mono []float32) bool
	LastBeatSeconds() float64
}

// Transport delivers bundles of events. Send is fire-and-forget, bundles are
// not retried.
type Transport interface {
	Send(Bundle) error
	Close() error
}

// Emitter accepts outbound events.
type Emitter interface {
	Push(Event)
}

// Event is a single outbound message. Arguments are either string or float64.
type Event struct {
	Address string
	Args    []interface{}
}

// NewEvent creates a new event with provided arguments.
func NewEvent(address string, args ...interface{}) Event {
	a := make([]interface{}, len(args))
	copy(a, args)
	return Event{
		Address: address,
		Args:    a,
	}
}

// TimestampEvent creates an event with a single wall-clock millisecond
// timestamp argument formatted as string.
func TimestampEvent(address string, ms int64) Event {
	return NewEvent(address, strconv.FormatInt(ms, 10))
}

// Bundle is an ordered group of events sent at once.
type Bundle []Event

// NewUID returns new unique id value.
func NewUID() string {
	return xid.New().String()
}
