// Package wav replays wav files as a frame source.
package wav

import (
	"io"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/pkg/errors"

	"github.com/dudk/auditraq"
	"github.com/dudk/auditraq/signal"
)

var (
	// ErrUnsupportedBitDepth is returned when unsupported bit depth is used.
	ErrUnsupportedBitDepth = errors.New("only 16, 24 and 32 bit depth is supported")
	// ErrInvalidFile is returned when file is not a valid wav.
	ErrInvalidFile = errors.New("wav is not valid")
)

// Source reads frames from wav file.
// This component cannot be reused for consequent runs.
type Source struct {
	file     *os.File
	decoder  *wav.Decoder
	ib       *audio.IntBuffer
	hopSize  int
	realtime bool
	next     time.Time

	numChannels int
	sampleRate  int
	bitDepth    signal.BitDepth
}

// Option configures the source.
type Option func(*Source)

// WithRealtime paces frames to the file sample rate, so the wall clock
// timestamps of detected beats follow the recording.
func WithRealtime(v bool) Option {
	return func(s *Source) {
		s.realtime = v
	}
}

// Open opens the file and reads its format. Every frame carries hopSize
// samples per channel.
func Open(path string, hopSize int, options ...Option) (*Source, error) {
	if hopSize <= 0 {
		return nil, errors.Errorf("invalid hop size %d", hopSize)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening wav")
	}

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		file.Close()
		return nil, errors.Wrapf(ErrInvalidFile, "file %v", path)
	}
	if !signal.BitDepth(decoder.BitDepth).Supported() {
		file.Close()
		return nil, ErrUnsupportedBitDepth
	}

	format := decoder.Format()
	s := &Source{
		file:        file,
		decoder:     decoder,
		hopSize:     hopSize,
		numChannels: format.NumChannels,
		sampleRate:  int(decoder.SampleRate),
		bitDepth:    signal.BitDepth(decoder.BitDepth),
		ib: &audio.IntBuffer{
			Format:         format,
			Data:           make([]int, hopSize*format.NumChannels),
			SourceBitDepth: int(decoder.BitDepth),
		},
	}
	for _, option := range options {
		option(s)
	}
	return s, nil
}

// SampleRate of the file.
func (s *Source) SampleRate() int {
	return s.sampleRate
}

// NumChannels of the file.
func (s *Source) NumChannels() int {
	return s.numChannels
}

// Next returns the next frame. The last frame is padded with silence. It
// returns io.EOF when file is over.
func (s *Source) Next() (auditraq.Frame, error) {
	read, err := s.decoder.PCMBuffer(s.ib)
	if err != nil {
		return nil, errors.Wrap(err, "decoding wav")
	}
	if read/s.numChannels == 0 {
		return nil, io.EOF
	}
	s.wait()
	return signal.InterInt{
		Data:        s.ib.Data[:read],
		NumChannels: s.numChannels,
		BitDepth:    s.bitDepth,
	}.Frame(s.hopSize), nil
}

// wait blocks until the frame is due in real time.
func (s *Source) wait() {
	if !s.realtime {
		return
	}
	if s.next.IsZero() {
		s.next = time.Now()
	}
	s.next = s.next.Add(signal.DurationOf(s.sampleRate, int64(s.hopSize)))
	time.Sleep(time.Until(s.next))
}

// Close closes the file.
func (s *Source) Close() error {
	return s.file.Close()
}
