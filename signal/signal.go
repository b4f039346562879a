// Package signal converts interleaved device and file samples into frames
// and back.
package signal

import (
	"time"

	"github.com/dudk/auditraq"
)

const (
	// BitDepth16 is 16 bit depth.
	BitDepth16 = BitDepth(16)
	// BitDepth24 is 24 bit depth.
	BitDepth24 = BitDepth(24)
	// BitDepth32 is 32 bit depth.
	BitDepth32 = BitDepth(32)
)

// BitDepth contains values required for int-to-float and backward conversion.
type BitDepth int

// Supported reports whether bit depth can be converted.
func (bitDepth BitDepth) Supported() bool {
	switch bitDepth {
	case BitDepth16, BitDepth24, BitDepth32:
		return true
	}
	return false
}

// devider is used when int to float conversion is done.
func (bitDepth BitDepth) devider() float64 {
	if !bitDepth.Supported() {
		return 1
	}
	return float64(int64(1) << uint(bitDepth-1))
}

// multiplier is used when float to int conversion is done.
func (bitDepth BitDepth) multiplier() float64 {
	if !bitDepth.Supported() {
		return 1
	}
	return float64(int64(1)<<uint(bitDepth-1)) - 1
}

// DurationOf returns time duration of passed samples for this sample rate.
func DurationOf(sampleRate int, samples int64) time.Duration {
	return time.Duration(float64(samples) / float64(sampleRate) * float64(time.Second))
}

// InterInt is an interleaved int signal.
type InterInt struct {
	Data        []int
	NumChannels int
	BitDepth
}

// Frame converts interleaved ints to a frame of provided size. Missing
// samples are zero, extra samples are ignored.
func (ints InterInt) Frame(size int) auditraq.Frame {
	if ints.NumChannels == 0 {
		return nil
	}
	f := EmptyFrame(ints.NumChannels, size)
	devider := ints.BitDepth.devider()
	for i := 0; i < len(ints.Data) && i/ints.NumChannels < size; i++ {
		f[i%ints.NumChannels][i/ints.NumChannels] = float64(ints.Data[i]) / devider
	}
	return f
}

// InterFloat32 is an interleaved float32 signal.
type InterFloat32 struct {
	Data        []float32
	NumChannels int
}

// Frame converts interleaved floats to a frame.
func (floats InterFloat32) Frame() auditraq.Frame {
	if floats.NumChannels == 0 {
		return nil
	}
	size := (len(floats.Data) + floats.NumChannels - 1) / floats.NumChannels
	f := EmptyFrame(floats.NumChannels, size)
	for i, v := range floats.Data {
		f[i%floats.NumChannels][i/floats.NumChannels] = float64(v)
	}
	return f
}

// AsInterInt converts frame to interleaved ints. Shorter channels are
// padded with zeros.
func AsInterInt(f auditraq.Frame, bitDepth BitDepth) []int {
	numChannels := f.NumChannels()
	if numChannels == 0 {
		return nil
	}
	multiplier := bitDepth.multiplier()
	ints := make([]int, f.Size()*numChannels)
	for c := range f {
		for i := range f[c] {
			if i >= f.Size() {
				break
			}
			ints[i*numChannels+c] = int(f[c][i] * multiplier)
		}
	}
	return ints
}

// EmptyFrame returns a silent frame of specified dimentions.
func EmptyFrame(numChannels, size int) auditraq.Frame {
	result := make(auditraq.Frame, numChannels)
	for i := range result {
		result[i] = make([]float64, size)
	}
	return result
}
