// Package test contains helper functions usefull for testing auditraq packages.
package test

import (
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/dudk/auditraq"
	"github.com/dudk/auditraq/signal"
)

// ClickTrack returns a mono signal of sine bursts every interval seconds,
// starting at the first interval. Length of a single burst is in seconds.
func ClickTrack(sampleRate int, seconds, interval, length float64) []float64 {
	n := int(seconds * float64(sampleRate))
	every := int(interval * float64(sampleRate))
	size := int(length * float64(sampleRate))
	signal := make([]float64, n)
	for start := every; start < n; start += every {
		for i := 0; i < size && start+i < n; i++ {
			signal[start+i] = 0.8 * math.Sin(2*math.Pi*440*float64(i)/float64(sampleRate))
		}
	}
	return signal
}

// WriteWav writes channels of float samples into a wav file with provided
// bit depth.
func WriteWav(path string, sampleRate, bitDepth int, channels ...[]float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	numChannels := len(channels)
	data := signal.AsInterInt(auditraq.Frame(channels), signal.BitDepth(bitDepth))
	e := wav.NewEncoder(f, sampleRate, bitDepth, numChannels, 1)
	ib := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: numChannels,
			SampleRate:  sampleRate,
		},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	if err := e.Write(ib); err != nil {
		f.Close()
		return err
	}
	if err := e.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
