package wav_test

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dudk/auditraq"
	"github.com/dudk/auditraq/test"
	"github.com/dudk/auditraq/wav"
)

var _ auditraq.FrameSource = (*wav.Source)(nil)

const hopSize = 256

func TestSource(t *testing.T) {
	var tests = []struct {
		bitDepth    int
		numChannels int
		samples     int
		frames      int
	}{
		{bitDepth: 16, numChannels: 1, samples: 1000, frames: 4},
		{bitDepth: 16, numChannels: 2, samples: 512, frames: 2},
		{bitDepth: 32, numChannels: 2, samples: 100, frames: 1},
	}
	for _, tt := range tests {
		channels := make([][]float64, tt.numChannels)
		for c := range channels {
			channels[c] = make([]float64, tt.samples)
			for i := range channels[c] {
				channels[c][i] = 0.5
				if c == 1 {
					channels[c][i] = -0.25
				}
			}
		}
		path := filepath.Join(t.TempDir(), "in.wav")
		require.NoError(t, test.WriteWav(path, 8000, tt.bitDepth, channels...))

		src, err := wav.Open(path, hopSize)
		require.NoError(t, err)
		assert.Equal(t, 8000, src.SampleRate())
		assert.Equal(t, tt.numChannels, src.NumChannels())

		frames, samples := 0, 0
		for {
			f, err := src.Next()
			if err == io.EOF {
				break
			}
			require.NoError(t, err)
			frames++
			assert.Equal(t, tt.numChannels, f.NumChannels())
			assert.Equal(t, hopSize, f.Size())
			for i := 0; i < f.Size() && samples+i < tt.samples; i++ {
				assert.InDelta(t, 0.5, f[0][i], 1e-3)
				if tt.numChannels > 1 {
					assert.InDelta(t, -0.25, f[1][i], 1e-3)
				}
			}
			samples += f.Size()
		}
		assert.Equal(t, tt.frames, frames)
		assert.NoError(t, src.Close())
	}
}

func TestPadding(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.wav")
	signal := make([]float64, 300)
	for i := range signal {
		signal[i] = 1
	}
	require.NoError(t, test.WriteWav(path, 8000, 16, signal))

	src, err := wav.Open(path, hopSize)
	require.NoError(t, err)
	defer src.Close()
	_, err = src.Next()
	require.NoError(t, err)
	f, err := src.Next()
	require.NoError(t, err)
	assert.InDelta(t, 1, f[0][43], 1e-3)
	assert.Equal(t, 0.0, f[0][44])
	assert.Equal(t, 0.0, f[0][hopSize-1])
}

func TestOpenErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := wav.Open(filepath.Join(dir, "missing.wav"), hopSize)
	assert.Error(t, err)

	path := filepath.Join(dir, "invalid.wav")
	require.NoError(t, os.WriteFile(path, []byte("not a wav file"), 0644))
	_, err = wav.Open(path, hopSize)
	assert.Equal(t, wav.ErrInvalidFile, errors.Cause(err))

	_, err = wav.Open(path, 0)
	assert.Error(t, err)
}
