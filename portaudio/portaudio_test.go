// +build portaudio

package portaudio_test

import (
	"testing"

	pa "github.com/gordonklaus/portaudio"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dudk/auditraq"
	"github.com/dudk/auditraq/portaudio"
)

var _ auditraq.FrameSource = (*portaudio.Source)(nil)

func TestFindDevice(t *testing.T) {
	infos := []*pa.DeviceInfo{
		{Index: 0, Name: "Built-in Output", MaxOutputChannels: 2},
		{Index: 1, Name: "Built-in Microphone", MaxInputChannels: 1},
		{Index: 2, Name: "USB Audio CODEC", MaxInputChannels: 2},
	}
	var tests = []struct {
		name     string
		expected int
		err      bool
	}{
		{name: "1", expected: 1},
		{name: "2", expected: 2},
		{name: "0", err: true},
		{name: "Built-in Microphone", expected: 1},
		{name: "usb", expected: 2},
		{name: "built-in", expected: 1},
		{name: "Speakers", err: true},
	}
	for _, test := range tests {
		info, err := portaudio.FindDevice(infos, test.name)
		if test.err {
			assert.Equal(t, portaudio.ErrDeviceNotFound, errors.Cause(err), test.name)
			continue
		}
		require.NoError(t, err, test.name)
		assert.Equal(t, test.expected, info.Index, test.name)
	}
}

func TestSource(t *testing.T) {
	devices, err := portaudio.Devices()
	require.NoError(t, err)
	if len(devices) == 0 {
		t.Skip("no input devices")
	}
	src, err := portaudio.Open(portaudio.DefaultDevice, 44100, 512, 1)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		f, err := src.Next()
		require.NoError(t, err)
		assert.Equal(t, 1, f.NumChannels())
		assert.Equal(t, 512, f.Size())
	}
	assert.NoError(t, src.Close())
	assert.NoError(t, src.Close())
}
