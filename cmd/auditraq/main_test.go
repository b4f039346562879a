package main

import (
	"bytes"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dudk/auditraq"
	"github.com/dudk/auditraq/config"
	"github.com/dudk/auditraq/metric"
	"github.com/dudk/auditraq/osc"
	"github.com/dudk/auditraq/portaudio"
	"github.com/dudk/auditraq/test"
	"github.com/dudk/auditraq/wav"
)

func TestParsePort(t *testing.T) {
	var tests = []struct {
		in       string
		expected int
		err      bool
	}{
		{in: "9000", expected: 9000},
		{in: "1", expected: 1},
		{in: "65535", expected: 65535},
		{in: "0", err: true},
		{in: "65536", err: true},
		{in: "-1", err: true},
		{in: "osc", err: true},
	}
	for _, test := range tests {
		port, err := parsePort(test.in)
		if test.err {
			assert.Error(t, err, test.in)
			continue
		}
		assert.NoError(t, err, test.in)
		assert.Equal(t, test.expected, port)
	}
}

func TestLoadOptions(t *testing.T) {
	o := options{
		bufferSize: 2048,
		bundleSize: 3,
		mqttBroker: "tcp://localhost:1883",
		mqttTopic:  config.DefaultMQTTTopic,
		idleWait:   time.Millisecond,
	}
	changed := func(names ...string) func(string) bool {
		return func(name string) bool {
			for _, n := range names {
				if n == name {
					return true
				}
			}
			return false
		}
	}

	// only changed flags override defaults
	cfg, err := o.load(changed("buffer-size", "mqtt-broker"))
	require.NoError(t, err)
	assert.Equal(t, 2048, cfg.BufferSize)
	assert.Equal(t, config.DefaultBundleSize, cfg.BundleSize)
	assert.Equal(t, "tcp://localhost:1883", cfg.MQTT.Broker)

	// flags override config file
	path := filepath.Join(t.TempDir(), "auditraq.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bundle_size: 5\nsample_rate: 48000\n"), 0644))
	o.configPath = path
	cfg, err = o.load(changed("bundle-size"))
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.BundleSize)
	assert.Equal(t, 48000, cfg.SampleRate)

	o.bundleSize = 0
	_, err = o.load(changed("bundle-size"))
	assert.Equal(t, config.ErrInvalid, errors.Cause(err))
}

func TestPrintDevices(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printDevices(&buf, []portaudio.Device{
		{Index: 1, Name: "Built-in Microphone", HostAPI: "Core Audio", MaxInputChannels: 1, DefaultSampleRate: 44100},
	}))
	out := buf.String()
	assert.Contains(t, out, "INDEX")
	assert.Contains(t, out, "Built-in Microphone")
	assert.Contains(t, out, "44100")
}

func TestReplay(t *testing.T) {
	const sampleRate = 8000
	path := filepath.Join(t.TempDir(), "click.wav")
	require.NoError(t, test.WriteWav(path, sampleRate, 16, test.ClickTrack(sampleRate, 4, 0.5, 0.05)))

	laddr, err := net.ResolveUDPAddr("udp", "127.0.0.1:0")
	require.NoError(t, err)
	server, err := net.ListenUDP("udp", laddr)
	require.NoError(t, err)
	defer server.Close()

	cfg := config.Default()
	cfg.BufferSize = 500
	src, err := wav.Open(path, cfg.HopSize())
	require.NoError(t, err)
	transport, err := osc.Dial("127.0.0.1", server.LocalAddr().(*net.UDPAddr).Port)
	require.NoError(t, err)

	id := auditraq.NewUID()
	require.NoError(t, runSession(cfg, id, src, src.SampleRate(), transport))

	var received bytes.Buffer
	buf := make([]byte, 4096)
	require.NoError(t, server.SetReadDeadline(time.Now().Add(time.Second)))
	for {
		n, _, err := server.ReadFromUDP(buf)
		if err != nil {
			break
		}
		received.Write(buf[:n])
	}
	assert.Contains(t, received.String(), auditraq.AddressBeatRaw)
	assert.Contains(t, received.String(), auditraq.AddressBPM)
	assert.Contains(t, received.String(), auditraq.AddressNextBeat)

	counters := sessionMetrics(id)
	assert.Len(t, counters, 3)
	assert.NotEqual(t, "0", counters["engine"][metric.BeatCounter])
	assert.NotEqual(t, "0", counters["dispatcher"][metric.BundleCounter])
	assert.Empty(t, sessionMetrics("unknown"))
}
