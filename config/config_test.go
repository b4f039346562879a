package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dudk/auditraq/config"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := config.Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, 1024, c.BufferSize)
	assert.Equal(t, 512, c.HopSize())
	assert.Equal(t, 44100, c.SampleRate)
	assert.Equal(t, 4, c.BeatsBufferSize)
	assert.Equal(t, 8, c.RawHistorySize)
	assert.Equal(t, 10, c.BundleSize)
	assert.Equal(t, 0.1, c.SkewGain)
	assert.InDelta(t, 4*512.0/44100.0, c.ExpectedDelay(), 1e-12)
}

func TestValidate(t *testing.T) {
	var tests = []struct {
		name   string
		modify func(*config.Config)
	}{
		{"buffer size", func(c *config.Config) { c.BufferSize = 1 }},
		{"sample rate", func(c *config.Config) { c.SampleRate = 0 }},
		{"channels", func(c *config.Config) { c.Channels = 0 }},
		{"beats buffer", func(c *config.Config) { c.BeatsBufferSize = 1 }},
		{"raw history", func(c *config.Config) { c.RawHistorySize = 0 }},
		{"local history", func(c *config.Config) { c.LocalHistorySize = 2 }},
		{"bundle size", func(c *config.Config) { c.BundleSize = 0 }},
		{"negative gain", func(c *config.Config) { c.SkewGain = -0.1 }},
		{"large gain", func(c *config.Config) { c.SkewGain = 1.5 }},
		{"idle wait", func(c *config.Config) { c.IdleWait = -time.Second }},
		{"mqtt topic", func(c *config.Config) { c.MQTT.Broker = "tcp://localhost:1883"; c.MQTT.Topic = "" }},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c := config.Default()
			test.modify(&c)
			err := c.Validate()
			assert.Equal(t, config.ErrInvalid, errors.Cause(err))
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "auditraq.yaml")
	data := []byte(`
buffer_size: 2048
bundle_size: 4
skew_gain: 0.2
idle_wait: 5ms
mqtt:
  broker: tcp://localhost:1883
`)
	require.NoError(t, os.WriteFile(path, data, 0644))

	c, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2048, c.BufferSize)
	assert.Equal(t, 4, c.BundleSize)
	assert.Equal(t, 0.2, c.SkewGain)
	assert.Equal(t, 5*time.Millisecond, c.IdleWait)
	// untouched values keep defaults
	assert.Equal(t, 44100, c.SampleRate)
	assert.Equal(t, config.DefaultMQTTTopic, c.MQTT.Topic)
	assert.Equal(t, "tcp://localhost:1883", c.MQTT.Broker)
}

func TestLoadErrors(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "invalid.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bundle_size: 0\n"), 0644))
	_, err = config.Load(path)
	assert.Equal(t, config.ErrInvalid, errors.Cause(err))

	path = filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bundle_size: [\n"), 0644))
	_, err = config.Load(path)
	assert.Error(t, err)
}
