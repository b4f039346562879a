// Package config holds the recognized options of auditraq.
package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultBufferSize       = 1024
	DefaultSampleRate       = 44100
	DefaultChannels         = 1
	DefaultBeatsBufferSize  = 4
	DefaultRawHistorySize   = 8
	DefaultLocalHistorySize = 8
	DefaultBundleSize       = 10
	DefaultSkewGain         = 0.1
	DefaultDetectorMode     = "default"
	DefaultIdleWait         = time.Millisecond
	DefaultStopTimeout      = 5 * time.Second
	DefaultMQTTTopic        = "auditraq/events"
	DefaultMQTTClientID     = "auditraq"
)

// ErrInvalid is returned when configuration doesn't pass validation.
var ErrInvalid = errors.New("invalid configuration")

// Config contains all options of a session.
type Config struct {
	// BufferSize is the detector analysis window in samples. Frames are
	// captured with half of it (hop size).
	BufferSize int `yaml:"buffer_size"`
	SampleRate int `yaml:"sample_rate"`
	// Channels is the number of captured channels, they're mixed to mono.
	Channels int `yaml:"channels"`
	// BeatsBufferSize is the number of beat intervals used for BPM.
	BeatsBufferSize int `yaml:"beats_buffer_size"`
	// RawHistorySize is the number of raw beats used for skew estimation.
	RawHistorySize int `yaml:"raw_history_size"`
	// LocalHistorySize is the number of cleaned beats kept by the clock.
	LocalHistorySize int     `yaml:"local_history_size"`
	BundleSize       int     `yaml:"bundle_size"`
	SkewGain         float64 `yaml:"skew_gain"`
	DetectorMode     string  `yaml:"detector_mode"`
	// IdleWait is how long dispatcher sleeps after an empty pull. Zero means
	// busy polling.
	IdleWait    time.Duration `yaml:"idle_wait"`
	StopTimeout time.Duration `yaml:"stop_timeout"`
	MQTT        MQTT          `yaml:"mqtt"`
}

// MQTT configures the optional mirror transport. Empty broker disables it.
type MQTT struct {
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id"`
}

// Default returns configuration with default values.
func Default() Config {
	return Config{
		BufferSize:       DefaultBufferSize,
		SampleRate:       DefaultSampleRate,
		Channels:         DefaultChannels,
		BeatsBufferSize:  DefaultBeatsBufferSize,
		RawHistorySize:   DefaultRawHistorySize,
		LocalHistorySize: DefaultLocalHistorySize,
		BundleSize:       DefaultBundleSize,
		SkewGain:         DefaultSkewGain,
		DetectorMode:     DefaultDetectorMode,
		IdleWait:         DefaultIdleWait,
		StopTimeout:      DefaultStopTimeout,
		MQTT: MQTT{
			Topic:    DefaultMQTTTopic,
			ClientID: DefaultMQTTClientID,
		},
	}
}

// Load reads YAML file on top of default values and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "reading config file")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(err, "parsing config")
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	if c.BufferSize < 2 {
		return errors.Wrapf(ErrInvalid, "buffer_size must be at least 2, got %d", c.BufferSize)
	}
	if c.SampleRate <= 0 {
		return errors.Wrapf(ErrInvalid, "sample_rate must be > 0, got %d", c.SampleRate)
	}
	if c.Channels <= 0 {
		return errors.Wrapf(ErrInvalid, "channels must be > 0, got %d", c.Channels)
	}
	if c.BeatsBufferSize < 2 {
		return errors.Wrapf(ErrInvalid, "beats_buffer_size must be at least 2, got %d", c.BeatsBufferSize)
	}
	if c.RawHistorySize <= 0 {
		return errors.Wrapf(ErrInvalid, "raw_history_size must be > 0, got %d", c.RawHistorySize)
	}
	// skew needs second to last local beat out of at least three
	if c.LocalHistorySize < 3 {
		return errors.Wrapf(ErrInvalid, "local_history_size must be at least 3, got %d", c.LocalHistorySize)
	}
	if c.BundleSize <= 0 {
		return errors.Wrapf(ErrInvalid, "bundle_size must be > 0, got %d", c.BundleSize)
	}
	if c.SkewGain < 0 || c.SkewGain > 1 {
		return errors.Wrapf(ErrInvalid, "skew_gain must be in [0, 1], got %v", c.SkewGain)
	}
	if c.IdleWait < 0 {
		return errors.Wrapf(ErrInvalid, "idle_wait must not be negative, got %v", c.IdleWait)
	}
	if c.MQTT.Broker != "" && c.MQTT.Topic == "" {
		return errors.Wrap(ErrInvalid, "mqtt.topic is required when mqtt.broker is set")
	}
	return nil
}

// HopSize returns number of samples in a single captured frame.
func (c Config) HopSize() int {
	return c.BufferSize / 2
}

// ExpectedDelay returns the detector delay in seconds. Detector needs four
// hops to catch up with the signal.
func (c Config) ExpectedDelay() float64 {
	return 4 * float64(c.HopSize()) / float64(c.SampleRate)
}
