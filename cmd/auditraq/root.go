package main

import (
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/dudk/auditraq/config"
	"github.com/dudk/auditraq/log"
)

// options are flags shared by all commands.
type options struct {
	configPath   string
	debug        bool
	logFile      string
	bufferSize   int
	sampleRate   int
	channels     int
	bundleSize   int
	skewGain     float64
	detectorMode string
	idleWait     time.Duration
	mqttBroker   string
	mqttTopic    string
}

var opts options

// RootCmd runs the session when called with HOST PORT DEVICE.
var RootCmd = &cobra.Command{
	Use:   "auditraq [HOST PORT DEVICE]",
	Short: "Track the beat of live audio and stream it over OSC",
	Long: `auditraq captures audio from an input device, detects beats, estimates
BPM and runs a local beat clock. Raw beats, cleaned beats, BPM and beat
predictions are sent as OSC bundles to HOST:PORT.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 && len(args) != 3 {
			return errors.Errorf("expected HOST PORT DEVICE, got %d arguments", len(args))
		}
		return nil
	},
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		return runCmd.RunE(cmd, args)
	},
}

func init() {
	flags := RootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "path to YAML config file")
	flags.BoolVar(&opts.debug, "debug", false, "enable debug logging")
	flags.StringVar(&opts.logFile, "log-file", "", "write logs to file instead of stderr")
	flags.IntVar(&opts.bufferSize, "buffer-size", config.DefaultBufferSize, "detector analysis window in samples")
	flags.IntVar(&opts.sampleRate, "sample-rate", config.DefaultSampleRate, "capture sample rate")
	flags.IntVar(&opts.channels, "channels", config.DefaultChannels, "number of captured channels")
	flags.IntVar(&opts.bundleSize, "bundle-size", config.DefaultBundleSize, "max number of messages in a bundle")
	flags.Float64Var(&opts.skewGain, "skew-gain", config.DefaultSkewGain, "clock skew correction gain")
	flags.StringVar(&opts.detectorMode, "detector", config.DefaultDetectorMode, "beat detection mode")
	flags.DurationVar(&opts.idleWait, "idle-wait", config.DefaultIdleWait, "dispatcher pause when there is nothing to send")
	flags.StringVar(&opts.mqttBroker, "mqtt-broker", "", "mirror events to MQTT broker, e.g. tcp://localhost:1883")
	flags.StringVar(&opts.mqttTopic, "mqtt-topic", config.DefaultMQTTTopic, "MQTT topic for mirrored events")
}

// load reads config file if provided and applies flags that were set
// explicitly on top of it.
func (o options) load(changed func(string) bool) (config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return cfg, err
		}
	}
	if changed("buffer-size") {
		cfg.BufferSize = o.bufferSize
	}
	if changed("sample-rate") {
		cfg.SampleRate = o.sampleRate
	}
	if changed("channels") {
		cfg.Channels = o.channels
	}
	if changed("bundle-size") {
		cfg.BundleSize = o.bundleSize
	}
	if changed("skew-gain") {
		cfg.SkewGain = o.skewGain
	}
	if changed("detector") {
		cfg.DetectorMode = o.detectorMode
	}
	if changed("idle-wait") {
		cfg.IdleWait = o.idleWait
	}
	if changed("mqtt-broker") {
		cfg.MQTT.Broker = o.mqttBroker
	}
	if changed("mqtt-topic") {
		cfg.MQTT.Topic = o.mqttTopic
	}
	return cfg, cfg.Validate()
}

// setup configures logging and returns the config. Returned function
// releases the log file.
func setup(cmd *cobra.Command) (config.Config, func(), error) {
	release := func() {}
	if opts.debug {
		log.SetDebug(true)
	}
	if opts.logFile != "" {
		f, err := os.OpenFile(opts.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return config.Config{}, release, errors.Wrap(err, "opening log file")
		}
		log.SetOutput(f)
		release = func() {
			log.SetOutput(nil)
			f.Close()
		}
	}
	cfg, err := opts.load(cmd.Flags().Changed)
	if err != nil {
		release()
		return cfg, func() {}, errors.Wrap(err, "loading config")
	}
	return cfg, release, nil
}

// parsePort parses UDP port number.
func parsePort(s string) (int, error) {
	port, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid port %q", s)
	}
	if port <= 0 || port > 65535 {
		return 0, errors.Errorf("port %d is out of range", port)
	}
	return port, nil
}
