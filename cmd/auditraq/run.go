package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/dudk/auditraq"
	"github.com/dudk/auditraq/config"
	"github.com/dudk/auditraq/detector"
	"github.com/dudk/auditraq/internal/session"
	"github.com/dudk/auditraq/log"
	"github.com/dudk/auditraq/metric"
	"github.com/dudk/auditraq/mqtt"
	"github.com/dudk/auditraq/osc"
	"github.com/dudk/auditraq/portaudio"
)

// runCmd captures audio from the device.
var runCmd = &cobra.Command{
	Use:   "run HOST PORT DEVICE",
	Short: "Capture audio from DEVICE and send beat events to HOST:PORT",
	Long: `Capture audio from DEVICE and send beat events to HOST:PORT.
DEVICE is either device index, its name or "default". Use the devices command
to list available devices.`,
	Args:         cobra.ExactArgs(3),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, release, err := setup(cmd)
		if err != nil {
			return err
		}
		defer release()
		port, err := parsePort(args[1])
		if err != nil {
			return err
		}
		id := auditraq.NewUID()
		transport, err := dialTransport(cfg, args[0], port, id)
		if err != nil {
			return err
		}
		src, err := portaudio.Open(args[2], cfg.SampleRate, cfg.HopSize(), cfg.Channels)
		if err != nil {
			transport.Close()
			return errors.Wrap(err, "opening input device")
		}
		log.Component("main").Info("capturing from ", src.Device().Name)
		return runSession(cfg, id, src, cfg.SampleRate, transport)
	},
}

func init() {
	RootCmd.AddCommand(runCmd)
}

// dialTransport opens OSC transport and optional MQTT mirror.
func dialTransport(cfg config.Config, host string, port int, id string) (auditraq.Transport, error) {
	o, err := osc.Dial(host, port)
	if err != nil {
		return nil, err
	}
	log.Component("main").Info("sending osc to ", o.Addr())
	if cfg.MQTT.Broker == "" {
		return o, nil
	}
	m, err := mqtt.Connect(cfg.MQTT.Broker, cfg.MQTT.Topic, cfg.MQTT.ClientID+"-"+id, id)
	if err != nil {
		o.Close()
		return nil, err
	}
	return auditraq.MultiTransport{o, m}, nil
}

// runSession runs the session until source is over or process is
// interrupted.
func runSession(cfg config.Config, id string, src auditraq.FrameSource, sampleRate int, transport auditraq.Transport) error {
	d, err := detector.New(cfg.DetectorMode, cfg.BufferSize, cfg.HopSize(), sampleRate)
	if err != nil {
		src.Close()
		transport.Close()
		return err
	}
	s := session.New(cfg, src, d, transport, session.WithID(id))
	if err := s.Start(); err != nil {
		return err
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)
	select {
	case sig := <-signals:
		log.Component("main").Info("received ", sig, ", stopping")
		err = s.Stop()
	case <-s.Done():
		err = s.Wait()
	}
	for component, counters := range sessionMetrics(id) {
		log.Component("main").WithField("component", component).Info(counters)
	}
	return err
}

// sessionMetrics returns counters of all units of the session.
func sessionMetrics(id string) map[string]map[string]string {
	m := make(map[string]map[string]string)
	for _, component := range metric.Components() {
		if strings.HasPrefix(component, id+".") {
			m[strings.TrimPrefix(component, id+".")] = metric.Get(component)
		}
	}
	return m
}
