package main

import (
	"github.com/spf13/cobra"

	"github.com/dudk/auditraq"
	"github.com/dudk/auditraq/log"
	"github.com/dudk/auditraq/wav"
)

var realtime bool

// replayCmd runs the session over a wav file.
var replayCmd = &cobra.Command{
	Use:          "replay FILE HOST PORT",
	Short:        "Replay wav FILE and send beat events to HOST:PORT",
	Args:         cobra.ExactArgs(3),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, release, err := setup(cmd)
		if err != nil {
			return err
		}
		defer release()
		port, err := parsePort(args[2])
		if err != nil {
			return err
		}
		src, err := wav.Open(args[0], cfg.HopSize(), wav.WithRealtime(realtime))
		if err != nil {
			return err
		}
		log.Component("main").Info("replaying ", args[0], ": ", src.NumChannels(), " channels, ", src.SampleRate(), " Hz")
		id := auditraq.NewUID()
		transport, err := dialTransport(cfg, args[1], port, id)
		if err != nil {
			src.Close()
			return err
		}
		return runSession(cfg, id, src, src.SampleRate(), transport)
	},
}

func init() {
	replayCmd.Flags().BoolVar(&realtime, "realtime", true, "pace frames to the file sample rate")
	RootCmd.AddCommand(replayCmd)
}
