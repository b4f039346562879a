package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dudk/auditraq/portaudio"
)

// devicesCmd lists input devices.
var devicesCmd = &cobra.Command{
	Use:          "devices",
	Short:        "Show the list of available input devices",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		devices, err := portaudio.Devices()
		if err != nil {
			return err
		}
		return printDevices(os.Stdout, devices)
	},
}

func init() {
	RootCmd.AddCommand(devicesCmd)
}

func printDevices(out io.Writer, devices []portaudio.Device) error {
	w := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "INDEX\tNAME\tHOST API\tCHANNELS\tSAMPLE RATE")
	for _, d := range devices {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%v\n", d.Index, d.Name, d.HostAPI, d.MaxInputChannels, d.DefaultSampleRate)
	}
	return w.Flush()
}
