// Command auditraq listens to live audio, tracks the beat and streams beat
// events over OSC.
package main

import (
	"fmt"
	"os"
)

var (
	successExitCode = 0
	errorExitCode   = 1
)

func main() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Command failed:", err)
		os.Exit(errorExitCode)
	}
	os.Exit(successExitCode)
}
