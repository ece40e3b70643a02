// meterboard is the command line surface of the schematic editor: project
// setup, meter import, reports, exports and scripted demo runs.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		uiBad.Fprintf(os.Stderr, "meterboard: %v\n", err)
		os.Exit(1)
	}
}
