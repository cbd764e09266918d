// Package main is the entry point for the lapse CLI
package main

import (
	"errors"
	"os"

	"github.com/alt-project/lapse/cmd"
	"github.com/alt-project/lapse/internal/output"
)

// Set at build time via ldflags
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

func main() {
	cmd.SetVersion(version)
	cmd.SetBuildInfo(commit, buildTime)

	if err := cmd.Execute(); err != nil {
		var cliErr *output.CLIError
		if errors.As(err, &cliErr) {
			output.NewPrinter(output.ResolveColors(output.ColorAuto, true)).FormatError(cliErr)
			os.Exit(cliErr.ExitCode)
		}
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(output.ExitGeneral)
	}
}
