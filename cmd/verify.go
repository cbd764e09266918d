package cmd

import (
	"github.com/spf13/cobra"

	"github.com/alt-project/lapse/internal/copier"
	"github.com/alt-project/lapse/internal/output"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [samples-dir]",
	Short: "Verify copied samples against their manifest",
	Long: `Verify a samples directory written with 'lapse sample --manifest' by checking:

  - manifest.json exists and is valid JSON
  - every sample listed in it exists
  - file sizes match the manifest
  - SHA256 checksums match

The directory defaults to output.dir.

Examples:
  lapse verify
  lapse verify /data/samples`,
	Args: cobra.MaximumNArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	printer := newPrinter(cmd)

	dir := cfg.Output.Dir
	if len(args) == 1 {
		dir = args[0]
	}

	printer.Header("Verifying Samples")
	printer.Info("Samples directory: %s", dir)
	printer.Print("")

	manifest, err := copier.VerifyDir(appFs, dir)
	if err != nil {
		printer.Error("Verification FAILED: %v", err)
		cliErr := runError("verification failed", err)
		if cliErr.ExitCode == output.ExitGeneral {
			cliErr.ExitCode = output.ExitVerifyFailed
		}
		return cliErr
	}

	printer.Success("Samples verified")
	printer.Print("")

	printer.Info("Run ID: %s", printer.Bold(manifest.RunID))
	printer.Info("Created: %s", manifest.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	printer.Info("Lapse version: %s", manifest.LapseVersion)
	printer.Info("Interval: %s (tie-break %s)", manifest.Interval, manifest.TieBreak)
	printer.Info("Manifest checksum: %s", manifest.Checksum)
	printer.Print("")

	var totalSize int64
	table := printer.NewTable([]string{"FILE", "SIZE", "CHECKSUM", "STATUS"})
	for _, s := range manifest.Samples {
		totalSize += s.Size
		table.AddRow([]string{
			s.Filename,
			output.FormatSize(s.Size),
			shortChecksum(s.Checksum),
			printer.StatusBadge("ok"),
		})
	}
	if err := table.Render(); err != nil {
		return err
	}

	printer.Print("")
	printer.Info("%d samples, %s", len(manifest.Samples), output.FormatSize(totalSize))
	printer.PrintHints("verify")
	return nil
}

func shortChecksum(sum string) string {
	if len(sum) <= 20 {
		return sum
	}
	return sum[:20] + "..."
}
