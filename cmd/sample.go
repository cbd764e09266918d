package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/alt-project/lapse/internal/capture"
	"github.com/alt-project/lapse/internal/copier"
	"github.com/alt-project/lapse/internal/metrics"
	"github.com/alt-project/lapse/internal/output"
	"github.com/alt-project/lapse/internal/pipeline"
)

const defaultInterval = 15 * time.Minute

// appFs is the filesystem captures are read from and samples written to
var appFs = afero.NewOsFs()

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Select captures and copy them into the samples directory",
	Long: `Scan the input directory, select one capture per interval and copy the
selected files into the output directory.

The cursor starts at the earliest capture. Whenever the cursor's minute holds
captures, one of them is taken (the last one listed with --tie-break last, the
first with --tie-break first) and the cursor moves one interval past it.
Empty minutes advance the cursor by one interval until the latest capture.

Examples:
  lapse sample                              # images/ -> samples/, every 15 minutes
  lapse sample -i /data/cam -o /data/out    # Custom directories
  lapse sample --interval 1h --tie-break first
  lapse sample --policy best-effort --workers 4
  lapse sample --manifest                   # Also write samples/manifest.json
  lapse sample --dry-run                    # Show what would be copied`,
	Args: cobra.NoArgs,
	RunE: runSample,
}

func init() {
	rootCmd.AddCommand(sampleCmd)

	addInputFlags(sampleCmd)
	sampleCmd.Flags().StringP("output", "o", "samples", "directory selected captures are copied to")
	sampleCmd.Flags().String("policy", "fail-fast", "copy failure policy: fail-fast or best-effort")
	sampleCmd.Flags().Int("workers", 1, "number of concurrent copies")
	sampleCmd.Flags().Bool("manifest", false, "write manifest.json with checksums into the output directory")
	sampleCmd.Flags().String("metrics", "", "write Prometheus metrics to this textfile")
}

// addInputFlags registers the flags shared by commands that scan and sample
func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("input", "i", "images", "directory holding the captures")
	cmd.Flags().String("prefix", "WIN", "capture filename prefix")
	cmd.Flags().String("extension", ".jpg", "capture filename extension")
	cmd.Flags().Duration("interval", defaultInterval, "sampling interval (at least 1m)")
	cmd.Flags().String("tie-break", "last", "capture taken from a minute holding several: last or first")
}

func newCodec() capture.Codec {
	return capture.NewCodec(cfg.Input.Prefix, cfg.Input.Extension)
}

func newRunner(codec capture.Codec, cp pipeline.SampleCopier, m *metrics.Metrics) *pipeline.Runner {
	return pipeline.NewRunner(
		capture.NewScanner(appFs, codec, logger),
		codec,
		cp,
		m,
		logger,
		pipeline.Options{
			InputDir: cfg.Input.Dir,
			Interval: cfg.Sampling.Interval,
			TieBreak: cfg.TieBreak(),
		},
	)
}

func runSample(cmd *cobra.Command, args []string) error {
	printer := newPrinter(cmd)
	m := metrics.New()

	codec := newCodec()
	cp := copier.New(appFs, codec, copier.Options{
		SourceDir: cfg.Input.Dir,
		DestDir:   cfg.Output.Dir,
		Policy:    cfg.Policy(),
		Workers:   cfg.Copy.Workers,
		DryRun:    dryRun,
	}, logger)
	report, runErr := newRunner(codec, cp, m).Run(cmd.Context())
	defer writeMetrics(m)
	if report == nil {
		return runError("sampling failed", runErr)
	}

	if dryRun {
		printer.Header("Dry Run")
	} else {
		printer.Header("Samples")
	}
	printer.Info("Input:  %s (%d captures)", cfg.Input.Dir, report.Plan.Scanned)
	printer.Info("Output: %s", cfg.Output.Dir)
	printer.Print("")

	if err := printCopyTable(printer, report.Copy); err != nil {
		return err
	}
	printer.Print("")

	summary := fmt.Sprintf("%d of %d samples, %s, %d empty positions skipped",
		len(report.Copy.Copied), len(report.Plan.Samples),
		output.FormatSize(report.Copy.Bytes), report.Plan.SkippedBuckets)

	if runErr != nil {
		if report.Copy.Skipped > 0 {
			printer.Warning("%d samples not attempted after the first failure", report.Copy.Skipped)
		}
		cliErr := runError("copy failed", runErr)
		if cliErr.ExitCode == output.ExitGeneral && !errors.Is(runErr, context.Canceled) {
			cliErr.ExitCode = output.ExitCopyError
		}
		return cliErr
	}

	if dryRun {
		printer.Success("[dry-run] would copy %s", summary)
		return nil
	}

	printer.Success("Copied %s", summary)

	if cfg.Output.Manifest {
		path, err := writeManifest(report)
		if err != nil {
			return runError("writing manifest failed", err)
		}
		printer.Info("Manifest: %s", path)
	}

	printer.PrintHints("sample")
	return nil
}

func printCopyTable(printer *output.Printer, res *copier.Result) error {
	if printer.IsQuiet() {
		return nil
	}

	copied := "copied"
	if dryRun {
		copied = "dry-run"
	}

	table := printer.NewTable([]string{"FILE", "CAPTURED", "SIZE", "STATUS"})
	for _, fr := range res.Files {
		size, status := output.FormatSize(fr.Size), copied
		if fr.Err != nil {
			size, status = "-", "failed"
		}
		table.AddRow([]string{
			fr.Filename,
			fr.CapturedAt.Format("2006-01-02 15:04:05"),
			size,
			printer.StatusBadge(status),
		})
	}
	if table.Len() == 0 {
		return nil
	}
	return table.Render()
}

func writeManifest(report *pipeline.Report) (string, error) {
	m := copier.NewManifest(version)
	m.RunID = report.Plan.RunID
	m.SourceDir = cfg.Input.Dir
	m.Interval = report.Plan.Interval
	m.TieBreak = report.Plan.TieBreak
	m.AddResults(report.Copy)
	m.Finalize()

	path := filepath.Join(cfg.Output.Dir, copier.ManifestFilename)
	if err := m.Save(appFs, path); err != nil {
		return "", err
	}
	logger.Info("manifest written", "run_id", m.RunID, "path", path, "samples", len(m.Samples))
	return path, nil
}

func writeMetrics(m *metrics.Metrics) {
	if cfg.Metrics.Textfile == "" || dryRun {
		return
	}
	if err := m.WriteTextfile(cfg.Metrics.Textfile); err != nil {
		logger.Warn("metrics not written", "path", cfg.Metrics.Textfile, "error", err)
	}
}
