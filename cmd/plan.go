package cmd

import (
	"encoding/json"
	"strconv"

	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show which captures would be sampled",
	Long: `Scan the input directory and run the sampler without copying anything.

Examples:
  lapse plan                           # Table of selected captures
  lapse plan --interval 30m            # Preview another interval
  lapse plan --json                    # Machine-readable output`,
	Args: cobra.NoArgs,
	RunE: runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)

	addInputFlags(planCmd)
	planCmd.Flags().Bool("json", false, "output as JSON")
}

func runPlan(cmd *cobra.Command, args []string) error {
	printer := newPrinter(cmd)
	jsonOutput, _ := cmd.Flags().GetBool("json")

	plan, err := newRunner(newCodec(), nil, nil).Plan(cmd.Context())
	if err != nil {
		return runError("sampling failed", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(printer.Out())
		enc.SetIndent("", "  ")
		return enc.Encode(plan)
	}

	printer.Header("Sampling Plan")
	printer.Info("Input:     %s", plan.InputDir)
	printer.Info("Interval:  %s (tie-break %s)", plan.Interval, plan.TieBreak)
	printer.Print("")

	table := printer.NewTable([]string{"#", "FILE", "CAPTURED", "MINUTE"})
	for i, s := range plan.Samples {
		table.AddRow([]string{
			strconv.Itoa(i + 1),
			s.Filename,
			s.Time.Format("2006-01-02 15:04:05"),
			printer.Dim(s.Bucket.Format("15:04")),
		})
	}
	if err := table.Render(); err != nil {
		return err
	}

	printer.Print("")
	printer.Info("%d captures scanned, %d selected, %d empty positions skipped",
		plan.Scanned, len(plan.Samples), plan.SkippedBuckets)
	printer.PrintHints("plan")
	return nil
}
