package cmd

import (
	"encoding/json"
	"strconv"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	Long: `Display the effective lapse configuration after merging defaults,
.lapse.yaml, LAPSE_* environment variables and flags.

Examples:
  lapse config                # Show all config
  lapse config --path         # Show config file path
  lapse config --json         # Output as JSON`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)

	configCmd.Flags().Bool("path", false, "show config file path")
	configCmd.Flags().Bool("json", false, "output as JSON")
}

func runConfig(cmd *cobra.Command, args []string) error {
	printer := newPrinter(cmd)

	showPath, _ := cmd.Flags().GetBool("path")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	if showPath {
		if configFileUsed == "" {
			printer.Info("No config file found (using defaults)")
		} else {
			printer.Info("Config file: %s", configFileUsed)
		}
		return nil
	}

	if jsonOutput {
		enc := json.NewEncoder(printer.Out())
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	}

	// Print configuration as table
	printer.Header("Current Configuration")

	table := printer.NewTable([]string{"KEY", "VALUE"})
	table.AddRow([]string{"input.dir", cfg.Input.Dir})
	table.AddRow([]string{"input.prefix", cfg.Input.Prefix})
	table.AddRow([]string{"input.extension", cfg.Input.Extension})
	table.AddRow([]string{"output.dir", cfg.Output.Dir})
	table.AddRow([]string{"output.manifest", strconv.FormatBool(cfg.Output.Manifest)})
	table.AddRow([]string{"output.colors", strconv.FormatBool(cfg.Output.Colors)})
	table.AddRow([]string{"sampling.interval", cfg.Sampling.Interval.String()})
	table.AddRow([]string{"sampling.tie_break", cfg.Sampling.TieBreak})
	table.AddRow([]string{"copy.policy", cfg.Copy.Policy})
	table.AddRow([]string{"copy.workers", strconv.Itoa(cfg.Copy.Workers)})
	table.AddRow([]string{"logging.level", cfg.Logging.Level})
	table.AddRow([]string{"logging.format", cfg.Logging.Format})
	table.AddRow([]string{"metrics.textfile", cfg.Metrics.Textfile})
	if err := table.Render(); err != nil {
		return err
	}

	printer.PrintHints("config")
	return nil
}
