// Package cmd contains all CLI commands for lapse
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/alt-project/lapse/internal/config"
	"github.com/alt-project/lapse/internal/output"
)

var (
	cfgFile        string
	verbose        bool
	quiet          bool
	dryRun         bool
	colorFlag      string
	configFileUsed string
	cfg            *config.Config
	logger         *slog.Logger
	version        = "dev"
)

// flagKeys maps command flags to the config keys they override
var flagKeys = map[string]string{
	"input":     "input.dir",
	"prefix":    "input.prefix",
	"extension": "input.extension",
	"output":    "output.dir",
	"manifest":  "output.manifest",
	"interval":  "sampling.interval",
	"tie-break": "sampling.tie_break",
	"policy":    "copy.policy",
	"workers":   "copy.workers",
	"metrics":   "metrics.textfile",
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "lapse",
	Short: "Timelapse capture sampler",
	Long: `lapse thins out a directory of timelapse captures.

Captures are named <prefix>_<YYYYMMDD>_<HH>_<MM>_<SS><ext>, for example
WIN_20230704_09_00_05.jpg. lapse walks the capture timeline in fixed steps,
keeps one capture per visited minute and copies the chosen files into a
samples directory.

Example usage:
  lapse sample                          # Sample ./images into ./samples every 15 minutes
  lapse sample -i /data/cam -o out      # Custom input and output directories
  lapse sample --interval 1h            # One capture per hour
  lapse plan --json                     # Show the selection without copying
  lapse verify samples                  # Check copied samples against manifest.json`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig(cmd)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// The command context is canceled on SIGINT or SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// SetVersion sets the version string for the CLI
func SetVersion(v string) {
	version = v
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .lapse.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-error output")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "show what would be copied without writing anything")
	rootCmd.PersistentFlags().StringVar(&colorFlag, "color", "auto", "color output: auto, always, never")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &output.CLIError{
			Summary:    "invalid flags",
			Detail:     err.Error(),
			Suggestion: fmt.Sprintf("Run '%s --help' for usage", cmd.CommandPath()),
			ExitCode:   output.ExitUsageError,
			Err:        err,
		}
	})
}

// initConfig reads in config file and ENV variables, with the invoked command's
// flags taking precedence.
func initConfig(cmd *cobra.Command) error {
	// Setup logger
	logger = newLogger(cmd, "info", "text")

	if _, err := output.ParseColorMode(colorFlag); err != nil {
		return &output.CLIError{
			Summary:  "invalid --color value",
			Detail:   err.Error(),
			ExitCode: output.ExitUsageError,
			Err:      err,
		}
	}

	v := viper.New()
	bindFlags(v, cmd.Flags())

	// Load configuration
	loaded, err := config.Load(v, cfgFile)
	if err != nil {
		return configError(err)
	}
	cfg = loaded
	configFileUsed = v.ConfigFileUsed()

	// Update logger based on config
	logger = newLogger(cmd, cfg.Logging.Level, cfg.Logging.Format)

	logger.Debug("configuration loaded",
		"config_file", configFileUsed,
		"input_dir", cfg.Input.Dir,
		"output_dir", cfg.Output.Dir,
		"interval", cfg.Sampling.Interval,
		"tie_break", cfg.Sampling.TieBreak,
	)

	return nil
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	for name, key := range flagKeys {
		if f := flags.Lookup(name); f != nil {
			_ = v.BindPFlag(key, f)
		}
	}
}

func newLogger(cmd *cobra.Command, level, format string) *slog.Logger {
	var lvl slog.Level
	switch {
	case verbose:
		lvl = slog.LevelDebug
	case quiet:
		lvl = slog.LevelError
	default:
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			lvl = slog.LevelInfo
		}
	}

	opts := &slog.HandlerOptions{Level: lvl}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), opts))
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), opts))
}

// newPrinter creates a printer honoring --color, --quiet and output.colors
func newPrinter(cmd *cobra.Command) *output.Printer {
	mode, _ := output.ParseColorMode(colorFlag)
	configColors := true
	if cfg != nil {
		configColors = cfg.Output.Colors
	}
	return output.NewPrinterWithOptions(output.PrinterOptions{
		ColorMode:    mode,
		ConfigColors: configColors,
		Quiet:        quiet,
		Out:          cmd.OutOrStdout(),
		Err:          cmd.ErrOrStderr(),
	})
}
