package cmd

import (
	"bytes"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/alt-project/lapse/internal/output"
)

// setupCmdTest isolates a test from the user's config, environment and disk
func setupCmdTest(t *testing.T) afero.Fs {
	t.Helper()

	t.Setenv("HOME", t.TempDir())
	for _, kv := range os.Environ() {
		if k, _, _ := strings.Cut(kv, "="); strings.HasPrefix(k, "LAPSE_") {
			t.Setenv(k, "")
			os.Unsetenv(k)
		}
	}

	fsys := afero.NewMemMapFs()
	prev := appFs
	appFs = fsys
	t.Cleanup(func() { appFs = prev })

	resetFlags(rootCmd)
	cfg = nil
	configFileUsed = ""
	return fsys
}

// resetFlags restores every flag of cmd and its children to its default
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// execute runs the CLI with args and returns stdout
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := new(bytes.Buffer)
	rootCmd.SetOut(out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	var cliErr *output.CLIError
	if !errors.As(err, &cliErr) {
		t.Fatalf("expected CLIError, got %T: %v", err, err)
	}
	return cliErr.ExitCode
}

func TestRootCmd_Help(t *testing.T) {
	setupCmdTest(t)

	out, err := execute(t, "--help")
	if err != nil {
		t.Fatalf("root --help failed: %v", err)
	}

	if !strings.Contains(out, "lapse") {
		t.Errorf("expected help output to contain 'lapse', got:\n%s", out)
	}
}

func TestRootCmd_SubcommandsList(t *testing.T) {
	setupCmdTest(t)

	out, err := execute(t, "--help")
	if err != nil {
		t.Fatalf("root --help failed: %v", err)
	}

	for _, cmd := range []string{"sample", "plan", "verify", "config", "version", "completion"} {
		if !strings.Contains(out, cmd) {
			t.Errorf("expected help output to list %q command, got:\n%s", cmd, out)
		}
	}
}

func TestRootCmd_UnknownCommand(t *testing.T) {
	setupCmdTest(t)

	if _, err := execute(t, "nonexistent-command"); err == nil {
		t.Fatal("expected error for unknown command, got nil")
	}
}

func TestRootCmd_UnknownFlagIsUsageError(t *testing.T) {
	setupCmdTest(t)

	_, err := execute(t, "plan", "--frobnicate")
	if err == nil {
		t.Fatal("expected error for unknown flag")
	}
	if code := exitCode(t, err); code != output.ExitUsageError {
		t.Errorf("exit code = %d, want %d", code, output.ExitUsageError)
	}
}

func TestRootCmd_InvalidColorMode(t *testing.T) {
	setupCmdTest(t)

	_, err := execute(t, "config", "--color", "sometimes")
	if code := exitCode(t, err); code != output.ExitUsageError {
		t.Errorf("exit code = %d, want %d", code, output.ExitUsageError)
	}
}

func TestRootCmd_InvalidConfigIsConfigError(t *testing.T) {
	setupCmdTest(t)

	_, err := execute(t, "plan", "--tie-break", "middle")
	if code := exitCode(t, err); code != output.ExitConfigError {
		t.Errorf("exit code = %d, want %d", code, output.ExitConfigError)
	}
}

func TestRootCmd_EnvOverridesDefaults(t *testing.T) {
	setupCmdTest(t)
	t.Setenv("LAPSE_OUTPUT_DIR", "from-env")

	if _, err := execute(t, "config"); err != nil {
		t.Fatalf("config failed: %v", err)
	}
	if cfg.Output.Dir != "from-env" {
		t.Errorf("output.dir = %q, want from-env", cfg.Output.Dir)
	}
}
