package cmd

import (
	"context"
	"errors"
	"io/fs"

	"github.com/alt-project/lapse/internal/capture"
	"github.com/alt-project/lapse/internal/config"
	"github.com/alt-project/lapse/internal/copier"
	"github.com/alt-project/lapse/internal/output"
	"github.com/alt-project/lapse/internal/sampler"
)

// configError converts a config loading failure into a CLIError
func configError(err error) error {
	cliErr := &output.CLIError{
		Summary:    "invalid configuration",
		Detail:     err.Error(),
		Suggestion: "Run 'lapse config' to inspect the effective configuration",
		ExitCode:   output.ExitConfigError,
		Err:        err,
	}

	var verr *config.ValidationError
	if errors.As(err, &verr) {
		cliErr.Suggestion = "Fix the listed keys in .lapse.yaml, LAPSE_* variables or flags"
	}
	if errors.Is(err, sampler.ErrInvalidInterval) {
		cliErr.Suggestion = "Use an interval of at least 1m, for example --interval 15m"
	}
	return cliErr
}

// runError converts a sampling, copy or verify failure into a CLIError
func runError(summary string, err error) *output.CLIError {
	var cliErr *output.CLIError
	if errors.As(err, &cliErr) {
		return cliErr
	}

	cliErr = &output.CLIError{
		Summary:  summary,
		Detail:   err.Error(),
		ExitCode: output.ExitGeneral,
		Err:      err,
	}

	switch {
	case errors.Is(err, context.Canceled):
		cliErr.Summary = "interrupted"
	case errors.Is(err, sampler.ErrEmptyInput):
		cliErr.Summary = "no captures to sample"
		cliErr.Suggestion = "Copy captures named like WIN_20230704_09_00_05.jpg into the input directory, or point --input at them"
		cliErr.ExitCode = output.ExitInputError
	case errors.Is(err, capture.ErrMalformedFilename):
		cliErr.Summary = "malformed capture filename"
		cliErr.Suggestion = "Rename or move files that do not follow <prefix>_<YYYYMMDD>_<HH>_<MM>_<SS><ext>"
		cliErr.ExitCode = output.ExitInputError
	case errors.Is(err, copier.ErrManifestMismatch):
		cliErr.Summary = "samples do not match manifest"
		cliErr.Suggestion = "Re-run 'lapse sample --manifest' to rebuild the samples directory"
		cliErr.ExitCode = output.ExitVerifyFailed
	case errors.Is(err, copier.ErrSourceNotFound):
		cliErr.Summary = "capture disappeared before it was copied"
		cliErr.Suggestion = "Make sure nothing moves captures out of the input directory during a run"
		cliErr.ExitCode = output.ExitCopyError
	case errors.Is(err, sampler.ErrInvalidInterval), errors.Is(err, sampler.ErrInvalidTieBreak):
		cliErr.ExitCode = output.ExitConfigError
	case errors.Is(err, fs.ErrNotExist):
		cliErr.Suggestion = "Check the directory path"
		cliErr.ExitCode = output.ExitInputError
	}

	return cliErr
}
