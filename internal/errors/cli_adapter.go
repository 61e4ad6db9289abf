package errors

import (
	"errors"
	"log/slog"
)

// CLIErrorAdapter handles error presentation and exit code determination for the CLI.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
	}
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}

	var be *BuildError
	if errors.As(err, &be) {
		return a.exitCodeFromBuildError(be)
	}

	return 1
}

// exitCodeFromBuildError maps BuildError categories to exit codes.
func (a *CLIErrorAdapter) exitCodeFromBuildError(err *BuildError) int {
	switch err.Category {
	case CategoryValidation:
		return 2 // Invalid usage
	case CategoryConfig:
		return 7 // Configuration error
	case CategoryGit, CategoryRender:
		return 8 // External system error
	case CategoryBuild, CategorySite, CategoryFileSystem:
		return 11 // Build error
	case CategoryRuntime:
		return 12 // Runtime error
	case CategoryInternal:
		return 10 // Internal error
	default:
		return 1 // General error
	}
}

// Report logs the error with its structured context before exit.
func (a *CLIErrorAdapter) Report(err error) {
	if err == nil {
		return
	}

	var be *BuildError
	if errors.As(err, &be) {
		attrs := make([]any, 0, len(be.Context)*2+2)
		attrs = append(attrs, "category", string(be.Category))
		for k, v := range be.Context {
			attrs = append(attrs, k, v)
		}
		if a.verbose && be.Cause != nil {
			attrs = append(attrs, "cause", be.Cause.Error())
		}
		a.logger.Error(be.Message, attrs...)
		return
	}

	a.logger.Error(err.Error())
}
