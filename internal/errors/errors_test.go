package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"
)

func TestBuildError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *BuildError
		expected string
	}{
		{
			name:     "error without cause",
			err:      New(CategoryConfig, SeverityFatal, "configuration invalid"),
			expected: "config (fatal): configuration invalid",
		},
		{
			name:     "error with cause",
			err:      Wrap(fmt.Errorf("file not found"), CategoryConfig, SeverityFatal, "failed to load config"),
			expected: "config (fatal): failed to load config: file not found",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := test.err.Error()
			if result != test.expected {
				t.Errorf("Error() = %q, want %q", result, test.expected)
			}
		})
	}
}

func TestBuildError_WithContext(t *testing.T) {
	err := ConverterFailed("draft-test", "branches/main", fmt.Errorf("exit status 1"))

	if err.Context == nil {
		t.Fatal("Context should not be nil")
	}
	if err.Context["draft"] != "draft-test" {
		t.Errorf("Context[draft] = %v, want draft-test", err.Context["draft"])
	}
	if err.Context["ref"] != "branches/main" {
		t.Errorf("Context[ref] = %v, want branches/main", err.Context["ref"])
	}
}

func TestBuildError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("underlying")
	err := Wrap(cause, CategoryGit, SeverityFatal, "wrapped")

	if !stdErrors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
}

func TestExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, nil)

	tests := []struct {
		name string
		err  error
		code int
	}{
		{"nil", nil, 0},
		{"plain error", fmt.Errorf("boom"), 1},
		{"validation", ValidationFailed("drafts", "empty"), 2},
		{"config", ConfigNotFound("config.yaml"), 7},
		{"git", RefDiscoveryError(fmt.Errorf("no repo")), 8},
		{"render", ConverterMissing("xml2rfc", fmt.Errorf("not found")), 8},
		{"build", BuildFailed("pages", fmt.Errorf("boom")), 11},
		{"site", SiteGenerationError(fmt.Errorf("boom")), 11},
		{"wrapped build error", fmt.Errorf("outer: %w", BuildFailed("render", fmt.Errorf("boom"))), 11},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := adapter.ExitCodeFor(test.err); got != test.code {
				t.Errorf("ExitCodeFor() = %d, want %d", got, test.code)
			}
		})
	}
}
