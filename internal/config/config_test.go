package config

import (
	stdErrors "errors"
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"

	apperrors "github.com/draftsite/draftsite/internal/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "drafts:\n  - draft-test-protocol\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Repo != "." {
		t.Errorf("Repo = %q, want %q", cfg.Repo, ".")
	}
	if len(cfg.Remotes) != 1 || cfg.Remotes[0] != "origin" {
		t.Errorf("Remotes = %v, want [origin]", cfg.Remotes)
	}
	if cfg.BranchPattern != DefaultBranchPattern {
		t.Errorf("BranchPattern = %q, want %q", cfg.BranchPattern, DefaultBranchPattern)
	}
	if cfg.TagPattern != DefaultTagPattern {
		t.Errorf("TagPattern = %q, want %q", cfg.TagPattern, DefaultTagPattern)
	}
	if cfg.Output != DefaultOutput {
		t.Errorf("Output = %q, want %q", cfg.Output, DefaultOutput)
	}
	if cfg.Render.Binary != DefaultBinary {
		t.Errorf("Render.Binary = %q, want %q", cfg.Render.Binary, DefaultBinary)
	}
	if !cfg.AutogenEnabled() {
		t.Error("AutogenEnabled should default to true when omitted")
	}
}

func TestAutogenExplicitFalsePreserved(t *testing.T) {
	raw := "drafts: [draft-a]\nautogen_docs: false\n"
	var cfg Config
	if err := yaml.Unmarshal([]byte(raw), &cfg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	cfg.applyDefaults()
	if cfg.AutogenEnabled() {
		t.Fatal("expected autogen_docs: false to be preserved")
	}
}

func TestLoadEnvExpansion(t *testing.T) {
	t.Setenv("DRAFTSITE_TEST_OUTPUT", "custom-output")
	path := writeConfig(t, "drafts: [draft-a]\noutput: ${DRAFTSITE_TEST_OUTPUT}\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Output != "custom-output" {
		t.Errorf("Output = %q, want custom-output", cfg.Output)
	}
}

func TestLoadInvalidBranchPattern(t *testing.T) {
	path := writeConfig(t, "drafts: [draft-a]\nbranch_pattern: '('\n")

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for invalid branch_pattern")
	}
	var be *apperrors.BuildError
	if !stdErrors.As(err, &be) || be.Category != apperrors.CategoryValidation {
		t.Errorf("expected validation error, got %v", err)
	}
	if be.Context["field"] != "branch_pattern" {
		t.Errorf("Context[field] = %v, want branch_pattern", be.Context["field"])
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
	var be *apperrors.BuildError
	if !stdErrors.As(err, &be) || be.Category != apperrors.CategoryConfig {
		t.Errorf("expected config error, got %v", err)
	}
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	if err := Init(path, false); err != nil {
		t.Fatalf("init: %v", err)
	}

	// Second init without force must refuse to overwrite.
	if err := Init(path, false); err == nil {
		t.Fatal("expected error when config exists and force is false")
	}
	if err := Init(path, true); err != nil {
		t.Fatalf("init --force: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load generated config: %v", err)
	}
	if len(cfg.Drafts) == 0 {
		t.Error("generated config should list an example draft")
	}
}
