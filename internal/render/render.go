// Package render invokes the external xml2rfc converter to produce text
// renderings of Internet-Draft XML sources.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// Sentinel errors for converter failures.
var (
	ErrConverterNotFound = errors.New("converter binary not found in PATH")
	ErrConverterFailed   = errors.New("converter execution failed")
)

// Job describes a single text rendering of one draft source at one ref.
type Job struct {
	Source    string    // path to the extracted draft XML file
	Date      time.Time // document date, normally the commit timestamp
	OutputDir string    // directory receiving <draft>.txt
}

// Renderer abstracts the external converter invocation. This allows swapping
// the xml2rfc binary (BinaryRenderer) with alternative strategies (no-op for
// tests, remote render service) without changing build orchestration.
type Renderer interface {
	// Version reports the converter version string, probing availability.
	Version(ctx context.Context) (string, error)
	// RenderText produces the plain-text rendering for a job.
	RenderText(ctx context.Context, job Job) error
}

// BinaryRenderer invokes the converter binary present on PATH.
type BinaryRenderer struct {
	// Binary is the converter executable name or path. Empty means "xml2rfc".
	Binary string
}

func (b *BinaryRenderer) binary() string {
	if b.Binary == "" {
		return "xml2rfc"
	}
	return b.Binary
}

// Version runs `<binary> --version` and returns the trimmed output.
func (b *BinaryRenderer) Version(ctx context.Context) (string, error) {
	if _, err := exec.LookPath(b.binary()); err != nil {
		return "", fmt.Errorf("%w: %w", ErrConverterNotFound, err)
	}

	cmd := exec.CommandContext(ctx, b.binary(), "--version")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrConverterFailed, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// RenderText runs the converter for one draft source.
func (b *BinaryRenderer) RenderText(ctx context.Context, job Job) error {
	args := []string{
		job.Source,
		"--date", job.Date.Format("2006-01-02"),
		"--no-pagination",
		"--text",
		"--path", job.OutputDir,
	}

	cmd := exec.CommandContext(ctx, b.binary(), args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	slog.Debug("Invoking converter", "binary", b.binary(), "source", job.Source, "output", job.OutputDir)

	err := cmd.Run()

	// xml2rfc reports progress on stderr even on success.
	if s := stderr.String(); s != "" {
		slog.Debug("converter stderr", "output", s)
	}

	if err != nil {
		output := strings.TrimSpace(stderr.String())
		if output == "" {
			output = strings.TrimSpace(stdout.String())
		}
		if output != "" {
			return fmt.Errorf("%w: %w: %s", ErrConverterFailed, err, output)
		}
		return fmt.Errorf("%w: %w", ErrConverterFailed, err)
	}
	return nil
}
