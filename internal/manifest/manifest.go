// Package manifest records what a build produced: which draft versions were
// rendered, from which commits, with which converter. The manifest is written
// as manifest.json into the output directory.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// FileName is the manifest file name inside the output directory.
const FileName = "manifest.json"

// VersionRecord describes one rendered draft version.
type VersionRecord struct {
	Draft       string    `json:"draft"`
	RefType     string    `json:"ref_type"`
	RefName     string    `json:"ref_name"`
	RefPath     string    `json:"ref_path"`
	Commit      string    `json:"commit"`
	CommittedAt time.Time `json:"committed_at"`
	Cached      bool      `json:"cached"`
}

// Manifest describes a completed build.
type Manifest struct {
	BuildID    string          `json:"build_id"`
	Converter  string          `json:"converter"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	DurationMS int64           `json:"duration_ms"`
	Versions   []VersionRecord `json:"versions"`
	Pages      int             `json:"pages"`
}

// New starts a manifest for a build beginning now.
func New(converter string) *Manifest {
	return &Manifest{
		BuildID:   uuid.NewString(),
		Converter: converter,
		StartedAt: time.Now().UTC(),
	}
}

// AddVersion appends a rendered version record.
func (m *Manifest) AddVersion(rec VersionRecord) {
	m.Versions = append(m.Versions, rec)
}

// Finish stamps the completion time and duration.
func (m *Manifest) Finish() {
	m.FinishedAt = time.Now().UTC()
	m.DurationMS = m.FinishedAt.Sub(m.StartedAt).Milliseconds()
}

// Write serializes the manifest into dir.
func (m *Manifest) Write(dir string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, FileName), data, 0o600); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// Load reads a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}
