package gitrefs

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/draftsite/draftsite/internal/logfields"
)

// PresentFiles reports which of the named files exist in the root tree of
// the ref's commit, without extracting them.
func (c *Client) PresentFiles(ref Ref, names []string) ([]string, error) {
	commit, err := c.repo.CommitObject(plumbing.NewHash(ref.Hash))
	if err != nil {
		return nil, fmt.Errorf("failed to load commit %s: %w", ref.Hash, err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to load tree for %s: %w", ref.Hash, err)
	}

	present := make([]string, 0, len(names))
	for _, name := range names {
		if _, err := tree.File(name); err == nil {
			present = append(present, name)
		}
	}
	return present, nil
}

// ExtractFiles writes the named files from the root tree of the ref's commit
// into destDir and returns the names actually found. Files listed but absent
// at that commit are silently skipped; a draft missing its source simply
// produces no rendering for that ref.
func (c *Client) ExtractFiles(ref Ref, names []string, destDir string) ([]string, error) {
	commit, err := c.repo.CommitObject(plumbing.NewHash(ref.Hash))
	if err != nil {
		return nil, fmt.Errorf("failed to load commit %s: %w", ref.Hash, err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to load tree for %s: %w", ref.Hash, err)
	}

	if err := os.MkdirAll(destDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create extraction directory: %w", err)
	}

	extracted := make([]string, 0, len(names))
	for _, name := range names {
		file, err := tree.File(name)
		if err != nil {
			slog.Debug("Source not present at ref", logfields.Ref(ref.Path), logfields.Path(name))
			continue
		}
		contents, err := file.Contents()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s at %s: %w", name, ref.Path, err)
		}
		if err := os.WriteFile(filepath.Join(destDir, name), []byte(contents), 0o600); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", name, err)
		}
		extracted = append(extracted, name)
	}
	return extracted, nil
}
