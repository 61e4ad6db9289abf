// Package catalog tracks the draft versions and diffs registered while
// parsing generated pages, and builds the site index from them.
package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Version identifies one rendering of a draft at a specific ref.
type Version struct {
	Draft   string
	RefType string // "branches" or "tags"
	RefName string // short ref name
	RefPath string // grouped ref path, e.g. "branches/main"
}

// Anchor returns a stable HTML anchor for the version.
func (v Version) Anchor() string {
	return sanitizeAnchor(fmt.Sprintf("xml2rfc-version-%s-%s-%s", v.Draft, v.RefType, v.RefName))
}

// SourcePath returns the rendered text file location below baseDir.
func (v Version) SourcePath(baseDir string) string {
	return filepath.Join(baseDir, filepath.FromSlash(v.RefPath), v.Draft+".txt")
}

// ReadSource reads the rendered draft text from below baseDir.
func (v Version) ReadSource(baseDir string) (string, error) {
	data, err := os.ReadFile(v.SourcePath(baseDir))
	if err != nil {
		return "", fmt.Errorf("failed to read draft text: %w", err)
	}
	return string(data), nil
}

// Diff identifies a rendered comparison between two versions of a draft.
type Diff struct {
	Draft string
	From  string // ref path of the older version
	To    string // ref path of the newer version
}

// Anchor returns a stable HTML anchor for the diff.
func (d Diff) Anchor() string {
	return sanitizeAnchor(fmt.Sprintf("xml2rfc-diff-%s-%s-%s", d.Draft, d.From, d.To))
}

func sanitizeAnchor(s string) string {
	return strings.NewReplacer("/", "-", " ", "-").Replace(s)
}
