package catalog

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// VersionNotFoundError reports a diff target with no registered version.
type VersionNotFoundError struct {
	RefPath string
}

func (e *VersionNotFoundError) Error() string {
	return fmt.Sprintf("no version registered for ref path %q", e.RefPath)
}

// Registry holds the versions and diffs registered during page parsing.
// Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	versions map[Version]string // version -> document name
	diffs    map[Diff]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		versions: make(map[Version]string),
		diffs:    make(map[Diff]string),
	}
}

// AddVersion registers a version found in document doc.
func (r *Registry) AddVersion(v Version, doc string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.versions[v] = doc
}

// AddDiff registers a diff found in document doc.
func (r *Registry) AddDiff(d Diff, doc string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.diffs[d] = doc
}

// Versions returns all registered versions sorted by draft, ref type, ref name.
func (r *Registry) Versions() []Version {
	r.mu.RLock()
	defer r.mu.RUnlock()
	versions := make([]Version, 0, len(r.versions))
	for v := range r.versions {
		versions = append(versions, v)
	}
	sort.Slice(versions, func(i, j int) bool {
		a, b := versions[i], versions[j]
		if a.Draft != b.Draft {
			return a.Draft < b.Draft
		}
		if a.RefType != b.RefType {
			return a.RefType < b.RefType
		}
		return a.RefName < b.RefName
	})
	return versions
}

// SearchVersion finds a registered version by its ref path.
func (r *Registry) SearchVersion(refPath string) (Version, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for v := range r.versions {
		if v.RefPath == refPath {
			return v, nil
		}
	}
	return Version{}, &VersionNotFoundError{RefPath: refPath}
}

// IndexEntry is one row of the versions index.
type IndexEntry struct {
	Name       string // "<draft>@<ref name>"
	ObjectType string // display type, e.g. "Internet Draft Version (Branch)"
	Document   string // document name the version appears in
	Anchor     string
}

// IndexGroup collects index entries sharing a ref type.
type IndexGroup struct {
	RefType string
	Entries []IndexEntry
}

// Index builds the versions index grouped by ref type.
func (r *Registry) Index() []IndexGroup {
	versions := r.Versions()

	r.mu.RLock()
	defer r.mu.RUnlock()

	grouped := make(map[string][]IndexEntry)
	order := make([]string, 0, 2)
	for _, v := range versions {
		if _, seen := grouped[v.RefType]; !seen {
			order = append(order, v.RefType)
		}
		grouped[v.RefType] = append(grouped[v.RefType], IndexEntry{
			Name:       fmt.Sprintf("%s@%s", v.Draft, v.RefName),
			ObjectType: ObjectTypeName(v.RefType),
			Document:   r.versions[v],
			Anchor:     v.Anchor(),
		})
	}

	groups := make([]IndexGroup, 0, len(order))
	for _, refType := range order {
		groups = append(groups, IndexGroup{RefType: refType, Entries: grouped[refType]})
	}
	return groups
}

var titleCaser = cases.Title(language.English)

// ObjectTypeName constructs the display type name for a ref type.
func ObjectTypeName(refType string) string {
	const baseName = "Internet Draft Version"
	switch refType {
	case "branches", "tags":
		singular := titleCaser.String(strings.TrimSuffix(refType, "s"))
		return fmt.Sprintf("%s (%s)", baseName, singular)
	default:
		return baseName
	}
}
