package gitrefs

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/draftsite/draftsite/internal/logfields"
)

// RefType distinguishes branch heads from tags. The values double as the
// grouping names used in generated page paths.
type RefType string

const (
	RefTypeBranches RefType = "branches"
	RefTypeTags     RefType = "tags"
)

// Ref is a selected version-control reference.
type Ref struct {
	Type        RefType
	Name        string    // short name, e.g. "main" or "v1.0.0"
	Path        string    // grouped slash path, e.g. "branches/main" or "tags/v1.0.0"
	Hash        string    // commit SHA the ref resolves to
	CommittedAt time.Time // committer timestamp of that commit
}

// Selection holds the ref matching configuration.
type Selection struct {
	BranchPattern string
	TagPattern    string
	Remotes       []string
}

// Client wraps a local git repository for ref discovery and file extraction.
type Client struct {
	repo *gogit.Repository
}

// Open opens the repository at path, searching parent directories for the
// .git directory the way command-line git does.
func Open(path string) (*Client, error) {
	repo, err := gogit.PlainOpenWithOptions(path, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open repository at %s: %w", path, err)
	}
	return &Client{repo: repo}, nil
}

// NewClient wraps an already-open repository (used by tests).
func NewClient(repo *gogit.Repository) *Client { return &Client{repo: repo} }

// Select returns the refs matching the selection patterns, branches first,
// each group sorted by short name.
func (c *Client) Select(sel Selection) ([]Ref, error) {
	// Patterns match from the start of the short name, so "release"
	// selects release-1 but not pre-release.
	branchRe, err := regexp.Compile("^(?:" + sel.BranchPattern + ")")
	if err != nil {
		return nil, fmt.Errorf("invalid branch pattern: %w", err)
	}
	tagRe, err := regexp.Compile("^(?:" + sel.TagPattern + ")")
	if err != nil {
		return nil, fmt.Errorf("invalid tag pattern: %w", err)
	}

	branches := make(map[string]Ref)
	tags := make(map[string]Ref)

	branchIter, err := c.repo.Branches()
	if err != nil {
		return nil, fmt.Errorf("failed to list branches: %w", err)
	}
	err = branchIter.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().Short()
		if !branchRe.MatchString(name) {
			return nil
		}
		r, err := c.resolve(RefTypeBranches, name, ref)
		if err != nil {
			slog.Warn("Skipping unresolvable branch", logfields.RefName(name), logfields.Error(err))
			return nil
		}
		branches[name] = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	tagIter, err := c.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	err = tagIter.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().Short()
		if !tagRe.MatchString(name) {
			return nil
		}
		r, err := c.resolve(RefTypeTags, name, ref)
		if err != nil {
			slog.Warn("Skipping unresolvable tag", logfields.RefName(name), logfields.Error(err))
			return nil
		}
		tags[name] = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Remote-tracking branches fill in heads that exist only on a remote.
	// Locals win, then remotes in configured order.
	for _, remote := range sel.Remotes {
		if err := c.selectRemoteBranches(remote, branchRe, branches); err != nil {
			return nil, err
		}
	}

	refs := make([]Ref, 0, len(branches)+len(tags))
	for _, r := range branches {
		refs = append(refs, r)
	}
	for _, r := range tags {
		refs = append(refs, r)
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Type != refs[j].Type {
			return refs[i].Type == RefTypeBranches
		}
		return refs[i].Name < refs[j].Name
	})

	slog.Debug("Selected refs", slog.Int("branches", len(branches)), slog.Int("tags", len(tags)))
	return refs, nil
}

// selectRemoteBranches adds remote-tracking branches of the named remote that
// match the branch pattern and are not already selected.
func (c *Client) selectRemoteBranches(remote string, branchRe *regexp.Regexp, branches map[string]Ref) error {
	prefix := "refs/remotes/" + remote + "/"

	iter, err := c.repo.References()
	if err != nil {
		return fmt.Errorf("failed to list references: %w", err)
	}
	return iter.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().String()
		if !strings.HasPrefix(name, prefix) {
			return nil
		}
		// The symbolic refs/remotes/<remote>/HEAD pointer is not a branch.
		if ref.Type() == plumbing.SymbolicReference {
			return nil
		}
		short := strings.TrimPrefix(name, prefix)
		if short == "HEAD" || !branchRe.MatchString(short) {
			return nil
		}
		if _, exists := branches[short]; exists {
			return nil
		}
		r, err := c.resolve(RefTypeBranches, short, ref)
		if err != nil {
			slog.Warn("Skipping unresolvable remote branch", logfields.Ref(name), logfields.Error(err))
			return nil
		}
		branches[short] = r
		return nil
	})
}

// resolve follows a reference to its commit, peeling annotated tags.
func (c *Client) resolve(refType RefType, name string, ref *plumbing.Reference) (Ref, error) {
	commit, err := c.commitFor(ref.Hash())
	if err != nil {
		return Ref{}, err
	}
	return Ref{
		Type:        refType,
		Name:        name,
		Path:        string(refType) + "/" + name,
		Hash:        commit.Hash.String(),
		CommittedAt: commit.Committer.When,
	}, nil
}

func (c *Client) commitFor(hash plumbing.Hash) (*object.Commit, error) {
	if tag, err := c.repo.TagObject(hash); err == nil {
		return tag.Commit()
	}
	commit, err := c.repo.CommitObject(hash)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve commit %s: %w", hash, err)
	}
	return commit, nil
}
