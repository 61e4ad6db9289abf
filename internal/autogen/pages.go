package autogen

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/draftsite/draftsite/internal/directive"
	"github.com/draftsite/draftsite/internal/gitrefs"
)

// GeneratePages writes the markdown page tree for the rendered versions
// into outputDir and returns the number of pages written. No versions means
// no pages, including no toc.
func GeneratePages(outputDir string, drafts []string, versions []AutoVersion) (int, error) {
	if len(versions) == 0 {
		return 0, nil
	}

	pages := 0
	grouped := byDraft(versions)
	var rootEntries []string

	for _, draft := range drafts {
		draftVersions := grouped[draft]
		if len(draftVersions) == 0 {
			continue
		}
		n, err := generateDraftPages(outputDir, draft, draftVersions)
		if err != nil {
			return pages, err
		}
		pages += n
		rootEntries = append(rootEntries, "toc-"+draft)
	}

	var b strings.Builder
	b.WriteString("# Internet Drafts\n\n")
	writeTocTree(&b, 3, rootEntries)
	if err := writePage(filepath.Join(outputDir, "toc.md"), b.String()); err != nil {
		return pages, err
	}
	return pages + 1, nil
}

func generateDraftPages(outputDir, draft string, versions []AutoVersion) (int, error) {
	pages := 0
	var draftEntries []string
	groups := byRefType(versions)

	for _, refType := range []gitrefs.RefType{gitrefs.RefTypeBranches, gitrefs.RefTypeTags} {
		group := groups[refType]
		if len(group) == 0 {
			continue
		}

		var entries []string
		for _, v := range group {
			if err := writeVersionPage(outputDir, v); err != nil {
				return pages, err
			}
			pages++
			entries = append(entries, v.Ref.Path+"/"+v.Draft)
		}

		name := fmt.Sprintf("toc-%s-%s", draft, refType)
		var b strings.Builder
		fmt.Fprintf(&b, "# %s\n\n", refType)
		writeTocTree(&b, 1, entries)
		if err := writePage(filepath.Join(outputDir, name+".md"), b.String()); err != nil {
			return pages, err
		}
		pages++
		draftEntries = append(draftEntries, name)
	}

	if pairs := diffPairs(versions); len(pairs) > 0 {
		n, err := generateDiffPages(outputDir, draft, pairs)
		if err != nil {
			return pages + n, err
		}
		pages += n
		draftEntries = append(draftEntries, fmt.Sprintf("toc-%s-diffs", draft))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# `%s`\n\n", draft)
	writeTocTree(&b, 2, draftEntries)
	if err := writePage(filepath.Join(outputDir, "toc-"+draft+".md"), b.String()); err != nil {
		return pages, err
	}
	return pages + 1, nil
}

func writeVersionPage(outputDir string, v AutoVersion) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s: %s\n\n", v.Ref.Type, v.Ref.Name)
	fmt.Fprintf(&b, ":::{%s} %s\n", directive.NameVersion, v.Draft)
	fmt.Fprintf(&b, ":ref_type: %s\n", v.Ref.Type)
	fmt.Fprintf(&b, ":ref_name: %s\n", v.Ref.Name)
	fmt.Fprintf(&b, ":ref_path: %s\n", v.Ref.Path)
	b.WriteString(":::\n")

	path := filepath.Join(outputDir, filepath.FromSlash(v.Ref.Path), v.Draft+".md")
	return writePage(path, b.String())
}

func generateDiffPages(outputDir, draft string, pairs []diffPair) (int, error) {
	pages := 0
	var entries []string

	for _, pair := range pairs {
		name := diffPageName(draft, pair.From)
		var b strings.Builder
		fmt.Fprintf(&b, "# %s ⟼ %s\n\n", pair.From.Ref.Path, pair.To.Ref.Path)
		fmt.Fprintf(&b, ":::{%s} %s\n", directive.NameDiff, draft)
		fmt.Fprintf(&b, ":from: %s\n", pair.From.Ref.Path)
		fmt.Fprintf(&b, ":to: %s\n", pair.To.Ref.Path)
		b.WriteString(":::\n")

		path := filepath.Join(outputDir, filepath.FromSlash(pair.To.Ref.Path), name+".md")
		if err := writePage(path, b.String()); err != nil {
			return pages, err
		}
		pages++
		entries = append(entries, pair.To.Ref.Path+"/"+name)
	}

	var b strings.Builder
	b.WriteString("# changes\n\n")
	writeTocTree(&b, 1, entries)
	if err := writePage(filepath.Join(outputDir, fmt.Sprintf("toc-%s-diffs.md", draft)), b.String()); err != nil {
		return pages, err
	}
	return pages + 1, nil
}

// diffPageName names a diff page after the predecessor it diffs from. Ref
// names can contain slashes, which must not become directories.
func diffPageName(draft string, from AutoVersion) string {
	refName := strings.ReplaceAll(from.Ref.Name, "/", "-")
	return fmt.Sprintf("%s-diff-from-%s.%s", draft, from.Ref.Type, refName)
}

func writeTocTree(b *strings.Builder, maxDepth int, entries []string) {
	fmt.Fprintf(b, ":::{%s}\n", directive.NameTocTree)
	fmt.Fprintf(b, ":maxdepth: %d\n\n", maxDepth)
	for _, entry := range entries {
		b.WriteString(entry)
		b.WriteByte('\n')
	}
	b.WriteString(":::\n")
}

func writePage(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
