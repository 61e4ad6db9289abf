// Package site turns the generated markdown tree into a static HTML site.
//
// Building runs in two passes: the first parses every page and collects the
// version and diff directives into the catalog registry, the second renders
// the pages to HTML. Splitting the passes lets a diff directive reference a
// version that lives in a page parsed later.
package site

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/draftsite/draftsite/internal/catalog"
	"github.com/draftsite/draftsite/internal/config"
	"github.com/draftsite/draftsite/internal/directive"
	apperrors "github.com/draftsite/draftsite/internal/errors"
	"github.com/draftsite/draftsite/internal/logfields"
)

// DefaultTitle is used when the configuration sets no site title.
const DefaultTitle = "Internet Drafts"

// Summary reports what a site build produced.
type Summary struct {
	Pages     int
	Documents []string
}

// Builder renders the markdown under SourceDir into HTML under OutputDir.
type Builder struct {
	Title     string
	BaseURL   string // absolute site root; empty means relative links
	SourceDir string
	OutputDir string

	registry *catalog.Registry
	md       goldmark.Markdown
}

// New creates a site builder from configuration.
func New(cfg *config.Config) *Builder {
	title := cfg.Site.Title
	if title == "" {
		title = DefaultTitle
	}
	outDir := cfg.Site.Directory
	if outDir == "" {
		outDir = config.DefaultSiteDir
	}

	registry := catalog.NewRegistry()
	resolver := &directive.Resolver{Registry: registry, BaseDir: cfg.Output}
	md := goldmark.New(goldmark.WithExtensions(directive.New(resolver)))

	return &Builder{
		Title:     title,
		BaseURL:   cfg.Site.BaseURL,
		SourceDir: cfg.Output,
		OutputDir: outDir,
		registry:  registry,
		md:        md,
	}
}

// Registry exposes the collected version catalog, populated by Build.
func (b *Builder) Registry() *catalog.Registry { return b.registry }

type page struct {
	doc    string // slash path without extension, e.g. "branches/main/draft-x"
	source []byte
	root   gmast.Node
}

// Build renders the full site. Missing source markdown is not an error; the
// summary simply reports zero pages.
func (b *Builder) Build() (*Summary, error) {
	pages, err := b.collect()
	if err != nil {
		return nil, apperrors.SiteGenerationError(err)
	}

	summary := &Summary{}
	for _, p := range pages {
		if err := b.renderPage(p); err != nil {
			return summary, apperrors.SiteGenerationError(err)
		}
		summary.Pages++
		summary.Documents = append(summary.Documents, p.doc)
	}

	if len(pages) > 0 {
		if err := b.writeIndex(); err != nil {
			return summary, apperrors.SiteGenerationError(err)
		}
		summary.Pages++
	}

	slog.Info("Site generated", slog.Int("pages", summary.Pages), logfields.Path(b.OutputDir))
	return summary, nil
}

// collect parses every markdown page and registers its directives.
func (b *Builder) collect() ([]page, error) {
	var pages []page
	err := filepath.WalkDir(b.SourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == b.SourceDir {
				return filepath.SkipAll
			}
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}

		source, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read page %s: %w", path, err)
		}
		rel, err := filepath.Rel(b.SourceDir, path)
		if err != nil {
			return err
		}
		doc := strings.TrimSuffix(filepath.ToSlash(rel), ".md")

		root := b.md.Parser().Parse(text.NewReader(source))
		if err := directive.Collect(root, source, b.registry, doc); err != nil {
			return fmt.Errorf("collect directives in %s: %w", doc, err)
		}
		pages = append(pages, page{doc: doc, source: source, root: root})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(pages, func(i, j int) bool { return pages[i].doc < pages[j].doc })
	return pages, nil
}

func (b *Builder) renderPage(p page) error {
	var body bytes.Buffer
	if err := b.md.Renderer().Render(&body, p.source, p.root); err != nil {
		return fmt.Errorf("render %s: %w", p.doc, err)
	}
	return b.writeHTML(p.doc, p.doc, body.String())
}

// writeHTML wraps a rendered body in the layout and writes <doc>.html.
func (b *Builder) writeHTML(doc, title, body string) error {
	data := layoutData{
		SiteTitle: b.Title,
		Title:     title,
		Base:      b.baseHref(doc),
		Content:   template.HTML(body),
	}

	var out bytes.Buffer
	if err := layoutTmpl.Execute(&out, data); err != nil {
		return fmt.Errorf("layout %s: %w", doc, err)
	}

	path := filepath.Join(b.OutputDir, filepath.FromSlash(doc)+".html")
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, out.Bytes(), 0o644)
}

// writeIndex renders the versions index from the collected registry.
func (b *Builder) writeIndex() error {
	var body bytes.Buffer
	if err := indexTmpl.Execute(&body, b.registry.Index()); err != nil {
		return fmt.Errorf("render index: %w", err)
	}
	return b.writeHTML("index", "Versions", body.String())
}

// baseHref returns the href every page's <base> points at: the configured
// absolute site root, or a relative prefix climbing back to it, so
// root-relative toctree links keep working from nested pages.
func (b *Builder) baseHref(doc string) string {
	if b.BaseURL != "" {
		if strings.HasSuffix(b.BaseURL, "/") {
			return b.BaseURL
		}
		return b.BaseURL + "/"
	}
	depth := strings.Count(doc, "/")
	if depth == 0 {
		return "./"
	}
	return strings.Repeat("../", depth)
}
