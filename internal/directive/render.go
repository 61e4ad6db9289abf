package directive

import (
	"errors"
	"fmt"
	htmlesc "html"
	"log/slog"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"

	"github.com/draftsite/draftsite/internal/catalog"
	"github.com/draftsite/draftsite/internal/logfields"
)

// Resolver supplies the state directives resolve against: the version
// registry populated during the collection pass and the directory holding
// rendered draft text.
type Resolver struct {
	Registry *catalog.Registry
	BaseDir  string
}

// HTMLRenderer renders Directive nodes to HTML.
type HTMLRenderer struct {
	resolver *Resolver
}

// NewHTMLRenderer creates a directive renderer bound to a resolver.
func NewHTMLRenderer(resolver *Resolver) *HTMLRenderer {
	return &HTMLRenderer{resolver: resolver}
}

// RegisterFuncs implements renderer.NodeRenderer.
func (r *HTMLRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindDirective, r.render)
}

func (r *HTMLRenderer) render(w util.BufWriter, source []byte, node gmast.Node, entering bool) (gmast.WalkStatus, error) {
	if !entering {
		return gmast.WalkContinue, nil
	}
	d := node.(*Directive)

	switch d.Name {
	case NameVersion:
		r.renderVersion(w, source, d)
	case NameDiff:
		r.renderDiff(w, source, d)
	case NameTocTree:
		r.renderTocTree(w, source, d)
	}
	return gmast.WalkContinue, nil
}

func (r *HTMLRenderer) renderVersion(w util.BufWriter, source []byte, d *Directive) {
	v := VersionOf(d, source)

	fmt.Fprintf(w, "<section class=\"draft-version\" id=%q>\n", v.Anchor())
	fmt.Fprintf(w, "<p class=\"draft-signature\"><code>%s@%s</code> <span class=\"draft-object-type\">%s</span></p>\n",
		htmlesc.EscapeString(v.Draft), htmlesc.EscapeString(v.RefName),
		htmlesc.EscapeString(catalog.ObjectTypeName(v.RefType)))

	src, err := v.ReadSource(r.resolver.BaseDir)
	if err != nil {
		slog.Warn("Draft text unavailable", logfields.Draft(v.Draft), logfields.Ref(v.RefPath), logfields.Error(err))
		fmt.Fprintf(w, "<p class=\"draft-error\">draft text for %s not available</p>\n", htmlesc.EscapeString(v.RefPath))
	} else {
		fmt.Fprintf(w, "<pre class=\"draft-text\">%s</pre>\n", htmlesc.EscapeString(src))
	}
	_, _ = w.WriteString("</section>\n")
}

func (r *HTMLRenderer) renderDiff(w util.BufWriter, source []byte, d *Directive) {
	diff := DiffOf(d, source)
	from, errFrom := r.resolver.Registry.SearchVersion(diff.From)
	to, errTo := r.resolver.Registry.SearchVersion(diff.To)

	if err := errors.Join(errFrom, errTo); err != nil {
		slog.Warn("Diff targets not resolved", logfields.Draft(diff.Draft), logfields.Error(err))
		fmt.Fprintf(w, "<p class=\"draft-diff-unresolved\">diff targets %s::%s not resolved</p>\n",
			htmlesc.EscapeString(diff.From), htmlesc.EscapeString(diff.To))
		return
	}

	fromText, errFrom := from.ReadSource(r.resolver.BaseDir)
	toText, errTo := to.ReadSource(r.resolver.BaseDir)
	if err := errors.Join(errFrom, errTo); err != nil {
		slog.Warn("Diff source unavailable", logfields.Draft(diff.Draft), logfields.Error(err))
		fmt.Fprintf(w, "<p class=\"draft-diff-unresolved\">diff targets %s::%s not resolved</p>\n",
			htmlesc.EscapeString(diff.From), htmlesc.EscapeString(diff.To))
		return
	}

	unified, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(fromText),
		B:        difflib.SplitLines(toText),
		FromFile: from.RefPath,
		ToFile:   to.RefPath,
		Context:  3,
	})
	if err != nil {
		slog.Warn("Diff computation failed", logfields.Draft(diff.Draft), logfields.Error(err))
		return
	}

	fmt.Fprintf(w, "<div class=\"draft-diff\" id=%q>\n", diff.Anchor())
	if unified == "" {
		fmt.Fprintf(w, "<p>No changes %s ⟼ %s</p>\n",
			htmlesc.EscapeString(diff.From), htmlesc.EscapeString(diff.To))
	} else {
		fmt.Fprintf(w, "<p>Changes %s ⟼ %s</p>\n",
			htmlesc.EscapeString(diff.From), htmlesc.EscapeString(diff.To))
		fmt.Fprintf(w, "<pre class=\"diff\">%s</pre>\n", htmlesc.EscapeString(unified))
	}
	_, _ = w.WriteString("</div>\n")
}

func (r *HTMLRenderer) renderTocTree(w util.BufWriter, source []byte, d *Directive) {
	_, _ = w.WriteString("<nav class=\"toctree\">\n<ul>\n")
	for _, entry := range d.Body(source) {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		fmt.Fprintf(w, "<li><a href=\"%s.html\">%s</a></li>\n",
			htmlesc.EscapeString(entry), htmlesc.EscapeString(entry))
	}
	_, _ = w.WriteString("</ul>\n</nav>\n")
}

// VersionOf extracts the catalog version a version directive describes.
func VersionOf(d *Directive, source []byte) catalog.Version {
	return catalog.Version{
		Draft:   d.Arg,
		RefType: d.Option(source, "ref_type"),
		RefName: d.Option(source, "ref_name"),
		RefPath: d.Option(source, "ref_path"),
	}
}

// DiffOf extracts the catalog diff a diff directive describes.
func DiffOf(d *Directive, source []byte) catalog.Diff {
	return catalog.Diff{
		Draft: d.Arg,
		From:  d.Option(source, "from"),
		To:    d.Option(source, "to"),
	}
}

// Collect walks a parsed document and registers its version and diff
// directives under the given document name. Run over every page before
// rendering so diff directives can resolve forward references.
func Collect(root gmast.Node, source []byte, registry *catalog.Registry, doc string) error {
	return gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		d, ok := n.(*Directive)
		if !ok {
			return gmast.WalkContinue, nil
		}
		switch d.Name {
		case NameVersion:
			registry.AddVersion(VersionOf(d, source), doc)
		case NameDiff:
			registry.AddDiff(DiffOf(d, source), doc)
		}
		return gmast.WalkContinue, nil
	})
}
