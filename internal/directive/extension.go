package directive

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

// Extension wires the directive block parser and HTML renderer into a
// goldmark instance.
type Extension struct {
	Resolver *Resolver
}

// New creates the goldmark extension bound to a resolver.
func New(resolver *Resolver) *Extension {
	return &Extension{Resolver: resolver}
}

// Extend implements goldmark.Extender.
func (e *Extension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithBlockParsers(
			// Ahead of the list parsers so `:::{...}` never reads as text.
			util.Prioritized(NewBlockParser(), 100),
		),
	)
	m.Renderer().AddOptions(
		renderer.WithNodeRenderers(
			util.Prioritized(NewHTMLRenderer(e.Resolver), 500),
		),
	)
}
