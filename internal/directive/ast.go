// Package directive implements the colon-fence markup directives embedded in
// generated pages as a goldmark extension:
//
//	:::{xml2rfc:version} draft-name
//	:ref_type: branches
//	:ref_name: main
//	:ref_path: branches/main
//	:::
//
// Supported directives are xml2rfc:version (inline a rendered draft),
// xml2rfc:diff (unified diff between two renderings) and toctree
// (navigation list).
package directive

import (
	"strings"

	gmast "github.com/yuin/goldmark/ast"
)

// Directive names recognized by the parser.
const (
	NameVersion = "xml2rfc:version"
	NameDiff    = "xml2rfc:diff"
	NameTocTree = "toctree"
)

// Directive is a block node holding one parsed colon-fence directive.
type Directive struct {
	gmast.BaseBlock

	// Name is the directive name from the opening fence.
	Name string
	// Arg is the single optional argument after the fence, e.g. a draft name.
	Arg string

	resolved bool
	options  map[string]string
	body     []string
}

// KindDirective is the node kind for Directive blocks.
var KindDirective = gmast.NewNodeKind("Directive")

// Kind implements ast.Node.
func (d *Directive) Kind() gmast.NodeKind { return KindDirective }

// Dump implements ast.Node.
func (d *Directive) Dump(source []byte, level int) {
	gmast.DumpHelper(d, source, level, map[string]string{
		"Name": d.Name,
		"Arg":  d.Arg,
	}, nil)
}

// IsRaw implements ast.Node; directive content is not parsed as markdown.
func (d *Directive) IsRaw() bool { return true }

// NewDirective creates a directive node for the given fence header.
func NewDirective(name, arg string) *Directive {
	return &Directive{Name: name, Arg: arg}
}

// resolve splits the raw fence lines into leading `:key: value` options and
// remaining body lines. Idempotent.
func (d *Directive) resolve(source []byte) {
	if d.resolved {
		return
	}
	d.resolved = true
	d.options = make(map[string]string)

	inOptions := true
	lines := d.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		line := strings.TrimRight(string(seg.Value(source)), "\n")
		if inOptions {
			if key, value, ok := parseOptionLine(line); ok {
				d.options[key] = value
				continue
			}
			inOptions = false
			if strings.TrimSpace(line) == "" {
				// Blank separator between options and body.
				continue
			}
		}
		d.body = append(d.body, line)
	}
}

// Option returns the named `:key: value` option.
func (d *Directive) Option(source []byte, key string) string {
	d.resolve(source)
	return d.options[key]
}

// Body returns the non-option body lines.
func (d *Directive) Body(source []byte) []string {
	d.resolve(source)
	return d.body
}

func parseOptionLine(line string) (key, value string, ok bool) {
	if !strings.HasPrefix(line, ":") {
		return "", "", false
	}
	rest := line[1:]
	idx := strings.Index(rest, ":")
	if idx <= 0 {
		return "", "", false
	}
	key = rest[:idx]
	if strings.ContainsAny(key, " \t") {
		return "", "", false
	}
	return key, strings.TrimSpace(rest[idx+1:]), true
}
