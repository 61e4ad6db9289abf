package directive

import (
	"regexp"
	"strings"

	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// openRe matches an opening colon fence like `:::{xml2rfc:version} draft-x`.
var openRe = regexp.MustCompile(`^:::\{([A-Za-z0-9:_-]+)\}[ \t]*(\S*)[ \t]*$`)

type blockParser struct{}

// NewBlockParser returns the colon-fence directive block parser.
func NewBlockParser() parser.BlockParser { return &blockParser{} }

func (p *blockParser) Trigger() []byte { return []byte{':'} }

func (p *blockParser) Open(parent gmast.Node, reader text.Reader, pc parser.Context) (gmast.Node, parser.State) {
	line, segment := reader.PeekLine()
	pos := pc.BlockOffset()
	if pos < 0 || pos >= len(line) || line[pos] != ':' {
		return nil, parser.NoChildren
	}

	header := strings.TrimRight(string(line[pos:]), "\n")
	m := openRe.FindStringSubmatch(header)
	if m == nil {
		return nil, parser.NoChildren
	}
	name := m[1]
	switch name {
	case NameVersion, NameDiff, NameTocTree:
	default:
		// Unknown fences stay plain text rather than silently vanishing.
		return nil, parser.NoChildren
	}

	node := NewDirective(name, m[2])
	reader.Advance(segment.Len() - 1)
	return node, parser.NoChildren
}

func (p *blockParser) Continue(node gmast.Node, reader text.Reader, pc parser.Context) parser.State {
	line, segment := reader.PeekLine()
	if strings.TrimSpace(string(line)) == ":::" {
		reader.Advance(segment.Len() - 1)
		return parser.Close
	}
	node.Lines().Append(segment)
	reader.Advance(segment.Len() - 1)
	return parser.Continue | parser.NoChildren
}

func (p *blockParser) Close(node gmast.Node, reader text.Reader, pc parser.Context) {}

func (p *blockParser) CanInterruptParagraph() bool { return true }

func (p *blockParser) CanAcceptIndentedLine() bool { return false }
