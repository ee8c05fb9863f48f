package render

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/charmbracelet/lipgloss"
)

// Highlighter tokenises SQL text using chroma and renders it with lipgloss
// styles.
type Highlighter struct {
	lexer chroma.Lexer
}

// NewHighlighter creates a Highlighter using the MySQL lexer, falling back
// to the generic SQL lexer.
func NewHighlighter() *Highlighter {
	l := lexers.Get("MySQL")
	if l == nil {
		l = lexers.Get("SQL")
	}
	if l == nil {
		l = lexers.Fallback
	}
	// Coalesce runs of identical token types so the loop below processes
	// fewer, larger chunks.
	l = chroma.Coalesce(l)

	return &Highlighter{lexer: l}
}

var (
	kwStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("75")).Bold(true)
	strStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
	numStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("179"))
	cmtStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("243")).Italic(true)
	fnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("176"))
)

// Highlight tokenises sql and returns a styled string. Any tokenisation
// failure returns the input unchanged.
func (h *Highlighter) Highlight(sql string) string {
	iter, err := h.lexer.Tokenise(nil, sql)
	if err != nil {
		return sql
	}

	var b strings.Builder
	b.Grow(len(sql) * 2)

	for _, tok := range iter.Tokens() {
		if tok.Value == "" {
			continue
		}
		style, ok := styleFor(tok.Type)
		if !ok {
			b.WriteString(tok.Value)
			continue
		}
		b.WriteString(style.Render(tok.Value))
	}
	return b.String()
}

func styleFor(t chroma.TokenType) (lipgloss.Style, bool) {
	switch {
	case t.InCategory(chroma.Keyword):
		return kwStyle, true
	case t.InCategory(chroma.LiteralString):
		return strStyle, true
	case t.InCategory(chroma.LiteralNumber):
		return numStyle, true
	case t.InCategory(chroma.Comment):
		return cmtStyle, true
	case t == chroma.NameFunction || t == chroma.NameBuiltin:
		return fnStyle, true
	}
	return lipgloss.Style{}, false
}
