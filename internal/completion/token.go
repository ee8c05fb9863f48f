package completion

import "strings"

// TokenKind categorizes a lexed token.
type TokenKind int

const (
	Word TokenKind = iota
	Operator
	StringLiteral
	Punctuation
)

// Token is one lexed unit of the input buffer. Text is always the exact
// substring buffer[Start:End], so reassembling spans loses nothing.
type Token struct {
	Text  string
	Kind  TokenKind
	Start int
	End   int
}

// Match returns the token text used for candidate matching: backtick
// quoting is stripped, everything else passes through unchanged.
func (t Token) Match() string {
	s := t.Text
	if len(s) >= 2 && s[0] == '`' && s[len(s)-1] == '`' {
		return s[1 : len(s)-1]
	}
	return strings.TrimPrefix(s, "`")
}

// operatorWords are word tokens tagged Operator: context-neutral
// separators for classification purposes.
var operatorWords = map[string]bool{
	"AND": true, "OR": true, "NOT": true,
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isPunct(c byte) bool {
	switch c {
	case '(', ')', ',', ';', '.':
		return true
	}
	return false
}

func isOperatorChar(c byte) bool {
	return c == '=' || c == '<' || c == '>'
}

// Tokenize lexes buffer[:cursor] into tokens. It never fails: malformed
// input (an unterminated quote, stray punctuation) still produces a
// best-effort token stream. Deterministic for identical input.
func Tokenize(buffer string, cursor int) []Token {
	if cursor > len(buffer) {
		cursor = len(buffer)
	}
	if cursor < 0 {
		cursor = 0
	}
	src := buffer[:cursor]

	var tokens []Token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case isSpace(c):
			i++

		case isPunct(c):
			tokens = append(tokens, Token{Text: src[i : i+1], Kind: Punctuation, Start: i, End: i + 1})
			i++

		case c == '\'' || c == '"':
			end := scanString(src, i, c)
			tokens = append(tokens, Token{Text: src[i:end], Kind: StringLiteral, Start: i, End: end})
			i = end

		case c == '`':
			end := scanBacktick(src, i)
			tokens = append(tokens, Token{Text: src[i:end], Kind: Word, Start: i, End: end})
			i = end

		case isOperatorChar(c):
			end := i + 1
			if end < len(src) {
				two := src[i : end+1]
				if two == "<=" || two == ">=" || two == "<>" {
					end++
				}
			}
			tokens = append(tokens, Token{Text: src[i:end], Kind: Operator, Start: i, End: end})
			i = end

		default:
			end := scanWord(src, i)
			text := src[i:end]
			kind := Word
			if operatorWords[strings.ToUpper(text)] {
				kind = Operator
			}
			tokens = append(tokens, Token{Text: text, Kind: kind, Start: i, End: end})
			i = end
		}
	}
	return tokens
}

// scanString consumes a quoted literal starting at i. Backslash escapes
// the following byte. An unterminated literal runs to end of input.
func scanString(src string, i int, quote byte) int {
	j := i + 1
	for j < len(src) {
		switch src[j] {
		case '\\':
			j += 2
		case quote:
			return j + 1
		default:
			j++
		}
	}
	return len(src)
}

// scanBacktick consumes a backtick-quoted identifier, unterminated runs to
// end of input.
func scanBacktick(src string, i int) int {
	j := i + 1
	for j < len(src) {
		if src[j] == '`' {
			return j + 1
		}
		j++
	}
	return len(src)
}

func scanWord(src string, i int) int {
	j := i
	for j < len(src) {
		c := src[j]
		if isSpace(c) || isPunct(c) || isOperatorChar(c) || c == '\'' || c == '"' || c == '`' {
			break
		}
		j++
	}
	return j
}

// PartialText returns the text of the partial token at the cursor, with
// backtick quoting stripped, or "" when the cursor follows whitespace or
// punctuation. The read loop uses it to splice candidate suffixes.
func PartialText(buffer string, cursor int) string {
	if cursor > len(buffer) {
		cursor = len(buffer)
	}
	if cursor < 0 {
		cursor = 0
	}
	tokens := Tokenize(buffer, cursor)
	pi := partialIndex(tokens, cursor)
	if pi >= len(tokens) || tokens[pi].Kind == StringLiteral {
		return ""
	}
	return tokens[pi].Match()
}

// partialIndex locates the token being typed at the cursor: the last token
// if its span ends exactly at the cursor. It returns len(tokens) when the
// cursor follows whitespace or punctuation, meaning the partial is empty.
func partialIndex(tokens []Token, cursor int) int {
	if len(tokens) == 0 {
		return 0
	}
	last := tokens[len(tokens)-1]
	if last.End != cursor {
		return len(tokens)
	}
	switch last.Kind {
	case Word, StringLiteral:
		return len(tokens) - 1
	}
	return len(tokens)
}
