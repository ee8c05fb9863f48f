package completion

import "strings"

// ContextKind tags what is syntactically expected at the cursor.
type ContextKind int

const (
	// StatementStart offers top-level SQL keywords.
	StatementStart ContextKind = iota
	// AfterFrom offers table names, scoped to Database if a "db." qualifier
	// was typed.
	AfterFrom
	// AfterUse offers database names.
	AfterUse
	// AfterShow offers SHOW sub-keywords.
	AfterShow
	// ColumnContext offers column names from the tables referenced in the
	// statement's FROM/JOIN clauses.
	ColumnContext
	// Unknown declines to guess.
	Unknown
)

// Context is the classification result for one completion request.
type Context struct {
	Kind     ContextKind
	Database string   // AfterFrom: explicit "db." qualifier, if typed
	Tables   []string // ColumnContext: table names in scope
}

// clauseWords are keywords that must not be mistaken for table names when
// collecting FROM/JOIN targets.
var clauseWords = map[string]bool{
	"SELECT": true, "FROM": true, "WHERE": true, "JOIN": true, "ON": true,
	"GROUP": true, "ORDER": true, "BY": true, "HAVING": true, "LIMIT": true,
	"OFFSET": true, "AS": true, "SET": true, "VALUES": true, "UNION": true,
	"LEFT": true, "RIGHT": true, "INNER": true, "OUTER": true, "CROSS": true,
	"FULL": true, "USING": true, "INTO": true, "ASC": true, "DESC": true,
	"AND": true, "OR": true, "NOT": true, "IN": true, "LIKE": true,
	"BETWEEN": true, "IS": true, "NULL": true, "EXISTS": true, "DISTINCT": true,
}

// Classify scans tokens backward from just before the partial token until
// it finds the nearest context-establishing keyword, the start of the
// statement, or the start of input. Balanced parenthesized groups are
// skipped as opaque units; a ";" ends the scan and starts a fresh
// statement.
//
// tokens covers the buffer up to the cursor and drives the scan; all
// covers the whole buffer and feeds the column-scope table collection, so
// tables referenced after the cursor are still in scope. The two slices
// share indices for every token before the cursor.
func Classify(tokens, all []Token, partialIdx int) Context {
	// With the cursor in whitespace there is no partial token; the token
	// at partialIdx in all, if any, is fully typed and collectible.
	exclude := partialIdx
	if partialIdx >= len(tokens) {
		exclude = -1
	}

	for i := partialIdx - 1; i >= 0; i-- {
		tok := tokens[i]

		switch tok.Kind {
		case Punctuation:
			switch tok.Text {
			case ";":
				return Context{Kind: StatementStart}
			case ")":
				i = openParenIndex(tokens, i)
				if i < 0 {
					return Context{Kind: Unknown}
				}
			}
			// "(", ",", "." are transparent to the scan.

		case Operator, StringLiteral:
			// Context-neutral separators.

		case Word:
			upper := strings.ToUpper(tok.Match())
			switch upper {
			case "FROM", "JOIN":
				return Context{Kind: AfterFrom, Database: qualifierAfter(tokens, i, partialIdx)}
			case "USE":
				return Context{Kind: AfterUse}
			case "SHOW":
				return Context{Kind: AfterShow}
			case "SELECT", "WHERE", "ON", "HAVING":
				return Context{Kind: ColumnContext, Tables: tablesInScope(all, i, exclude)}
			case "BY":
				if prev := wordBefore(tokens, i); prev == "GROUP" || prev == "ORDER" {
					return Context{Kind: ColumnContext, Tables: tablesInScope(all, i, exclude)}
				}
			}
		}
	}
	return Context{Kind: StatementStart}
}

// openParenIndex walks backward from the ")" at index close to its
// matching "(", returning the index of the "(" or -1 if unbalanced.
func openParenIndex(tokens []Token, close int) int {
	depth := 0
	for i := close; i >= 0; i-- {
		if tokens[i].Kind != Punctuation {
			continue
		}
		switch tokens[i].Text {
		case ")":
			depth++
		case "(":
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// wordBefore returns the uppercased word token immediately preceding index
// i, or "" if there is none.
func wordBefore(tokens []Token, i int) string {
	if i == 0 || tokens[i-1].Kind != Word {
		return ""
	}
	return strings.ToUpper(tokens[i-1].Match())
}

// qualifierAfter inspects the tokens between a FROM/JOIN keyword at kw and
// the partial token for a "db." qualifier, returning the database name or
// "".
func qualifierAfter(tokens []Token, kw, partialIdx int) string {
	if kw+2 >= len(tokens) || kw+2 > partialIdx {
		return ""
	}
	first, second := tokens[kw+1], tokens[kw+2]
	if first.Kind == Word && second.Kind == Punctuation && second.Text == "." {
		return first.Match()
	}
	return ""
}

// tablesInScope collects every table name following FROM/JOIN within the
// statement containing index idx, scanning forward over the whole buffer.
// Statement bounds are the nearest ";" tokens on either side, or the
// buffer edges. The token at exclude (the half-typed partial word) is
// never collected; -1 excludes nothing.
func tablesInScope(tokens []Token, idx, exclude int) []string {
	start := 0
	for i := idx; i >= 0; i-- {
		if tokens[i].Kind == Punctuation && tokens[i].Text == ";" {
			start = i + 1
			break
		}
	}

	var tables []string
	seen := make(map[string]bool)
	for i := start; i < len(tokens); i++ {
		tok := tokens[i]
		if tok.Kind == Punctuation && tok.Text == ";" {
			break
		}
		if tok.Kind != Word {
			continue
		}
		upper := strings.ToUpper(tok.Match())
		if upper != "FROM" && upper != "JOIN" {
			continue
		}

		// Collect "name" or "db.name", then further comma-separated names.
		j := i + 1
		for j < len(tokens) {
			if j == exclude {
				break
			}
			name, next := tableNameAt(tokens, j)
			if name == "" {
				break
			}
			lower := strings.ToLower(name)
			if !seen[lower] {
				seen[lower] = true
				tables = append(tables, name)
			}
			j = next
			// Skip an alias word, if present.
			if j < len(tokens) && j != exclude && tokens[j].Kind == Word &&
				!clauseWords[strings.ToUpper(tokens[j].Match())] {
				j++
			}
			if j < len(tokens) && tokens[j].Kind == Punctuation && tokens[j].Text == "," {
				j++
				continue
			}
			break
		}
	}
	return tables
}

// tableNameAt reads a table reference starting at index j: either a bare
// name or a db.name pair. It returns the table name and the index after
// the reference, or "" if no valid name starts there.
func tableNameAt(tokens []Token, j int) (string, int) {
	if j >= len(tokens) || tokens[j].Kind != Word {
		return "", j
	}
	name := tokens[j].Match()
	if clauseWords[strings.ToUpper(name)] {
		return "", j
	}
	// "db . name" → the table is the word after the dot.
	if j+2 < len(tokens) &&
		tokens[j+1].Kind == Punctuation && tokens[j+1].Text == "." &&
		tokens[j+2].Kind == Word {
		return tokens[j+2].Match(), j + 3
	}
	return name, j + 1
}
