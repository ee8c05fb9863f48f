package completion

import (
	"sort"
	"strings"

	"github.com/tabsql/tabsql/internal/schema"
)

// CandidateKind categorizes a completion candidate.
type CandidateKind int

const (
	Keyword CandidateKind = iota
	Database
	Table
	Column
	SubCommand
)

// Candidate is one proposed completion: the text to insert plus its
// semantic kind. Candidates are built fresh for every request.
type Candidate struct {
	Text string
	Kind CandidateKind
}

// Engine turns (buffer, cursor, active database, schema snapshot) into a
// ranked candidate list. It holds only the static keyword tables; all
// schema data comes from the snapshot passed to each call, so an in-flight
// refresh can never disturb a request in progress.
type Engine struct {
	keywords []string
	showSubs []string
}

// NewEngine returns an Engine with the bundled keyword tables.
func NewEngine() *Engine {
	return &Engine{
		keywords: StatementKeywords,
		showSubs: ShowKeywords,
	}
}

// Complete returns the ordered, deduplicated candidates for the cursor
// position. It touches only in-memory data, performs no I/O, and never
// fails: anything it cannot classify yields an empty list.
func (e *Engine) Complete(buffer string, cursor int, activeDB string, snap *schema.Snapshot) []Candidate {
	if cursor > len(buffer) {
		cursor = len(buffer)
	}
	if cursor < 0 {
		cursor = 0
	}
	if snap == nil {
		snap = schema.Empty()
	}

	tokens := Tokenize(buffer, cursor)
	pi := partialIndex(tokens, cursor)

	var partial string
	if pi < len(tokens) {
		tok := tokens[pi]
		if tok.Kind == StringLiteral {
			// Inside (or right after) a string literal: decline.
			return nil
		}
		partial = tok.Match()
	}

	// Classification and the partial word look only at text before the
	// cursor, but column scoping must see FROM/JOIN clauses typed after
	// it too.
	all := tokens
	if cursor < len(buffer) {
		all = Tokenize(buffer, len(buffer))
	}

	ctx := Classify(tokens, all, pi)
	items := e.sources(ctx, activeDB, snap)
	items = filterPrefix(items, partial)
	items = dedupe(items)
	rank(items, partial)
	return items
}

// sources selects the candidate source lists for a classified context.
func (e *Engine) sources(ctx Context, activeDB string, snap *schema.Snapshot) []Candidate {
	switch ctx.Kind {
	case StatementStart:
		return candidates(e.keywords, Keyword)

	case AfterUse:
		return candidates(snap.Databases(), Database)

	case AfterShow:
		return candidates(e.showSubs, SubCommand)

	case AfterFrom:
		db := ctx.Database
		if db == "" {
			db = activeDB
		}
		if db == "" {
			return nil
		}
		if ctx.Database != "" && !snap.HasDatabase(ctx.Database) {
			// Qualifier names a database the cache has never seen: do not
			// guess.
			return nil
		}
		return candidates(snap.Tables(db), Table)

	case ColumnContext:
		var cols []string
		for _, table := range ctx.Tables {
			cols = append(cols, resolveColumns(snap, activeDB, table)...)
		}
		if len(cols) == 0 {
			cols = snap.AllColumns()
		}
		return candidates(cols, Column)

	default:
		return nil
	}
}

// resolveColumns looks a table up in the active database first, then in
// every other known database.
func resolveColumns(snap *schema.Snapshot, activeDB, table string) []string {
	if activeDB != "" {
		if cols := snap.Columns(activeDB, table); cols != nil {
			return cols
		}
	}
	for _, db := range snap.Databases() {
		if cols := snap.Columns(db, table); cols != nil {
			return cols
		}
	}
	return nil
}

func candidates(texts []string, kind CandidateKind) []Candidate {
	out := make([]Candidate, 0, len(texts))
	for _, t := range texts {
		out = append(out, Candidate{Text: t, Kind: kind})
	}
	return out
}

// filterPrefix keeps candidates whose text starts with partial,
// ASCII-case-insensitively. An empty partial keeps everything.
func filterPrefix(items []Candidate, partial string) []Candidate {
	if partial == "" {
		return items
	}
	lower := strings.ToLower(partial)
	out := items[:0]
	for _, it := range items {
		if strings.HasPrefix(strings.ToLower(it.Text), lower) {
			out = append(out, it)
		}
	}
	return out
}

// dedupe removes case-insensitive duplicates, keeping the first
// occurrence.
func dedupe(items []Candidate) []Candidate {
	seen := make(map[string]bool, len(items))
	out := items[:0]
	for _, it := range items {
		key := strings.ToLower(it.Text)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, it)
	}
	return out
}

// rank orders candidates: exact case-insensitive matches first, then
// shorter before longer among prefix matches, then case-insensitive
// lexicographic. With an empty partial every candidate is an equal match,
// so the order reduces to plain lexicographic.
func rank(items []Candidate, partial string) {
	lower := strings.ToLower(partial)
	sort.SliceStable(items, func(i, j int) bool {
		a, b := strings.ToLower(items[i].Text), strings.ToLower(items[j].Text)
		if lower != "" {
			ea, eb := a == lower, b == lower
			if ea != eb {
				return ea
			}
			if len(a) != len(b) {
				return len(a) < len(b)
			}
		}
		return a < b
	})
}

// CommonPrefix returns the longest common prefix shared by every
// candidate, for inline insertion by the read loop. Case differences are
// resolved in favor of the first candidate's spelling.
func CommonPrefix(items []Candidate) string {
	if len(items) == 0 {
		return ""
	}
	prefix := items[0].Text
	for _, it := range items[1:] {
		prefix = commonPrefix2(prefix, it.Text)
		if prefix == "" {
			return ""
		}
	}
	return prefix
}

func commonPrefix2(a, b string) string {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n {
		ca, cb := a[i], b[i]
		if ca != cb && lowerByte(ca) != lowerByte(cb) {
			break
		}
		i++
	}
	return a[:i]
}

func lowerByte(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}
