package completion

import (
	"reflect"
	"strings"
	"testing"

	"github.com/tabsql/tabsql/internal/schema"
)

// ---------------------------------------------------------------------------
// Helper: build a standard test snapshot
// ---------------------------------------------------------------------------

func testSnapshot() *schema.Snapshot {
	b := schema.NewBuilder()
	b.AddDatabase("shop")
	b.SetTables("shop", []string{"orders", "users"})
	b.SetColumns("shop", "orders", []string{"id", "user_id", "total"})
	b.SetColumns("shop", "users", []string{"id", "name", "email"})
	b.AddDatabase("test")
	b.SetTables("test", []string{"scratch"})
	b.SetColumns("test", "scratch", []string{"x"})
	return b.Build(1)
}

func texts(items []Candidate) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Text
	}
	return out
}

func contains(items []Candidate, text string) bool {
	for _, it := range items {
		if it.Text == text {
			return true
		}
	}
	return false
}

func complete(buffer string) []Candidate {
	e := NewEngine()
	return e.Complete(buffer, len(buffer), "shop", testSnapshot())
}

// ---------------------------------------------------------------------------
// 1. Keyword completion
// ---------------------------------------------------------------------------

func TestComplete_PartialKeyword(t *testing.T) {
	tests := []struct {
		name   string
		buffer string
	}{
		{"upper", "SEL"},
		{"lower", "sel"},
		{"mixed", "Sel"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := complete(tt.buffer)
			if len(items) != 1 || items[0].Text != "SELECT" {
				t.Errorf("Complete(%q) = %v, want exactly [SELECT]", tt.buffer, texts(items))
			}
			if items[0].Kind != Keyword {
				t.Errorf("kind = %v, want Keyword", items[0].Kind)
			}
		})
	}
}

func TestComplete_EmptyBufferOffersKeywords(t *testing.T) {
	items := complete("")
	if len(items) != len(StatementKeywords) {
		t.Errorf("got %d candidates, want all %d statement keywords",
			len(items), len(StatementKeywords))
	}
	if !contains(items, "SELECT") || !contains(items, "USE") {
		t.Errorf("missing expected keywords in %v", texts(items))
	}
}

func TestComplete_KeywordAfterSemicolon(t *testing.T) {
	items := complete("SELECT 1; UPD")
	if len(items) != 1 || items[0].Text != "UPDATE" {
		t.Errorf("got %v, want [UPDATE]", texts(items))
	}
}

// ---------------------------------------------------------------------------
// 2. SHOW sub-commands
// ---------------------------------------------------------------------------

func TestComplete_ShowSubcommand(t *testing.T) {
	items := complete("SHOW DATAB")
	if len(items) != 1 || items[0].Text != "DATABASES" {
		t.Errorf("got %v, want [DATABASES]", texts(items))
	}
	if items[0].Kind != SubCommand {
		t.Errorf("kind = %v, want SubCommand", items[0].Kind)
	}
}

func TestComplete_ShowAll(t *testing.T) {
	items := complete("SHOW ")
	if len(items) != len(ShowKeywords) {
		t.Errorf("got %d candidates, want %d", len(items), len(ShowKeywords))
	}
}

// ---------------------------------------------------------------------------
// 3. Table completion
// ---------------------------------------------------------------------------

func TestComplete_TablesAfterFrom(t *testing.T) {
	items := complete("SELECT * FROM ")
	want := []string{"orders", "users"}
	if !reflect.DeepEqual(texts(items), want) {
		t.Errorf("got %v, want %v (sorted)", texts(items), want)
	}
	for _, it := range items {
		if it.Kind != Table {
			t.Errorf("candidate %q kind = %v, want Table", it.Text, it.Kind)
		}
	}
}

func TestComplete_TablePrefix(t *testing.T) {
	items := complete("SELECT * FROM ord")
	if len(items) != 1 || items[0].Text != "orders" {
		t.Errorf("got %v, want [orders]", texts(items))
	}
}

func TestComplete_TablesAfterJoin(t *testing.T) {
	items := complete("SELECT * FROM orders JOIN us")
	if len(items) != 1 || items[0].Text != "users" {
		t.Errorf("got %v, want [users]", texts(items))
	}
}

func TestComplete_QualifiedTable(t *testing.T) {
	items := complete("SELECT * FROM test.")
	if len(items) != 1 || items[0].Text != "scratch" {
		t.Errorf("got %v, want [scratch]", texts(items))
	}
}

func TestComplete_UnknownQualifier(t *testing.T) {
	// A database the snapshot has never seen: no guessing.
	items := complete("SELECT * FROM warehouse.")
	if len(items) != 0 {
		t.Errorf("got %v, want none for unknown database qualifier", texts(items))
	}
}

func TestComplete_NoActiveDatabase(t *testing.T) {
	e := NewEngine()
	items := e.Complete("SELECT * FROM ", 14, "", testSnapshot())
	if len(items) != 0 {
		t.Errorf("got %v, want none without an active database", texts(items))
	}
}

// ---------------------------------------------------------------------------
// 4. Database completion
// ---------------------------------------------------------------------------

func TestComplete_DatabasesAfterUse(t *testing.T) {
	items := complete("USE ")
	want := []string{"shop", "test"}
	if !reflect.DeepEqual(texts(items), want) {
		t.Errorf("got %v, want %v", texts(items), want)
	}
	for _, it := range items {
		if it.Kind != Database {
			t.Errorf("candidate %q kind = %v, want Database", it.Text, it.Kind)
		}
	}
}

// ---------------------------------------------------------------------------
// 5. Column completion
// ---------------------------------------------------------------------------

func TestComplete_ColumnsAfterWhere(t *testing.T) {
	items := complete("SELECT id FROM orders WHERE ")
	want := []string{"id", "total", "user_id"}
	if !reflect.DeepEqual(texts(items), want) {
		t.Errorf("got %v, want %v", texts(items), want)
	}
}

func TestComplete_ColumnsScopedByFromAfterCursor(t *testing.T) {
	// Cursor sits in the SELECT list; the FROM clause behind it still
	// narrows the columns to orders', keeping test.scratch's out.
	e := NewEngine()
	buffer := "SELECT  FROM orders WHERE id = 1"
	items := e.Complete(buffer, 7, "shop", testSnapshot())
	want := []string{"id", "total", "user_id"}
	if !reflect.DeepEqual(texts(items), want) {
		t.Errorf("got %v, want %v", texts(items), want)
	}
}

func TestComplete_ColumnPrefixWithFromAfterCursor(t *testing.T) {
	e := NewEngine()
	buffer := "SELECT us FROM orders"
	items := e.Complete(buffer, 9, "shop", testSnapshot())
	want := []string{"user_id"}
	if !reflect.DeepEqual(texts(items), want) {
		t.Errorf("got %v, want %v", texts(items), want)
	}
}

func TestComplete_ColumnsFromAllScopedTables(t *testing.T) {
	items := complete("SELECT * FROM orders JOIN users ON ")
	for _, col := range []string{"user_id", "total", "name", "email"} {
		if !contains(items, col) {
			t.Errorf("missing column %q in %v", col, texts(items))
		}
	}
	// "id" appears in both tables but must be offered once.
	n := 0
	for _, it := range items {
		if strings.EqualFold(it.Text, "id") {
			n++
		}
	}
	if n != 1 {
		t.Errorf("'id' offered %d times, want 1", n)
	}
}

func TestComplete_ColumnFallbackWithoutFrom(t *testing.T) {
	// No resolvable table in the statement: fall back to every known
	// column.
	items := complete("SELECT ")
	for _, col := range []string{"id", "name", "total", "x"} {
		if !contains(items, col) {
			t.Errorf("missing fallback column %q in %v", col, texts(items))
		}
	}
}

func TestComplete_ColumnsResolveOutsideActiveDB(t *testing.T) {
	// scratch lives in test, not in the active database shop.
	items := complete("SELECT * FROM scratch WHERE ")
	if len(items) != 1 || items[0].Text != "x" {
		t.Errorf("got %v, want [x]", texts(items))
	}
}

// ---------------------------------------------------------------------------
// 6. Ranking
// ---------------------------------------------------------------------------

func TestRank_ExactMatchFirst(t *testing.T) {
	items := []Candidate{
		{Text: "DESCRIBE", Kind: Keyword},
		{Text: "DESC", Kind: Keyword},
	}
	rank(items, "desc")
	if items[0].Text != "DESC" {
		t.Errorf("exact match should rank first, got %v", texts(items))
	}
}

func TestRank_ShorterBeforeLonger(t *testing.T) {
	items := []Candidate{
		{Text: "user_id", Kind: Column},
		{Text: "user", Kind: Column},
		{Text: "username", Kind: Column},
	}
	rank(items, "use")
	want := []string{"user", "user_id", "username"}
	if !reflect.DeepEqual(texts(items), want) {
		t.Errorf("got %v, want %v", texts(items), want)
	}
}

func TestRank_EmptyPartialIsLexicographic(t *testing.T) {
	items := []Candidate{
		{Text: "zz", Kind: Table},
		{Text: "aaaa", Kind: Table},
		{Text: "mm", Kind: Table},
	}
	rank(items, "")
	want := []string{"aaaa", "mm", "zz"}
	if !reflect.DeepEqual(texts(items), want) {
		t.Errorf("got %v, want %v", texts(items), want)
	}
}

// ---------------------------------------------------------------------------
// 7. Properties
// ---------------------------------------------------------------------------

// Identical inputs against the same snapshot must produce identical output.
func TestComplete_Idempotent(t *testing.T) {
	e := NewEngine()
	snap := testSnapshot()
	buffers := []string{"SEL", "SELECT * FROM ", "USE ", "SHOW ", "SELECT id FROM orders WHERE "}

	for _, buf := range buffers {
		a := e.Complete(buf, len(buf), "shop", snap)
		b := e.Complete(buf, len(buf), "shop", snap)
		if !reflect.DeepEqual(a, b) {
			t.Errorf("Complete(%q) not deterministic: %v vs %v", buf, texts(a), texts(b))
		}
	}
}

// Every candidate must start with the partial word, case-insensitively.
func TestComplete_PrefixInvariant(t *testing.T) {
	buffers := []string{"se", "SELECT * FROM or", "USE s", "SHOW D", "SELECT id FROM orders WHERE u"}

	for _, buf := range buffers {
		partial := strings.ToLower(PartialText(buf, len(buf)))
		for _, it := range complete(buf) {
			if !strings.HasPrefix(strings.ToLower(it.Text), partial) {
				t.Errorf("Complete(%q): candidate %q does not start with %q", buf, it.Text, partial)
			}
		}
	}
}

// An unterminated string literal at the cursor degrades to no candidates,
// never an error.
func TestComplete_InsideStringLiteral(t *testing.T) {
	buffers := []string{
		"SELECT * FROM users WHERE name = 'jo",
		`SELECT "unfinis`,
		`INSERT INTO t VALUES ('a\'b`,
	}
	for _, buf := range buffers {
		if items := complete(buf); items != nil {
			t.Errorf("Complete(%q) = %v, want nil inside string literal", buf, texts(items))
		}
	}
}

func TestComplete_NilSnapshot(t *testing.T) {
	e := NewEngine()
	items := e.Complete("USE ", 4, "", nil)
	if len(items) != 0 {
		t.Errorf("got %v, want none with nil snapshot", texts(items))
	}
	// Keywords still work: they come bundled, not from the snapshot.
	items = e.Complete("SEL", 3, "", nil)
	if len(items) != 1 || items[0].Text != "SELECT" {
		t.Errorf("got %v, want [SELECT] with nil snapshot", texts(items))
	}
}

func TestComplete_CursorClamped(t *testing.T) {
	e := NewEngine()
	snap := testSnapshot()
	if items := e.Complete("SEL", 100, "shop", snap); len(items) != 1 || items[0].Text != "SELECT" {
		t.Errorf("cursor beyond end: got %v", texts(items))
	}
	if items := e.Complete("SELECT", -1, "shop", snap); len(items) != len(StatementKeywords) {
		t.Errorf("negative cursor: got %d candidates, want all keywords", len(items))
	}
}

// ---------------------------------------------------------------------------
// 8. CommonPrefix
// ---------------------------------------------------------------------------

func TestCommonPrefix(t *testing.T) {
	tests := []struct {
		name  string
		items []Candidate
		want  string
	}{
		{"empty", nil, ""},
		{"single", []Candidate{{Text: "orders"}}, "orders"},
		{"shared", []Candidate{{Text: "user_id"}, {Text: "username"}, {Text: "users"}}, "user"},
		{"none", []Candidate{{Text: "orders"}, {Text: "users"}}, ""},
		{"case_folded", []Candidate{{Text: "Orders"}, {Text: "orders_log"}}, "Order"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CommonPrefix(tt.items); got != tt.want {
				t.Errorf("CommonPrefix = %q, want %q", got, tt.want)
			}
		})
	}
}
