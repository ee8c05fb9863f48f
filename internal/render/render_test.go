package render

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tabsql/tabsql/internal/adapter"
	"github.com/tabsql/tabsql/internal/history"
)

// ---------------------------------------------------------------------------
// 1. Result
// ---------------------------------------------------------------------------

func TestResult_SelectTable(t *testing.T) {
	res := &adapter.Result{
		Columns:  []string{"id", "name"},
		Rows:     [][]string{{"1", "alice"}, {"2", "bob"}},
		RowCount: 2,
		Duration: 12 * time.Millisecond,
		IsSelect: true,
	}

	got := Result(res)

	for _, want := range []string{"id", "name", "alice", "bob", "+", "|", "2 rows in set (0.012 sec)"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestResult_SingularRow(t *testing.T) {
	res := &adapter.Result{
		Columns:  []string{"n"},
		Rows:     [][]string{{"1"}},
		RowCount: 1,
		IsSelect: true,
	}
	if got := Result(res); !strings.Contains(got, "1 row in set") {
		t.Errorf("output = %q, want singular 'row'", got)
	}
}

func TestResult_ColumnsSizedToWidestCell(t *testing.T) {
	res := &adapter.Result{
		Columns:  []string{"v"},
		Rows:     [][]string{{"a-much-longer-value"}},
		RowCount: 1,
		IsSelect: true,
	}
	got := Result(res)
	if !strings.Contains(got, "| a-much-longer-value |") {
		t.Errorf("cell not padded to widest value:\n%s", got)
	}
}

func TestResult_NonSelect(t *testing.T) {
	res := &adapter.Result{
		RowCount: 3,
		Duration: 5 * time.Millisecond,
	}
	got := Result(res)
	if !strings.Contains(got, "Query OK, 3 row(s) affected") {
		t.Errorf("output = %q, want Query OK line", got)
	}
	if strings.Contains(got, "|") {
		t.Errorf("non-select output should have no table: %q", got)
	}
}

func TestResult_MessageOverridesDefault(t *testing.T) {
	res := &adapter.Result{Message: "Database changed"}
	if got := Result(res); !strings.Contains(got, "Database changed") {
		t.Errorf("output = %q, want custom message", got)
	}
}

// ---------------------------------------------------------------------------
// 2. Warning / Error
// ---------------------------------------------------------------------------

func TestWarning(t *testing.T) {
	got := Warning("completions may be stale")
	if !strings.Contains(got, "warning: completions may be stale") {
		t.Errorf("got %q", got)
	}
	if !strings.HasSuffix(got, "\n") {
		t.Error("warning should end with newline")
	}
}

func TestError(t *testing.T) {
	got := Error(errors.New("table gone"))
	if !strings.Contains(got, "ERROR: table gone") {
		t.Errorf("got %q", got)
	}
}

// ---------------------------------------------------------------------------
// 3. History
// ---------------------------------------------------------------------------

func TestHistory(t *testing.T) {
	entries := []history.Entry{
		{ID: 12, Query: "SELECT * FROM orders", ExecutedAt: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)},
		{ID: 11, Query: "DROP TABLE junk", ExecutedAt: time.Date(2026, 3, 1, 9, 29, 0, 0, time.UTC), IsError: true},
	}

	got := History(entries)

	if !strings.Contains(got, "12") || !strings.Contains(got, "11") {
		t.Errorf("missing entry ids:\n%s", got)
	}
	if !strings.Contains(got, "2026-03-01 09:30:00") {
		t.Errorf("missing timestamp:\n%s", got)
	}
	if !strings.Contains(got, "orders") {
		t.Errorf("missing query text:\n%s", got)
	}
}

func TestHistory_Empty(t *testing.T) {
	if got := History(nil); got != "" {
		t.Errorf("History(nil) = %q, want empty", got)
	}
}

// ---------------------------------------------------------------------------
// 4. Highlighter
// ---------------------------------------------------------------------------

func TestHighlight_PreservesText(t *testing.T) {
	h := NewHighlighter()
	inputs := []string{
		"SELECT * FROM orders WHERE total > 10",
		"insert into t values ('a', 1)",
		"-- just a comment",
		"",
	}

	for _, sql := range inputs {
		got := h.Highlight(sql)
		// Styling may add escape codes but must never drop characters.
		stripped := stripANSI(got)
		if stripped != sql {
			t.Errorf("Highlight(%q) lost text: %q", sql, stripped)
		}
	}
}

func stripANSI(s string) string {
	var b strings.Builder
	inEscape := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inEscape:
			if c == 'm' {
				inEscape = false
			}
		case c == 0x1b:
			inEscape = true
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
