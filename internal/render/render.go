// Package render formats query results, warnings and history listings for
// the terminal.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/tabsql/tabsql/internal/adapter"
	"github.com/tabsql/tabsql/internal/history"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true)
	borderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	summaryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	timeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// Result renders a query result the way the mysql client does: a bordered
// table for SELECT-style results, a "Query OK" line otherwise, followed by
// the timing summary.
func Result(res *adapter.Result) string {
	var b strings.Builder

	if res.IsSelect && len(res.Columns) > 0 {
		b.WriteString(table(res.Columns, res.Rows))
		b.WriteByte('\n')
		b.WriteString(summaryStyle.Render(rowSummary(res.RowCount, res.Duration)))
	} else {
		msg := res.Message
		if msg == "" {
			msg = fmt.Sprintf("Query OK, %d row(s) affected", res.RowCount)
		}
		b.WriteString(summaryStyle.Render(fmt.Sprintf("%s (%.3f sec)", msg, res.Duration.Seconds())))
	}
	b.WriteByte('\n')
	return b.String()
}

func rowSummary(n int64, d time.Duration) string {
	noun := "rows"
	if n == 1 {
		noun = "row"
	}
	return fmt.Sprintf("%d %s in set (%.3f sec)", n, noun, d.Seconds())
}

// Warning renders a one-line warning for the status area; refresh
// failures go through here rather than aborting the session.
func Warning(msg string) string {
	return warnStyle.Render("warning: "+msg) + "\n"
}

// Error renders a one-line error message.
func Error(err error) string {
	return errStyle.Render("ERROR: "+err.Error()) + "\n"
}

// table lays out rows under a header with box-drawing borders, sized to
// the widest cell per column.
func table(columns []string, rows [][]string) string {
	widths := make([]int, len(columns))
	for i, c := range columns {
		widths[i] = len(c)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var b strings.Builder
	sep := rule(widths)

	b.WriteString(sep)
	b.WriteByte('\n')
	b.WriteString(line(columns, widths, true))
	b.WriteByte('\n')
	b.WriteString(sep)
	b.WriteByte('\n')
	for _, row := range rows {
		b.WriteString(line(row, widths, false))
		b.WriteByte('\n')
	}
	b.WriteString(sep)
	return b.String()
}

func rule(widths []int) string {
	var b strings.Builder
	b.WriteByte('+')
	for _, w := range widths {
		b.WriteString(strings.Repeat("-", w+2))
		b.WriteByte('+')
	}
	return borderStyle.Render(b.String())
}

func line(cells []string, widths []int, header bool) string {
	bar := borderStyle.Render("|")
	var b strings.Builder
	b.WriteString(bar)
	for i, w := range widths {
		var cell string
		if i < len(cells) {
			cell = cells[i]
		}
		padded := " " + cell + strings.Repeat(" ", w-len(cell)+1)
		if header {
			padded = headerStyle.Render(padded)
		}
		b.WriteString(padded)
		b.WriteString(bar)
	}
	return b.String()
}

// History renders history entries with highlighted SQL, newest first as
// given.
func History(entries []history.Entry) string {
	h := NewHighlighter()
	var b strings.Builder
	for _, e := range entries {
		ts := timeStyle.Render(e.ExecutedAt.Format("2006-01-02 15:04:05"))
		marker := " "
		if e.IsError {
			marker = errStyle.Render("!")
		}
		fmt.Fprintf(&b, "%6d  %s %s  %s\n", e.ID, ts, marker, h.Highlight(strings.TrimSpace(e.Query)))
	}
	return b.String()
}
