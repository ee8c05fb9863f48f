// Package command dispatches interactive input: backslash meta commands
// and SQL statements, including the schema refresh triggers around
// schema-mutating statements.
package command

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/tabsql/tabsql/internal/adapter"
	"github.com/tabsql/tabsql/internal/history"
	"github.com/tabsql/tabsql/internal/render"
	"github.com/tabsql/tabsql/internal/schema"
)

// ErrQuit is returned by Dispatch when the user asked to leave.
var ErrQuit = fmt.Errorf("quit")

// Session ties one connection to the schema cache, history store and
// output stream for the duration of the interactive loop.
type Session struct {
	Conn  adapter.Conn
	Cache *schema.Cache
	Hist  *history.Store // may be nil when history is disabled
	Out   io.Writer

	activeDB string
}

// NewSession creates a Session and seeds the active database from the
// connection.
func NewSession(conn adapter.Conn, cache *schema.Cache, hist *history.Store, out io.Writer) *Session {
	return &Session{
		Conn:     conn,
		Cache:    cache,
		Hist:     hist,
		Out:      out,
		activeDB: conn.DatabaseName(),
	}
}

// ActiveDB returns the database the session is currently using.
func (s *Session) ActiveDB() string { return s.activeDB }

// Dispatch handles one complete input line: a backslash command or a SQL
// statement. It returns ErrQuit when the session should end; every other
// failure is rendered to Out and swallowed so the loop keeps running.
func (s *Session) Dispatch(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	if strings.HasPrefix(line, `\`) {
		return s.metaCommand(ctx, line)
	}

	s.execute(ctx, line)
	return nil
}

func (s *Session) metaCommand(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case `\q`, `\quit`:
		return ErrQuit

	case `\h`, `\?`:
		fmt.Fprint(s.Out, helpText)

	case `\l`:
		s.listDatabases()

	case `\d`:
		if len(args) == 0 {
			s.listTables()
		} else {
			s.describeTable(args[0])
		}

	case `\r`:
		s.RefreshSchema(ctx)

	case `\hist`:
		n := 20
		if len(args) > 0 {
			if v, err := strconv.Atoi(args[0]); err == nil && v > 0 {
				n = v
			}
		}
		s.showHistory(n)

	case `\s`:
		if len(args) == 0 {
			fmt.Fprint(s.Out, render.Warning("usage: \\s <term>"))
			return nil
		}
		s.searchHistory(strings.Join(args, " "))

	case `\c`:
		if s.Hist != nil {
			if err := s.Hist.Clear(); err != nil {
				fmt.Fprint(s.Out, render.Error(err))
			} else {
				fmt.Fprintln(s.Out, "History cleared.")
			}
		}

	default:
		fmt.Fprint(s.Out, render.Warning(fmt.Sprintf("unknown command %s, try \\h", cmd)))
	}
	return nil
}

// execute runs a SQL statement, records it in history, and refreshes the
// schema cache afterwards if the statement could have changed it.
func (s *Session) execute(ctx context.Context, query string) {
	res, err := s.Conn.Execute(ctx, query)

	s.record(query, res, err)

	if err != nil {
		fmt.Fprint(s.Out, render.Error(err))
		return
	}
	fmt.Fprint(s.Out, render.Result(res))

	if db, ok := useTarget(query); ok {
		s.activeDB = db
		if !s.Cache.Current().HasDatabase(db) {
			s.RefreshSchema(ctx)
		}
		return
	}
	if MutatesSchema(query) {
		s.RefreshSchema(ctx)
	}
}

// RefreshSchema rebuilds the schema cache. Failures keep the previous
// snapshot and surface as a one-line warning; the session never aborts.
func (s *Session) RefreshSchema(ctx context.Context) {
	if _, err := s.Cache.Refresh(ctx, s.Conn); err != nil {
		kind := adapter.KindOf(err)
		fmt.Fprint(s.Out, render.Warning(
			fmt.Sprintf("schema refresh failed (%s), completions may be stale: %v", kind, err)))
	}
}

func (s *Session) record(query string, res *adapter.Result, execErr error) {
	if s.Hist == nil {
		return
	}
	e := history.Entry{
		Query:        query,
		DatabaseName: s.activeDB,
		ExecutedAt:   time.Now(),
		IsError:      execErr != nil,
	}
	if res != nil {
		e.DurationMS = res.Duration.Milliseconds()
		e.RowCount = res.RowCount
	}
	if err := s.Hist.Add(e); err != nil {
		fmt.Fprint(s.Out, render.Warning("history: "+err.Error()))
	}
}

func (s *Session) listDatabases() {
	snap := s.Cache.Current()
	for _, db := range snap.Databases() {
		marker := "  "
		if strings.EqualFold(db, s.activeDB) {
			marker = "* "
		}
		fmt.Fprintln(s.Out, marker+db)
	}
}

func (s *Session) listTables() {
	snap := s.Cache.Current()
	tables := snap.Tables(s.activeDB)
	if len(tables) == 0 {
		fmt.Fprintln(s.Out, "No tables.")
		return
	}
	for _, t := range tables {
		fmt.Fprintln(s.Out, "  "+t)
	}
}

func (s *Session) describeTable(name string) {
	snap := s.Cache.Current()
	db := s.activeDB
	table := name
	if idx := strings.Index(name, "."); idx >= 0 {
		db, table = name[:idx], name[idx+1:]
	}

	cols := snap.Columns(db, table)
	if cols == nil {
		fmt.Fprint(s.Out, render.Warning(fmt.Sprintf("unknown table %s", name)))
		return
	}
	for i, c := range cols {
		fmt.Fprintf(s.Out, "%3d  %s\n", i+1, c)
	}
}

func (s *Session) showHistory(n int) {
	if s.Hist == nil {
		return
	}
	entries, err := s.Hist.Recent(n)
	if err != nil {
		fmt.Fprint(s.Out, render.Error(err))
		return
	}
	fmt.Fprint(s.Out, render.History(entries))
}

func (s *Session) searchHistory(term string) {
	if s.Hist == nil {
		return
	}
	entries, err := s.Hist.Search(term, 20)
	if err != nil {
		fmt.Fprint(s.Out, render.Error(err))
		return
	}
	fmt.Fprint(s.Out, render.History(entries))
}

// MutatesSchema reports whether a statement can change the database,
// table or column inventory and therefore requires a cache refresh.
func MutatesSchema(query string) bool {
	fields := strings.Fields(strings.ToUpper(strings.TrimSpace(query)))
	if len(fields) < 2 {
		return false
	}
	switch fields[0] {
	case "CREATE", "DROP", "ALTER":
	case "RENAME":
		return fields[1] == "TABLE"
	default:
		return false
	}
	switch fields[1] {
	case "DATABASE", "SCHEMA", "TABLE", "VIEW":
		return true
	case "TEMPORARY", "OR": // CREATE TEMPORARY TABLE, CREATE OR REPLACE VIEW
		return true
	}
	return false
}

// useTarget extracts the database name from a USE statement.
func useTarget(query string) (string, bool) {
	fields := strings.Fields(strings.TrimSpace(query))
	if len(fields) < 2 || !strings.EqualFold(fields[0], "USE") {
		return "", false
	}
	db := strings.Trim(strings.TrimSuffix(fields[1], ";"), "`")
	if db == "" {
		return "", false
	}
	return db, true
}

const helpText = `Commands:
  \h, \?        show this help
  \l            list databases
  \d [table]    list tables, or describe a table
  \r            refresh schema metadata
  \hist [n]     show recent query history
  \s <term>     fuzzy-search query history
  \c            clear query history
  \q            quit

Anything else is sent to the server as SQL. Statements end with ";".
`
