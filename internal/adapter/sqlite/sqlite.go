package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tabsql/tabsql/internal/adapter"
)

func init() {
	adapter.Register(&sqliteAdapter{})
}

// ---------------------------------------------------------------------------
// Adapter
// ---------------------------------------------------------------------------

type sqliteAdapter struct{}

func (a *sqliteAdapter) Name() string     { return "sqlite" }
func (a *sqliteAdapter) DefaultPort() int { return 0 }

func (a *sqliteAdapter) Connect(ctx context.Context, dsn string) (adapter.Conn, error) {
	path := strings.TrimPrefix(dsn, "sqlite://")
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, adapter.WrapError("sqlite: open", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, adapter.WrapError("sqlite: ping", err)
	}

	return &conn{db: db, path: path}, nil
}

// ---------------------------------------------------------------------------
// Connection
// ---------------------------------------------------------------------------

type conn struct {
	db   *sql.DB
	path string
}

func (c *conn) AdapterName() string  { return "sqlite" }
func (c *conn) DatabaseName() string { return "main" }

func (c *conn) Ping(ctx context.Context) error {
	return adapter.WrapError("sqlite: ping", c.db.PingContext(ctx))
}

func (c *conn) Close() error { return c.db.Close() }

// ListDatabases reports the attached databases, normally just "main".
func (c *conn) ListDatabases(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, `PRAGMA database_list`)
	if err != nil {
		return nil, adapter.WrapError("sqlite: database list", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var (
			seq  int
			name string
			file sql.NullString
		)
		if err := rows.Scan(&seq, &name, &file); err != nil {
			return nil, adapter.WrapError("sqlite: database list scan", err)
		}
		names = append(names, name)
	}
	return names, adapter.WrapError("sqlite: database list", rows.Err())
}

func (c *conn) ListTables(ctx context.Context, db string) ([]string, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master
		 WHERE type IN ('table', 'view')
		   AND name NOT LIKE 'sqlite_%'
		 ORDER BY name`)
	if err != nil {
		return nil, adapter.WrapError("sqlite: list tables", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, adapter.WrapError("sqlite: list tables scan", err)
		}
		names = append(names, name)
	}
	return names, adapter.WrapError("sqlite: list tables", rows.Err())
}

func (c *conn) ListColumns(ctx context.Context, db, table string) ([]string, error) {
	// PRAGMA table_info reports columns in declaration (ordinal) order.
	rows, err := c.db.QueryContext(ctx, `SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		return nil, adapter.WrapError("sqlite: list columns", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, adapter.WrapError("sqlite: list columns scan", err)
		}
		names = append(names, name)
	}
	return names, adapter.WrapError("sqlite: list columns", rows.Err())
}

// ---------------------------------------------------------------------------
// Execute
// ---------------------------------------------------------------------------

func (c *conn) Execute(ctx context.Context, query string) (*adapter.Result, error) {
	start := time.Now()

	if isSelectQuery(query) {
		return c.executeSelect(ctx, query, start)
	}

	result, err := c.db.ExecContext(ctx, query)
	if err != nil {
		return nil, adapter.WrapError("sqlite: exec", err)
	}
	affected, _ := result.RowsAffected()

	return &adapter.Result{
		RowCount: affected,
		Duration: time.Since(start),
		IsSelect: false,
	}, nil
}

func (c *conn) executeSelect(ctx context.Context, query string, start time.Time) (*adapter.Result, error) {
	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, adapter.WrapError("sqlite: query", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, adapter.WrapError("sqlite: columns", err)
	}

	var resultRows [][]string
	nCols := len(columns)
	for rows.Next() {
		values := make([]sql.NullString, nCols)
		ptrs := make([]any, nCols)
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, adapter.WrapError("sqlite: scan", err)
		}
		row := make([]string, nCols)
		for i, v := range values {
			if v.Valid {
				row[i] = v.String
			} else {
				row[i] = "NULL"
			}
		}
		resultRows = append(resultRows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, adapter.WrapError("sqlite: rows", err)
	}

	return &adapter.Result{
		Columns:  columns,
		Rows:     resultRows,
		RowCount: int64(len(resultRows)),
		Duration: time.Since(start),
		IsSelect: true,
	}, nil
}

func isSelectQuery(query string) bool {
	upper := strings.ToUpper(strings.TrimSpace(query))
	for _, prefix := range []string{"SELECT", "PRAGMA", "EXPLAIN", "WITH", "VALUES"} {
		if strings.HasPrefix(upper, prefix) {
			return true
		}
	}
	return false
}
