package postgres

import (
	"context"
	"database/sql"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/tabsql/tabsql/internal/adapter"
)

func init() {
	adapter.Register(&pgAdapter{})
	adapter.RegisterClassifier(classify)
}

func classify(err error) adapter.ErrorKind {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 28 = invalid authorization, 42501 = insufficient privilege.
		if strings.HasPrefix(pgErr.Code, "28") || pgErr.Code == "42501" {
			return adapter.KindPermission
		}
		return adapter.KindUnknown
	}
	if pgconn.Timeout(err) {
		return adapter.KindConnection
	}
	return adapter.KindUnknown
}

// ---------------------------------------------------------------------------
// Adapter
// ---------------------------------------------------------------------------

type pgAdapter struct{}

func (a *pgAdapter) Name() string     { return "postgres" }
func (a *pgAdapter) DefaultPort() int { return 5432 }

func (a *pgAdapter) Connect(ctx context.Context, dsn string) (adapter.Conn, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, adapter.WrapError("postgres: open", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, adapter.WrapError("postgres: ping", err)
	}

	return &conn{db: db, dbName: extractDBName(dsn)}, nil
}

// extractDBName parses the database name from the DSN, handling both
// postgres:// URLs and keyword=value form.
func extractDBName(dsn string) string {
	if u, err := url.Parse(dsn); err == nil && u.Scheme != "" {
		return strings.TrimPrefix(u.Path, "/")
	}
	for _, part := range strings.Fields(dsn) {
		if strings.HasPrefix(part, "dbname=") {
			return strings.TrimPrefix(part, "dbname=")
		}
	}
	return ""
}

// ---------------------------------------------------------------------------
// Connection
// ---------------------------------------------------------------------------

type conn struct {
	db     *sql.DB
	dbName string
}

func (c *conn) AdapterName() string  { return "postgres" }
func (c *conn) DatabaseName() string { return c.dbName }

func (c *conn) Ping(ctx context.Context) error {
	return adapter.WrapError("postgres: ping", c.db.PingContext(ctx))
}

func (c *conn) Close() error { return c.db.Close() }

// ListDatabases lists non-template databases. PostgreSQL only exposes
// information_schema for the connected database, so tables and columns of
// the others stay unknown until the user reconnects there.
func (c *conn) ListDatabases(ctx context.Context) ([]string, error) {
	names, err := c.queryStrings(ctx,
		`SELECT datname FROM pg_database
		 WHERE datistemplate = false
		 ORDER BY datname`)
	return names, adapter.WrapError("postgres: list databases", err)
}

func (c *conn) ListTables(ctx context.Context, db string) ([]string, error) {
	if db != "" && !strings.EqualFold(db, c.dbName) {
		// Cross-database introspection is not possible over one connection.
		return nil, nil
	}

	names, err := c.queryStrings(ctx,
		`SELECT table_name
		 FROM information_schema.tables
		 WHERE table_schema NOT IN ('pg_catalog', 'information_schema')
		 ORDER BY table_name`)
	return names, adapter.WrapError("postgres: list tables", err)
}

func (c *conn) ListColumns(ctx context.Context, db, table string) ([]string, error) {
	if db != "" && !strings.EqualFold(db, c.dbName) {
		return nil, nil
	}

	names, err := c.queryStrings(ctx,
		`SELECT column_name
		 FROM information_schema.columns
		 WHERE table_name = $1
		   AND table_schema NOT IN ('pg_catalog', 'information_schema')
		 ORDER BY ordinal_position`, table)
	return names, adapter.WrapError("postgres: list columns", err)
}

func (c *conn) queryStrings(ctx context.Context, q string, args ...any) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
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
		return nil, adapter.WrapError("postgres: exec", err)
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
		return nil, adapter.WrapError("postgres: query", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, adapter.WrapError("postgres: columns", err)
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
			return nil, adapter.WrapError("postgres: scan", err)
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
		return nil, adapter.WrapError("postgres: rows", err)
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
	for _, prefix := range []string{"SELECT", "SHOW", "EXPLAIN", "WITH", "TABLE", "VALUES"} {
		if strings.HasPrefix(upper, prefix) {
			return true
		}
	}
	return false
}
