package schema

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/tabsql/tabsql/internal/adapter"
)

// systemDatabases are skipped during table/column introspection to avoid
// permission noise; their names still appear in the database list.
var systemDatabases = map[string]bool{
	"information_schema": true,
	"mysql":              true,
	"performance_schema": true,
	"sys":                true,
}

// Cache publishes the current schema Snapshot. Reads never block: Current
// returns whatever snapshot is published, even while a refresh is running.
// Publication is an atomic pointer swap, so a completion call that grabbed
// a snapshot keeps seeing it unchanged for the call's duration.
type Cache struct {
	current atomic.Pointer[Snapshot]
	version atomic.Uint64
}

// NewCache returns a Cache publishing an empty snapshot.
func NewCache() *Cache {
	c := &Cache{}
	c.current.Store(Empty())
	return c
}

// Current returns the latest fully built snapshot.
func (c *Cache) Current() *Snapshot {
	return c.current.Load()
}

// Refresh fetches the full database/table/column inventory from conn,
// builds a new snapshot and publishes it. On failure the previously
// published snapshot stays in place and the error is returned with its
// adapter classification.
//
// A permission failure on a single database skips that database rather
// than aborting the whole refresh; the resulting snapshot is partially
// stale but usable. A connection failure aborts and publishes nothing.
func (c *Cache) Refresh(ctx context.Context, conn adapter.Conn) (*Snapshot, error) {
	dbs, err := conn.ListDatabases(ctx)
	if err != nil {
		return nil, adapter.WrapError("schema refresh: list databases", err)
	}

	b := NewBuilder()
	for _, db := range dbs {
		b.AddDatabase(db)
		if systemDatabases[strings.ToLower(db)] {
			continue
		}

		tables, err := conn.ListTables(ctx, db)
		if err != nil {
			if adapter.KindOf(err) == adapter.KindPermission {
				continue
			}
			return nil, adapter.WrapError(fmt.Sprintf("schema refresh: list tables in %s", db), err)
		}
		b.SetTables(db, tables)

		for _, table := range tables {
			cols, err := conn.ListColumns(ctx, db, table)
			if err != nil {
				if adapter.KindOf(err) == adapter.KindPermission {
					continue
				}
				return nil, adapter.WrapError(fmt.Sprintf("schema refresh: list columns of %s.%s", db, table), err)
			}
			b.SetColumns(db, table, cols)
		}
	}

	snap := b.Build(c.version.Add(1))
	c.current.Store(snap)
	return snap, nil
}
