package schema

import "strings"

// Snapshot is a point-in-time copy of server metadata: databases, tables
// per database, columns per table. A Snapshot is never mutated after
// construction; a refresh builds a new one and swaps it in atomically.
//
// Names preserve the server's original case for display. All lookups are
// ASCII case-insensitive, so the internal maps are keyed by lowercased
// names.
type Snapshot struct {
	version   uint64
	databases []string
	tables    map[string][]string // lower(db) -> table names
	columns   map[string][]string // lower(db) + "." + lower(table) -> columns, ordinal order
}

// Builder accumulates metadata during a refresh and produces an immutable
// Snapshot.
type Builder struct {
	databases []string
	tables    map[string][]string
	columns   map[string][]string
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		tables:  make(map[string][]string),
		columns: make(map[string][]string),
	}
}

// AddDatabase records a database name.
func (b *Builder) AddDatabase(name string) {
	b.databases = append(b.databases, name)
}

// SetTables records the table list for a database.
func (b *Builder) SetTables(db string, tables []string) {
	b.tables[strings.ToLower(db)] = append([]string(nil), tables...)
}

// SetColumns records the ordinal-ordered column list for a table.
func (b *Builder) SetColumns(db, table string, columns []string) {
	b.columns[tableKey(db, table)] = append([]string(nil), columns...)
}

// Build seals the accumulated metadata into a Snapshot with the given
// version. The Builder must not be reused afterwards.
func (b *Builder) Build(version uint64) *Snapshot {
	return &Snapshot{
		version:   version,
		databases: b.databases,
		tables:    b.tables,
		columns:   b.columns,
	}
}

func tableKey(db, table string) string {
	return strings.ToLower(db) + "." + strings.ToLower(table)
}

// Empty returns a snapshot with no metadata and version 0.
func Empty() *Snapshot {
	return &Snapshot{
		tables:  map[string][]string{},
		columns: map[string][]string{},
	}
}

// Version reports the monotonic version assigned when the snapshot was
// built.
func (s *Snapshot) Version() uint64 { return s.version }

// Databases returns all known database names in server order.
func (s *Snapshot) Databases() []string { return s.databases }

// HasDatabase reports whether db is a known database name.
func (s *Snapshot) HasDatabase(db string) bool {
	lower := strings.ToLower(db)
	for _, name := range s.databases {
		if strings.ToLower(name) == lower {
			return true
		}
	}
	return false
}

// Tables returns the table names known for db, or nil if the database has
// not been seen.
func (s *Snapshot) Tables(db string) []string {
	return s.tables[strings.ToLower(db)]
}

// Columns returns the columns of db.table in server ordinal order, or nil
// if the table is unknown.
func (s *Snapshot) Columns(db, table string) []string {
	return s.columns[tableKey(db, table)]
}

// AllColumns returns every known column name across all tables,
// deduplicated case-insensitively. Used as the fallback when no table in
// the statement could be resolved.
func (s *Snapshot) AllColumns() []string {
	seen := make(map[string]bool)
	var all []string
	for _, cols := range s.columns {
		for _, c := range cols {
			lower := strings.ToLower(c)
			if !seen[lower] {
				seen[lower] = true
				all = append(all, c)
			}
		}
	}
	return all
}
