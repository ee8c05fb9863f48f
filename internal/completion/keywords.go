package completion

// StatementKeywords are the top-level SQL keywords offered at the start of
// a statement. Bundled with the engine, never derived from the server.
var StatementKeywords = []string{
	"SELECT", "INSERT", "UPDATE", "DELETE", "REPLACE",
	"CREATE", "DROP", "ALTER", "RENAME", "TRUNCATE",
	"SHOW", "USE", "DESCRIBE", "DESC", "EXPLAIN",
	"SET", "GRANT", "REVOKE", "FLUSH",
	"BEGIN", "START", "COMMIT", "ROLLBACK", "SAVEPOINT",
	"LOCK", "UNLOCK", "CALL", "WITH", "HELP",
}

// ShowKeywords are the sub-commands valid after SHOW.
var ShowKeywords = []string{
	"DATABASES", "TABLES", "COLUMNS", "INDEX", "STATUS", "VARIABLES",
	"PROCESSLIST", "GRANTS", "WARNINGS", "ERRORS", "ENGINES", "TRIGGERS",
	"CREATE", "CHARSET", "COLLATION", "PRIVILEGES",
}
