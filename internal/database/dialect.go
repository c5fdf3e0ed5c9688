package database

import "strings"

// pgSchema rewrites the sqlite-flavoured DDL for PostgreSQL.
func pgSchema(stmt string) string {
	return strings.ReplaceAll(stmt, "INTEGER PRIMARY KEY AUTOINCREMENT", "BIGSERIAL PRIMARY KEY")
}
