// Package sqlite implements the SQLite snapshot backend for taskly.
package sqlite

// Schema DDL. The tasks table holds exactly one snapshot; position is the
// manual order.
const (
	createTasks = `CREATE TABLE IF NOT EXISTS tasks (
    position INTEGER PRIMARY KEY,
    task_id TEXT NOT NULL UNIQUE,
    title TEXT NOT NULL,
    due_date TEXT,
    is_completed INTEGER NOT NULL DEFAULT 0,
    notes TEXT
);`

	createMeta = `CREATE TABLE IF NOT EXISTS snapshot_meta (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);`
)

// schemaStatements lists DDL in execution order.
var schemaStatements = []string{createTasks, createMeta}
