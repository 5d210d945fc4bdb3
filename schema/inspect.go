package schema

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrSchemaUnavailable reports that table metadata could not be read: the
// connection is unknown or down, or the table does not exist. Callers treat
// it as "no temporal columns / no mirror" rather than propagating, so a
// metadata outage never fails a record operation.
var ErrSchemaUnavailable = errors.New("schema: metadata unavailable")

// ColumnDescriptor describes one column of a live table.
type ColumnDescriptor struct {
	// Name is the column name as declared.
	Name string

	// DeclaredType is the raw declared type, e.g. "DATETIME" or "timestamptz".
	DeclaredType string
}

// temporalTokens are matched as substrings so declared-type variants such as
// "timestamptz" or "DATETIME(6)" classify as temporal. "time" also covers
// "datetime" and "timestamp", but the full set is kept for clarity.
var temporalTokens = []string{"datetime", "timestamp", "date", "time"}

// IsTemporalType reports whether a declared column type holds a moment in
// time. The test is a case-insensitive substring match, intentionally loose.
func IsTemporalType(declared string) bool {
	lower := strings.ToLower(declared)
	for _, tok := range temporalTokens {
		if strings.Contains(lower, tok) {
			return true
		}
	}
	return false
}

// Inspector reads table metadata for named connections.
type Inspector interface {
	// ListColumns returns the columns of table on the named connection, or
	// ErrSchemaUnavailable when metadata cannot be read.
	ListColumns(ctx context.Context, conn, table string) ([]ColumnDescriptor, error)

	// HasColumn reports whether table has the named column.
	HasColumn(ctx context.Context, conn, table, column string) (bool, error)
}

// SQLInspector implements Inspector over a registry of named *sql.DB
// handles using pragma_table_info. It is safe for concurrent use.
type SQLInspector struct {
	mu    sync.RWMutex
	conns map[string]*sql.DB
}

// NewSQLInspector creates an empty inspector. Register connections before
// use; lookups against unknown names degrade to ErrSchemaUnavailable.
func NewSQLInspector() *SQLInspector {
	return &SQLInspector{conns: make(map[string]*sql.DB)}
}

// Register associates a connection name with a database handle. Re-registering
// a name replaces the previous handle.
func (i *SQLInspector) Register(name string, db *sql.DB) {
	i.mu.Lock()
	i.conns[name] = db
	i.mu.Unlock()
}

func (i *SQLInspector) handle(name string) (*sql.DB, error) {
	i.mu.RLock()
	db := i.conns[name]
	i.mu.RUnlock()
	if db == nil {
		return nil, fmt.Errorf("%w: unknown connection %q", ErrSchemaUnavailable, name)
	}
	return db, nil
}

// ListColumns implements Inspector. A table with no columns does not exist
// in SQLite, so an empty pragma result maps to ErrSchemaUnavailable.
func (i *SQLInspector) ListColumns(ctx context.Context, conn, table string) ([]ColumnDescriptor, error) {
	db, err := i.handle(conn)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `SELECT name, type FROM pragma_table_info(?)`, table)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaUnavailable, err)
	}
	defer rows.Close()
	var out []ColumnDescriptor
	for rows.Next() {
		var c ColumnDescriptor
		if err := rows.Scan(&c.Name, &c.DeclaredType); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSchemaUnavailable, err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaUnavailable, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no such table %q", ErrSchemaUnavailable, table)
	}
	return out, nil
}

// HasColumn implements Inspector.
func (i *SQLInspector) HasColumn(ctx context.Context, conn, table, column string) (bool, error) {
	cols, err := i.ListColumns(ctx, conn, table)
	if err != nil {
		return false, err
	}
	for _, c := range cols {
		if c.Name == column {
			return true, nil
		}
	}
	return false, nil
}
