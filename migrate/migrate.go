// Package migrate adds and drops physical mirror columns and bulk-backfills
// their values. The mirroring core only ever reads metadata; the write side
// of the schema lives here, used by migration scripts and the CLI. Every
// DDL change invalidates the shared metadata cache so the core's next
// existence check sees the new shape.
package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mirrorstamp/mirrorstamp/schema"
)

// Migrator performs mirror-column DDL and backfill against one connection.
type Migrator struct {
	db    *sql.DB
	conn  string
	cache *schema.Cache
	log   zerolog.Logger
}

// Option customizes a Migrator.
type Option func(*Migrator)

// WithCache attaches the metadata cache to invalidate after DDL.
func WithCache(cache *schema.Cache) Option {
	return func(m *Migrator) { m.cache = cache }
}

// WithLogger attaches a logger.
func WithLogger(log zerolog.Logger) Option {
	return func(m *Migrator) { m.log = log }
}

// New creates a Migrator for the named connection on db.
func New(db *sql.DB, conn string, opts ...Option) *Migrator {
	m := &Migrator{db: db, conn: conn, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AddMirror adds a nullable INTEGER mirror column and an index over it.
// Adding an already-present column is not an error; the index clause is
// idempotent either way.
func (m *Migrator) AddMirror(ctx context.Context, table, mirrorCol string) error {
	stmt := fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s INTEGER`, quoteIdent(table), quoteIdent(mirrorCol))
	if _, err := m.db.ExecContext(ctx, stmt); err != nil {
		if !isDuplicateColumn(err) {
			return fmt.Errorf("migrate: add %s.%s: %w", table, mirrorCol, err)
		}
	}
	idx := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s(%s)`,
		quoteIdent(indexName(table, mirrorCol)), quoteIdent(table), quoteIdent(mirrorCol))
	if _, err := m.db.ExecContext(ctx, idx); err != nil {
		return fmt.Errorf("migrate: index %s.%s: %w", table, mirrorCol, err)
	}
	m.invalidate(table)
	m.log.Info().Str("table", table).Str("column", mirrorCol).Msg("migrate: mirror column added")
	return nil
}

// DropMirror removes the mirror column and its index.
func (m *Migrator) DropMirror(ctx context.Context, table, mirrorCol string) error {
	idx := fmt.Sprintf(`DROP INDEX IF EXISTS %s`, quoteIdent(indexName(table, mirrorCol)))
	if _, err := m.db.ExecContext(ctx, idx); err != nil {
		return fmt.Errorf("migrate: drop index for %s.%s: %w", table, mirrorCol, err)
	}
	stmt := fmt.Sprintf(`ALTER TABLE %s DROP COLUMN %s`, quoteIdent(table), quoteIdent(mirrorCol))
	if _, err := m.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("migrate: drop %s.%s: %w", table, mirrorCol, err)
	}
	m.invalidate(table)
	m.log.Info().Str("table", table).Str("column", mirrorCol).Msg("migrate: mirror column dropped")
	return nil
}

// Backfill sets the mirror from the source for every row where the source is
// non-null and the mirror is still null, in one bulk statement. It returns
// the number of rows updated. Rows whose source cannot be parsed keep a null
// mirror (epoch_seconds yields NULL for them). The epoch_seconds scalar must
// be registered before the connection is opened; see engine.RegisterEpochFunctions.
func (m *Migrator) Backfill(ctx context.Context, table, sourceCol, mirrorCol string) (int64, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("migrate: backfill %s.%s: %w", table, mirrorCol, err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt := fmt.Sprintf(
		`UPDATE %s SET %s = epoch_seconds(%s) WHERE %s IS NOT NULL AND %s IS NULL`,
		quoteIdent(table), quoteIdent(mirrorCol), quoteIdent(sourceCol),
		quoteIdent(sourceCol), quoteIdent(mirrorCol),
	)
	res, err := tx.ExecContext(ctx, stmt)
	if err != nil {
		return 0, fmt.Errorf("migrate: backfill %s.%s: %w", table, mirrorCol, err)
	}
	n, _ := res.RowsAffected()
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("migrate: backfill %s.%s: %w", table, mirrorCol, err)
	}
	m.log.Info().Str("table", table).Str("column", mirrorCol).Int64("rows", n).Msg("migrate: backfill complete")
	return n, nil
}

func (m *Migrator) invalidate(table string) {
	if m.cache != nil {
		m.cache.Invalidate(m.conn, table)
	}
}

func indexName(table, column string) string {
	return "idx_" + sanitizeIdent(table) + "_" + sanitizeIdent(column)
}

// sanitizeIdent converts a qualified name into a safe identifier fragment.
func sanitizeIdent(name string) string {
	replacer := strings.NewReplacer(".", "_", "-", "_", " ", "_")
	return replacer.Replace(name)
}

// quoteIdent wraps an identifier in double quotes, doubling embedded quotes.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func isDuplicateColumn(err error) bool {
	return err != nil && strings.Contains(err.Error(), "duplicate column name")
}
