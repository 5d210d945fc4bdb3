package migrate

import (
	"context"
	"fmt"

	"github.com/mirrorstamp/mirrorstamp/schema"
)

// ColumnReport describes one temporal column's mirror status.
type ColumnReport struct {
	Column       string
	DeclaredType string
	Mirror       string
	MirrorExists bool

	// Pending counts rows with a non-null source and a null mirror. Zero
	// when the mirror column does not exist.
	Pending int64
}

// TableReport groups the temporal columns of one table.
type TableReport struct {
	Table   string
	Columns []ColumnReport
}

// Scan walks every user table on the connection and reports its temporal
// columns, whether each has a mirror column under the given suffix, and how
// many rows still await backfill.
func (m *Migrator) Scan(ctx context.Context, suffix string) ([]TableReport, error) {
	tables, err := m.listTables(ctx)
	if err != nil {
		return nil, err
	}
	var out []TableReport
	for _, table := range tables {
		report, err := m.scanTable(ctx, table, suffix)
		if err != nil {
			return nil, err
		}
		if len(report.Columns) > 0 {
			out = append(out, report)
		}
	}
	return out, nil
}

func (m *Migrator) listTables(ctx context.Context) ([]string, error) {
	rows, err := m.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("migrate: list tables: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("migrate: list tables: %w", err)
		}
		out = append(out, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("migrate: list tables: %w", err)
	}
	return out, nil
}

func (m *Migrator) scanTable(ctx context.Context, table, suffix string) (TableReport, error) {
	report := TableReport{Table: table}
	cols, err := m.tableColumns(ctx, table)
	if err != nil {
		return report, err
	}
	existing := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		existing[c.Name] = struct{}{}
	}
	for _, c := range cols {
		if !schema.IsTemporalType(c.DeclaredType) {
			continue
		}
		cr := ColumnReport{Column: c.Name, DeclaredType: c.DeclaredType, Mirror: c.Name + suffix}
		_, cr.MirrorExists = existing[cr.Mirror]
		if cr.MirrorExists {
			cr.Pending, err = m.pendingRows(ctx, table, c.Name, cr.Mirror)
			if err != nil {
				return report, err
			}
		}
		report.Columns = append(report.Columns, cr)
	}
	return report, nil
}

func (m *Migrator) tableColumns(ctx context.Context, table string) ([]schema.ColumnDescriptor, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT name, type FROM pragma_table_info(?)`, table)
	if err != nil {
		return nil, fmt.Errorf("migrate: columns of %s: %w", table, err)
	}
	defer rows.Close()
	var out []schema.ColumnDescriptor
	for rows.Next() {
		var c schema.ColumnDescriptor
		if err := rows.Scan(&c.Name, &c.DeclaredType); err != nil {
			return nil, fmt.Errorf("migrate: columns of %s: %w", table, err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("migrate: columns of %s: %w", table, err)
	}
	return out, nil
}

func (m *Migrator) pendingRows(ctx context.Context, table, sourceCol, mirrorCol string) (int64, error) {
	stmt := fmt.Sprintf(`SELECT count(*) FROM %s WHERE %s IS NOT NULL AND %s IS NULL`,
		quoteIdent(table), quoteIdent(sourceCol), quoteIdent(mirrorCol))
	var n int64
	if err := m.db.QueryRowContext(ctx, stmt).Scan(&n); err != nil {
		return 0, fmt.Errorf("migrate: pending rows of %s.%s: %w", table, sourceCol, err)
	}
	return n, nil
}
