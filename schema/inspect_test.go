package schema

import (
	"context"
	"errors"
	"testing"

	"github.com/mirrorstamp/mirrorstamp/engine"
)

func TestIsTemporalType(t *testing.T) {
	temporal := []string{"DATETIME", "datetime(6)", "TIMESTAMP", "timestamptz", "DATE", "TIME", "timestamp with time zone"}
	for _, d := range temporal {
		if !IsTemporalType(d) {
			t.Errorf("IsTemporalType(%q) = false, want true", d)
		}
	}
	for _, d := range []string{"INTEGER", "TEXT", "REAL", "BLOB", "varchar(255)"} {
		if IsTemporalType(d) {
			t.Errorf("IsTemporalType(%q) = true, want false", d)
		}
	}
}

// TestSQLInspector exercises listing and existence checks against a live
// in-memory database.
func TestSQLInspector(t *testing.T) {
	db, err := engine.Open(":memory:")
	if err != nil {
		t.Fatalf("engine.Open(:memory:) failed: %v", err)
	}
	defer db.Close()
	if _, err := db.Exec(`CREATE TABLE orders (id INTEGER PRIMARY KEY, shipped_at DATETIME, total REAL)`); err != nil {
		t.Fatalf("create table failed: %v", err)
	}

	ins := NewSQLInspector()
	ins.Register("default", db)
	ctx := context.Background()

	cols, err := ins.ListColumns(ctx, "default", "orders")
	if err != nil {
		t.Fatalf("ListColumns failed: %v", err)
	}
	if len(cols) != 3 {
		t.Fatalf("ListColumns returned %d columns, want 3", len(cols))
	}
	byName := map[string]string{}
	for _, c := range cols {
		byName[c.Name] = c.DeclaredType
	}
	if !IsTemporalType(byName["shipped_at"]) {
		t.Errorf("shipped_at declared type %q should classify as temporal", byName["shipped_at"])
	}
	if IsTemporalType(byName["total"]) {
		t.Errorf("total declared type %q should not classify as temporal", byName["total"])
	}

	ok, err := ins.HasColumn(ctx, "default", "orders", "shipped_at")
	if err != nil || !ok {
		t.Errorf("HasColumn(shipped_at) = %v, %v, want true, nil", ok, err)
	}
	ok, err = ins.HasColumn(ctx, "default", "orders", "shipped_at_unix")
	if err != nil || ok {
		t.Errorf("HasColumn(shipped_at_unix) = %v, %v, want false, nil", ok, err)
	}
}

func TestSQLInspectorUnavailable(t *testing.T) {
	db, err := engine.Open(":memory:")
	if err != nil {
		t.Fatalf("engine.Open(:memory:) failed: %v", err)
	}
	defer db.Close()

	ins := NewSQLInspector()
	ins.Register("default", db)
	ctx := context.Background()

	if _, err := ins.ListColumns(ctx, "default", "missing"); !errors.Is(err, ErrSchemaUnavailable) {
		t.Errorf("ListColumns(missing table) error = %v, want ErrSchemaUnavailable", err)
	}
	if _, err := ins.ListColumns(ctx, "nowhere", "orders"); !errors.Is(err, ErrSchemaUnavailable) {
		t.Errorf("ListColumns(unknown connection) error = %v, want ErrSchemaUnavailable", err)
	}
}
