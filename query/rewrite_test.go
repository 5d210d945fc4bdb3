package query

import (
	"context"
	"reflect"
	"testing"

	"github.com/mirrorstamp/mirrorstamp/engine"
	"github.com/mirrorstamp/mirrorstamp/mirror"
	"github.com/mirrorstamp/mirrorstamp/schema"
)

// newFixture opens an in-memory orders table where shipped_at has a mirror
// and delivered_at does not.
func newFixture(t *testing.T) (*Rewriter, func()) {
	t.Helper()
	db, err := engine.Open(":memory:")
	if err != nil {
		t.Fatalf("engine.Open(:memory:) failed: %v", err)
	}
	const ddl = `CREATE TABLE orders (
		id INTEGER PRIMARY KEY,
		shipped_at DATETIME,
		shipped_at_unix INTEGER,
		delivered_at TIMESTAMP,
		created_at DATETIME,
		created_at_unix INTEGER
	)`
	if _, err := db.Exec(ddl); err != nil {
		t.Fatalf("create table failed: %v", err)
	}
	ins := schema.NewSQLInspector()
	ins.Register("default", db)
	cache := schema.NewCache(ins)
	return NewRewriter(mirror.NewPolicy(cache), cache), func() { db.Close() }
}

func ordersType() mirror.TypeInfo {
	return mirror.TypeInfo{TableName: "orders", ConnectionName: "default"}
}

func TestRewriteFilter(t *testing.T) {
	r, done := newFixture(t)
	defer done()
	ctx := context.Background()

	got := r.Rewrite(ctx, ordersType(), Op{
		Kind: KindWhere, Column: "shipped_at", Operator: ">",
		Values: []any{"2024-01-01T00:00:00Z"},
	})
	want := Op{Kind: KindWhere, Column: "shipped_at_unix", Operator: ">", Values: []any{int64(1704067200)}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Rewrite = %+v, want %+v", got, want)
	}
}

// TestRewriteMirrorAbsent verifies the no-op guarantee: delivered_at is
// temporal but has no physical mirror column.
func TestRewriteMirrorAbsent(t *testing.T) {
	r, done := newFixture(t)
	defer done()
	ctx := context.Background()

	in := Op{Kind: KindWhere, Column: "delivered_at", Operator: ">", Values: []any{"2024-01-01T00:00:00Z"}}
	if got := r.Rewrite(ctx, ordersType(), in); !reflect.DeepEqual(got, in) {
		t.Errorf("Rewrite with absent mirror = %+v, want unchanged %+v", got, in)
	}
}

func TestRewriteDistinctColumns(t *testing.T) {
	r, done := newFixture(t)
	defer done()
	ctx := context.Background()

	withMirror := r.Rewrite(ctx, ordersType(), Op{Kind: KindOrderBy, Column: "shipped_at", Operator: "desc"})
	without := r.Rewrite(ctx, ordersType(), Op{Kind: KindOrderBy, Column: "delivered_at", Operator: "desc"})
	if withMirror.Column == without.Column {
		t.Errorf("ordering with and without a mirror produced the same column %q", withMirror.Column)
	}
	if withMirror.Column != "shipped_at_unix" || without.Column != "delivered_at" {
		t.Errorf("columns = %q, %q; want shipped_at_unix, delivered_at", withMirror.Column, without.Column)
	}
}

func TestRewriteIntegerValuePassesThrough(t *testing.T) {
	r, done := newFixture(t)
	defer done()
	ctx := context.Background()

	got := r.Rewrite(ctx, ordersType(), Op{
		Kind: KindWhere, Column: "shipped_at", Operator: "=", Values: []any{int64(1704067200)},
	})
	if got.Column != "shipped_at_unix" {
		t.Errorf("column = %q, want shipped_at_unix", got.Column)
	}
	if got.Values[0] != int64(1704067200) {
		t.Errorf("integer value was converted: %v", got.Values[0])
	}
}

func TestRewriteUntouchableOps(t *testing.T) {
	r, done := newFixture(t)
	defer done()
	ctx := context.Background()

	cases := []Op{
		// Expression operation, no bare column.
		{Kind: KindWhere, Column: "", Operator: "raw", Values: []any{"shipped_at > now()"}},
		// Non-mirrored column.
		{Kind: KindWhere, Column: "id", Operator: "=", Values: []any{5}},
		// Value that is neither integer nor temporal.
		{Kind: KindWhere, Column: "shipped_at", Operator: "=", Values: []any{"pending"}},
	}
	for _, in := range cases {
		if got := r.Rewrite(ctx, ordersType(), in); !reflect.DeepEqual(got, in) {
			t.Errorf("Rewrite(%+v) = %+v, want unchanged", in, got)
		}
	}
}

func TestRewriteBetweenAndIn(t *testing.T) {
	r, done := newFixture(t)
	defer done()
	ctx := context.Background()

	got := r.Rewrite(ctx, ordersType(), Op{
		Kind: KindWhereBetween, Column: "shipped_at",
		Values: []any{"2024-01-01T00:00:00Z", "2024-01-15T10:00:00Z"},
	})
	wantVals := []any{int64(1704067200), int64(1705312800)}
	if got.Column != "shipped_at_unix" || !reflect.DeepEqual(got.Values, wantVals) {
		t.Errorf("between rewrite = %+v, want column shipped_at_unix values %v", got, wantVals)
	}

	got = r.Rewrite(ctx, ordersType(), Op{
		Kind: KindWhereIn, Column: "shipped_at",
		Values: []any{"2024-01-01T00:00:00Z", int64(1705312800)},
	})
	if !reflect.DeepEqual(got.Values, wantVals) {
		t.Errorf("in rewrite values = %v, want %v", got.Values, wantVals)
	}
}

func TestRewriteDatePart(t *testing.T) {
	r, done := newFixture(t)
	defer done()
	ctx := context.Background()

	got := r.Rewrite(ctx, ordersType(), Op{
		Kind: KindWhereDate, Column: "shipped_at", Operator: "=", Values: []any{"2024-01-15"},
	})
	want := Op{
		Kind: KindWhereBetween, Column: "shipped_at_unix",
		Values: []any{int64(1705276800), int64(1705363199)},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("date-part rewrite = %+v, want %+v", got, want)
	}
}

func TestLatestOldest(t *testing.T) {
	r, done := newFixture(t)
	defer done()
	ctx := context.Background()

	typ := ordersType()
	typ.Timestamps = true

	latest := r.Latest(ctx, typ)
	if latest.Column != "created_at_unix" || latest.Operator != "desc" {
		t.Errorf("Latest = %+v, want created_at_unix desc", latest)
	}
	oldest := r.Oldest(ctx, typ)
	if oldest.Column != "created_at_unix" || oldest.Operator != "asc" {
		t.Errorf("Oldest = %+v, want created_at_unix asc", oldest)
	}
}
