package mirror

import (
	"context"
	"sort"
	"strings"

	"github.com/mirrorstamp/mirrorstamp/schema"
)

// Policy resolves the effective mirrored columns of a record type. Discovery
// reads table metadata through the shared schema cache; an explicit
// Config.SourceColumns list bypasses discovery entirely.
type Policy struct {
	cache *schema.Cache
}

// NewPolicy creates a Policy backed by the given metadata cache.
func NewPolicy(cache *schema.Cache) *Policy {
	return &Policy{cache: cache}
}

// MirrorName returns the mirror column name for a source column of t.
func (p *Policy) MirrorName(t RecordType, column string) string {
	return column + t.MirrorConfig().EffectiveSuffix()
}

// EffectiveColumns returns the sorted set of source columns that get a
// mirror on t. The order is deterministic for a fixed schema and
// configuration. When metadata is unavailable, discovery degrades to the
// declared casts and markers instead of failing.
func (p *Policy) EffectiveColumns(ctx context.Context, t RecordType) []string {
	cfg := t.MirrorConfig()
	suffix := cfg.EffectiveSuffix()

	set := make(map[string]struct{})
	if len(cfg.SourceColumns) > 0 {
		for _, col := range cfg.SourceColumns {
			set[col] = struct{}{}
		}
	} else {
		cols, err := p.cache.Columns(ctx, t.Connection(), t.Table())
		if err == nil {
			for _, c := range cols {
				if schema.IsTemporalType(c.DeclaredType) {
					set[c.Name] = struct{}{}
				}
			}
		}
		for _, col := range t.TemporalCasts() {
			set[col] = struct{}{}
		}
		if t.ManagesTimestamps() {
			set[createdColumn(t)] = struct{}{}
			set[updatedColumn(t)] = struct{}{}
		}
		if col := t.SoftDeleteColumn(); col != "" {
			set[col] = struct{}{}
		}
	}

	for _, col := range cfg.ExcludedColumns {
		delete(set, col)
	}

	out := make([]string, 0, len(set))
	for col := range set {
		// A column that already carries the suffix is itself a mirror;
		// selecting it would stack suffixes.
		if col == "" || strings.HasSuffix(col, suffix) {
			continue
		}
		out = append(out, col)
	}
	sort.Strings(out)
	return out
}

func createdColumn(t RecordType) string {
	if col := t.CreatedColumn(); col != "" {
		return col
	}
	return DefaultCreatedColumn
}

func updatedColumn(t RecordType) string {
	if col := t.UpdatedColumn(); col != "" {
		return col
	}
	return DefaultUpdatedColumn
}

// PrimaryMarker resolves the column that "most recent first" style helpers
// order by: the created marker when the type manages timestamps, otherwise
// the first effective column. Empty when the type mirrors nothing.
func (p *Policy) PrimaryMarker(ctx context.Context, t RecordType) string {
	if t.ManagesTimestamps() {
		return createdColumn(t)
	}
	cols := p.EffectiveColumns(ctx, t)
	if len(cols) == 0 {
		return ""
	}
	return cols[0]
}
