package query

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/mirrorstamp/mirrorstamp/epoch"
	"github.com/mirrorstamp/mirrorstamp/mirror"
	"github.com/mirrorstamp/mirrorstamp/schema"
)

// Kind identifies the operation shape being rewritten.
type Kind int

const (
	// KindWhere is a single-operator comparison: column op value.
	KindWhere Kind = iota
	// KindWhereIn matches the column against a value set.
	KindWhereIn
	// KindWhereBetween bounds the column by Values[0] and Values[1].
	KindWhereBetween
	// KindWhereDate matches the date part of the column against a single
	// date value; on a mirror it becomes a whole-day between.
	KindWhereDate
	// KindOrderBy orders by the column; Operator is "asc" or "desc".
	KindOrderBy
)

// Op is one filter or ordering operation. A zero Column marks an expression
// or sub-builder operation the rewriter must not touch.
type Op struct {
	Kind     Kind
	Column   string
	Operator string
	Values   []any
}

// secondsPerDay is the span added to a date-part filter's lower bound.
const secondsPerDay = int64(24 * 60 * 60)

// Rewriter substitutes mirror columns into operations against a record type.
type Rewriter struct {
	policy *mirror.Policy
	cache  *schema.Cache
	log    zerolog.Logger
}

// RewriteOption customizes a Rewriter.
type RewriteOption func(*Rewriter)

// WithLogger attaches a logger for debug-level rewrite traces.
func WithLogger(log zerolog.Logger) RewriteOption {
	return func(r *Rewriter) { r.log = log }
}

// NewRewriter creates a Rewriter sharing the policy's metadata cache.
func NewRewriter(policy *mirror.Policy, cache *schema.Cache, opts ...RewriteOption) *Rewriter {
	r := &Rewriter{policy: policy, cache: cache, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rewrite returns op with the mirror column and epoch values substituted
// when the referenced column is effective for t and its mirror physically
// exists. In every other case (expression operations, non-mirrored columns,
// absent mirror columns, values that are neither integers nor parseable
// temporals) the original op is returned unchanged.
func (r *Rewriter) Rewrite(ctx context.Context, t mirror.RecordType, op Op) Op {
	if op.Column == "" {
		return op
	}
	if !r.mirrored(ctx, t, op.Column) {
		return op
	}
	mirrorCol := r.policy.MirrorName(t, op.Column)
	if !r.cache.Exists(ctx, t.Connection(), t.Table(), mirrorCol) {
		return op
	}

	out := op
	out.Column = mirrorCol

	if op.Kind == KindWhereDate {
		// Date-part match against an integer column: expand the day into a
		// closed epoch range.
		if len(op.Values) != 1 {
			return op
		}
		start, err := epoch.Seconds(op.Values[0])
		if err != nil {
			return op
		}
		out.Kind = KindWhereBetween
		out.Operator = ""
		out.Values = []any{start, start + secondsPerDay - 1}
		r.logRewrite(t, op, out)
		return out
	}

	if len(op.Values) > 0 {
		converted := make([]any, len(op.Values))
		for i, v := range op.Values {
			if epoch.IsInteger(v) {
				converted[i] = v // already epoch
				continue
			}
			secs, err := epoch.Seconds(v)
			if err != nil {
				// A value the mirror cannot represent; substituting the
				// column would change the query's meaning, so leave the whole
				// operation alone.
				return op
			}
			converted[i] = secs
		}
		out.Values = converted
	}
	r.logRewrite(t, op, out)
	return out
}

func (r *Rewriter) logRewrite(t mirror.RecordType, from, to Op) {
	r.log.Debug().
		Str("table", t.Table()).
		Str("column", from.Column).
		Str("mirror", to.Column).
		Msg("query: operation redirected to mirror column")
}

func (r *Rewriter) mirrored(ctx context.Context, t mirror.RecordType, column string) bool {
	for _, col := range r.policy.EffectiveColumns(ctx, t) {
		if col == column {
			return true
		}
	}
	return false
}

// Latest returns a "most recent first" ordering on t's primary temporal
// marker, rewritten onto its mirror when one exists.
func (r *Rewriter) Latest(ctx context.Context, t mirror.RecordType) Op {
	return r.markerOrder(ctx, t, "desc")
}

// Oldest returns an "oldest first" ordering on t's primary temporal marker,
// rewritten onto its mirror when one exists.
func (r *Rewriter) Oldest(ctx context.Context, t mirror.RecordType) Op {
	return r.markerOrder(ctx, t, "asc")
}

func (r *Rewriter) markerOrder(ctx context.Context, t mirror.RecordType, direction string) Op {
	marker := r.policy.PrimaryMarker(ctx, t)
	return r.Rewrite(ctx, t, Op{Kind: KindOrderBy, Column: marker, Operator: direction})
}
