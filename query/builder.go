package query

import (
	"context"

	"github.com/mirrorstamp/mirrorstamp/mirror"
)

// Builder is the query-building capability the decorator intercepts. The
// host's builder implements it; only filter and ordering calls are rewritten,
// everything else stays on the inner builder untouched.
type Builder interface {
	Where(column, operator string, value any) Builder
	WhereIn(column string, values ...any) Builder
	WhereBetween(column string, low, high any) Builder
	WhereDate(column string, value any) Builder
	OrderBy(column, direction string) Builder
}

// MirrorBuilder decorates a Builder, passing each filter/order operation
// through a Rewriter before delegating to the inner builder. It composes
// rather than subclasses: the inner builder keeps full ownership of query
// construction and execution.
type MirrorBuilder struct {
	ctx      context.Context
	rewriter *Rewriter
	typ      mirror.RecordType
	inner    Builder
}

// Wrap decorates inner with mirror-column rewriting for typ.
func Wrap(ctx context.Context, rewriter *Rewriter, typ mirror.RecordType, inner Builder) *MirrorBuilder {
	return &MirrorBuilder{ctx: ctx, rewriter: rewriter, typ: typ, inner: inner}
}

// Inner returns the decorated builder, for handing off to execution.
func (b *MirrorBuilder) Inner() Builder { return b.inner }

// apply forwards a rewritten op to the inner builder.
func (b *MirrorBuilder) apply(op Op) Builder {
	out := b.rewriter.Rewrite(b.ctx, b.typ, op)
	switch out.Kind {
	case KindWhereIn:
		b.inner = b.inner.WhereIn(out.Column, out.Values...)
	case KindWhereBetween:
		b.inner = b.inner.WhereBetween(out.Column, out.Values[0], out.Values[1])
	case KindWhereDate:
		b.inner = b.inner.WhereDate(out.Column, out.Values[0])
	case KindOrderBy:
		b.inner = b.inner.OrderBy(out.Column, out.Operator)
	default:
		b.inner = b.inner.Where(out.Column, out.Operator, out.Values[0])
	}
	return b
}

func (b *MirrorBuilder) Where(column, operator string, value any) Builder {
	return b.apply(Op{Kind: KindWhere, Column: column, Operator: operator, Values: []any{value}})
}

func (b *MirrorBuilder) WhereIn(column string, values ...any) Builder {
	return b.apply(Op{Kind: KindWhereIn, Column: column, Values: values})
}

func (b *MirrorBuilder) WhereBetween(column string, low, high any) Builder {
	return b.apply(Op{Kind: KindWhereBetween, Column: column, Values: []any{low, high}})
}

func (b *MirrorBuilder) WhereDate(column string, value any) Builder {
	return b.apply(Op{Kind: KindWhereDate, Column: column, Values: []any{value}})
}

func (b *MirrorBuilder) OrderBy(column, direction string) Builder {
	return b.apply(Op{Kind: KindOrderBy, Column: column, Operator: direction})
}

// Latest orders by the type's primary temporal marker, newest first.
func (b *MirrorBuilder) Latest() Builder {
	op := b.rewriter.Latest(b.ctx, b.typ)
	if op.Column == "" {
		return b
	}
	b.inner = b.inner.OrderBy(op.Column, op.Operator)
	return b
}

// Oldest orders by the type's primary temporal marker, oldest first.
func (b *MirrorBuilder) Oldest() Builder {
	op := b.rewriter.Oldest(b.ctx, b.typ)
	if op.Column == "" {
		return b
	}
	b.inner = b.inner.OrderBy(op.Column, op.Operator)
	return b
}
