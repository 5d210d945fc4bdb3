package mirror

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/mirrorstamp/mirrorstamp/epoch"
	"github.com/mirrorstamp/mirrorstamp/schema"
)

// Synchronizer writes mirror values onto records. Every failure narrows
// scope: a missing mirror column or an unparseable source value skips one
// column, never the whole pass, so the host's load/save path cannot be
// broken by mirror bookkeeping.
type Synchronizer struct {
	policy *Policy
	cache  *schema.Cache
	log    zerolog.Logger
}

// SyncOption customizes a Synchronizer.
type SyncOption func(*Synchronizer)

// WithLogger attaches a logger; skipped columns are reported at debug level.
func WithLogger(log zerolog.Logger) SyncOption {
	return func(s *Synchronizer) { s.log = log }
}

// NewSynchronizer creates a Synchronizer sharing the policy's metadata cache.
func NewSynchronizer(policy *Policy, cache *schema.Cache, opts ...SyncOption) *Synchronizer {
	s := &Synchronizer{policy: policy, cache: cache, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sync writes the mirror value for each effective column of rec. With
// skipIfPresent, a non-null mirror already on the record is preserved; this
// honors caller-supplied values and keeps lazily backfilled reads cheap.
// A null source always yields a null mirror.
func (s *Synchronizer) Sync(ctx context.Context, rec Record, skipIfPresent bool) {
	t := rec.Type()
	conn, table := t.Connection(), t.Table()
	for _, col := range s.policy.EffectiveColumns(ctx, t) {
		mirrorCol := s.policy.MirrorName(t, col)
		if !s.cache.Exists(ctx, conn, table, mirrorCol) {
			continue
		}
		if skipIfPresent && !epoch.IsNull(rec.Attribute(mirrorCol)) {
			continue
		}
		src := rec.Attribute(col)
		if epoch.IsNull(src) {
			rec.SetAttribute(mirrorCol, nil)
			continue
		}
		secs, err := epoch.Seconds(src)
		if err != nil {
			s.log.Debug().Err(err).
				Str("table", table).Str("column", col).
				Msg("mirror: source value not temporal, column skipped")
			continue
		}
		rec.SetAttribute(mirrorCol, secs)
	}
}

// Lifecycle hooks. The record-storage layer calls these at the named points;
// each is a plain forward to Sync with the appropriate overwrite semantics.

// BeforeCreate syncs an about-to-be-inserted record, honoring any mirror
// value the caller supplied.
func (s *Synchronizer) BeforeCreate(ctx context.Context, rec Record) {
	s.Sync(ctx, rec, true)
}

// BeforeUpdate syncs an about-to-be-updated record, honoring any mirror
// value the caller supplied.
func (s *Synchronizer) BeforeUpdate(ctx context.Context, rec Record) {
	s.Sync(ctx, rec, true)
}

// AfterLoad lazily backfills mirrors on records created before their mirror
// columns existed. The backfilled values live on the record only; they are
// persisted by the next save, not written back during the load.
func (s *Synchronizer) AfterLoad(ctx context.Context, rec Record) {
	s.Sync(ctx, rec, true)
}

// AfterSave re-syncs unconditionally so the mirror matches the just-persisted
// source even when skip-if-present let a stale value through earlier.
func (s *Synchronizer) AfterSave(ctx context.Context, rec Record) {
	s.Sync(ctx, rec, false)
}
