package mirror

// DefaultSuffix is appended to a source column name to form its mirror
// column name when no suffix is configured.
const DefaultSuffix = "_unix"

// Default created/updated marker names used when a type manages its own
// timestamps but does not name the columns.
const (
	DefaultCreatedColumn = "created_at"
	DefaultUpdatedColumn = "updated_at"
)

// Config captures the per-record-type mirroring settings.
type Config struct {
	// SourceColumns, when non-empty, is the explicit set of columns to
	// mirror; automatic discovery is skipped.
	SourceColumns []string

	// ExcludedColumns are removed from the effective set, whether the
	// sources were explicit or discovered.
	ExcludedColumns []string

	// Suffix names the mirror column: <source><Suffix>. Empty means
	// DefaultSuffix.
	Suffix string
}

// EffectiveSuffix returns the configured suffix or the default.
func (c Config) EffectiveSuffix() string {
	if c.Suffix == "" {
		return DefaultSuffix
	}
	return c.Suffix
}

// RecordType describes a storage table bound to an application entity. It is
// implemented by the external record-storage layer; TypeInfo is a ready-made
// value implementation.
type RecordType interface {
	// Table is the storage table name.
	Table() string

	// Connection names the database connection the table lives on.
	Connection() string

	// TemporalCasts lists columns the type converts to a date/time-like
	// representation regardless of their declared column type.
	TemporalCasts() []string

	// ManagesTimestamps reports whether the type maintains created/updated
	// markers itself.
	ManagesTimestamps() bool

	// CreatedColumn and UpdatedColumn name the managed markers. Empty means
	// the conventional defaults.
	CreatedColumn() string
	UpdatedColumn() string

	// SoftDeleteColumn names the soft-delete marker, or "" when the type
	// hard-deletes.
	SoftDeleteColumn() string

	// MirrorConfig returns the type's mirroring settings.
	MirrorConfig() Config
}

// Record is a single loaded instance of a RecordType. The engine only reads
// and writes raw attribute values; a nil value represents SQL NULL.
type Record interface {
	Type() RecordType
	Attribute(name string) any
	SetAttribute(name string, value any)
}

// TypeInfo is a plain-value RecordType, convenient for hosts that describe
// their types with data rather than dedicated structs.
type TypeInfo struct {
	TableName      string
	ConnectionName string
	Casts          []string
	Timestamps     bool
	CreatedAt      string
	UpdatedAt      string
	DeletedAt      string
	Config         Config
}

func (t TypeInfo) Table() string           { return t.TableName }
func (t TypeInfo) Connection() string      { return t.ConnectionName }
func (t TypeInfo) TemporalCasts() []string { return t.Casts }
func (t TypeInfo) ManagesTimestamps() bool { return t.Timestamps }

func (t TypeInfo) CreatedColumn() string {
	if t.CreatedAt == "" {
		return DefaultCreatedColumn
	}
	return t.CreatedAt
}

func (t TypeInfo) UpdatedColumn() string {
	if t.UpdatedAt == "" {
		return DefaultUpdatedColumn
	}
	return t.UpdatedAt
}

func (t TypeInfo) SoftDeleteColumn() string { return t.DeletedAt }
func (t TypeInfo) MirrorConfig() Config     { return t.Config }
