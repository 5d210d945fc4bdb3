// Package schema reads live table metadata and answers the two questions
// the mirroring engine keeps asking: which columns does a table declare, and
// does a given column physically exist. It includes:
//   - ColumnDescriptor model and temporal type classification
//   - Inspector interface with a SQLite-backed implementation over
//     named connections
//   - Cache: a TTL metadata cache with per-table invalidation, shared by
//     the synchronizer and the query rewriter
package schema
