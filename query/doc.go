// Package query rewrites filter and ordering operations onto mirror
// columns. The rewrite is purely syntactic: an operation referencing a bare
// column name whose mirror physically exists gets the mirror column
// substituted and its temporal literals converted to epoch seconds;
// everything else passes through untouched. The package builds and rewrites
// operation tuples only; it never executes queries.
package query
