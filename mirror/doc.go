// Package mirror keeps derived integer columns in step with their temporal
// source columns. A Policy resolves which columns of a record type get a
// mirror and what the mirror is called; a Synchronizer writes mirror
// values onto records at well-defined lifecycle points. Record storage
// itself lives elsewhere: the package only reads and writes named
// attributes through the Record interface and table metadata through the
// schema package.
package mirror
