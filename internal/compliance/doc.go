// Package compliance decides, for every row of a file-inventory export,
// which destination naming and size constraints the row violates, what
// corrected name to propose, and whether the correction may be applied.
//
// The package is pure: it performs no I/O, takes no logger and keeps no
// state between rows. Rows are consumed one at a time from a [RowSource] and
// results are pushed to a [Sink] in row order, rule-table order within a row.
package compliance
