// Package dataset loads the source table for one ingest run.
package dataset

import (
	"github.com/kailas-cloud/vecingest/internal/domain"
)

// Table is the logical table produced by one load: named columns plus rows
// in input order. It is read-only once built and shared across partitions.
type Table struct {
	Columns []string
	Rows    []domain.Record
}

// HasColumn reports whether the schema contains the named column.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Partitions splits the rows into at most n contiguous, in-order slices.
// Row order inside a partition follows input order.
func (t *Table) Partitions(n int) [][]domain.Record {
	if len(t.Rows) == 0 {
		return nil
	}
	if n < 1 {
		n = 1
	}
	if n > len(t.Rows) {
		n = len(t.Rows)
	}

	size := (len(t.Rows) + n - 1) / n
	parts := make([][]domain.Record, 0, n)
	for start := 0; start < len(t.Rows); start += size {
		end := start + size
		if end > len(t.Rows) {
			end = len(t.Rows)
		}
		parts = append(parts, t.Rows[start:end])
	}
	return parts
}
