package testutil

import (
	"github.com/hupe1980/trainmesh/dataset"
)

// DatasetBuilder helps construct seeded in-memory datasets with fluent
// chaining for tests.
// Example:
//
//	ds := NewDatasetBuilder().Rows(100).Seed(42).Build(t)
type DatasetBuilder struct {
	cols []any
	rows int
	seed *int64
}

// NewDatasetBuilder creates a new builder. Use chainable methods (Rows,
// Column, Seed) then call Build.
func NewDatasetBuilder() *DatasetBuilder {
	return &DatasetBuilder{}
}

// Rows configures two default float64 columns (inputs 0..n-1 and identical
// targets) of the given length (chainable). Ignored when explicit columns
// were added.
func (b *DatasetBuilder) Rows(n int) *DatasetBuilder { b.rows = n; return b }

// Column appends an explicit column (chainable). The final column added is
// the target column.
func (b *DatasetBuilder) Column(col any) *DatasetBuilder {
	b.cols = append(b.cols, col)
	return b
}

// Seed fixes the shuffle order of the built dataset (chainable).
func (b *DatasetBuilder) Seed(seed int64) *DatasetBuilder { b.seed = &seed; return b }

// Build returns the configured *dataset.InMemory, failing the test on
// invalid column configurations.
func (b *DatasetBuilder) Build(t interface{ Fatalf(string, ...any) }) *dataset.InMemory {
	cols := b.cols
	if len(cols) == 0 {
		col := make([]float64, b.rows)
		for i := range col {
			col[i] = float64(i)
		}
		cols = []any{col, col}
	}

	ds, err := dataset.New(cols...)
	if err != nil {
		t.Fatalf("building dataset: %v", err)
		return nil
	}
	if b.seed != nil {
		ds.Seed(*b.seed)
	}
	return ds
}
