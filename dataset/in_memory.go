// Package dataset provides the bundled in-memory implementation of the
// core.Dataset batching collaborator. It stores row-aligned columns of
// arbitrary slice type and produces lazy column-wise batches, optionally
// shuffled per pass.
package dataset

import (
	"iter"
	"math/rand"
	"reflect"
	"time"

	"github.com/hupe1980/trainmesh/core"
)

// InMemory is a volatile core.Dataset implementation holding its columns in
// process memory. Columns may be slices of any element type ([]float64,
// [][]float64, []int, ...) as long as each has the same length; the final
// column holds the targets. It is best suited for tests, examples and
// datasets that fit in memory.
//
// InMemory is not safe for concurrent use; like the rest of the engine it
// assumes a single training goroutine.
type InMemory struct {
	cols []reflect.Value
	size int
	rng  *rand.Rand
}

// New constructs an InMemory dataset from the given columns (inputs...,
// targets). It returns a core.InvalidArgumentError when no column is given,
// a column is not a slice, or the columns are not row-aligned.
func New(cols ...any) (*InMemory, error) {
	if len(cols) == 0 {
		return nil, core.InvalidArgumentf("dataset needs at least one column")
	}

	d := &InMemory{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
	for i, col := range cols {
		v := reflect.ValueOf(col)
		if !v.IsValid() || v.Kind() != reflect.Slice {
			return nil, core.InvalidArgumentf("column %d is %T, want a slice", i, col)
		}
		if i == 0 {
			d.size = v.Len()
		} else if v.Len() != d.size {
			return nil, core.InvalidArgumentf("column %d has %d rows, want %d", i, v.Len(), d.size)
		}
		d.cols = append(d.cols, v)
	}
	return d, nil
}

// FromArrays wraps raw training-loop inputs into a dataset. x is either a
// single input column or a []any of input columns; y is the target column.
func FromArrays(x, y any) (*InMemory, error) {
	if x == nil || y == nil {
		return nil, core.InvalidArgumentf("incomplete input data: x=%T, y=%T", x, y)
	}
	var cols []any
	if xs, ok := x.([]any); ok {
		cols = append(cols, xs...)
	} else {
		cols = append(cols, x)
	}
	cols = append(cols, y)
	return New(cols...)
}

// Seed fixes the shuffle order for reproducible runs and returns the
// dataset for chaining.
func (d *InMemory) Seed(seed int64) *InMemory {
	d.rng = rand.New(rand.NewSource(seed))
	return d
}

// Size returns the number of rows.
func (d *InMemory) Size() int { return d.size }

// Columns returns the number of columns, targets included.
func (d *InMemory) Columns() int { return len(d.cols) }

// Batches produces a lazy, finite sequence over one pass of the dataset.
// A batch size that does not evenly divide Size yields one additional,
// smaller final batch; a batch size below one yields nothing.
//
// With colwise set, every batch is a sequence of row-aligned columns
// (inputs..., targets) — the form the training loop consumes. Without it,
// every batch element is one row, a []any of that row's column values.
//
// Shuffle draws a fresh row permutation for this pass; without it rows
// appear in stable insertion order. The sequence is restartable: every
// range over it iterates a full pass.
func (d *InMemory) Batches(batchSize int, colwise, shuffle bool) iter.Seq[core.Batch] {
	return func(yield func(core.Batch) bool) {
		if batchSize < 1 {
			return
		}
		var idx []int
		if shuffle {
			idx = d.rng.Perm(d.size)
		}
		for lo := 0; lo < d.size; lo += batchSize {
			hi := lo + batchSize
			if hi > d.size {
				hi = d.size
			}
			if !yield(d.batch(lo, hi, idx, colwise)) {
				return
			}
		}
	}
}

func (d *InMemory) batch(lo, hi int, idx []int, colwise bool) core.Batch {
	if colwise {
		b := make(core.Batch, len(d.cols))
		for c, col := range d.cols {
			if idx == nil {
				b[c] = col.Slice(lo, hi).Interface()
			} else {
				b[c] = gather(col, idx[lo:hi])
			}
		}
		return b
	}

	b := make(core.Batch, 0, hi-lo)
	for r := lo; r < hi; r++ {
		row := make([]any, len(d.cols))
		for c, col := range d.cols {
			if idx == nil {
				row[c] = col.Index(r).Interface()
			} else {
				row[c] = col.Index(idx[r]).Interface()
			}
		}
		b = append(b, row)
	}
	return b
}

// gather copies the rows named by idx out of col into a fresh slice of the
// same type.
func gather(col reflect.Value, idx []int) any {
	out := reflect.MakeSlice(col.Type(), len(idx), len(idx))
	for i, j := range idx {
		out.Index(i).Set(col.Index(j))
	}
	return out.Interface()
}
