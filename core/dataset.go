package core

import "iter"

// Batch is one group of row-aligned columns produced by a dataset. The
// final column holds the targets; all preceding columns are inputs. Each
// column is a slice value whose concrete element type is owned by the
// dataset (and ultimately by the injected forward/loss functions).
type Batch []any

// Inputs returns the input columns (all but the last).
func (b Batch) Inputs() []any {
	if len(b) == 0 {
		return nil
	}
	return b[:len(b)-1]
}

// Targets returns the target column (the last).
func (b Batch) Targets() any {
	if len(b) == 0 {
		return nil
	}
	return b[len(b)-1]
}

// Dataset is the batching collaborator driving each epoch pass. The
// training loop only depends on this interface; concrete storage and
// shuffling live in implementations such as dataset.InMemory.
//
// Batches must produce a lazy, finite, restartable sequence: a batch size
// that does not evenly divide Size yields one additional, smaller final
// batch. With colwise set, each batch is a sequence of columns aligned by
// row (the form the training loop consumes). Shuffle requests a fresh
// random row order for this pass; without it iteration order must be
// deterministic.
type Dataset interface {
	Size() int
	Batches(batchSize int, colwise, shuffle bool) iter.Seq[Batch]
}
