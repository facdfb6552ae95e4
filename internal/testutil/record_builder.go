package testutil

import (
	"github.com/hupe1980/trainmesh/core"
)

// RecordBuilder provides a fluent helper for constructing records in tests.
// Example:
//
//	rec := NewRecordBuilder().Epoch(1).Batch(2, 32).Loss(0.5).Build()
//
// Chain only the parts you need; sensible defaults are applied.
type RecordBuilder struct {
	runID      string
	epoch      int
	size       int
	numBatches int
	train      bool
	batchIndex int
	batchSize  int
	inputs     []any
	targets    any
	preds      any
	loss       *float64
	metrics    map[string]float64
}

// NewRecordBuilder creates a builder for a training-phase record.
func NewRecordBuilder() *RecordBuilder {
	return &RecordBuilder{runID: core.NewID(), train: true, metrics: map[string]float64{}}
}

// RunID overrides the auto-generated run ID (chainable). Use mainly in tests where determinism matters.
func (b *RecordBuilder) RunID(id string) *RecordBuilder { b.runID = id; return b }

// Epoch sets the 1-based epoch index (chainable).
func (b *RecordBuilder) Epoch(epoch int) *RecordBuilder { b.epoch = epoch; return b }

// Dataset sets the dataset size and batch count of the phase (chainable).
func (b *RecordBuilder) Dataset(size, numBatches int) *RecordBuilder {
	b.size = size
	b.numBatches = numBatches
	return b
}

// Validation marks the record as belonging to a validation batch (chainable).
func (b *RecordBuilder) Validation() *RecordBuilder { b.train = false; return b }

// Batch sets the batch index and row count (chainable).
func (b *RecordBuilder) Batch(index, size int) *RecordBuilder {
	b.batchIndex = index
	b.batchSize = size
	return b
}

// Data sets the input columns and target column (chainable).
func (b *RecordBuilder) Data(inputs []any, targets any) *RecordBuilder {
	b.inputs = inputs
	b.targets = targets
	return b
}

// Preds sets the forward pass output (chainable).
func (b *RecordBuilder) Preds(preds any) *RecordBuilder { b.preds = preds; return b }

// Loss sets a known scalar loss (chainable).
func (b *RecordBuilder) Loss(loss float64) *RecordBuilder { b.loss = &loss; return b }

// Metric adds a named metric value (chainable).
func (b *RecordBuilder) Metric(name string, value float64) *RecordBuilder {
	b.metrics[name] = value
	return b
}

// Build returns a *core.Record with the configured fields.
func (b *RecordBuilder) Build() *core.Record {
	rec := core.NewRecord()
	rec.RunID = b.runID
	rec.Epoch = b.epoch
	rec.Size = b.size
	rec.NumBatches = b.numBatches
	rec.Train = b.train
	rec.BatchIndex = b.batchIndex
	rec.BatchSize = b.batchSize
	rec.Inputs = b.inputs
	rec.Targets = b.targets
	rec.Preds = b.preds
	if b.loss != nil {
		rec.Loss = *b.loss
		rec.LossKnown = true
	}
	for k, v := range b.metrics {
		rec.SetMetric(k, v)
	}
	return rec
}
