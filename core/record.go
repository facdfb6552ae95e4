package core

// Record is the mutable payload passed by reference through every
// notification. All listeners and hooks invoked for one event receive the
// same *Record; later entries in the notification order observe mutations
// made by earlier ones. This is the mechanism by which, for example, an
// accuracy hook injects a metric that the Reporter then aggregates.
//
// The schema is fixed and typed on purpose. Which fields are populated
// depends on the event:
//
//   - epoch-level events (epoch_begin through epoch_end) carry Epoch, Size,
//     NumBatches and, on the phase-end events, the mean Loss of the phase
//   - batch-level events additionally carry Train, BatchIndex, BatchSize,
//     Inputs, Targets and, on batch_end, Preds and the batch Loss
//
// Metrics is the single open extension point: hooks write computed metric
// values there and downstream listeners read them. Handlers must not
// retain the record beyond the notification that delivered it.
type Record struct {
	// RunID correlates all records of one Fit invocation.
	RunID string

	// Epoch is the 1-based epoch index.
	Epoch int

	// Size is the element count of the dataset driving the current phase.
	Size int

	// NumBatches is ceil(Size / batch size), the loss-mean denominator.
	NumBatches int

	// Train distinguishes training batches from validation batches.
	Train bool

	// BatchIndex is the 0-based index of the batch within its phase.
	BatchIndex int

	// BatchSize is the row count of the current batch. The final batch of
	// a phase may be smaller than the configured batch size.
	BatchSize int

	// Inputs holds the input columns of the current batch, converter
	// already applied.
	Inputs []any

	// Targets holds the target column of the current batch.
	Targets any

	// Preds holds the forward pass output. Nil until the forward pass of
	// the current batch has completed.
	Preds any

	// Loss is the scalar loss: per-batch on batch_end, phase mean on
	// epoch_train_end / epoch_validate_end. Only meaningful when LossKnown
	// is true.
	Loss float64

	// LossKnown reports whether Loss has been computed for the event that
	// delivered this record.
	LossKnown bool

	// Metrics carries named metric values injected by hooks for downstream
	// listeners. Never nil on records emitted by the training loop.
	Metrics map[string]float64
}

// NewRecord creates an empty record with an initialized metric map.
func NewRecord() *Record {
	return &Record{Metrics: map[string]float64{}}
}

// SetMetric stores a named metric value, allocating the map if the record
// was constructed manually.
func (r *Record) SetMetric(name string, value float64) {
	if r.Metrics == nil {
		r.Metrics = map[string]float64{}
	}
	r.Metrics[name] = value
}
