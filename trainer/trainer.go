package trainer

import (
	"math"
	"reflect"
	"time"

	"github.com/hupe1980/trainmesh/core"
	"github.com/hupe1980/trainmesh/dataset"
	"github.com/hupe1980/trainmesh/dispatch"
	"github.com/hupe1980/trainmesh/listeners"
	"github.com/hupe1980/trainmesh/logging"
)

// History is the per-epoch metric history returned by Fit.
//
// The loop intentionally leaves it empty: aggregated metrics are delivered
// through the Reporter/listener side channel (EpochSummary, RunSummary and
// any listeners the caller attached), not through the return value. The
// empty result is documented behavior, kept for interface stability.
type History []map[string]float64

// Options holds dependency and configuration overrides passed to New().
type Options struct {
	// Logger receives trainer lifecycle logs. Defaults to NoOp.
	Logger logging.Logger
	// AccuracyFunc, when set, is wired as a batch_end hook injecting an
	// "accuracy" metric into every batch record before the Reporter
	// aggregates it.
	AccuracyFunc core.AccuracyFunc
	// Update replaces the default BackpropUpdate strategy.
	Update core.UpdateFunc
	// Converter replaces the identity input/target conversion function.
	Converter core.Converter
	// EpochSummary receives the Reporter's finalized metric means per epoch.
	EpochSummary func(epoch int, metrics map[string]float64)
	// RunSummary receives the Reporter's finalized metric means per run.
	RunSummary func(metrics map[string]float64)
}

// Config carries the settings recognized by Configure. Zero-valued fields
// leave the current setting untouched.
type Config struct {
	// Update replaces the update strategy.
	Update core.UpdateFunc
	// Hooks maps events to handlers registered via AddHook, in lifecycle
	// event order.
	Hooks map[core.Event]core.Handler
	// Listeners are attached at core.DefaultPriority, in slice order.
	Listeners []core.Listener
	// Converter replaces the input/target conversion function.
	Converter core.Converter
}

// FitOptions holds the per-run settings of one Fit call.
type FitOptions struct {
	// BatchSize is the row count per batch (default 32). The final batch
	// of a pass may be smaller.
	BatchSize int
	// Epochs is the number of full passes over the training data
	// (default 10).
	Epochs int
	// ValidationData is nil, a core.Dataset, or a two-element
	// (inputs, targets) pair given as [2]any or []any of length 2.
	ValidationData any
}

// Trainer drives the training loop and embeds the Dispatcher it notifies,
// so listeners and hooks register directly on the Trainer.
//
// Like the Dispatcher, the Trainer is single-threaded: one Fit call at a
// time, from one goroutine.
type Trainer struct {
	*dispatch.Dispatcher

	optimizer any
	forward   core.ForwardFunc
	lossFn    core.LossFunc
	accFn     core.AccuracyFunc
	update    core.UpdateFunc
	converter core.Converter

	logger       logging.Logger
	epochSummary func(epoch int, metrics map[string]float64)
	runSummary   func(metrics map[string]float64)
}

// New constructs a Trainer around the externally supplied optimizer handle,
// forward function and loss function, with optional overrides.
func New(optimizer any, forward core.ForwardFunc, lossFn core.LossFunc, optFns ...func(o *Options)) *Trainer {
	opts := Options{
		Logger:    logging.NoOpLogger{},
		Update:    BackpropUpdate,
		Converter: core.IdentityConverter,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	t := &Trainer{
		Dispatcher:   dispatch.New(),
		optimizer:    optimizer,
		forward:      forward,
		lossFn:       lossFn,
		accFn:        opts.AccuracyFunc,
		update:       opts.Update,
		converter:    opts.Converter,
		logger:       opts.Logger,
		epochSummary: opts.EpochSummary,
		runSummary:   opts.RunSummary,
	}

	if t.accFn != nil {
		// Cannot fail: the event is valid and the handler non-nil.
		_ = t.AddHook(core.EventBatchEnd, func(rec *core.Record) error {
			rec.SetMetric("accuracy", t.accFn(rec.Preds, rec.Targets))
			return nil
		})
	}
	return t
}

// Configure applies the recognized settings: replace the update strategy,
// register hooks, attach listeners, replace the converter. Unspecified
// settings keep their current values.
func (t *Trainer) Configure(optFns ...func(c *Config)) error {
	cfg := Config{}
	for _, fn := range optFns {
		fn(&cfg)
	}

	if cfg.Update != nil {
		t.update = cfg.Update
	}
	for event := range cfg.Hooks {
		if !event.Valid() {
			return core.Configurationf("unknown hook target %q", event)
		}
	}
	// Register hooks in lifecycle event order so map iteration does not
	// make registration order run-dependent.
	for _, event := range core.Events() {
		if h, ok := cfg.Hooks[event]; ok {
			if err := t.AddHook(event, h); err != nil {
				return err
			}
		}
	}
	for _, l := range cfg.Listeners {
		if err := t.Attach(l); err != nil {
			return err
		}
	}
	if cfg.Converter != nil {
		t.converter = cfg.Converter
	}
	return nil
}

// Fit trains for the configured number of epochs over x/y.
//
// x is either a ready-made core.Dataset (y must then be nil) or a raw
// input column / []any column set paired with the target column y. Each
// epoch processes the full training dataset once with shuffled batches,
// then — when validation data is present — one deterministic pass over it
// with no parameter updates.
//
// Errors from listeners, hooks, the forward function, the loss function or
// the update strategy abort the remainder of the run and propagate
// unwrapped; parameter updates already applied stay applied.
func (t *Trainer) Fit(x, y any, optFns ...func(o *FitOptions)) (History, error) {
	opts := FitOptions{BatchSize: 32, Epochs: 10}
	for _, fn := range optFns {
		fn(&opts)
	}

	if t.forward == nil {
		return nil, core.Configurationf("forward function is not set")
	}
	if t.lossFn == nil {
		return nil, core.Configurationf("loss function is not set")
	}
	if opts.BatchSize < 1 {
		return nil, core.InvalidArgumentf("batch size must be positive, got %d", opts.BatchSize)
	}

	trainDS, err := t.resolveTrainData(x, y)
	if err != nil {
		return nil, err
	}
	valDS, err := resolveValidationData(opts.ValidationData)
	if err != nil {
		return nil, err
	}

	runID := core.NewID()
	started := time.Now()
	t.logger.Info("training run starting", "run_id", runID, "epochs", opts.Epochs, "batch_size", opts.BatchSize, "size", trainDS.Size())

	reporter := listeners.NewReporter(func(o *listeners.ReporterOptions) {
		o.Logger = t.logger
		o.EpochSummary = t.epochSummary
		o.RunSummary = t.runSummary
	})
	if err := t.AttachListener(reporter, listeners.ReporterPriority); err != nil {
		return nil, err
	}
	// Detach on every exit path; Finalize drains scopes an aborted epoch
	// left open.
	defer func() {
		if derr := t.DetachListener(reporter); derr != nil {
			t.logger.Error("detaching reporter failed", "error", derr)
		}
	}()

	history := History{}

	runRec := core.NewRecord()
	runRec.RunID = runID
	if err := t.Notify(core.EventTrainBegin, runRec); err != nil {
		return nil, err
	}

	for epoch := 1; epoch <= opts.Epochs; epoch++ {
		epochRec := core.NewRecord()
		epochRec.RunID = runID
		epochRec.Epoch = epoch
		epochRec.Size = trainDS.Size()

		if err := t.Notify(core.EventEpochBegin, epochRec); err != nil {
			return nil, err
		}

		if err := t.process(trainDS, opts.BatchSize, epochRec, true); err != nil {
			t.logger.Error("training run aborted", "run_id", runID, "epoch", epoch, "error", err)
			return nil, err
		}
		if valDS != nil {
			if err := t.process(valDS, opts.BatchSize, epochRec, false); err != nil {
				t.logger.Error("training run aborted", "run_id", runID, "epoch", epoch, "error", err)
				return nil, err
			}
		}

		if err := t.Notify(core.EventEpochEnd, epochRec); err != nil {
			return nil, err
		}
	}

	if err := t.Notify(core.EventTrainEnd, runRec); err != nil {
		return nil, err
	}

	t.logger.Info("training run finished", "run_id", runID, "duration", time.Since(started))
	return history, nil
}

// resolveTrainData turns the x/y combination into the training dataset.
func (t *Trainer) resolveTrainData(x, y any) (core.Dataset, error) {
	switch v := x.(type) {
	case nil:
		return nil, core.InvalidArgumentf("incomplete input data: x is nil")
	case core.Dataset:
		if y != nil {
			return nil, core.InvalidArgumentf("both a dataset and y were given; pass one or the other")
		}
		return v, nil
	default:
		if y == nil {
			return nil, core.InvalidArgumentf("incomplete input data: x=%T, y=nil", x)
		}
		return dataset.FromArrays(x, y)
	}
}

// resolveValidationData accepts nil, a dataset, or an (inputs, targets)
// pair expressed as [2]any or []any of length 2.
func resolveValidationData(v any) (core.Dataset, error) {
	switch vd := v.(type) {
	case nil:
		return nil, nil
	case core.Dataset:
		return vd, nil
	case [2]any:
		return dataset.FromArrays(vd[0], vd[1])
	case []any:
		if len(vd) != 2 {
			return nil, core.InvalidArgumentf("validation data must contain 2 (inputs, targets) items, got %d", len(vd))
		}
		return dataset.FromArrays(vd[0], vd[1])
	default:
		return nil, core.InvalidArgumentf("validation data must be a dataset or an (inputs, targets) pair, got %T", v)
	}
}

// process runs one pass over ds: the training phase when train is set
// (shuffled batches, update strategy applied), the validation phase
// otherwise (deterministic order, no updates).
func (t *Trainer) process(ds core.Dataset, batchSize int, epochRec *core.Record, train bool) error {
	size := ds.Size()
	// ceil(size/batchSize) is the loss-mean denominator even when the
	// final batch is short.
	numBatches := int(math.Ceil(float64(size) / float64(batchSize)))

	phaseRec := core.NewRecord()
	phaseRec.RunID = epochRec.RunID
	phaseRec.Epoch = epochRec.Epoch
	phaseRec.Size = size
	phaseRec.NumBatches = numBatches
	phaseRec.Train = train

	beginEvent, endEvent := core.EventEpochTrainBegin, core.EventEpochTrainEnd
	if !train {
		beginEvent, endEvent = core.EventEpochValidateBegin, core.EventEpochValidateEnd
	}
	if err := t.Notify(beginEvent, phaseRec); err != nil {
		return err
	}

	var totalLoss float64
	batchIndex := 0
	for batch := range ds.Batches(batchSize, true, train) {
		rows := columnRows(batch.Targets())

		xs := batch.Inputs()
		if len(xs) == 1 {
			xs = []any{t.converter(xs[0])}
		} else {
			converted, ok := t.converter(xs).([]any)
			if !ok {
				return core.Configurationf("converter must return a multi-column input set as []any")
			}
			xs = converted
		}
		ts := t.converter(batch.Targets())

		batchRec := core.NewRecord()
		batchRec.RunID = epochRec.RunID
		batchRec.Epoch = epochRec.Epoch
		batchRec.Size = size
		batchRec.NumBatches = numBatches
		batchRec.Train = train
		batchRec.BatchIndex = batchIndex
		batchRec.BatchSize = rows
		batchRec.Inputs = xs
		batchRec.Targets = ts

		if err := t.Notify(core.EventBatchBegin, batchRec); err != nil {
			return err
		}

		preds, err := t.forward(xs...)
		if err != nil {
			return err
		}
		loss, err := t.lossFn(preds, ts)
		if err != nil {
			return err
		}

		batchRec.Preds = preds
		batchRec.Loss = loss.Float()
		batchRec.LossKnown = true
		totalLoss += batchRec.Loss

		if train {
			if err := t.update(t.optimizer, loss); err != nil {
				return err
			}
		}

		if err := t.Notify(core.EventBatchEnd, batchRec); err != nil {
			return err
		}
		batchIndex++
	}

	phaseRec.Loss = totalLoss / float64(numBatches)
	phaseRec.LossKnown = true
	return t.Notify(endEvent, phaseRec)
}

// columnRows returns the row count of a column, 0 when the value is not a
// slice (a converter may have replaced it with an opaque tensor type, but
// row counts are taken from the raw column before conversion).
func columnRows(col any) int {
	v := reflect.ValueOf(col)
	if v.IsValid() && v.Kind() == reflect.Slice {
		return v.Len()
	}
	return 0
}
