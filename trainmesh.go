// Package trainmesh provides a high-level façade over the core Trainer and
// its collaborators (dispatcher, datasets, listeners & logging) enabling
// rapid construction of event-driven training loops. Most applications
// interact with this package by:
//  1. Creating a TrainMesh via New() around their optimizer, forward and
//     loss functions (optionally overriding the update strategy or logger)
//  2. Registering hooks and listeners for the lifecycle events they care
//     about
//  3. Calling Fit with a dataset or raw input/target columns
//
// The façade delegates the loop to trainer.Trainer while keeping setup and
// usage ergonomics concise. All defaults are safe for local development and
// testing; production uses typically supply a structured logger and their
// own listeners.
package trainmesh

import (
	"github.com/hupe1980/trainmesh/core"
	"github.com/hupe1980/trainmesh/dataset"
	"github.com/hupe1980/trainmesh/logging"
	"github.com/hupe1980/trainmesh/trainer"
)

// Options configures the TrainMesh instance.
type Options struct {
	// AccuracyFunc, when set, injects an "accuracy" metric into every
	// batch_end record for the Reporter to aggregate.
	AccuracyFunc core.AccuracyFunc

	// Update replaces the default backpropagation update strategy.
	Update core.UpdateFunc

	// Converter replaces the identity input/target conversion function.
	Converter core.Converter

	// EpochSummary receives the aggregated metric means of every epoch.
	EpochSummary func(epoch int, metrics map[string]float64)

	// RunSummary receives the aggregated metric means of the whole run.
	RunSummary func(metrics map[string]float64)

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// TrainMesh is the high-level façade aggregating the underlying trainer.
type TrainMesh struct {
	opts    Options
	trainer *trainer.Trainer
}

// New creates a new TrainMesh instance with optional overrides.
func New(optimizer any, forward core.ForwardFunc, lossFn core.LossFunc, optFns ...func(o *Options)) *TrainMesh {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	t := trainer.New(optimizer, forward, lossFn, func(o *trainer.Options) {
		o.Logger = opts.Logger
		o.AccuracyFunc = opts.AccuracyFunc
		if opts.Update != nil {
			o.Update = opts.Update
		}
		if opts.Converter != nil {
			o.Converter = opts.Converter
		}
		o.EpochSummary = opts.EpochSummary
		o.RunSummary = opts.RunSummary
	})

	return &TrainMesh{opts: opts, trainer: t}
}

// Trainer exposes the underlying trainer for direct listener and hook
// registration.
func (m *TrainMesh) Trainer() *trainer.Trainer { return m.trainer }

// AddHook registers a hook for one lifecycle event on the underlying
// dispatcher.
func (m *TrainMesh) AddHook(event core.Event, h core.Handler) error {
	return m.trainer.AddHook(event, h)
}

// AttachListener registers a listener at the given priority on the
// underlying dispatcher.
func (m *TrainMesh) AttachListener(l core.Listener, priority int) error {
	return m.trainer.AttachListener(l, priority)
}

// Fit drives the training loop over x/y with the given per-run options.
func (m *TrainMesh) Fit(x, y any, optFns ...func(o *trainer.FitOptions)) (trainer.History, error) {
	return m.trainer.Fit(x, y, optFns...)
}

// NewDataset wraps row-aligned columns (inputs..., targets) into the
// bundled in-memory dataset.
func NewDataset(cols ...any) (*dataset.InMemory, error) {
	return dataset.New(cols...)
}
