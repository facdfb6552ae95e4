package listeners

import (
	"github.com/hupe1980/trainmesh/core"
	"github.com/hupe1980/trainmesh/logging"
)

// ReporterPriority is the dispatch priority the training loop attaches the
// Reporter at. It is above core.DefaultPriority so the Reporter observes
// metric values that hooks (which run at the default priority) have already
// injected into the record.
const ReporterPriority = 150

// frame is one open aggregation scope holding a running mean per metric.
type frame struct {
	sums   map[string]float64
	counts map[string]int
}

func newFrame() *frame {
	return &frame{sums: map[string]float64{}, counts: map[string]int{}}
}

func (f *frame) add(name string, value float64) {
	f.sums[name] += value
	f.counts[name]++
}

// means finalizes the frame into one mean per metric.
func (f *frame) means() map[string]float64 {
	out := make(map[string]float64, len(f.sums))
	for name, sum := range f.sums {
		out[name] = sum / float64(f.counts[name])
	}
	return out
}

// ReporterOptions holds configuration overrides passed to NewReporter.
type ReporterOptions struct {
	// Logger receives the default epoch and run summary log lines.
	Logger logging.Logger
	// EpochSummary, when set, receives the finalized metric means of every
	// epoch scope in place of the default log line.
	EpochSummary func(epoch int, metrics map[string]float64)
	// RunSummary, when set, receives the finalized metric means of the
	// whole run when the outermost scope closes.
	RunSummary func(metrics map[string]float64)
}

// Reporter is a scoped metric aggregator.
//
// Scopes nest: the training loop opens one scope for the run (on attach)
// and one per epoch. Every Report while a scope is active accumulates into
// the innermost frame's running means; closing a scope finalizes the means
// and folds them into the enclosing frame, one observation each, or emits
// them as the run summary when the outermost scope closes.
//
// Reported metrics are only valid while a scope is active: Report and
// EndScope without an open frame are state errors.
//
// As a listener the Reporter reacts to epoch_begin (open scope), batch_end
// (report the record's metrics) and epoch_end (close scope, emit the epoch
// summary). It is meant to be attached at ReporterPriority.
type Reporter struct {
	frames       []*frame
	handlers     map[core.Event]core.Handler
	logger       logging.Logger
	epochSummary func(epoch int, metrics map[string]float64)
	runSummary   func(metrics map[string]float64)
}

// NewReporter constructs a Reporter with optional overrides.
func NewReporter(optFns ...func(o *ReporterOptions)) *Reporter {
	opts := ReporterOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	r := &Reporter{
		logger:       opts.Logger,
		epochSummary: opts.EpochSummary,
		runSummary:   opts.RunSummary,
	}
	r.handlers = map[core.Event]core.Handler{
		core.EventEpochBegin: func(rec *core.Record) error {
			r.BeginScope()
			return nil
		},
		core.EventBatchEnd: func(rec *core.Record) error {
			return r.Report(rec.Metrics)
		},
		core.EventEpochEnd: func(rec *core.Record) error {
			means, err := r.endScope()
			if err != nil {
				return err
			}
			if r.epochSummary != nil {
				r.epochSummary(rec.Epoch, means)
				return nil
			}
			r.logger.Info("epoch summary", "epoch", rec.Epoch, "metrics", means)
			return nil
		},
	}
	return r
}

// Handlers returns the Reporter's per-event handlers.
func (r *Reporter) Handlers() map[core.Event]core.Handler { return r.handlers }

// Initialize opens the run scope. The Dispatcher calls this on attach.
func (r *Reporter) Initialize() error {
	r.BeginScope()
	return nil
}

// Finalize closes every scope still open, innermost first. The Dispatcher
// calls this on detach; draining here guarantees the run scope closes on
// every exit path, including a run aborted mid-epoch.
func (r *Reporter) Finalize() error {
	for len(r.frames) > 0 {
		if _, err := r.endScope(); err != nil {
			return err
		}
	}
	return nil
}

// BeginScope pushes a new, empty aggregation frame.
func (r *Reporter) BeginScope() {
	r.frames = append(r.frames, newFrame())
}

// EndScope pops the innermost frame, folding its finalized means into the
// enclosing frame, or emitting them as the run summary if it was the
// outermost. Calling EndScope with no open scope is a core.StateError.
func (r *Reporter) EndScope() error {
	_, err := r.endScope()
	return err
}

func (r *Reporter) endScope() (map[string]float64, error) {
	if len(r.frames) == 0 {
		return nil, core.Statef("no active reporting scope to end")
	}
	f := r.frames[len(r.frames)-1]
	r.frames = r.frames[:len(r.frames)-1]

	means := f.means()
	if len(r.frames) > 0 {
		inner := r.frames[len(r.frames)-1]
		for name, mean := range means {
			inner.add(name, mean)
		}
	} else if r.runSummary != nil {
		r.runSummary(means)
	} else if len(means) > 0 {
		r.logger.Info("run summary", "metrics", means)
	}
	return means, nil
}

// Report adds each named metric value into the innermost frame's running
// mean. Reporting with no active scope is a core.StateError.
func (r *Reporter) Report(metrics map[string]float64) error {
	if len(r.frames) == 0 {
		return core.Statef("report called outside an active scope")
	}
	inner := r.frames[len(r.frames)-1]
	for name, value := range metrics {
		inner.add(name, value)
	}
	return nil
}

// Depth returns the number of currently open scopes.
func (r *Reporter) Depth() int { return len(r.frames) }
