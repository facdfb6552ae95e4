package listeners

import (
	"time"

	"github.com/hupe1980/trainmesh/core"
	"github.com/hupe1980/trainmesh/logging"
)

// ProgressListener logs loop progress: run start/end, epoch boundaries and
// the mean loss of each phase. Attach it at core.DefaultPriority; it only
// reads the record.
type ProgressListener struct {
	logger   logging.Logger
	handlers map[core.Event]core.Handler
	started  time.Time
}

// NewProgressListener creates a ProgressListener writing to the given
// logger (NoOp when nil).
func NewProgressListener(logger logging.Logger) *ProgressListener {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	p := &ProgressListener{logger: logger}
	p.handlers = map[core.Event]core.Handler{
		core.EventTrainBegin: func(rec *core.Record) error {
			p.started = time.Now()
			p.logger.Info("training started", "run_id", rec.RunID)
			return nil
		},
		core.EventEpochBegin: func(rec *core.Record) error {
			p.logger.Info("epoch started", "epoch", rec.Epoch, "size", rec.Size)
			return nil
		},
		core.EventEpochTrainEnd: func(rec *core.Record) error {
			p.logger.Info("training phase finished", "epoch", rec.Epoch, "loss", rec.Loss, "num_batches", rec.NumBatches)
			return nil
		},
		core.EventEpochValidateEnd: func(rec *core.Record) error {
			p.logger.Info("validation phase finished", "epoch", rec.Epoch, "loss", rec.Loss, "num_batches", rec.NumBatches)
			return nil
		},
		core.EventTrainEnd: func(rec *core.Record) error {
			p.logger.Info("training finished", "run_id", rec.RunID, "duration", time.Since(p.started))
			return nil
		},
	}
	return p
}

// Handlers returns the per-event handlers.
func (p *ProgressListener) Handlers() map[core.Event]core.Handler { return p.handlers }
