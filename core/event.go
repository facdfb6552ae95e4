package core

import "github.com/google/uuid"

// Event marks a specific point in the training lifecycle where listeners
// and hooks can be notified.
//
// Events form a fixed set, totally ordered by occurrence within one run:
//
//	train_begin
//	  epoch_begin
//	    epoch_train_begin
//	      batch_begin / batch_end (per training batch)
//	    epoch_train_end
//	    epoch_validate_begin
//	      batch_begin / batch_end (per validation batch)
//	    epoch_validate_end
//	  epoch_end
//	train_end
//
// The validation events are only raised when validation data was supplied
// to the training loop.
type Event string

const (
	// EventTrainBegin is raised once before the first epoch.
	EventTrainBegin Event = "train_begin"

	// EventEpochBegin is raised at the start of every epoch, before the
	// training phase of that epoch.
	EventEpochBegin Event = "epoch_begin"

	// EventEpochTrainBegin is raised before the first training batch of an
	// epoch.
	EventEpochTrainBegin Event = "epoch_train_begin"

	// EventBatchBegin is raised before the forward pass of every batch,
	// training and validation alike.
	EventBatchBegin Event = "batch_begin"

	// EventBatchEnd is raised after loss computation (and, for training
	// batches, after the parameter update) of every batch.
	EventBatchEnd Event = "batch_end"

	// EventEpochTrainEnd is raised after the last training batch of an
	// epoch, carrying the epoch's mean training loss.
	EventEpochTrainEnd Event = "epoch_train_end"

	// EventEpochValidateBegin is raised before the first validation batch
	// of an epoch.
	EventEpochValidateBegin Event = "epoch_validate_begin"

	// EventEpochValidateEnd is raised after the last validation batch of an
	// epoch, carrying the epoch's mean validation loss.
	EventEpochValidateEnd Event = "epoch_validate_end"

	// EventEpochEnd is raised at the end of every epoch, after validation
	// when present.
	EventEpochEnd Event = "epoch_end"

	// EventTrainEnd is raised once after the last epoch.
	EventTrainEnd Event = "train_end"
)

// Events returns the full event set in lifecycle order.
func Events() []Event {
	return []Event{
		EventTrainBegin,
		EventEpochBegin,
		EventEpochTrainBegin,
		EventBatchBegin,
		EventBatchEnd,
		EventEpochTrainEnd,
		EventEpochValidateBegin,
		EventEpochValidateEnd,
		EventEpochEnd,
		EventTrainEnd,
	}
}

// Valid reports whether e is a member of the fixed event set.
func (e Event) Valid() bool {
	switch e {
	case EventTrainBegin, EventEpochBegin, EventEpochTrainBegin,
		EventBatchBegin, EventBatchEnd, EventEpochTrainEnd,
		EventEpochValidateBegin, EventEpochValidateEnd,
		EventEpochEnd, EventTrainEnd:
		return true
	}
	return false
}

// String returns the wire-friendly name of the event.
func (e Event) String() string { return string(e) }

// NewID generates a new unique identifier.
//
// The training loop stamps one ID per run into every record it emits so
// listeners can correlate records across events.
func NewID() string { return uuid.NewString() }
