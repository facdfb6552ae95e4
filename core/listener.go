package core

// DefaultPriority is the priority assigned to listeners attached without an
// explicit one, and the fixed priority of every hook. Lower values run
// earlier.
const DefaultPriority = 100

// Handler processes a single notification. The record is shared among all
// handlers invoked for the event; mutations are visible to handlers that
// run later in the notification order. Returning a non-nil error aborts
// the remainder of the dispatch and propagates to the Notify caller.
type Handler func(rec *Record) error

// Listener is a stateful observer of the training lifecycle.
//
// Handlers returns the listener's per-event handlers; events without an
// entry (or with a nil entry) are skipped for this listener. The map is
// consulted on every notification, so implementations should return a
// stable map rather than rebuilding it per call.
//
// Listeners are registered with a priority; for one event the dispatch
// order is priority ascending, listeners before hooks at equal priority,
// registration order as the final tie-break.
type Listener interface {
	Handlers() map[Event]Handler
}

// Initializer is implemented by listeners that need setup when attached.
// An error from Initialize aborts the attach.
type Initializer interface {
	Initialize() error
}

// Finalizer is implemented by listeners that need teardown when detached.
type Finalizer interface {
	Finalize() error
}
