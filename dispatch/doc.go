// Package dispatch implements the event registry at the heart of TrainMesh.
//
// The Dispatcher maintains two kinds of observers:
//
//   - Listeners: stateful objects exposing per-event handlers, registered
//     with a priority (lower runs earlier) and an implicit registration
//     sequence used as the tie-break
//   - Hooks: plain per-event handler functions, pinned at the default
//     priority and executed after listeners of that priority
//
// Notify runs every observer registered for an event synchronously, in a
// deterministic total order, each receiving the same mutable record. The
// training loop is driven entirely through this mechanism and stays
// ignorant of which observers exist.
//
// The Dispatcher is single-threaded by design: there is no internal
// locking, and a handler must not call Notify for the event currently
// being dispatched.
package dispatch
