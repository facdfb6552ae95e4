// Package core provides the foundational domain types, interfaces and
// callable conventions used by TrainMesh. It defines the core abstractions
// for:
//
//   - Events (the fixed set of training lifecycle markers)
//   - Records (the typed, mutable payload threaded through notification)
//   - Listeners and Handlers (priority-ordered observers of the loop)
//   - Datasets (bounded, restartable producers of column-wise batches)
//   - Loss / optimizer conventions assumed by the default update strategy
//
// The package intentionally keeps implementation concerns (dispatching,
// the training loop, concrete datasets) out of scope, exposing small
// interfaces to enable custom backends and extensions. All exported
// identifiers include concise documentation to aid discoverability and
// external consumption.
package core
