// Package listeners provides the bundled Dispatcher listeners: the Reporter,
// a scoped metric aggregator collecting per-batch metrics into per-epoch and
// per-run summaries, and the ProgressListener, which logs loop progress
// through a logging.Logger.
//
// Both are ordinary core.Listener implementations; nothing in the training
// loop depends on them beyond the Reporter the loop attaches for the
// duration of each fit call.
package listeners
