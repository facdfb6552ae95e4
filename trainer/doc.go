// Package trainer implements the training loop at the core of TrainMesh.
//
// The Trainer owns the externally supplied optimizer handle, forward
// function, loss function and update strategy, and drives the epoch/batch
// state machine over a dataset:
//
//	train_begin
//	 → per epoch: epoch_begin
//	     → epoch_train_begin → batches (forward/loss/update) → epoch_train_end
//	     → [epoch_validate_begin → batches (forward/loss) → epoch_validate_end]
//	   epoch_end
//	train_end
//
// At every lifecycle point the Trainer notifies its embedded Dispatcher,
// so listeners and hooks observe — and may annotate — the run without the
// loop knowing they exist. The loop itself aggregates per-epoch mean loss;
// every other metric flows through the Reporter listener the Trainer
// attaches for the duration of each Fit call.
package trainer
