package core

// ForwardFunc is the externally supplied forward computation. It receives
// the batch's input columns as positional arguments and returns the
// predictions in whatever form the loss function understands.
type ForwardFunc func(inputs ...any) (any, error)

// Loss is a scalar-convertible loss value. The concrete type is owned by
// the injected loss function; the training loop only extracts the scalar
// for aggregation and hands the full value to the update strategy.
type Loss interface {
	Float() float64
}

// LossFunc is the externally supplied loss computation, mapping
// (predictions, targets) to a scalar-convertible loss.
type LossFunc func(preds, targets any) (Loss, error)

// UpdateFunc turns a computed loss into a parameter change. It is invoked
// during training batches only, after loss computation and before the
// batch_end notification. The optimizer handle is opaque to the loop and
// is passed through unchanged from the Trainer's construction.
type UpdateFunc func(optimizer any, loss Loss) error

// GradientOptimizer is the optimizer convention assumed by the default
// update strategy: clear accumulated gradients, then apply one step after
// the loss has back-propagated.
type GradientOptimizer interface {
	ClearGrads()
	Step()
}

// BackwardLoss is the loss convention assumed by the default update
// strategy: the loss knows how to back-propagate itself.
type BackwardLoss interface {
	Loss
	Backward()
}

// Converter transforms input or target columns before they reach the
// forward and loss functions (device transfer, dtype casts and the like).
type Converter func(v any) any

// IdentityConverter returns its argument unchanged. It is the converter
// used when none is configured.
func IdentityConverter(v any) any { return v }

// AccuracyFunc is the optional externally supplied accuracy metric,
// mapping (predictions, targets) to a scalar.
type AccuracyFunc func(preds, targets any) float64
