package trainer

import "github.com/hupe1980/trainmesh/core"

// BackpropUpdate is the default update strategy: clear accumulated
// gradients, back-propagate the loss, apply one optimizer step. It assumes
// the gradient-descent convention — the optimizer implements
// core.GradientOptimizer and the loss implements core.BackwardLoss — and
// returns a core.ConfigurationError when either side does not, pointing at
// a custom update strategy as the way out.
func BackpropUpdate(optimizer any, loss core.Loss) error {
	opt, ok := optimizer.(core.GradientOptimizer)
	if !ok {
		return core.Configurationf(
			"optimizer %T does not implement core.GradientOptimizer; configure a custom update strategy", optimizer)
	}
	bl, ok := loss.(core.BackwardLoss)
	if !ok {
		return core.Configurationf(
			"loss %T does not implement core.BackwardLoss; configure a custom update strategy", loss)
	}

	opt.ClearGrads()
	bl.Backward()
	opt.Step()
	return nil
}
