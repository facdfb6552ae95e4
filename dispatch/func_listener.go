package dispatch

import "github.com/hupe1980/trainmesh/core"

// FuncListener wraps a plain handler map as a listener implementation.
//
// This is a convenience wrapper for observers without state or lifecycle
// needs that still want priority ordering (which plain hooks do not get).
//
// Example:
//
//	l := dispatch.NewFuncListener(map[core.Event]core.Handler{
//		core.EventEpochEnd: func(rec *core.Record) error {
//			fmt.Printf("epoch %d mean loss %.4f\n", rec.Epoch, rec.Loss)
//			return nil
//		},
//	})
type FuncListener struct {
	handlers map[core.Event]core.Handler
}

// NewFuncListener creates a listener from the given per-event handlers.
// The map is used as-is; callers must not mutate it after construction.
func NewFuncListener(handlers map[core.Event]core.Handler) *FuncListener {
	if handlers == nil {
		handlers = map[core.Event]core.Handler{}
	}
	return &FuncListener{handlers: handlers}
}

// Handlers returns the per-event handler map.
func (l *FuncListener) Handlers() map[core.Event]core.Handler {
	return l.handlers
}
