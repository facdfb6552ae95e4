package dispatch

import (
	"sort"

	"github.com/hupe1980/trainmesh/core"
)

// entry pairs an attached listener with its ordering keys.
type entry struct {
	listener core.Listener
	priority int
	seq      uint64
}

// hook pairs a registered hook handler with its registration sequence.
// Hooks carry no priority of their own; they are pinned at
// core.DefaultPriority and run after listeners of that priority.
type hook struct {
	handler core.Handler
	seq     uint64
}

// Dispatcher orchestrates listener and hook execution for training
// lifecycle events.
//
// For one event the notification order is a total order:
//  1. listeners with priority <= core.DefaultPriority, priority ascending,
//     registration order as tie-break
//  2. hooks for the event, registration order
//  3. listeners with priority > core.DefaultPriority, same sub-ordering
//
// This places hooks after ordinary listeners while still allowing a
// deliberately late listener (such as the Reporter) to observe record
// mutations the hooks made.
//
// State is append-only except for explicit detach. The Dispatcher is not
// safe for concurrent use; all methods must be called from the goroutine
// driving the training loop. Calling Notify from within a handler for the
// event currently being dispatched is forbidden and has undefined
// behavior.
type Dispatcher struct {
	entries []entry
	hooks   map[core.Event][]hook
	nextSeq uint64
}

// New constructs an empty Dispatcher.
func New() *Dispatcher {
	return &Dispatcher{hooks: make(map[core.Event][]hook)}
}

// Attach registers the listener at core.DefaultPriority.
func (d *Dispatcher) Attach(l core.Listener) error {
	return d.AttachListener(l, core.DefaultPriority)
}

// AttachListener registers the listener at the given priority. Attaching
// the same listener instance twice is a core.ConfigurationError. If the
// listener implements core.Initializer, Initialize runs before the
// listener becomes visible to Notify; its error aborts the attach.
func (d *Dispatcher) AttachListener(l core.Listener, priority int) error {
	if l == nil {
		return core.Configurationf("cannot attach nil listener")
	}
	for _, e := range d.entries {
		if e.listener == l {
			return core.Configurationf("listener %T is already attached", l)
		}
	}

	if init, ok := l.(core.Initializer); ok {
		if err := init.Initialize(); err != nil {
			return err
		}
	}

	d.entries = append(d.entries, entry{listener: l, priority: priority, seq: d.seq()})
	sort.SliceStable(d.entries, func(i, j int) bool {
		if d.entries[i].priority != d.entries[j].priority {
			return d.entries[i].priority < d.entries[j].priority
		}
		return d.entries[i].seq < d.entries[j].seq
	})
	return nil
}

// DetachListener removes the listener, calling Finalize if implemented.
// Detaching a listener that is not attached is a no-op returning nil.
func (d *Dispatcher) DetachListener(l core.Listener) error {
	for i, e := range d.entries {
		if e.listener != l {
			continue
		}
		d.entries = append(d.entries[:i], d.entries[i+1:]...)
		if fin, ok := l.(core.Finalizer); ok {
			return fin.Finalize()
		}
		return nil
	}
	return nil
}

// Attached reports whether the listener instance is currently registered.
func (d *Dispatcher) Attached(l core.Listener) bool {
	for _, e := range d.entries {
		if e.listener == l {
			return true
		}
	}
	return false
}

// AddHook registers a handler for exactly one event. Multiple hooks per
// event run in registration order. An unknown event or nil handler is a
// core.ConfigurationError.
func (d *Dispatcher) AddHook(event core.Event, h core.Handler) error {
	if !event.Valid() {
		return core.Configurationf("unknown hook target %q", event)
	}
	if h == nil {
		return core.Configurationf("nil hook for event %q", event)
	}
	d.hooks[event] = append(d.hooks[event], hook{handler: h, seq: d.seq()})
	return nil
}

// Notify synchronously runs every observer registered for the event, each
// receiving the same record by reference. The first error aborts the
// remainder of the dispatch and propagates to the caller; mutations made
// by earlier observers remain on the record. A nil record is replaced by
// a fresh empty one so handlers never see nil.
func (d *Dispatcher) Notify(event core.Event, rec *core.Record) error {
	if rec == nil {
		rec = core.NewRecord()
	}

	for _, e := range d.entries {
		if e.priority > core.DefaultPriority {
			break
		}
		if err := d.invoke(e, event, rec); err != nil {
			return err
		}
	}
	for _, h := range d.hooks[event] {
		if err := h.handler(rec); err != nil {
			return err
		}
	}
	for _, e := range d.entries {
		if e.priority <= core.DefaultPriority {
			continue
		}
		if err := d.invoke(e, event, rec); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) invoke(e entry, event core.Event, rec *core.Record) error {
	h := e.listener.Handlers()[event]
	if h == nil {
		return nil
	}
	return h(rec)
}

func (d *Dispatcher) seq() uint64 {
	s := d.nextSeq
	d.nextSeq++
	return s
}
