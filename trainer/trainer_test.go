package trainer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/trainmesh/core"
	"github.com/hupe1980/trainmesh/dataset"
	"github.com/hupe1980/trainmesh/dispatch"
	"github.com/hupe1980/trainmesh/internal/testutil"
)

// scalarLoss is a minimal loss value satisfying the backward convention.
type scalarLoss struct {
	val      float64
	backward func()
}

func (l scalarLoss) Float() float64 { return l.val }
func (l scalarLoss) Backward() {
	if l.backward != nil {
		l.backward()
	}
}

// fakeOptimizer counts the default update strategy's calls.
type fakeOptimizer struct {
	clears, steps int
}

func (o *fakeOptimizer) ClearGrads() { o.clears++ }
func (o *fakeOptimizer) Step()       { o.steps++ }

// eventTrace attaches handlers for every event and records their order.
type eventTrace struct {
	events   []core.Event
	records  map[core.Event][]*core.Record
	handlers map[core.Event]core.Handler
}

func newEventTrace() *eventTrace {
	tr := &eventTrace{records: map[core.Event][]*core.Record{}}
	tr.handlers = map[core.Event]core.Handler{}
	for _, ev := range core.Events() {
		ev := ev
		tr.handlers[ev] = func(rec *core.Record) error {
			tr.events = append(tr.events, ev)
			cp := *rec
			tr.records[ev] = append(tr.records[ev], &cp)
			return nil
		}
	}
	return tr
}

func (tr *eventTrace) Handlers() map[core.Event]core.Handler { return tr.handlers }

func (tr *eventTrace) count(ev core.Event) int { return len(tr.records[ev]) }

// identityForward echoes the single input column.
func identityForward(inputs ...any) (any, error) { return inputs[0], nil }

// constLoss returns the given scalar for every batch.
func constLoss(val float64) core.LossFunc {
	return func(preds, targets any) (core.Loss, error) {
		return scalarLoss{val: val}, nil
	}
}

// noUpdate replaces the default strategy in tests that have no gradients.
func noUpdate(optimizer any, loss core.Loss) error { return nil }

func floats(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)
	}
	return out
}

func TestFit_MeanLossUsesCeilDenominator(t *testing.T) {
	// Dataset of 100 rows at batch size 32: exactly 4 batches
	// (32, 32, 32, 4) and a loss denominator of 4.
	losses := []float64{1.0, 2.0, 3.0, 4.0}
	call := 0
	lossFn := func(preds, targets any) (core.Loss, error) {
		l := scalarLoss{val: losses[call%len(losses)]}
		call++
		return l, nil
	}

	tr := New(nil, identityForward, lossFn, func(o *Options) { o.Update = noUpdate })

	var meanLoss float64
	var numBatches int
	var batchSizes []int
	require.NoError(t, tr.Configure(func(c *Config) {
		c.Listeners = []core.Listener{dispatch.NewFuncListener(map[core.Event]core.Handler{
			core.EventEpochTrainEnd: func(rec *core.Record) error {
				meanLoss = rec.Loss
				numBatches = rec.NumBatches
				return nil
			},
			core.EventBatchEnd: func(rec *core.Record) error {
				batchSizes = append(batchSizes, rec.BatchSize)
				return nil
			},
		})}
	}))

	_, err := tr.Fit(floats(100), floats(100), func(o *FitOptions) {
		o.BatchSize = 32
		o.Epochs = 1
	})
	require.NoError(t, err)

	assert.Equal(t, 4, numBatches)
	assert.ElementsMatch(t, []int{32, 32, 32, 4}, batchSizes)
	assert.InDelta(t, 2.5, meanLoss, 1e-9)
}

func TestFit_EventSequence(t *testing.T) {
	tr := New(nil, identityForward, constLoss(1), func(o *Options) { o.Update = noUpdate })

	trace := newEventTrace()
	require.NoError(t, tr.AttachListener(trace, 10))

	_, err := tr.Fit(floats(4), floats(4), func(o *FitOptions) {
		o.BatchSize = 2
		o.Epochs = 2
		o.ValidationData = []any{floats(2), floats(2)}
	})
	require.NoError(t, err)

	epoch := []core.Event{
		core.EventEpochBegin,
		core.EventEpochTrainBegin,
		core.EventBatchBegin, core.EventBatchEnd,
		core.EventBatchBegin, core.EventBatchEnd,
		core.EventEpochTrainEnd,
		core.EventEpochValidateBegin,
		core.EventBatchBegin, core.EventBatchEnd,
		core.EventEpochValidateEnd,
		core.EventEpochEnd,
	}
	expected := []core.Event{core.EventTrainBegin}
	expected = append(expected, epoch...)
	expected = append(expected, epoch...)
	expected = append(expected, core.EventTrainEnd)

	assert.Equal(t, expected, trace.events)
}

func TestFit_NoValidationDataMeansNoValidateEvents(t *testing.T) {
	tr := New(nil, identityForward, constLoss(1), func(o *Options) { o.Update = noUpdate })

	trace := newEventTrace()
	require.NoError(t, tr.AttachListener(trace, 10))

	_, err := tr.Fit(floats(10), floats(10), func(o *FitOptions) {
		o.BatchSize = 5
		o.Epochs = 3
	})
	require.NoError(t, err)

	assert.Zero(t, trace.count(core.EventEpochValidateBegin))
	assert.Zero(t, trace.count(core.EventEpochValidateEnd))
}

func TestFit_NoUpdateDuringValidation(t *testing.T) {
	updates := 0
	update := func(optimizer any, loss core.Loss) error {
		updates++
		return nil
	}

	tr := New(nil, identityForward, constLoss(1), func(o *Options) { o.Update = update })

	_, err := tr.Fit(floats(10), floats(10), func(o *FitOptions) {
		o.BatchSize = 5
		o.Epochs = 2
		o.ValidationData = []any{floats(10), floats(10)}
	})
	require.NoError(t, err)

	// 2 training batches per epoch, 2 epochs; validation batches add none.
	assert.Equal(t, 4, updates)
}

func TestFit_AccuracyHookFeedsReporter(t *testing.T) {
	var summaries []map[string]float64
	tr := New(nil, identityForward, constLoss(1), func(o *Options) {
		o.Update = noUpdate
		o.AccuracyFunc = func(preds, targets any) float64 { return 0.9 }
		o.EpochSummary = func(epoch int, metrics map[string]float64) {
			summaries = append(summaries, metrics)
		}
	})

	// A deliberately late listener sees the metric the hook injected.
	var observed []float64
	late := dispatch.NewFuncListener(map[core.Event]core.Handler{
		core.EventBatchEnd: func(rec *core.Record) error {
			observed = append(observed, rec.Metrics["accuracy"])
			return nil
		},
	})
	require.NoError(t, tr.AttachListener(late, 200))

	_, err := tr.Fit(floats(10), floats(10), func(o *FitOptions) {
		o.BatchSize = 5
		o.Epochs = 2
	})
	require.NoError(t, err)

	require.Len(t, observed, 4)
	for _, acc := range observed {
		assert.InDelta(t, 0.9, acc, 1e-9)
	}
	require.Len(t, summaries, 2)
	for _, m := range summaries {
		assert.InDelta(t, 0.9, m["accuracy"], 1e-9)
	}
}

func TestFit_DatasetPlusTargetsIsInvalid(t *testing.T) {
	ds := testutil.NewDatasetBuilder().Rows(3).Build(t)

	tr := New(nil, identityForward, constLoss(1), func(o *Options) { o.Update = noUpdate })
	_, err := tr.Fit(ds, []float64{1, 2, 3})

	var invalid *core.InvalidArgumentError
	assert.True(t, errors.As(err, &invalid))
}

func TestFit_InputValidation(t *testing.T) {
	tr := New(nil, identityForward, constLoss(1), func(o *Options) { o.Update = noUpdate })
	var invalid *core.InvalidArgumentError

	_, err := tr.Fit(nil, floats(3))
	assert.True(t, errors.As(err, &invalid))

	_, err = tr.Fit(floats(3), nil)
	assert.True(t, errors.As(err, &invalid))

	_, err = tr.Fit(floats(3), floats(3), func(o *FitOptions) { o.BatchSize = 0 })
	assert.True(t, errors.As(err, &invalid))

	// Malformed validation data shapes.
	_, err = tr.Fit(floats(3), floats(3), func(o *FitOptions) {
		o.ValidationData = []any{floats(3)}
	})
	assert.True(t, errors.As(err, &invalid))

	_, err = tr.Fit(floats(3), floats(3), func(o *FitOptions) {
		o.ValidationData = "nope"
	})
	assert.True(t, errors.As(err, &invalid))
}

func TestFit_ValidationDataShapes(t *testing.T) {
	ds, err := dataset.New(floats(4), floats(4))
	require.NoError(t, err)

	for name, vd := range map[string]any{
		"dataset": ds,
		"array_2": [2]any{floats(4), floats(4)},
		"slice_2": []any{floats(4), floats(4)},
	} {
		t.Run(name, func(t *testing.T) {
			tr := New(nil, identityForward, constLoss(1), func(o *Options) { o.Update = noUpdate })
			trace := newEventTrace()
			require.NoError(t, tr.AttachListener(trace, 10))

			_, err := tr.Fit(floats(4), floats(4), func(o *FitOptions) {
				o.BatchSize = 2
				o.Epochs = 1
				o.ValidationData = vd
			})
			require.NoError(t, err)
			assert.Equal(t, 1, trace.count(core.EventEpochValidateBegin))
			assert.Equal(t, 1, trace.count(core.EventEpochValidateEnd))
		})
	}
}

func TestFit_HookErrorAbortsRunKeepingAppliedUpdates(t *testing.T) {
	updates := 0
	update := func(optimizer any, loss core.Loss) error {
		updates++
		return nil
	}

	tr := New(nil, identityForward, constLoss(1), func(o *Options) { o.Update = update })

	trace := newEventTrace()
	require.NoError(t, tr.AttachListener(trace, 10))

	boom := errors.New("boom")
	require.NoError(t, tr.AddHook(core.EventBatchBegin, func(rec *core.Record) error {
		if rec.BatchIndex == 2 {
			return boom
		}
		return nil
	}))

	history, err := tr.Fit(floats(100), floats(100), func(o *FitOptions) {
		o.BatchSize = 32
		o.Epochs = 3
	})

	assert.Equal(t, boom, err)
	assert.Nil(t, history)

	// Batches 0 and 1 completed; batch 2 aborted before its forward pass.
	assert.Equal(t, 2, updates)
	assert.Equal(t, 2, trace.count(core.EventBatchEnd))
	assert.Equal(t, 3, trace.count(core.EventBatchBegin))
	assert.Equal(t, 1, trace.count(core.EventEpochBegin))
	assert.Zero(t, trace.count(core.EventEpochTrainEnd))
	assert.Zero(t, trace.count(core.EventTrainEnd))
}

func TestFit_ReporterDetachedAfterAbort(t *testing.T) {
	tr := New(nil, identityForward, constLoss(1), func(o *Options) { o.Update = noUpdate })

	boom := errors.New("boom")
	require.NoError(t, tr.AddHook(core.EventBatchBegin, func(rec *core.Record) error {
		return boom
	}))

	_, err := tr.Fit(floats(4), floats(4), func(o *FitOptions) { o.Epochs = 1 })
	require.Equal(t, boom, err)

	// A second run must attach a fresh reporter without complaint.
	tr2 := New(nil, identityForward, constLoss(1), func(o *Options) { o.Update = noUpdate })
	_, err = tr2.Fit(floats(4), floats(4), func(o *FitOptions) { o.Epochs = 1 })
	assert.NoError(t, err)
}

func TestFit_HistoryStaysEmpty(t *testing.T) {
	tr := New(nil, identityForward, constLoss(1), func(o *Options) { o.Update = noUpdate })

	history, err := tr.Fit(floats(10), floats(10), func(o *FitOptions) {
		o.BatchSize = 5
		o.Epochs = 2
	})
	require.NoError(t, err)

	// Aggregates travel through the Reporter side channel only.
	assert.NotNil(t, history)
	assert.Empty(t, history)
}

func TestFit_RecordsCarryOneRunID(t *testing.T) {
	tr := New(nil, identityForward, constLoss(1), func(o *Options) { o.Update = noUpdate })

	ids := map[string]struct{}{}
	require.NoError(t, tr.Attach(dispatch.NewFuncListener(map[core.Event]core.Handler{
		core.EventTrainBegin: func(rec *core.Record) error { ids[rec.RunID] = struct{}{}; return nil },
		core.EventBatchEnd:   func(rec *core.Record) error { ids[rec.RunID] = struct{}{}; return nil },
		core.EventTrainEnd:   func(rec *core.Record) error { ids[rec.RunID] = struct{}{}; return nil },
	})))

	_, err := tr.Fit(floats(4), floats(4), func(o *FitOptions) { o.Epochs = 2 })
	require.NoError(t, err)

	require.Len(t, ids, 1)
	for id := range ids {
		assert.NotEmpty(t, id)
	}
}

func TestFit_ConverterAppliedBeforeForward(t *testing.T) {
	doubled := func(v any) any {
		in := v.([]float64)
		out := make([]float64, len(in))
		for i, x := range in {
			out[i] = 2 * x
		}
		return out
	}

	var seen []float64
	forward := func(inputs ...any) (any, error) {
		seen = append(seen, inputs[0].([]float64)...)
		return inputs[0], nil
	}

	tr := New(nil, forward, constLoss(1), func(o *Options) { o.Update = noUpdate })
	require.NoError(t, tr.Configure(func(c *Config) { c.Converter = doubled }))

	_, err := tr.Fit([]float64{1, 2}, []float64{0, 0}, func(o *FitOptions) {
		o.BatchSize = 2
		o.Epochs = 1
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, []float64{2, 4}, seen)
}

func TestConfigure(t *testing.T) {
	tr := New(nil, identityForward, constLoss(1), func(o *Options) { o.Update = noUpdate })

	hookRan := false
	listener := newEventTrace()
	require.NoError(t, tr.Configure(func(c *Config) {
		c.Hooks = map[core.Event]core.Handler{
			core.EventTrainBegin: func(rec *core.Record) error { hookRan = true; return nil },
		}
		c.Listeners = []core.Listener{listener}
	}))

	_, err := tr.Fit(floats(2), floats(2), func(o *FitOptions) { o.Epochs = 1 })
	require.NoError(t, err)

	assert.True(t, hookRan)
	assert.NotZero(t, listener.count(core.EventTrainBegin))
}

func TestConfigure_UnknownHookTarget(t *testing.T) {
	tr := New(nil, identityForward, constLoss(1))

	err := tr.Configure(func(c *Config) {
		c.Hooks = map[core.Event]core.Handler{
			core.Event("after_checkpoint"): func(rec *core.Record) error { return nil },
		}
	})

	var confErr *core.ConfigurationError
	assert.True(t, errors.As(err, &confErr))
}

func TestBackpropUpdate(t *testing.T) {
	opt := &fakeOptimizer{}
	backwards := 0
	loss := scalarLoss{val: 1, backward: func() { backwards++ }}

	require.NoError(t, BackpropUpdate(opt, loss))
	assert.Equal(t, 1, opt.clears)
	assert.Equal(t, 1, backwards)
	assert.Equal(t, 1, opt.steps)
}

func TestBackpropUpdate_ConventionErrors(t *testing.T) {
	var confErr *core.ConfigurationError

	err := BackpropUpdate(struct{}{}, scalarLoss{val: 1})
	assert.True(t, errors.As(err, &confErr))

	type bareLoss struct{ core.Loss }
	err = BackpropUpdate(&fakeOptimizer{}, bareLoss{scalarLoss{val: 1}})
	assert.True(t, errors.As(err, &confErr))
}

func TestFit_DefaultUpdateDrivesOptimizer(t *testing.T) {
	opt := &fakeOptimizer{}
	backwards := 0
	lossFn := func(preds, targets any) (core.Loss, error) {
		return scalarLoss{val: 1, backward: func() { backwards++ }}, nil
	}

	tr := New(opt, identityForward, lossFn)
	_, err := tr.Fit(floats(10), floats(10), func(o *FitOptions) {
		o.BatchSize = 5
		o.Epochs = 1
	})
	require.NoError(t, err)

	assert.Equal(t, 2, opt.clears)
	assert.Equal(t, 2, backwards)
	assert.Equal(t, 2, opt.steps)
}

// mockUpdateStrategy verifies the update contract with testify mocks.
type mockUpdateStrategy struct {
	mock.Mock
}

func (m *mockUpdateStrategy) Update(optimizer any, loss core.Loss) error {
	args := m.Called(optimizer, loss)
	return args.Error(0)
}

func TestFit_UpdateReceivesOptimizerHandle(t *testing.T) {
	opt := &fakeOptimizer{}
	mu := &mockUpdateStrategy{}
	mu.On("Update", opt, mock.Anything).Return(nil)

	tr := New(opt, identityForward, constLoss(1), func(o *Options) { o.Update = mu.Update })
	_, err := tr.Fit(floats(4), floats(4), func(o *FitOptions) {
		o.BatchSize = 2
		o.Epochs = 1
	})
	require.NoError(t, err)

	mu.AssertNumberOfCalls(t, "Update", 2)
	mu.AssertExpectations(t)
}

func TestFit_MissingCallables(t *testing.T) {
	var confErr *core.ConfigurationError

	tr := New(nil, nil, constLoss(1))
	_, err := tr.Fit(floats(2), floats(2))
	assert.True(t, errors.As(err, &confErr))

	tr = New(nil, identityForward, nil)
	_, err = tr.Fit(floats(2), floats(2))
	assert.True(t, errors.As(err, &confErr))
}
