package effects

import (
	"context"
	"sync"
	"time"

	"github.com/gopherflux/signals/src/signals"
	"github.com/gopherflux/signals/src/telemetry"
)

// EffectContext is handed to an effect function alongside its input. It
// exposes the store and the previous run's {resultInput, result}, using
// Maybe in place of the NO_VALUE sentinel when there is no previous run.
type EffectContext[I, R any] struct {
	Store           *signals.Store
	PrevResultInput Maybe[I]
	PrevResult      Maybe[R]
}

// EffectFunc is the function shape registered under an EffectId: given an
// input and context, it returns a stream of results (possibly more than
// one emission before completing).
type EffectFunc[I, R any] func(ctx context.Context, input I, ectx EffectContext[I, R]) signals.Observable[R]

// SuccessResult is the payload of the "result" convenience behavior: the
// combined view filtered down to successful completions only.
type SuccessResult[I, R any] struct {
	CurrentInput I
	Result       R
	ResultInput  I
}

// Config parameterizes one orchestrator instance. Grounded on spec §4.6's
// configuration list.
type Config[I, R any] struct {
	EffectID     EffectId[I, R]
	InputID      signals.BehaviorId[I]
	InvalidateID signals.EventId[struct{}]
	TriggerID    signals.EventId[struct{}]

	EffectInputEquals func(a, b I) bool
	WithTrigger       bool
	InitialResult     func() (R, bool)

	EffectDebounceTime     time.Duration
	EagerInputSubscription bool
	WrappedEffectGetter    func(EffectFunc[I, R]) EffectFunc[I, R]
	RetryPolicy            *RetryPolicy

	CombinedID         signals.BehaviorId[CombinedEffectResult[I, R]]
	ResultsID          signals.EventId[ResultEvent[I, R]]
	CompletedResultsID signals.EventId[ResultEvent[I, R]]
	ErrorsID           signals.EventId[*EffectError[I]]
	ResultID           signals.BehaviorId[SuccessResult[I, R]]
	PendingID          signals.BehaviorId[bool]
}

// NewConfig returns a Config for effectID and inputID with fresh invalidate,
// trigger, and output identifiers (each debug name prefixed with name),
// defaultInputEquals as the input equality, and a single-attempt retry
// policy.
func NewConfig[I, R any](name string, effectID EffectId[I, R], inputID signals.BehaviorId[I]) Config[I, R] {
	return Config[I, R]{
		EffectID:          effectID,
		InputID:           inputID,
		InvalidateID:      signals.NewEventId[struct{}](name + ".invalidate"),
		TriggerID:         signals.NewEventId[struct{}](name + ".trigger"),
		EffectInputEquals: defaultInputEquals[I],
		RetryPolicy:       NoRetryPolicy(),

		CombinedID:         signals.NewBehaviorId[CombinedEffectResult[I, R]](name + ".combined"),
		ResultsID:          signals.NewEventId[ResultEvent[I, R]](name + ".results"),
		CompletedResultsID: signals.NewEventId[ResultEvent[I, R]](name + ".completedResults"),
		ErrorsID:           signals.NewEventId[*EffectError[I]](name + ".errors"),
		ResultID:           signals.NewBehaviorId[SuccessResult[I, R]](name + ".result"),
		PendingID:          signals.NewBehaviorId[bool](name + ".pending"),
	}
}

// defaultInputEquals compares two inputs with ==, so pointer inputs compare
// by reference. Inputs whose dynamic type is not comparable (slices, maps,
// funcs) are never equal.
func defaultInputEquals[I any](a, b I) (equal bool) {
	defer func() {
		if recover() != nil {
			equal = false
		}
	}()
	return any(a) == any(b)
}

// Orchestrator is one built effect instance, wired into a store.
type Orchestrator[I, R any] struct {
	store *signals.Store
	cfg   Config[I, R]

	mu                   sync.Mutex
	state                resultState[I, R]
	invalidationToken    uint64
	triggeredInput       Maybe[I]
	triggeredGeneration  uint64
	currentInput         Maybe[I]
	inputGeneration      uint64
	lastErr              *EffectError[I]

	// activeDecide is the decision closure of the currently live
	// sourceObservable subscription, if combined has one; nil when
	// unsubscribed. invalidateSub is permanent (wired in Build, never torn
	// down with combined's subscription) so that dispatching invalidate
	// while nobody is subscribed to combined still advances
	// invalidationToken, per spec §8's requirement that such a dispatch
	// cause a re-run at the next subscription if the input is unchanged.
	activeDecide  func()
	invalidateSub signals.Subscription
}

// Build wires the orchestrator's combined behavior (and its convenience
// projections) into store and returns the instance. The effect itself does
// not run until something subscribes to combined, result, or pending —
// subscribing only to errors/results/completedResults never triggers it,
// since none of those three have any registered source of their own; they
// only ever receive values pushed from inside combined's activation.
func Build[I, R any](store *signals.Store, cfg Config[I, R]) (*Orchestrator[I, R], error) {
	if cfg.EffectInputEquals == nil {
		cfg.EffectInputEquals = defaultInputEquals[I]
	}
	if cfg.RetryPolicy == nil {
		if sc := store.Config(); sc != nil && sc.Retry != nil {
			cfg.RetryPolicy = &RetryPolicy{
				MaxAttempts:  sc.Retry.MaxAttempts,
				BaseDelay:    sc.Retry.BaseDelay,
				MaxDelay:     sc.Retry.MaxDelay,
				Multiplier:   sc.Retry.Multiplier,
				JitterFactor: sc.Retry.JitterFactor,
			}
		} else {
			cfg.RetryPolicy = NoRetryPolicy()
		}
	}

	o := &Orchestrator[I, R]{store: store, cfg: cfg}
	if cfg.InitialResult != nil {
		if v, ok := cfg.InitialResult(); ok {
			o.state.result = Some(v)
		}
	}

	// Permanent: survives unsubscription from combined, unlike inputSub and
	// triggerSub below which only exist while combined has a subscriber.
	o.invalidateSub = signals.GetEventStream(store, cfg.InvalidateID).Subscribe(func(struct{}) {
		o.mu.Lock()
		o.invalidationToken++
		decide := o.activeDecide
		o.mu.Unlock()
		if decide != nil {
			decide()
		}
	}, nil, nil)

	lazy := !cfg.EagerInputSubscription
	err := signals.AddBehavior[CombinedEffectResult[I, R]](store, cfg.CombinedID, o.sourceObservable(), lazy)
	if err != nil {
		return nil, err
	}

	_ = signals.AddBehavior[SuccessResult[I, R]](store, cfg.ResultID, mapObservable(signals.GetBehavior(store, cfg.CombinedID), func(c CombinedEffectResult[I, R]) (SuccessResult[I, R], bool) {
		if !c.IsSuccess() {
			return SuccessResult[I, R]{}, false
		}
		return SuccessResult[I, R]{CurrentInput: c.CurrentInput.Value, Result: c.Result.Value, ResultInput: c.ResultInput.Value}, true
	}), true)

	_ = signals.AddBehavior[bool](store, cfg.PendingID, mapObservable(signals.GetBehavior(store, cfg.CombinedID), func(c CombinedEffectResult[I, R]) (bool, bool) {
		return c.ResultPending, true
	}), true)

	return o, nil
}

func (o *Orchestrator[I, R]) currentCombinedLocked() CombinedEffectResult[I, R] {
	var errOut *EffectError[I]
	pending := false
	if o.currentInput.Ok {
		stale := o.invalidationToken != o.state.resultToken
		unequal := !o.state.resultInput.Ok || !o.cfg.EffectInputEquals(o.currentInput.Value, o.state.resultInput.Value)
		if o.cfg.WithTrigger {
			pending = stale || unequal
			if !(o.triggeredInput.Ok && o.triggeredGeneration == o.inputGeneration) {
				pending = false
			}
		} else {
			pending = stale || unequal
		}
	}
	if o.lastErr != nil && !pending {
		errOut = o.lastErr
	}
	return CombinedEffectResult[I, R]{
		CurrentInput:  o.currentInput,
		Result:        o.state.result,
		ResultError:   errOut,
		ResultInput:   o.state.resultInput,
		ResultPending: pending,
	}
}

// sourceObservable is the lazy upstream that drives combined: subscribing
// to it (i.e. combined gaining its first subscriber) wires up input and, in
// trigger mode, trigger, and hands the decision loop to the invalidate
// subscription made in Build. Unsubscribing tears all of that down,
// cancelling any in-flight debounce timer and effect run; emissions from a
// cancelled run are ignored.
func (o *Orchestrator[I, R]) sourceObservable() signals.FuncObservable[CombinedEffectResult[I, R]] {
	return signals.FuncObservable[CombinedEffectResult[I, R]]{
		Emit: func(next func(CombinedEffectResult[I, R]), fail func(error), done func()) func() {
			var runMu sync.Mutex
			var generation uint64
			var debounceTimer *time.Timer
			var cancelRun func()

			emit := func() {
				o.mu.Lock()
				c := o.currentCombinedLocked()
				o.mu.Unlock()
				next(c)
			}

			startRun := func(input I, gen uint64) {
				fn, ok := signals.GetEffect[EffectFunc[I, R]](o.store, o.cfg.EffectID.Token)
				if !ok {
					o.store.Logger().Warn(telemetry.CategoryEffect, "effect run skipped: no function registered", "effect", o.cfg.EffectID.Name())
					return
				}
				if o.cfg.WrappedEffectGetter != nil {
					fn = o.cfg.WrappedEffectGetter(fn)
				}

				o.store.Logger().Debug(telemetry.CategoryEffect, "effect run starting", "effect", o.cfg.EffectID.Name())

				o.mu.Lock()
				ectx := EffectContext[I, R]{Store: o.store, PrevResultInput: o.state.resultInput, PrevResult: o.state.result}
				o.mu.Unlock()

				runCtx, cancel := context.WithCancel(context.Background())
				runMu.Lock()
				cancelRun = cancel
				runMu.Unlock()

				stale := func() bool {
					runMu.Lock()
					defer runMu.Unlock()
					return gen != generation
				}

				policy := o.cfg.RetryPolicy
				if policy == nil {
					policy = NoRetryPolicy()
				}

				var attemptOnce func(attempt int, cumulative time.Duration)
				attemptOnce = func(attempt int, cumulative time.Duration) {
					if stale() {
						return
					}
					var obs signals.Observable[R]
					panicked := false
					func() {
						defer func() {
							if r := recover(); r != nil {
								panicked = true
								if stale() {
									return
								}
								o.applyError(input, panicToError(r))
								o.store.Logger().Error(telemetry.CategoryEffect, "effect run panicked", "effect", o.cfg.EffectID.Name(), "panic", r)
								o.store.Instruments().RecordEffectRun(o.lastErr)
								signals.Dispatch(o.store, o.cfg.ErrorsID, o.lastErr)
								emit()
							}
						}()
						obs = fn(runCtx, input, ectx)
					}()
					if panicked {
						return
					}

					var lastVal R
					hasVal := false
					obs.Subscribe(
						func(v R) {
							if stale() {
								return
							}
							lastVal = v
							hasVal = true
							signals.Dispatch(o.store, o.cfg.ResultsID, ResultEvent[I, R]{Input: input, Result: v, Completed: false})
							o.applyIntermediate(v)
							emit()
						},
						func(err error) {
							if stale() {
								return
							}
							if isRetriable(err) && attempt < policy.MaxAttempts {
								delay := policy.CalculateDelay(attempt)
								nextCumulative := cumulative + delay
								if policy.OnRetry != nil {
									policy.OnRetry(RetryContext{Attempt: attempt, Error: err, NextDelay: delay, CumulativeDelay: nextCumulative})
								}
								time.AfterFunc(delay, func() {
									attemptOnce(attempt+1, nextCumulative)
								})
								return
							}
							final := err
							if attempt > 1 {
								final = wrapRetryFailure(policy, err, attempt, cumulative)
							}
							o.applyError(input, final)
							o.store.Logger().Error(telemetry.CategoryEffect, "effect run failed", "effect", o.cfg.EffectID.Name(), "attempts", attempt, "error", final.Error())
							o.store.Instruments().RecordEffectRun(final)
							signals.Dispatch(o.store, o.cfg.ErrorsID, o.lastErr)
							emit()
						},
						func() {
							if stale() {
								return
							}
							if hasVal {
								signals.Dispatch(o.store, o.cfg.ResultsID, ResultEvent[I, R]{Input: input, Result: lastVal, Completed: true})
								signals.Dispatch(o.store, o.cfg.CompletedResultsID, ResultEvent[I, R]{Input: input, Result: lastVal, Completed: true})
							}
							o.applySuccess(input, lastVal)
							o.store.Logger().Debug(telemetry.CategoryEffect, "effect run succeeded", "effect", o.cfg.EffectID.Name())
							o.store.Instruments().RecordEffectRun(nil)
							emit()
						},
					)
				}

				attemptOnce(1, 0)
			}

			decide := func() {
				o.mu.Lock()
				input := o.currentInput
				triggered := o.triggeredInput
				triggerMatchesInput := triggered.Ok && o.triggeredGeneration == o.inputGeneration
				shouldRun := input.Ok &&
					(o.invalidationToken != o.state.resultToken ||
						!o.state.resultInput.Ok ||
						!o.cfg.EffectInputEquals(input.Value, o.state.resultInput.Value))
				if o.cfg.WithTrigger {
					shouldRun = shouldRun && triggerMatchesInput
				}
				o.mu.Unlock()
				if !shouldRun {
					return
				}

				runMu.Lock()
				generation++
				gen := generation
				if cancelRun != nil {
					cancelRun()
				}
				runMu.Unlock()

				fire := func() {
					startRun(input.Value, gen)
				}

				if o.cfg.EffectDebounceTime > 0 {
					runMu.Lock()
					if debounceTimer != nil {
						debounceTimer.Stop()
					}
					debounceTimer = time.AfterFunc(o.cfg.EffectDebounceTime, fire)
					runMu.Unlock()
				} else {
					fire()
				}
			}

			inputSub := signals.GetBehavior(o.store, o.cfg.InputID).Subscribe(func(v I) {
				o.mu.Lock()
				o.currentInput = Some(v)
				o.inputGeneration++
				o.mu.Unlock()
				emit()
				decide()
			}, nil, nil)

			var triggerSub signals.Subscription
			if o.cfg.WithTrigger {
				triggerSub = signals.GetEventStream(o.store, o.cfg.TriggerID).Subscribe(func(struct{}) {
					o.mu.Lock()
					o.triggeredInput = o.currentInput
					o.triggeredGeneration = o.inputGeneration
					o.mu.Unlock()
					decide()
				}, nil, nil)
			}

			o.mu.Lock()
			o.activeDecide = decide
			o.mu.Unlock()

			emit()

			return func() {
				o.mu.Lock()
				o.activeDecide = nil
				o.mu.Unlock()

				inputSub.Unsubscribe()
				if o.cfg.WithTrigger {
					triggerSub.Unsubscribe()
				}
				runMu.Lock()
				generation++
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				if cancelRun != nil {
					cancelRun()
				}
				runMu.Unlock()
			}
		},
	}
}

func (o *Orchestrator[I, R]) applyIntermediate(v R) {
	o.mu.Lock()
	o.state.result = Some(v)
	o.lastErr = nil
	o.mu.Unlock()
}

func (o *Orchestrator[I, R]) applySuccess(input I, v R) {
	o.mu.Lock()
	o.state.result = Some(v)
	o.state.resultInput = Some(input)
	o.state.resultToken = o.invalidationToken
	o.lastErr = nil
	o.mu.Unlock()
}

func (o *Orchestrator[I, R]) applyError(input I, err error) {
	effErr := newEffectError(err, input)
	o.mu.Lock()
	o.lastErr = effErr
	o.state.resultInput = Some(input)
	o.state.resultToken = o.invalidationToken
	o.mu.Unlock()
}

// mapObservable adapts an Observable[A] into a Subscribable[B] by applying
// fn to every emission, dropping emissions where fn reports ok=false.
func mapObservable[A, B any](src signals.Observable[A], fn func(A) (B, bool)) signals.FuncObservable[B] {
	return signals.FuncObservable[B]{
		Emit: func(next func(B), fail func(error), done func()) func() {
			sub := src.Subscribe(func(a A) {
				if b, ok := fn(a); ok {
					next(b)
				}
			}, fail, done)
			return sub.Unsubscribe
		},
	}
}

type panicError struct{ v interface{} }

func (p panicError) Error() string { return "effect panicked" }

func panicToError(v interface{}) error {
	if err, ok := v.(error); ok {
		return err
	}
	return panicError{v: v}
}
