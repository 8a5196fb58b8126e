package signals

import (
	"context"
	"sync"

	"github.com/gopherflux/signals/src/config"
	"github.com/gopherflux/signals/src/telemetry"
)

// Store is the central registry of named, typed streams. Construction
// mirrors src/driver/driver.go's NewDriver/NewDriverWithConfig sequence:
// logger first, then observability instruments, then the store's own
// tables.
type Store struct {
	mu             sync.RWMutex
	subjects       map[Token]*subject
	subscribedSubj map[Token]*subject
	sources        *sourceTable
	effects        map[Token]interface{}
	queue          *eventQueue

	logger telemetry.Logger
	inst   *telemetry.Instruments
	cfg    *config.Config

	parent *Store

	lifecycleMu sync.Mutex
	inLifecycle bool
}

// NewStore builds a store with default configuration (silent logging, no
// observability).
func NewStore() *Store {
	return NewStoreWithConfig(config.DefaultConfig())
}

// NewStoreWithConfig builds a store wired per cfg.
func NewStoreWithConfig(cfg *config.Config) *Store {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := telemetry.BuildLogger(cfg.Logging)
	threshold := 0
	if cfg.Queue != nil {
		threshold = cfg.Queue.BacklogWarnThreshold
	}
	return &Store{
		subjects:       make(map[Token]*subject),
		subscribedSubj: make(map[Token]*subject),
		sources:        newSourceTable(),
		effects:        make(map[Token]interface{}),
		queue:          newEventQueue(threshold, logger),
		logger:         logger,
		inst:           telemetry.NewInstruments(cfg.Observability),
		cfg:            cfg,
	}
}

// Config exposes the store's construction-time configuration for dependent
// packages (e.g. src/effects, reading a store-wide default retry policy).
func (st *Store) Config() *config.Config { return st.cfg }

func (st *Store) subjectFor(tok Token, isBehavior bool) *subject {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.subjects[tok]
	if !ok {
		s = newSubject(isBehavior)
		target := tok
		s.onRefChange = func(count int) {
			st.inst.RecordSubscriptionChange(refDelta(count))
			if count == 1 {
				st.sources.activateAll(target)
			} else if count == 0 {
				st.sources.deactivateLazy(target)
			}
			st.notifySubscribedChange(target, count > 0)
		}
		st.subjects[tok] = s
	}
	return s
}

// notifySubscribedChange pushes subscribed onto tok's is-subscribed subject,
// if GetIsSubscribedObservable has ever been called for tok.
func (st *Store) notifySubscribedChange(tok Token, subscribed bool) {
	st.mu.RLock()
	s, ok := st.subscribedSubj[tok]
	st.mu.RUnlock()
	if ok {
		s.next(subscribed)
	}
}

// isSubscribedSubjectFor lazily creates the bool behavior subject tracking
// whether id currently has at least one live subscriber, seeded with id's
// present refcount.
func (st *Store) isSubscribedSubjectFor(tok Token) *subject {
	st.mu.Lock()
	s, ok := st.subscribedSubj[tok]
	if !ok {
		s = newSubject(true)
		main, hasMain := st.subjects[tok]
		st.subscribedSubj[tok] = s
		st.mu.Unlock()
		current := false
		if hasMain {
			current = main.refCount() > 0
		}
		s.next(current)
		return s
	}
	st.mu.Unlock()
	return s
}

// GetIsSubscribedObservable returns a behavior stream of whether id
// currently has at least one live subscriber, replaying the current state
// to new subscribers and pushing on every refcount transition across zero.
func (st *Store) GetIsSubscribedObservable(id Token) Observable[bool] {
	return newObservable[bool](st.isSubscribedSubjectFor(id))
}

func refDelta(count int) int64 {
	if count == 1 {
		return 1
	}
	if count == 0 {
		return -1
	}
	return 0
}

// --- Behaviors ---------------------------------------------------------

// AddBehavior wires source as the single upstream for id. lazy controls
// whether source is subscribed immediately (false) or only once id gains
// its first subscriber (true). When source errors or completes it is
// removed from id's sources; the subject and its last value stay, so a new
// source may be added.
func AddBehavior[T any](st *Store, id BehaviorId[T], source Subscribable[T], lazy bool) error {
	s := st.subjectFor(id.Token, true)
	activate := func() func() {
		sub := source.Subscribe(
			func(v T) { s.next(v) },
			func(err error) {
				s.errorOccurred(err)
				st.sources.removeAll(id.Token)
			},
			func() { st.sources.removeAll(id.Token) },
		)
		return sub.Unsubscribe
	}
	reg, err := st.sources.register(id.Token, lazy, nil, activate, false)
	if err != nil {
		return err
	}
	if !lazy || s.refCount() > 0 {
		if !reg.active {
			reg.cancel = reg.activate()
			reg.active = true
		}
	}
	return nil
}

// AddDerivedState is AddBehavior under a name matching the spec's
// distinction between a raw upstream wiring and a behavior derived by
// transforming another behavior/event; the wiring mechanics are identical.
func AddDerivedState[T any](st *Store, id BehaviorId[T], source Subscribable[T], lazy bool) error {
	return AddBehavior[T](st, id, source, lazy)
}

// AddState registers a state identifier with an initial value and no
// reducers yet; AddReducer attaches the fold logic afterward.
func AddState[T any](st *Store, id StateId[T], initial T) {
	s := st.subjectFor(id.Token, true)
	s.next(initial)
}

// AddReducer folds eventId's payloads into stateId's current value via
// reducer. Multiple reducers may target the same state as long as each
// pairs with a distinct event.
func AddReducer[S, E any](st *Store, stateId StateId[S], eventId EventId[E], reducer func(S, E) S) error {
	stateSubj := st.subjectFor(stateId.Token, true)
	eventObs := newObservable[E](st.subjectFor(eventId.Token, false))

	activate := func() func() {
		sub := eventObs.Subscribe(func(e E) {
			current, ok := stateSubj.lastValue()
			if !ok {
				// No initial value yet (addState not called): per spec 4.4,
				// reducers attached before addState accumulate but produce
				// nothing until the state is initialized.
				return
			}
			stateSubj.next(reducer(current.(S), e))
		}, nil, nil)
		return sub.Unsubscribe
	}

	key := eventId.Token
	_, err := st.sources.register(stateId.Token, false, &key, activate, true)
	if err != nil {
		return err
	}
	st.sources.activateAll(stateId.Token)
	return nil
}

// RemoveReducer detaches the reducer pairing stateId with eventId, if any.
func RemoveReducer[S, E any](st *Store, stateId StateId[S], eventId EventId[E]) {
	st.sources.removeByEventKey(stateId.Token, eventId.Token)
}

// Connect wires the current value stream of one behavior as the source of
// another, both of type T.
func Connect[T any](st *Store, source BehaviorId[T], target BehaviorId[T], lazy bool) error {
	return AddBehavior[T](st, target, GetBehavior[T](st, source), lazy)
}

// ConnectObservable wires an arbitrary Subscribable[T] as target's source.
func ConnectObservable[T any](st *Store, source Subscribable[T], target BehaviorId[T], lazy bool) error {
	return AddBehavior[T](st, target, source, lazy)
}

// GetBehavior returns the typed Observable for a behavior or state
// identifier. For a child store, falls back to the parent when the child's
// own table has no entry (behaviors delegate; events never do — see
// GetEventStream).
func GetBehavior[T any](st *Store, id BehaviorId[T]) Observable[T] {
	st.mu.RLock()
	_, hasOwn := st.subjects[id.Token]
	st.mu.RUnlock()
	if !hasOwn && st.parent != nil {
		return GetBehavior[T](st.parent, id)
	}
	return newObservable[T](st.subjectFor(id.Token, true))
}

// GetStateBehavior returns the typed Observable view of a state identifier.
// StateId is a behavior flavor (spec §3), so it delegates to the parent
// store exactly like GetBehavior when the child has no AddState/AddReducer
// registration of its own.
func GetStateBehavior[T any](st *Store, id StateId[T]) Observable[T] {
	st.mu.RLock()
	_, hasOwn := st.subjects[id.Token]
	st.mu.RUnlock()
	if !hasOwn && st.parent != nil {
		return GetStateBehavior[T](st.parent, id)
	}
	return newObservable[T](st.subjectFor(id.Token, true))
}

// --- Events --------------------------------------------------------------

// AddEventSource wires source as one of (possibly several) upstreams
// feeding id's event stream.
func AddEventSource[T any](st *Store, id EventId[T], source Subscribable[T], lazy bool) error {
	s := st.subjectFor(id.Token, false)
	activate := func() func() {
		sub := source.Subscribe(
			func(v T) { s.next(v) },
			func(err error) { s.errorOccurred(err) },
			func() {},
		)
		return sub.Unsubscribe
	}
	reg, err := st.sources.register(id.Token, lazy, nil, activate, true)
	if err != nil {
		return err
	}
	if !lazy || s.refCount() > 0 {
		if !reg.active {
			reg.cancel = reg.activate()
			reg.active = true
		}
	}
	return nil
}

// GetEventStream returns the typed Observable for an event identifier.
// Events never delegate to a parent store.
func GetEventStream[T any](st *Store, id EventId[T]) Observable[T] {
	return newObservable[T](st.subjectFor(id.Token, false))
}

// Dispatch enqueues payload for delivery to id's current subscribers,
// serialized through the store's single delivery sequence. The returned
// channel resolves to whether at least one subscriber was live at delivery
// time.
func Dispatch[T any](st *Store, id EventId[T], payload T) <-chan bool {
	_, span := st.inst.StartDispatchSpan(context.Background(), id.Name())
	return st.queue.enqueue(func() bool {
		s := st.subjectFor(id.Token, false)
		delivered := s.refCount() > 0
		s.next(payload)
		st.inst.FinishDispatchSpan(span, delivered, nil)
		return delivered
	})
}

// --- Effects (registry only — orchestration lives in src/effects) -------

// AddEffect registers fn as the implementation behind id. The effect
// orchestrator in src/effects looks it up via GetEffect.
func AddEffect(st *Store, id Token, fn interface{}) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.effects[id] = fn
}

// GetEffect retrieves a previously-registered effect function, asserting it
// back to the caller's expected signature type F.
func GetEffect[F any](st *Store, id Token) (F, bool) {
	st.mu.RLock()
	raw, ok := st.effects[id]
	st.mu.RUnlock()
	if !ok {
		var zero F
		return zero, false
	}
	fn, ok := raw.(F)
	return fn, ok
}

// --- Lifecycle removal / diagnostics --------------------------------------

// RemoveBehaviorSources tears down every source feeding id, leaving its
// subject alive for a future source to be added.
func RemoveBehaviorSources(st *Store, id Token) {
	st.sources.removeAll(id)
}

// CompleteBehavior permanently ends id's subject; current subscribers
// receive a completion notification and the subject becomes unusable for
// future subscriptions (replay-then-complete only).
func CompleteBehavior(st *Store, id Token) {
	st.mu.RLock()
	s, ok := st.subjects[id]
	st.mu.RUnlock()
	if ok {
		s.complete()
	}
	st.sources.removeAll(id)
}

// CompleteAllSignals ends every subject in the store and drops (rather than
// drains) anything still queued for delivery.
func (st *Store) CompleteAllSignals() {
	st.mu.RLock()
	toks := make([]Token, 0, len(st.subjects))
	for t := range st.subjects {
		toks = append(toks, t)
	}
	st.mu.RUnlock()
	for _, t := range toks {
		CompleteBehavior(st, t)
	}
	st.queue.close()
}

// IsSubscribed reports whether id currently has at least one subscriber.
func (st *Store) IsSubscribed(id Token) bool {
	st.mu.RLock()
	s, ok := st.subjects[id]
	st.mu.RUnlock()
	return ok && s.refCount() > 0
}

// IsAdded reports whether id has an entry in the store's tables at all.
func (st *Store) IsAdded(id Token) bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	_, ok := st.subjects[id]
	return ok
}

// GetNumberOfBehaviorSources returns how many sources are registered for id.
func (st *Store) GetNumberOfBehaviorSources(id Token) int {
	return st.sources.count(id)
}

// GetUnsubscribedIdentifiers returns every identifier with a registered
// source that is not currently activated.
func (st *Store) GetUnsubscribedIdentifiers() []Token {
	return st.sources.unsubscribedIdentifiers()
}

// GetNoSourceBehaviorIdentifiers returns every behavior/state identifier
// known to the store that has no registered source at all.
func (st *Store) GetNoSourceBehaviorIdentifiers() []Token {
	st.mu.RLock()
	defer st.mu.RUnlock()
	var out []Token
	for tok := range st.subjects {
		if tok.Kind() == KindBehavior || tok.Kind() == KindState {
			if st.sources.count(tok) == 0 {
				out = append(out, tok)
			}
		}
	}
	return out
}

// Logger exposes the store's configured logger for use by dependent
// packages (e.g. src/effects) that want to log under the same sink.
func (st *Store) Logger() telemetry.Logger { return st.logger }

// Instruments exposes the store's telemetry instruments.
func (st *Store) Instruments() *telemetry.Instruments { return st.inst }
