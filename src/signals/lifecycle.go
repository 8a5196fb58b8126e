package signals

import "sync"

// LifecycleScope collects every behavior source, event source, and reducer
// registered through its Scoped* functions so LifecycleHandle.End can tear
// all of them down together.
// Grounded on src/driver/driver.go's resource-cleanup shape in Close(),
// generalized from "one driver's connections" to "one registration batch".
type LifecycleScope struct {
	store     *Store
	mu        sync.Mutex
	teardowns []func()
}

func (sc *LifecycleScope) track(teardown func()) {
	sc.mu.Lock()
	sc.teardowns = append(sc.teardowns, teardown)
	sc.mu.Unlock()
}

// LifecycleHandle is returned from GetLifecycleHandle; End tears down
// everything registered inside the scope's callback, in reverse order.
// Reset re-runs the original registration callback after tearing down.
type LifecycleHandle struct {
	store *Store
	fn    func(*LifecycleScope)
	scope *LifecycleScope
}

// End runs every tracked teardown in reverse registration order. Idempotent
// — a second call is a no-op.
func (h *LifecycleHandle) End() {
	h.scope.mu.Lock()
	teardowns := h.scope.teardowns
	h.scope.teardowns = nil
	h.scope.mu.Unlock()

	for i := len(teardowns) - 1; i >= 0; i-- {
		teardowns[i]()
	}
}

// Reset tears down the current scope and re-runs the original registration
// callback in a fresh scope, as if it were being registered for the first
// time.
func (h *LifecycleHandle) Reset() {
	h.End()
	scope := &LifecycleScope{store: h.store}
	h.fn(scope)
	h.scope = scope
}

// GetLifecycleHandle runs fn with a scope that records every registration
// made through the Scoped* functions below, and returns a handle that tears
// all of it down on End. Calling GetLifecycleHandle again from within fn
// (nested lifecycle registration) is rejected.
func (st *Store) GetLifecycleHandle(fn func(*LifecycleScope)) (*LifecycleHandle, error) {
	st.lifecycleMu.Lock()
	if st.inLifecycle {
		st.lifecycleMu.Unlock()
		return nil, &ConfigurationError{Code: ErrNestedLifecycle, Message: "nested lifecycle registration is not permitted"}
	}
	st.inLifecycle = true
	st.lifecycleMu.Unlock()

	scope := &LifecycleScope{store: st}
	fn(scope)

	st.lifecycleMu.Lock()
	st.inLifecycle = false
	st.lifecycleMu.Unlock()

	return &LifecycleHandle{store: st, fn: fn, scope: scope}, nil
}

// ScopedAddBehavior wires source as id's behavior within scope, tearing
// the source down (not completing the subject) when the scope ends.
func ScopedAddBehavior[T any](sc *LifecycleScope, id BehaviorId[T], source Subscribable[T], lazy bool) error {
	if err := AddBehavior[T](sc.store, id, source, lazy); err != nil {
		return err
	}
	sc.track(func() { RemoveBehaviorSources(sc.store, id.Token) })
	return nil
}

// ScopedAddEventSource wires source as one of id's event sources within
// scope.
func ScopedAddEventSource[T any](sc *LifecycleScope, id EventId[T], source Subscribable[T], lazy bool) error {
	if err := AddEventSource[T](sc.store, id, source, lazy); err != nil {
		return err
	}
	sc.track(func() { RemoveBehaviorSources(sc.store, id.Token) })
	return nil
}

// ScopedAddReducer attaches reducer within scope, detaching it when the
// scope ends.
func ScopedAddReducer[S, E any](sc *LifecycleScope, stateId StateId[S], eventId EventId[E], reducer func(S, E) S) error {
	if err := AddReducer[S, E](sc.store, stateId, eventId, reducer); err != nil {
		return err
	}
	sc.track(func() { RemoveReducer[S, E](sc.store, stateId, eventId) })
	return nil
}
