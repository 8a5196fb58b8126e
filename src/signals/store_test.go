package signals

import (
	"testing"
	"time"
)

func drainAwait[T any](t *testing.T, ch <-chan bool) bool {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for dispatch completion")
		return false
	}
}

// S1 — counter with reducers.
func TestScenarioCounterWithReducers(t *testing.T) {
	st := NewStore()
	counter := NewStateId[int]("counter")
	inc := NewEventId[int]("inc")
	dec := NewEventId[int]("dec")

	AddState(st, counter, 100)
	if err := AddReducer(st, counter, inc, func(s, e int) int { return s + e }); err != nil {
		t.Fatal(err)
	}
	if err := AddReducer(st, counter, dec, func(s, e int) int { return s - e }); err != nil {
		t.Fatal(err)
	}

	var observed []int
	GetStateBehavior(st, counter).Subscribe(func(v int) { observed = append(observed, v) }, nil, nil)

	drainAwait(t, Dispatch(st, inc, 7))
	drainAwait(t, Dispatch(st, dec, 5))
	drainAwait(t, Dispatch(st, dec, 2))

	want := []int{100, 107, 102, 100}
	if !equalInts(observed, want) {
		t.Fatalf("expected %v, got %v", want, observed)
	}
}

// S2 — reducer registered before addState accumulates nothing until init.
func TestScenarioReducerBeforeState(t *testing.T) {
	st := NewStore()
	counter := NewStateId[int]("counter2")
	dec := NewEventId[int]("dec2")
	inc := NewEventId[int]("inc2")

	if err := AddReducer(st, counter, dec, func(s, e int) int { return s - e }); err != nil {
		t.Fatal(err)
	}

	var observed []int
	GetStateBehavior(st, counter).Subscribe(func(v int) { observed = append(observed, v) }, nil, nil)

	drainAwait(t, Dispatch(st, inc, 7)) // no reducer for inc2; no-op
	drainAwait(t, Dispatch(st, dec, 5)) // reducer exists but state unsourced: no emission

	AddState(st, counter, 100)
	if err := AddReducer(st, counter, dec, nil); err == nil {
		t.Fatal("expected duplicate reducer to be rejected")
	}

	drainAwait(t, Dispatch(st, dec, 9))

	want := []int{100, 91}
	if !equalInts(observed, want) {
		t.Fatalf("expected %v, got %v", want, observed)
	}
}

// P3 — no double source.
func TestNoDoubleSource(t *testing.T) {
	st := NewStore()
	id := NewBehaviorId[int]("single")

	err := AddBehavior[int](st, id, FuncObservable[int]{Emit: func(next func(int), fail func(error), done func()) func() {
		return func() {}
	}}, false)
	if err != nil {
		t.Fatalf("first source should be accepted: %v", err)
	}

	err = AddBehavior[int](st, id, FuncObservable[int]{Emit: func(next func(int), fail func(error), done func()) func() {
		return func() {}
	}}, false)
	if err == nil {
		t.Fatal("expected a second source for the same behavior to be rejected")
	}
}

// P4 — completion frees the slot for a new source.
func TestCompletionFreesSource(t *testing.T) {
	st := NewStore()
	id := NewBehaviorId[int]("frees")

	cancel := func() {}
	var complete func()
	_ = AddBehavior[int](st, id, FuncObservable[int]{Emit: func(next func(int), fail func(error), done func()) func() {
		next(1)
		complete = done
		return cancel
	}}, false)

	if st.GetNumberOfBehaviorSources(id.Token) != 1 {
		t.Fatalf("expected 1 source, got %d", st.GetNumberOfBehaviorSources(id.Token))
	}

	complete()
	if st.GetNumberOfBehaviorSources(id.Token) != 0 {
		t.Fatalf("expected 0 sources after the source completed, got %d", st.GetNumberOfBehaviorSources(id.Token))
	}

	err := AddBehavior[int](st, id, FuncObservable[int]{Emit: func(next func(int), fail func(error), done func()) func() {
		return func() {}
	}}, false)
	if err != nil {
		t.Fatalf("expected a new source to be accepted after completion: %v", err)
	}
}

// P7 — lifecycle scope end/reset.
func TestLifecycleEndAndReset(t *testing.T) {
	st := NewStore()
	id := NewBehaviorId[int]("scoped")

	handle, err := st.GetLifecycleHandle(func(sc *LifecycleScope) {
		_ = ScopedAddBehavior[int](sc, id, FuncObservable[int]{Emit: func(next func(int), fail func(error), done func()) func() {
			next(5)
			return func() {}
		}}, false)
	})
	if err != nil {
		t.Fatal(err)
	}

	if st.GetNumberOfBehaviorSources(id.Token) != 1 {
		t.Fatalf("expected 1 source after registration, got %d", st.GetNumberOfBehaviorSources(id.Token))
	}

	handle.End()
	if st.GetNumberOfBehaviorSources(id.Token) != 0 {
		t.Fatalf("expected 0 sources after End, got %d", st.GetNumberOfBehaviorSources(id.Token))
	}

	handle.Reset()
	if st.GetNumberOfBehaviorSources(id.Token) != 1 {
		t.Fatalf("expected 1 source restored after Reset, got %d", st.GetNumberOfBehaviorSources(id.Token))
	}
}

// TestNestedLifecycleRejected exercises the synchronous configuration error
// for calling GetLifecycleHandle from within another lifecycle callback.
func TestNestedLifecycleRejected(t *testing.T) {
	st := NewStore()
	_, err := st.GetLifecycleHandle(func(sc *LifecycleScope) {
		_, nestedErr := st.GetLifecycleHandle(func(*LifecycleScope) {})
		if nestedErr == nil {
			t.Fatal("expected nested lifecycle registration to be rejected")
		}
	})
	if err != nil {
		t.Fatal(err)
	}
}

// S7 — event order across an effect-free reactive reaction: dispatching
// from within a subscriber callback inherits a later queue position than
// any dispatch already queued ahead of it. The three "without awaiting"
// dispatches are issued from inside a priming event's delivery so that,
// the same way three synchronous dispatch() calls share one JS tick, they
// are guaranteed to land in the queue together before any of them starts
// draining.
func TestScenarioEventOrderAcrossReaction(t *testing.T) {
	st := NewStore()
	counter := NewStateId[int]("order-counter")
	add := NewEventId[int]("order-add")
	mul := NewEventId[int]("order-mul")
	kickoff := NewEventId[struct{}]("kickoff")

	AddState(st, counter, 0)
	_ = AddReducer(st, counter, add, func(s, e int) int { return s + e })
	_ = AddReducer(st, counter, mul, func(s, e int) int { return s * e })

	var observed []int
	GetStateBehavior(st, counter).Subscribe(func(v int) {
		observed = append(observed, v)
		if v == 9 {
			Dispatch(st, add, 1)
		}
	}, nil, nil)

	GetEventStream(st, kickoff).Subscribe(func(struct{}) {
		Dispatch(st, add, 3)
		Dispatch(st, mul, 3)
		Dispatch(st, mul, 2)
	}, nil, nil)

	drainAwait(t, Dispatch(st, kickoff, struct{}{}))

	deadline := time.Now().Add(time.Second)
	for len(observed) < 5 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	want := []int{0, 3, 9, 18, 19}
	if !equalInts(observed, want) {
		t.Fatalf("expected %v, got %v", want, observed)
	}
}

// Second half of S7: awaiting the *3 dispatch before issuing *2 yields a
// different, still strictly-ordered sequence.
func TestScenarioEventOrderAwaited(t *testing.T) {
	st := NewStore()
	counter := NewStateId[int]("order-counter-awaited")
	add := NewEventId[int]("order-add-awaited")
	mul := NewEventId[int]("order-mul-awaited")

	AddState(st, counter, 0)
	_ = AddReducer(st, counter, add, func(s, e int) int { return s + e })
	_ = AddReducer(st, counter, mul, func(s, e int) int { return s * e })

	var observed []int
	GetStateBehavior(st, counter).Subscribe(func(v int) {
		observed = append(observed, v)
		if v == 9 {
			Dispatch(st, add, 1)
		}
	}, nil, nil)

	drainAwait(t, Dispatch(st, add, 3))
	drainAwait(t, Dispatch(st, mul, 3))
	drainAwait(t, Dispatch(st, mul, 2))

	deadline := time.Now().Add(time.Second)
	for len(observed) < 5 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	want := []int{0, 3, 9, 10, 20}
	if !equalInts(observed, want) {
		t.Fatalf("expected %v, got %v", want, observed)
	}
}

// TestGetIsSubscribedObservableTracksRefcount exercises the reactive
// is-subscribed stream: it must replay the current state and push on every
// transition across zero subscribers.
func TestGetIsSubscribedObservableTracksRefcount(t *testing.T) {
	st := NewStore()
	id := NewBehaviorId[int]("tracked")
	_ = AddBehavior[int](st, id, FuncObservable[int]{Emit: func(next func(int), fail func(error), done func()) func() {
		next(1)
		return func() {}
	}}, true)

	var observed []bool
	st.GetIsSubscribedObservable(id.Token).Subscribe(func(v bool) { observed = append(observed, v) }, nil, nil)

	sub := GetBehavior(st, id).Subscribe(func(int) {}, nil, nil)
	sub.Unsubscribe()

	want := []bool{false, true, false}
	if len(observed) != len(want) {
		t.Fatalf("expected %v, got %v", want, observed)
	}
	for i := range want {
		if observed[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, observed)
		}
	}
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
