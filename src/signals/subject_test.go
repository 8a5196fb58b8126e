package signals

import "testing"

func TestSubjectReplaysLastValueToBehaviorSubscribers(t *testing.T) {
	s := newSubject(true)
	s.next(1)
	s.next(2)

	var got []interface{}
	s.subscribe(observer{onNext: func(v interface{}) { got = append(got, v) }})

	if len(got) != 1 || got[0] != 2 {
		t.Fatalf("expected replay of last value [2], got %v", got)
	}
}

func TestSubjectEventDoesNotReplay(t *testing.T) {
	s := newSubject(false)
	s.next("a")

	called := false
	s.subscribe(observer{onNext: func(interface{}) { called = true }})

	if called {
		t.Fatal("event subject must not replay to new subscribers")
	}
}

func TestSubjectUnsubscribeLeavesLastValueIntact(t *testing.T) {
	s := newSubject(true)
	s.next(42)

	h := s.subscribe(observer{})
	h.unsubscribe()

	var got interface{}
	s.subscribe(observer{onNext: func(v interface{}) { got = v }})
	if got != 42 {
		t.Fatalf("expected last value 42 preserved after unsubscribe, got %v", got)
	}
}

func TestSubjectErrorDoesNotComplete(t *testing.T) {
	s := newSubject(true)
	errSeen := false
	s.subscribe(observer{onError: func(error) { errSeen = true }})

	s.errorOccurred(errFixture)
	if !errSeen {
		t.Fatal("expected error to be delivered")
	}
	if s.isCompleted() {
		t.Fatal("subject must stay alive after a source error")
	}

	s.next(1)
	var got interface{}
	s.subscribe(observer{onNext: func(v interface{}) { got = v }})
	if got != 1 {
		t.Fatal("subject should keep accepting values after an error")
	}
}

func TestSubjectRefCountTracksSubscriberCount(t *testing.T) {
	s := newSubject(false)
	if s.refCount() != 0 {
		t.Fatal("expected refcount 0 initially")
	}
	h1 := s.subscribe(observer{})
	h2 := s.subscribe(observer{})
	if s.refCount() != 2 {
		t.Fatalf("expected refcount 2, got %d", s.refCount())
	}
	h1.unsubscribe()
	if s.refCount() != 1 {
		t.Fatalf("expected refcount 1, got %d", s.refCount())
	}
	h2.unsubscribe()
	if s.refCount() != 0 {
		t.Fatalf("expected refcount 0, got %d", s.refCount())
	}
}

func TestSubjectOnRefChangeCallback(t *testing.T) {
	s := newSubject(false)
	var seen []int
	s.onRefChange = func(count int) { seen = append(seen, count) }

	h := s.subscribe(observer{})
	h.unsubscribe()

	if len(seen) != 2 || seen[0] != 1 || seen[1] != 0 {
		t.Fatalf("expected refchange sequence [1 0], got %v", seen)
	}
}

func TestSubjectCompleteEndsFutureSubscribers(t *testing.T) {
	s := newSubject(true)
	s.next(7)
	s.complete()

	completed := false
	var replay interface{}
	s.subscribe(observer{
		onNext:     func(v interface{}) { replay = v },
		onComplete: func() { completed = true },
	})

	if replay != 7 || !completed {
		t.Fatalf("expected replay of 7 followed by completion, got replay=%v completed=%v", replay, completed)
	}
}

type fixtureError struct{}

func (fixtureError) Error() string { return "fixture" }

var errFixture error = fixtureError{}
