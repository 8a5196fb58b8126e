package signals

import "sync"

// observer is the untyped callback triple a subject delivers to. Typed
// access happens at the Observable[T] boundary (observable.go), which
// performs the type assertion back to T.
type observer struct {
	onNext     func(value interface{})
	onError    func(err error)
	onComplete func()
}

// subscriptionHandle is the untyped cancellation token returned by
// subject.subscribe. Observable[T].Subscribe wraps it as Subscription.
type subscriptionHandle struct {
	cancel func()
}

func (h subscriptionHandle) unsubscribe() {
	if h.cancel != nil {
		h.cancel()
	}
}

// subject is the controlled, multicast sink backing a single identifier.
// Behaviors and states replay their last value to new subscribers; events
// never do. Unsubscribing only ever removes the subscriber map entry — it
// never touches the replayed last value, so a late resubscription still
// sees the most recent value rather than nothing.
//
// Grounded on src/driver/reactive.go's Subscribe/Records multicast pair and
// the DataDog subscription_manager.go refcounted subscriber map.
type subject struct {
	mu          sync.Mutex
	isBehavior  bool
	hasValue    bool
	value       interface{}
	observers   map[uint64]observer
	nextObsID   uint64
	completed   bool
	onRefChange func(count int)
}

func newSubject(isBehavior bool) *subject {
	return &subject{isBehavior: isBehavior, observers: make(map[uint64]observer)}
}

func (s *subject) snapshot() []observer {
	out := make([]observer, 0, len(s.observers))
	for _, o := range s.observers {
		out = append(out, o)
	}
	return out
}

func (s *subject) subscribe(obs observer) subscriptionHandle {
	s.mu.Lock()
	if s.completed {
		hasValue, value := s.hasValue, s.value
		s.mu.Unlock()
		if s.isBehavior && hasValue && obs.onNext != nil {
			obs.onNext(value)
		}
		if obs.onComplete != nil {
			obs.onComplete()
		}
		return subscriptionHandle{cancel: func() {}}
	}

	id := s.nextObsID
	s.nextObsID++
	s.observers[id] = obs
	replay := s.isBehavior && s.hasValue
	val := s.value
	count := len(s.observers)
	cb := s.onRefChange
	s.mu.Unlock()

	if replay && obs.onNext != nil {
		obs.onNext(val)
	}
	if cb != nil {
		cb(count)
	}

	return subscriptionHandle{cancel: func() {
		s.mu.Lock()
		_, existed := s.observers[id]
		delete(s.observers, id)
		count := len(s.observers)
		cb := s.onRefChange
		s.mu.Unlock()
		if existed && cb != nil {
			cb(count)
		}
	}}
}

func (s *subject) refCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.observers)
}

func (s *subject) isCompleted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed
}

func (s *subject) lastValue() (interface{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, s.hasValue
}

// next delivers a value, replacing the replayed last value for behaviors.
func (s *subject) next(v interface{}) {
	s.mu.Lock()
	if s.completed {
		s.mu.Unlock()
		return
	}
	if s.isBehavior {
		s.hasValue = true
		s.value = v
	}
	snapshot := s.snapshot()
	s.mu.Unlock()

	for _, o := range snapshot {
		if o.onNext != nil {
			o.onNext(v)
		}
	}
}

// errorOccurred broadcasts a transient error to current subscribers without
// ending the subject. Used when a source's upstream observable errors:
// AddBehavior then removes the erroring source, while a source added with
// AddEventSource stays registered; either way the subject itself stays
// alive for future sources (spec error-handling rule 2).
func (s *subject) errorOccurred(err error) {
	s.mu.Lock()
	if s.completed {
		s.mu.Unlock()
		return
	}
	snapshot := s.snapshot()
	s.mu.Unlock()

	for _, o := range snapshot {
		if o.onError != nil {
			o.onError(err)
		}
	}
}

// complete permanently ends the subject. Further subscribe calls replay the
// last value (if any) then immediately complete.
func (s *subject) complete() {
	s.mu.Lock()
	if s.completed {
		s.mu.Unlock()
		return
	}
	s.completed = true
	snapshot := s.snapshot()
	s.observers = map[uint64]observer{}
	s.mu.Unlock()

	for _, o := range snapshot {
		if o.onComplete != nil {
			o.onComplete()
		}
	}
}
