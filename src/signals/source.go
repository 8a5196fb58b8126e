package signals

import "sync"

// sourceReg is one registered upstream wiring for a target identifier.
// Behaviors allow at most one; states allow one per distinct reducer event;
// events allow any number.
//
// Grounded on src/driver/reactive_operators.go's per-stage activation shape
// (each operator goroutine starts on demand and tears down on cancel),
// generalized here from "per record batch" to "per identifier subscriber
// count".
type sourceReg struct {
	lazy     bool
	eventKey *Token // non-nil for reducer sources, used for removeReducer dedup
	activate func() func()
	active   bool
	cancel   func()
}

// sourceTable tracks every registered source, keyed by the target
// identifier's token.
type sourceTable struct {
	mu      sync.Mutex
	entries map[Token][]*sourceReg
}

func newSourceTable() *sourceTable {
	return &sourceTable{entries: make(map[Token][]*sourceReg)}
}

func (t *sourceTable) count(target Token) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries[target])
}

func (t *sourceTable) has(target Token) bool {
	return t.count(target) > 0
}

// register adds a new source for target. allowMultiple controls whether a
// second source is a ConfigurationError (behaviors) or permitted (events).
// eventKey, when non-nil, must be unique among target's existing sources
// (state + reducer-event pair uniqueness).
func (t *sourceTable) register(target Token, lazy bool, eventKey *Token, activate func() func(), allowMultiple bool) (*sourceReg, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	existing := t.entries[target]
	if !allowMultiple && len(existing) > 0 {
		return nil, &ConfigurationError{Code: ErrDuplicateSource, Message: "identifier " + target.String() + " already has a source"}
	}
	if eventKey != nil {
		for _, e := range existing {
			if e.eventKey != nil && *e.eventKey == *eventKey {
				return nil, &ConfigurationError{Code: ErrDuplicateReducer, Message: "reducer for " + target.String() + "/" + eventKey.String() + " already registered"}
			}
		}
	}

	reg := &sourceReg{lazy: lazy, eventKey: eventKey, activate: activate}
	t.entries[target] = append(existing, reg)
	return reg, nil
}

// removeAll tears down and removes every source registered for target.
func (t *sourceTable) removeAll(target Token) {
	t.mu.Lock()
	regs := t.entries[target]
	delete(t.entries, target)
	t.mu.Unlock()

	for _, r := range regs {
		if r.active && r.cancel != nil {
			r.cancel()
		}
	}
}

// removeByEventKey tears down and removes the single reducer source
// matching eventKey, if any.
func (t *sourceTable) removeByEventKey(target Token, eventKey Token) {
	t.mu.Lock()
	existing := t.entries[target]
	kept := existing[:0]
	var removed *sourceReg
	for _, r := range existing {
		if r.eventKey != nil && *r.eventKey == eventKey {
			removed = r
			continue
		}
		kept = append(kept, r)
	}
	t.entries[target] = kept
	t.mu.Unlock()

	if removed != nil && removed.active && removed.cancel != nil {
		removed.cancel()
	}
}

// activateAll activates every non-active source for target — called when a
// subject's refcount transitions 0->1, and unconditionally right after
// registration for non-lazy sources.
func (t *sourceTable) activateAll(target Token) {
	t.mu.Lock()
	regs := append([]*sourceReg(nil), t.entries[target]...)
	t.mu.Unlock()

	for _, r := range regs {
		if !r.active {
			r.cancel = r.activate()
			r.active = true
		}
	}
}

// deactivateLazy cancels every lazy, active source for target — called when
// a subject's refcount transitions 1->0. Non-lazy sources are left running.
func (t *sourceTable) deactivateLazy(target Token) {
	t.mu.Lock()
	regs := append([]*sourceReg(nil), t.entries[target]...)
	t.mu.Unlock()

	for _, r := range regs {
		if r.lazy && r.active {
			if r.cancel != nil {
				r.cancel()
			}
			r.active = false
		}
	}
}

func (t *sourceTable) unsubscribedIdentifiers() []Token {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []Token
	for target, regs := range t.entries {
		anyActive := false
		for _, r := range regs {
			if r.active {
				anyActive = true
				break
			}
		}
		if !anyActive {
			out = append(out, target)
		}
	}
	return out
}
