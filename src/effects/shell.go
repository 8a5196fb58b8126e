package effects

import "github.com/gopherflux/signals/src/signals"

// RegisterEffect installs fn as the implementation behind id on store,
// replacing any prior function while leaving downstream combined streams
// undisturbed (spec §3 "effect registration... replacement swaps the
// function without disturbing downstream combined streams").
func RegisterEffect[I, R any](store *signals.Store, id EffectId[I, R], fn EffectFunc[I, R]) {
	signals.AddEffect(store, id.Token, fn)
}

// Factory is the minimal extendSetup/connect/build contract needed to glue
// one orchestrator instance into a store. The general bind/fmap/compose
// algebra over multiple factories is out of scope here.
type Factory[I, R any] struct {
	cfg Config[I, R]
}

// NewFactory starts a factory around a fresh Config with the given name
// prefixing every generated output identifier's debug name.
func NewFactory[I, R any](name string, effectID EffectId[I, R], inputID signals.BehaviorId[I]) *Factory[I, R] {
	cfg := NewConfig(name, effectID, inputID)
	return &Factory[I, R]{cfg: cfg}
}

// ExtendSetup mutates the factory's Config in place (setting debounce,
// trigger mode, equality, retry policy, etc.) and returns the factory for
// chaining.
func (f *Factory[I, R]) ExtendSetup(mutate func(*Config[I, R])) *Factory[I, R] {
	mutate(&f.cfg)
	return f
}

// Connect registers fn as the factory's effect implementation on store.
func (f *Factory[I, R]) Connect(store *signals.Store, fn EffectFunc[I, R]) *Factory[I, R] {
	RegisterEffect(store, f.cfg.EffectID, fn)
	return f
}

// Build wires the factory's configured orchestrator into store.
func (f *Factory[I, R]) Build(store *signals.Store) (*Orchestrator[I, R], error) {
	return Build(store, f.cfg)
}

// Config exposes the factory's current configuration (read-mostly; use
// ExtendSetup to mutate it).
func (f *Factory[I, R]) Config() Config[I, R] { return f.cfg }
