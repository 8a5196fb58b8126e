package effects

import "github.com/gopherflux/signals/src/signals"

// EffectId keys into a store's effect registry: function(input, ctx) ->
// stream of result, typed by input I and result R.
type EffectId[I, R any] struct{ signals.Token }

// NewEffectId mints a new effect identifier with the given debug name.
func NewEffectId[I, R any](name string) EffectId[I, R] {
	return EffectId[I, R]{signals.NewToken(signals.KindEffect, name)}
}
