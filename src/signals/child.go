package signals

import "github.com/gopherflux/signals/src/config"

// CreateChildStore returns a new store that shares st's logger and
// instruments but owns its own source table and subjects. Behavior lookups
// (GetBehavior) fall back to the parent when the child has not registered
// its own source; event lookups never delegate — every event stream is
// strictly local to the store it was dispatched against.
//
// Grounded on the teacher's layered Config-embeds-Config pattern
// (src/driver/config.go) reapplied to store nesting instead of config
// nesting.
func (st *Store) CreateChildStore() *Store {
	child := NewStoreWithConfig(&config.Config{
		Queue:         st.cfg.Queue,
		Observability: st.cfg.Observability,
		Logging:       st.cfg.Logging,
	})
	child.logger = st.logger
	child.inst = st.inst
	child.parent = st
	return child
}
