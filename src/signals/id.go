package signals

import "github.com/google/uuid"

// Kind discriminates the four identifier flavors a store recognizes.
type Kind uint8

const (
	KindBehavior Kind = iota
	KindEvent
	KindState
	KindEffect
)

func (k Kind) String() string {
	switch k {
	case KindBehavior:
		return "behavior"
	case KindEvent:
		return "event"
	case KindState:
		return "state"
	case KindEffect:
		return "effect"
	default:
		return "unknown"
	}
}

// Token is the untyped identity behind every identifier. It is comparable
// and is never parsed by consumers — equality is by uuid, never by name.
// The debug name exists for diagnostics and logging only.
type Token struct {
	kind Kind
	uid  uuid.UUID
	name string
}

// NewToken mints a fresh, globally unique token. Exported so sibling
// packages (src/effects) can mint EffectId tokens without duplicating the
// uuid-minting logic.
func NewToken(kind Kind, name string) Token {
	return Token{kind: kind, uid: uuid.New(), name: name}
}

func (t Token) Kind() Kind   { return t.kind }
func (t Token) Name() string { return t.name }

func (t Token) String() string {
	if t.name != "" {
		return t.kind.String() + ":" + t.name
	}
	return t.kind.String() + ":" + t.uid.String()
}

// BehaviorId identifies a replaying, lazily-subscribed stream of T.
type BehaviorId[T any] struct{ Token }

// EventId identifies a non-replaying stream of T.
type EventId[T any] struct{ Token }

// StateId identifies a behavior whose current value is derived by folding
// events through a reducer.
type StateId[T any] struct{ Token }

// NewBehaviorId mints a new behavior identifier with the given debug name.
func NewBehaviorId[T any](name string) BehaviorId[T] {
	return BehaviorId[T]{NewToken(KindBehavior, name)}
}

// NewEventId mints a new event identifier with the given debug name.
func NewEventId[T any](name string) EventId[T] {
	return EventId[T]{NewToken(KindEvent, name)}
}

// NewStateId mints a new state identifier with the given debug name.
func NewStateId[T any](name string) StateId[T] {
	return StateId[T]{NewToken(KindState, name)}
}
