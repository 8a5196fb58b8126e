package effects

import "fmt"

// EffectError is the payload carried on an orchestrator's errors event
// stream: the underlying error plus the input that produced it. Grounded
// on src/driver/result.go's DatabaseError, which pairs an error with the
// operation context that raised it.
type EffectError[I any] struct {
	Err        error
	ErrorInput I
	retriable  bool
}

func (e *EffectError[I]) Error() string {
	return fmt.Sprintf("effect error for input %v: %v", e.ErrorInput, e.Err)
}

func (e *EffectError[I]) Unwrap() error { return e.Err }

// Retriable reports whether the underlying error asked to be retried.
// Mirrors src/driver/result.go's DatabaseError.IsRetriable.
func (e *EffectError[I]) Retriable() bool { return e.retriable }

// newEffectError wraps err with input, marking it retriable if err (or
// something it wraps) implements Retriable.
func newEffectError[I any](err error, input I) *EffectError[I] {
	return &EffectError[I]{Err: err, ErrorInput: input, retriable: isRetriable(err)}
}
