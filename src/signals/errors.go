package signals

// ErrorCode discriminates the synchronous misuse errors a store rejects at
// the call site, mirroring src/driver/result.go's UsageError discriminator.
type ErrorCode uint8

const (
	ErrDuplicateSource ErrorCode = iota
	ErrDuplicateReducer
	ErrNestedLifecycle
	ErrUnknownIdentifier
)

// ConfigurationError is returned synchronously by store facade operations
// that reject a call outright — duplicate sources, duplicate reducers, and
// nested lifecycle registration. Grounded on src/driver/result.go's
// UsageError, which plays the same role for the Bolt driver's call-site
// misuse.
type ConfigurationError struct {
	Code    ErrorCode
	Message string
}

func (e *ConfigurationError) Error() string { return e.Message }
