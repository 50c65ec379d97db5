package manager

// Error taxonomy: small unexported types with constructors and predicates.
// Each implements StatusCode() so the HTTP layer can map without importing
// this package's internals.

// validationError rejects bad input before any engine call.
type validationError struct{ msg string }

func (e validationError) Error() string   { return e.msg }
func (e validationError) StatusCode() int { return 400 }

// ErrValidation constructs a validationError.
func ErrValidation(msg string) error { return validationError{msg: msg} }

// IsValidation reports whether err is a request-validation failure.
func IsValidation(err error) bool {
	_, ok := err.(validationError)
	return ok
}

// notFoundError signals a missing model for 404 mapping.
type notFoundError struct{ msg string }

func (e notFoundError) Error() string   { return e.msg }
func (e notFoundError) StatusCode() int { return 404 }

// ErrNotFound constructs a notFoundError.
func ErrNotFound(msg string) error { return notFoundError{msg: msg} }

// IsNotFound reports whether err indicates a missing model.
func IsNotFound(err error) bool {
	_, ok := err.(notFoundError)
	return ok
}

// networkError signals a remote-fetch failure for 502 mapping.
type networkError struct{ msg string }

func (e networkError) Error() string   { return e.msg }
func (e networkError) StatusCode() int { return 502 }

// ErrNetwork constructs a networkError.
func ErrNetwork(msg string) error { return networkError{msg: msg} }

// IsNetwork reports whether err indicates a network failure.
func IsNetwork(err error) bool {
	_, ok := err.(networkError)
	return ok
}

// resourceExhaustedError signals the backend ran out of memory or similar.
type resourceExhaustedError struct{ msg string }

func (e resourceExhaustedError) Error() string   { return e.msg }
func (e resourceExhaustedError) StatusCode() int { return 503 }

// ErrResourceExhausted constructs a resourceExhaustedError.
func ErrResourceExhausted(msg string) error { return resourceExhaustedError{msg: msg} }

// IsResourceExhausted reports whether err indicates an exhausted backend.
func IsResourceExhausted(err error) bool {
	_, ok := err.(resourceExhaustedError)
	return ok
}

// engineError wraps an opaque underlying engine failure.
type engineError struct{ msg string }

func (e engineError) Error() string   { return e.msg }
func (e engineError) StatusCode() int { return 500 }

// ErrEngine constructs an engineError.
func ErrEngine(msg string) error { return engineError{msg: msg} }

// IsEngine reports whether err is an opaque engine failure.
func IsEngine(err error) bool {
	_, ok := err.(engineError)
	return ok
}

// dependencyUnavailableError signals a missing runtime dependency (no engine
// configured, no model loaded) so the HTTP layer can return 503 instead of 500.
type dependencyUnavailableError struct{ msg string }

func (e dependencyUnavailableError) Error() string   { return e.msg }
func (e dependencyUnavailableError) StatusCode() int { return 503 }

// ErrDependencyUnavailable constructs a dependencyUnavailableError.
func ErrDependencyUnavailable(msg string) error { return dependencyUnavailableError{msg: msg} }

// IsDependencyUnavailable reports whether err indicates a missing/failed
// runtime dependency.
func IsDependencyUnavailable(err error) bool {
	_, ok := err.(dependencyUnavailableError)
	return ok
}
