package cache

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration is wrapped by every construction-time
	// rejection: negative bounds, a weigher without MaximumWeight,
	// MaximumSize combined with MaximumWeight, negative durations.
	ErrInvalidConfiguration = errors.New("cache: invalid configuration")

	// ErrNoLoader is returned by loading operations (Get, GetAll, Refresh)
	// when no Loader was configured in Options.
	ErrNoLoader = errors.New("cache: no loader configured")

	// ErrClosed is returned by loading operations after Close.
	ErrClosed = errors.New("cache: closed")

	// ErrLoadFailure is the errors.Is target for every *LoadError.
	ErrLoadFailure = errors.New("cache: load failed")
)

// LoadError wraps a loader failure with the key it was loading.
// Every waiter of the failed flight receives the same *LoadError;
// the underlying cause is available via errors.Unwrap, and
// errors.Is(err, ErrLoadFailure) reports true for any load failure.
type LoadError struct {
	Key any
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("cache: load for key %v failed: %v", e.Key, e.Err)
}

// Unwrap returns the loader's original error.
func (e *LoadError) Unwrap() error { return e.Err }

// Is matches the ErrLoadFailure sentinel so callers can classify load
// failures without knowing the key type.
func (e *LoadError) Is(target error) bool { return target == ErrLoadFailure }

// configErr builds an ErrInvalidConfiguration-wrapped error.
func configErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfiguration, fmt.Sprintf(format, args...))
}
