package domain

import "errors"

var (
	// ErrInvalidArgument is returned for missing or malformed identifiers.
	// Not retryable.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound is returned when an appointment does not exist or is not
	// owned by the caller. Not retryable.
	ErrNotFound = errors.New("not found")

	// ErrUnavailable is returned when the store or network fails.
	// Every mutation is an idempotent upsert, so callers may retry.
	ErrUnavailable = errors.New("unavailable")
)

// ErrorKind names an error class of the taxonomy.
type ErrorKind string

const (
	KindNone            ErrorKind = ""
	KindInvalidArgument ErrorKind = "invalid_argument"
	KindNotFound        ErrorKind = "not_found"
	KindUnavailable     ErrorKind = "unavailable"
	KindUnknown         ErrorKind = "unknown"
)

// String returns the wire name of the kind.
func (k ErrorKind) String() string {
	return string(k)
}

// KindOf classifies err into the taxonomy.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrInvalidArgument):
		return KindInvalidArgument
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrUnavailable):
		return KindUnavailable
	default:
		return KindUnknown
	}
}

// Retryable reports whether retrying the failed call is safe and useful.
func Retryable(err error) bool {
	return KindOf(err) == KindUnavailable
}
