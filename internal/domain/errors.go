package domain

import "errors"

// Sentinel errors classified by the transport layer. Wrap with
// fmt.Errorf("%w: ...") and test with errors.Is.
var (
	// ErrValidation marks malformed or missing caller input. Never retried.
	ErrValidation = errors.New("validation failed")

	// ErrUnauthenticated marks a request without a caller identity.
	ErrUnauthenticated = errors.New("caller is not authenticated")

	// ErrNotFound marks a recipient whose profile does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNoDeliveryAddress marks a recipient that exists but has no push token.
	ErrNoDeliveryAddress = errors.New("no delivery address")
)
