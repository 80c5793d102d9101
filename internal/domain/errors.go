package domain

import "errors"

// Error taxonomy shared across services and handlers. Handlers translate these
// into HTTP responses; repositories translate driver errors into them.
var (
	// ErrNotFound means the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrForbidden means the record exists but belongs to another user.
	// This is a hard authorization failure, never a silent no-op.
	ErrForbidden = errors.New("forbidden")

	// ErrUsernameTaken means a registration conflicted with an existing username.
	ErrUsernameTaken = errors.New("username already exists")

	// ErrInvalidCredentials is the single generic login failure. It deliberately
	// does not distinguish an unknown username from a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidInput means a required field was missing or a status value was
	// outside the known enumeration.
	ErrInvalidInput = errors.New("invalid input")
)
