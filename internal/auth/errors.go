package auth

import "errors"

var (
	// ErrDuplicateUsername reports a registration conflict. The same error
	// covers email collisions so registration does not reveal which field
	// already exists.
	ErrDuplicateUsername = errors.New("auth: username already registered")

	// ErrInvalidCredentials reports a failed login. Unknown usernames and
	// wrong passwords are indistinguishable.
	ErrInvalidCredentials = errors.New("auth: invalid username or password")

	// ErrInvalidToken reports refresh or revoke on a token that is unknown,
	// expired, or already revoked. The three causes are indistinguishable.
	ErrInvalidToken = errors.New("auth: invalid refresh token")

	// ErrNotFound is returned by stores for missing records.
	ErrNotFound = errors.New("auth: not found")

	// ErrInvalidInput reports a malformed request before any store access.
	ErrInvalidInput = errors.New("auth: invalid input")
)
