package service

import "errors"

var (
	// ErrWeakCredential is returned by Register when the password fails the policy.
	ErrWeakCredential = errors.New("weak credential")

	// ErrDuplicateIdentifier is returned by Register when the identifier is taken.
	ErrDuplicateIdentifier = errors.New("duplicate identifier")

	// ErrInvalidIdentifier is returned by Register for an empty identifier.
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// ErrUnknownIdentifier is returned by Login when no record exists.
	ErrUnknownIdentifier = errors.New("unknown identifier")

	// ErrWrongCredential is returned by Login when the password does not match.
	ErrWrongCredential = errors.New("wrong credential")

	// ErrMissingToken is returned by Authorize when no token was presented.
	ErrMissingToken = errors.New("missing token")

	// ErrInvalidToken is returned by Authorize for any token the codec rejects.
	ErrInvalidToken = errors.New("invalid token")

	// ErrStoreUnavailable wraps credential store failures.
	ErrStoreUnavailable = errors.New("credential store unavailable")

	// ErrConfiguration is returned for invalid wiring or missing secrets at startup.
	ErrConfiguration = errors.New("invalid configuration")
)

// IsDomainError reports whether err is one of the expected, user-facing outcomes
// (as opposed to an infrastructure failure).
func IsDomainError(err error) bool {
	switch {
	case errors.Is(err, ErrWeakCredential),
		errors.Is(err, ErrDuplicateIdentifier),
		errors.Is(err, ErrInvalidIdentifier),
		errors.Is(err, ErrUnknownIdentifier),
		errors.Is(err, ErrWrongCredential),
		errors.Is(err, ErrMissingToken),
		errors.Is(err, ErrInvalidToken):
		return true
	}
	return false
}
