// Package service implements skygate's registration, login and token
// authorization flows on top of the credential store, the password hasher
// and the token codec.
//
// Domain failures are returned as sentinel errors (ErrWeakCredential,
// ErrDuplicateIdentifier, ...). Store failures surface as ErrStoreUnavailable
// and are never reported as a domain error. Transport concerns live in the
// api package.
package service
