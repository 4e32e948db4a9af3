// Package identity persists credential records for skygate.
//
// A record binds a unique identifier (the user's email as entered) to a
// password digest. Records are created once and never mutated. The Store
// contract pushes uniqueness into Insert so concurrent registrations of the
// same identifier cannot both succeed.
package identity
