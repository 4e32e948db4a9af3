// Package password provides the credential policy and password hashing used by skygate.
//
// It contains:
// - IsValid, the registration password policy (pure predicate)
// - Hasher implementations for bcrypt (default) and Argon2id (PHC string format)
// - MultiHasher, which hashes with the configured algorithm and verifies any supported digest
//
// Security notes:
// - Digests are treated as untrusted input during Verify. Malformed digests verify as false.
// - Argon2id verification refuses parameters that exceed the configured bounds.
package password
