// Package token issues and verifies the bearer tokens handed out at login.
//
// Tokens are compact JWTs signed with HS256. The payload carries the
// identifier under the "email" claim plus "iat", so tokens minted by the
// previous backend verify unchanged. "exp" and "iss" are only present when
// a TTL or issuer is configured.
//
// Environment:
// - SKYGATE_SECRET_KEY: signing secret (required).
// - SKYGATE_TOKEN_TTL: optional lifetime, e.g. "24h". Zero disables expiry.
// - SKYGATE_TOKEN_ISSUER: optional "iss" value, enforced on verify when set.
package token
