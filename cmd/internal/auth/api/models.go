package authapi

import "time"

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token   string `json:"token"`
	Message string `json:"message"`
}

type meResponse struct {
	Email     string     `json:"email"`
	IssuedAt  *time.Time `json:"issued_at,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// User-facing messages. The wording matches what deployed clients match on.
const (
	msgRegistered       = "User registered successfully"
	msgEmailExists      = "Email already exists"
	msgEmailRequired    = "Email is required"
	msgLoginOK          = "Login successful "
	msgInvalidEmail     = "Invalid email"
	msgWrongPassword    = "Wrong password"
	msgInvalidCreds     = "Invalid credentials"
	msgTokenRequired    = "Token is required"
	msgTokenInvalid     = "Invalid or expired token"
	msgInvalidBody      = "invalid request body"
	msgUnavailable      = "service temporarily unavailable"
	msgInternal         = "internal error"
	msgDashboardReady   = "Access is granted and API is up and responding with 200!"
	msgProducerReady    = "API is up and responding with 200!"
	msgProducerNoMarker = "Access granted & Producer completed but did not output expected message."
	msgDashboardFailed  = "Access granted but Producer exited with errors"
	msgProducerFailed   = "Producer exited with errors"
)
