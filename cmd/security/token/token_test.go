package token

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"
)

func newTestCodec(t *testing.T, cfg Config, opts ...Option) *Codec {
	t.Helper()
	c, err := NewCodec(cfg, opts...)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return c
}

func TestNewCodec_SecretMissing(t *testing.T) {
	t.Parallel()

	if _, err := NewCodec(Config{}); !errors.Is(err, ErrSecretMissing) {
		t.Fatalf("expected ErrSecretMissing, got %v", err)
	}
}

func TestIssueVerify_RoundTrip(t *testing.T) {
	t.Parallel()

	c := newTestCodec(t, Config{Secret: "s3cret"})
	for _, id := range []string{"alice@example.com", "Bob@Example.com", "not-an-email", "ünïcode"} {
		tok, err := c.Issue(Claims{Identifier: id})
		if err != nil {
			t.Fatalf("Issue(%q): %v", id, err)
		}
		got, err := c.Verify(tok)
		if err != nil {
			t.Fatalf("Verify(%q): %v", id, err)
		}
		if got.Identifier != id {
			t.Fatalf("identifier mismatch: got %q want %q", got.Identifier, id)
		}
		if !got.ExpiresAt.IsZero() {
			t.Fatalf("expected no expiry without ttl, got %v", got.ExpiresAt)
		}
	}
}

func TestVerify_Idempotent(t *testing.T) {
	t.Parallel()

	c := newTestCodec(t, Config{Secret: "s3cret"})
	tok, err := c.Issue(Claims{Identifier: "alice@example.com"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	first, err := c.Verify(tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	second, err := c.Verify(tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if first != second {
		t.Fatalf("verify not idempotent: %+v vs %+v", first, second)
	}
}

func TestVerify_PayloadIsSourceCompatible(t *testing.T) {
	t.Parallel()

	c := newTestCodec(t, Config{Secret: "s3cret"})
	tok, err := c.Issue(Claims{Identifier: "alice@example.com"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	parts := strings.Split(tok, ".")
	if len(parts) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(parts))
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if !strings.Contains(string(payload), `"email":"alice@example.com"`) {
		t.Fatalf("expected email claim, got %s", payload)
	}
	if !strings.Contains(string(payload), `"iat":`) {
		t.Fatalf("expected iat claim, got %s", payload)
	}
	if strings.Contains(string(payload), `"exp"`) {
		t.Fatalf("unexpected exp claim, got %s", payload)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	t.Parallel()

	a := newTestCodec(t, Config{Secret: "secret-a"})
	b := newTestCodec(t, Config{Secret: "secret-b"})

	tok, err := a.Issue(Claims{Identifier: "alice@example.com"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := b.Verify(tok); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestVerify_Tampered(t *testing.T) {
	t.Parallel()

	c := newTestCodec(t, Config{Secret: "s3cret"})
	tok, err := c.Issue(Claims{Identifier: "alice@example.com"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	parts := strings.Split(tok, ".")
	forged := base64.RawURLEncoding.EncodeToString([]byte(`{"email":"mallory@example.com","iat":1}`))
	tampered := parts[0] + "." + forged + "." + parts[2]

	if _, err := c.Verify(tampered); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestVerify_AlgNoneRejected(t *testing.T) {
	t.Parallel()

	c := newTestCodec(t, Config{Secret: "s3cret"})
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))
	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"email":"alice@example.com"}`))

	if _, err := c.Verify(header + "." + payload + "."); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestVerify_Malformed(t *testing.T) {
	t.Parallel()

	c := newTestCodec(t, Config{Secret: "s3cret"})
	for _, tok := range []string{"", "abc", "a.b", "a.b.c", "!!!.###.$$$"} {
		if _, err := c.Verify(tok); !errors.Is(err, ErrMalformed) {
			t.Fatalf("Verify(%q): expected ErrMalformed, got %v", tok, err)
		}
	}
}

func TestVerify_Expired(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	c := newTestCodec(t, Config{Secret: "s3cret", TTL: time.Hour}, WithClock(clock))
	tok, err := c.Issue(Claims{Identifier: "alice@example.com"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	got, err := c.Verify(tok)
	if err != nil {
		t.Fatalf("Verify before expiry: %v", err)
	}
	if !got.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("expiry mismatch: %v", got.ExpiresAt)
	}

	later := newTestCodec(t, Config{Secret: "s3cret", TTL: time.Hour}, WithClock(func() time.Time {
		return now.Add(2 * time.Hour)
	}))
	if _, err := later.Verify(tok); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestVerify_NoTTLNeverExpires(t *testing.T) {
	t.Parallel()

	past := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)
	old := newTestCodec(t, Config{Secret: "s3cret"}, WithClock(func() time.Time { return past }))
	tok, err := old.Issue(Claims{Identifier: "alice@example.com"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	c := newTestCodec(t, Config{Secret: "s3cret"})
	got, err := c.Verify(tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !got.IssuedAt.Equal(past) {
		t.Fatalf("iat mismatch: %v", got.IssuedAt)
	}
}

func TestVerify_IssuerMismatch(t *testing.T) {
	t.Parallel()

	a := newTestCodec(t, Config{Secret: "s3cret", Issuer: "skygate-a"})
	b := newTestCodec(t, Config{Secret: "s3cret", Issuer: "skygate-b"})

	tok, err := a.Issue(Claims{Identifier: "alice@example.com"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	got, err := a.Verify(tok)
	if err != nil {
		t.Fatalf("Verify same issuer: %v", err)
	}
	if got.Issuer != "skygate-a" {
		t.Fatalf("issuer mismatch: %q", got.Issuer)
	}
	if _, err := b.Verify(tok); !errors.Is(err, ErrInvalidClaims) {
		t.Fatalf("expected ErrInvalidClaims, got %v", err)
	}
}

func TestIssue_EmptyIdentifier(t *testing.T) {
	t.Parallel()

	c := newTestCodec(t, Config{Secret: "s3cret"})
	if _, err := c.Issue(Claims{}); !errors.Is(err, ErrInvalidClaims) {
		t.Fatalf("expected ErrInvalidClaims, got %v", err)
	}
}

func TestFingerprint(t *testing.T) {
	t.Parallel()

	if Fingerprint("") != "" {
		t.Fatalf("expected empty fingerprint for empty token")
	}
	a := Fingerprint("token-a")
	if len(a) != fingerprintLen {
		t.Fatalf("unexpected length %d", len(a))
	}
	if a != Fingerprint("token-a") {
		t.Fatalf("fingerprint not stable")
	}
	if a == Fingerprint("token-b") {
		t.Fatalf("fingerprints collide")
	}
	if strings.Contains(a, "token") {
		t.Fatalf("fingerprint leaks input")
	}
}
