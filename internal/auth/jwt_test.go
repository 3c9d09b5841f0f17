package auth

import (
	"errors"
	"testing"
	"time"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	token, err := NewSessionToken("secret", "issuer", time.Minute, "vet-1")
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	accountID, err := ParseSessionToken("secret", "issuer", token)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if accountID != "vet-1" {
		t.Fatalf("unexpected account id %q", accountID)
	}
}

func TestSessionTokenExpired(t *testing.T) {
	token, err := NewSessionToken("secret", "issuer", -time.Second, "vet-1")
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	_, err = ParseSessionToken("secret", "issuer", token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestSessionTokenWrongSecret(t *testing.T) {
	token, err := NewSessionToken("right-secret", "issuer", time.Minute, "vet-1")
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	_, err = ParseSessionToken("wrong-secret", "issuer", token)
	if !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestSessionTokenWrongIssuer(t *testing.T) {
	token, err := NewSessionToken("secret", "issuer-a", time.Minute, "vet-1")
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	_, err = ParseSessionToken("secret", "issuer-b", token)
	if !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestSessionTokenMalformed(t *testing.T) {
	_, err := ParseSessionToken("secret", "issuer", "not.a.jwt")
	if !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("expected ErrTokenMalformed, got %v", err)
	}
}
