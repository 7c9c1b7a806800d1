package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

func TestJWTSignAndVerify(t *testing.T) {
	v := NewJWTVerifier("secret", "safehaven")
	tok, err := v.Sign(Identity{UID: "u1", Email: "a@example.com", Name: "Ada", EmailVerified: true}, time.Hour)
	if err != nil {
		t.Fatalf("Sign returned error: %v", err)
	}
	id, err := v.Verify(context.Background(), tok)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if id.UID != "u1" || id.Email != "a@example.com" || id.Name != "Ada" || !id.EmailVerified {
		t.Fatalf("unexpected identity: %+v", id)
	}
}

func TestJWTVerifyRejects(t *testing.T) {
	signer := NewJWTVerifier("secret", "safehaven")
	good, _ := signer.Sign(Identity{UID: "u1"}, time.Hour)

	if _, err := NewJWTVerifier("other", "safehaven").Verify(context.Background(), good); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", err)
	}
	if _, err := NewJWTVerifier("secret", "someone-else").Verify(context.Background(), good); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong issuer, got %v", err)
	}

	expired := NewJWTVerifier("secret", "")
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _ := expired.Sign(Identity{UID: "u1"}, time.Hour)
	if _, err := NewJWTVerifier("secret", "").Verify(context.Background(), old); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}

	if _, err := signer.Verify(context.Background(), "not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for garbage, got %v", err)
	}
}

func TestJWTVerifyRejectsOtherAlgorithms(t *testing.T) {
	claims := Claims{UID: "u1", RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := NewJWTVerifier("secret", "").Verify(context.Background(), tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for HS512, got %v", err)
	}
}

func TestJWTVerifyFallsBackToSubject(t *testing.T) {
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "sub-9", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}}
	tok, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	id, err := NewJWTVerifier("secret", "").Verify(context.Background(), tok)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if id.UID != "sub-9" {
		t.Fatalf("uid = %q, want sub-9", id.UID)
	}

	empty := Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}}
	tok, _ = jwt.NewWithClaims(jwt.SigningMethodHS256, empty).SignedString([]byte("secret"))
	if _, err := NewJWTVerifier("secret", "").Verify(context.Background(), tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken without subject, got %v", err)
	}
}
