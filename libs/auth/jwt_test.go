package auth

import (
	"strings"
	"testing"
	"time"
)

func TestSignAndVerifyHS256(t *testing.T) {
	claims := Claims{
		Sub:   "admin-1",
		Email: "admin@example.com",
		Role:  "admin",
		Iat:   time.Now().Unix(),
		Exp:   time.Now().Add(time.Hour).Unix(),
	}

	token, err := SignHS256(claims, "secret")
	if err != nil {
		t.Fatalf("SignHS256: %v", err)
	}

	got, err := ParseAndVerifyHS256(token, "secret")
	if err != nil {
		t.Fatalf("ParseAndVerifyHS256: %v", err)
	}
	if got.Sub != claims.Sub || got.Email != claims.Email || got.Role != claims.Role {
		t.Fatalf("claims mismatch: %+v", got)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := SignHS256(Claims{Sub: "u", Exp: time.Now().Add(time.Hour).Unix()}, "secret-a")
	if err != nil {
		t.Fatalf("SignHS256: %v", err)
	}
	if _, err := ParseAndVerifyHS256(token, "secret-b"); err == nil {
		t.Fatal("expected verification failure with wrong secret")
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	token, err := SignHS256(Claims{Sub: "u", Exp: time.Now().Add(-time.Minute).Unix()}, "secret")
	if err != nil {
		t.Fatalf("SignHS256: %v", err)
	}
	if _, err := ParseAndVerifyHS256(token, "secret"); err == nil {
		t.Fatal("expected expired token to fail")
	}
}

func TestVerifyRejectsTamperedPayload(t *testing.T) {
	token, err := SignHS256(Claims{Sub: "u", Role: "viewer", Exp: time.Now().Add(time.Hour).Unix()}, "secret")
	if err != nil {
		t.Fatalf("SignHS256: %v", err)
	}
	parts := strings.Split(token, ".")
	parts[1] = parts[1][:len(parts[1])-2] + "xx"
	if _, err := ParseAndVerifyHS256(strings.Join(parts, "."), "secret"); err == nil {
		t.Fatal("expected tampered token to fail")
	}
}
