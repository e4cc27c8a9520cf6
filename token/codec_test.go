package token

import (
	"errors"
	"strings"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

func newTestCodec(t *testing.T) *Codec {
	t.Helper()

	c, err := NewCodec(Config{Secret: []byte("0123456789abcdef0123456789abcdef")})
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	return c
}

func TestNewCodecRejectsShortSecret(t *testing.T) {
	if _, err := NewCodec(Config{Secret: []byte("too-short")}); err == nil {
		t.Fatal("expected short secret to be rejected")
	}
}

func TestIssueParseRoundTrip(t *testing.T) {
	c := newTestCodec(t)

	raw, err := c.Issue("acct-1", TypeAccess, time.Now().Add(time.Hour), Extra{
		Email: "alice@example.com",
		Roles: []string{"user", "admin"},
	})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := c.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "acct-1" {
		t.Fatalf("subject = %q, want acct-1", claims.Subject)
	}
	if claims.TokenType != TypeAccess {
		t.Fatalf("type = %q, want access", claims.TokenType)
	}
	if claims.Email != "alice@example.com" {
		t.Fatalf("email = %q", claims.Email)
	}
	if len(claims.Roles) != 2 || claims.Roles[0] != "user" || claims.Roles[1] != "admin" {
		t.Fatalf("roles = %v", claims.Roles)
	}
	if claims.TokenID != "" {
		t.Fatalf("unexpected jti on access token: %q", claims.TokenID)
	}
}

func TestRefreshTokenCarriesTokenID(t *testing.T) {
	c := newTestCodec(t)

	raw, err := c.Issue("acct-1", TypeRefresh, time.Now().Add(time.Hour), Extra{TokenID: "jti-123"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := c.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.TokenType != TypeRefresh {
		t.Fatalf("type = %q, want refresh", claims.TokenType)
	}
	if claims.TokenID != "jti-123" {
		t.Fatalf("jti = %q, want jti-123", claims.TokenID)
	}
}

func TestParseExpiredToken(t *testing.T) {
	c := newTestCodec(t)

	raw, err := c.Issue("acct-1", TypeAccess, time.Now().Add(-time.Second), Extra{})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := c.Parse(raw); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestParseTamperedSignature(t *testing.T) {
	c := newTestCodec(t)

	raw, err := c.Issue("acct-1", TypeAccess, time.Now().Add(time.Hour), Extra{})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token framing: %d segments", len(parts))
	}
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	if _, err := c.Parse(tampered); !errors.Is(err, ErrSignature) {
		t.Fatalf("expected ErrSignature, got %v", err)
	}
}

func TestParseForeignKey(t *testing.T) {
	c := newTestCodec(t)

	other, err := NewCodec(Config{Secret: []byte("ffffffffffffffffffffffffffffffff")})
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	raw, err := other.Issue("acct-1", TypeAccess, time.Now().Add(time.Hour), Extra{})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := c.Parse(raw); !errors.Is(err, ErrSignature) {
		t.Fatalf("expected ErrSignature, got %v", err)
	}
}

func TestParseGarbage(t *testing.T) {
	c := newTestCodec(t)

	for _, input := range []string{"", "not-a-token", "a.b", "a.b.c.d"} {
		if _, err := c.Parse(input); !errors.Is(err, ErrMalformed) {
			t.Fatalf("Parse(%q): expected ErrMalformed, got %v", input, err)
		}
	}
}

func TestParseRejectsUnknownTypeTag(t *testing.T) {
	c := newTestCodec(t)

	claims := Claims{
		TokenType: Type("session"),
		RegisteredClaims: gjwt.RegisteredClaims{
			Subject:   "acct-1",
			ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	raw, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims).SignedString([]byte("0123456789abcdef0123456789abcdef"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := c.Parse(raw); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestParseRejectsMissingExpiry(t *testing.T) {
	c := newTestCodec(t)

	claims := Claims{
		TokenType:        TypeAccess,
		RegisteredClaims: gjwt.RegisteredClaims{Subject: "acct-1"},
	}
	raw, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims).SignedString([]byte("0123456789abcdef0123456789abcdef"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := c.Parse(raw); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}
