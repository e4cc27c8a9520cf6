package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Type tags a signed token as an access or refresh token. The codec records
// the tag as a claim; routing on it is the caller's responsibility.
type Type string

const (
	// TypeAccess marks short-lived tokens that authorize API calls.
	TypeAccess Type = "access"
	// TypeRefresh marks longer-lived tokens gated by a revocable record.
	TypeRefresh Type = "refresh"
)

var (
	// ErrSignature indicates the signature check failed.
	ErrSignature = errors.New("token signature invalid")
	// ErrExpired indicates the expiry claim is in the past.
	ErrExpired = errors.New("token expired")
	// ErrMalformed indicates the token structure could not be decoded or
	// required claims are missing.
	ErrMalformed = errors.New("token malformed")
)

// Claims is the decoded payload of a signed token.
//
// Claims instances are value objects: Parse returns a fresh instance per call
// and never retains or mutates them.
type Claims struct {
	TokenType Type     `json:"type"`
	Email     string   `json:"email,omitempty"`
	Roles     []string `json:"roles,omitempty"`
	TokenID   string   `json:"jti,omitempty"`
	jwt.RegisteredClaims
}

// Config holds the codec's signing parameters, fixed at startup.
type Config struct {
	Secret []byte
	Issuer string
	Leeway time.Duration
}

// Codec signs and verifies tokens with a single symmetric key.
//
// Codec instances are immutable after construction and safe for concurrent
// use by any number of goroutines.
type Codec struct {
	config Config
}

// NewCodec validates the signing configuration and returns a ready codec.
func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.Secret) < 32 {
		return nil, errors.New("signing secret must be at least 32 bytes")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	return &Codec{config: cfg}, nil
}

// Extra carries the caller-supplied claims embedded alongside the registered
// claim set: denormalized identity for access tokens, the record identifier
// for refresh tokens.
type Extra struct {
	Email   string
	Roles   []string
	TokenID string
}

// Issue signs a token for subject expiring at expiresAt with the given type
// tag and extra claims.
func (c *Codec) Issue(subject string, typ Type, expiresAt time.Time, extra Extra) (string, error) {
	if subject == "" {
		return "", errors.New("empty token subject")
	}

	claims := Claims{
		TokenType: typ,
		Email:     extra.Email,
		Roles:     extra.Roles,
		TokenID:   extra.TokenID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	if c.config.Issuer != "" {
		claims.Issuer = c.config.Issuer
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.config.Secret)
}

// Parse verifies the signature and registered claims of tokenStr and returns
// the decoded claim set. Failures map to [ErrSignature], [ErrExpired], or
// [ErrMalformed]; no other errors escape.
func (c *Codec) Parse(tokenStr string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if c.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(c.config.Leeway))
	}
	if c.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(c.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	parsed, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return c.config.Secret, nil
	})
	if err != nil {
		return nil, classifyParseError(err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrMalformed
	}
	if claims.Subject == "" {
		return nil, ErrMalformed
	}
	switch claims.TokenType {
	case TypeAccess, TypeRefresh:
	default:
		return nil, ErrMalformed
	}

	return claims, nil
}

func classifyParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrSignature
	default:
		return ErrMalformed
	}
}
