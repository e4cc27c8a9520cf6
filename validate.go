package authgate

import (
	"net/mail"
	"strings"
	"unicode"
)

// ValidateEmail checks shape only; deliverability is not this layer's
// concern. Returns a [ValidationError] on failure.
func ValidateEmail(email string) error {
	if email == "" {
		return &ValidationError{Field: "email", Reason: "required"}
	}
	if len(email) > 254 {
		return &ValidationError{Field: "email", Reason: "too long"}
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return &ValidationError{Field: "email", Reason: "malformed"}
	}
	return nil
}

// ValidatePassword enforces the fixed pattern policy: at least 8
// characters with one uppercase letter, one digit, and one symbol. Returns
// a [ValidationError] on failure.
func ValidatePassword(plain string) error {
	if len(plain) < 8 {
		return &ValidationError{Field: "password", Reason: "must be at least 8 characters"}
	}

	var hasUpper, hasDigit, hasSymbol bool
	for _, r := range plain {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSymbol = true
		}
	}

	switch {
	case !hasUpper:
		return &ValidationError{Field: "password", Reason: "must contain an uppercase letter"}
	case !hasDigit:
		return &ValidationError{Field: "password", Reason: "must contain a digit"}
	case !hasSymbol:
		return &ValidationError{Field: "password", Reason: "must contain a symbol"}
	}
	return nil
}

// normalizeEmail is the canonical form used for lookups and uniqueness.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
