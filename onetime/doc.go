// Package onetime issues and consumes the single-use opaque tokens backing
// email verification and password reset.
//
// # Design
//
// A token is a 256-bit random base64url string mapped to a persisted record
// carrying the owning account, a purpose tag, and an expiry. Consumption is a
// single atomic lookup-and-delete: the record is checked for purpose match
// and non-expiry and removed in the same logical operation, so a token can
// never be redeemed twice, even under concurrent calls.
//
// # Architecture boundaries
//
// This package owns token generation and record lifecycle. It does NOT send
// email, mutate accounts, or decide what a successful consumption means —
// those responsibilities belong to the Engine.
//
// # What this package must NOT do
//
//   - Import authgate or any sibling package.
//   - Log or expose token strings.
//   - Allow a consumed record to be observed again.
package onetime
