// Package refresh maintains the revocable server-side records behind signed
// refresh tokens.
//
// # Design
//
// Each issued refresh token embeds a fresh jti claim that keys a persisted
// record {account, issued-at, expires-at, revoked}. Validation is stateless
// signature verification plus one record lookup; revocation flips the
// record's revoked flag, which is monotonic and never reversed. The same
// token identifier is kept across repeated renewals: there is no rotation,
// a token stays valid until its own expiry or an explicit revoke. That is a
// deliberate trade-off against token-family tracking, not an oversight.
//
// # Architecture boundaries
//
// The registry owns record lifecycle and token/record agreement. Account
// state (enabled, verified, roles) is NOT consulted here; the Engine checks
// it after validation.
//
// # What this package must NOT do
//
//   - Distinguish failure modes outward: every validation failure is
//     [ErrInvalid].
//   - Reuse a token identifier across records.
//   - Un-revoke a record.
package refresh
