// Package token issues and verifies the HMAC-signed access and refresh
// tokens used by the authentication engine.
//
// # Design
//
// Tokens are standard three-segment JWTs signed with HMAC-SHA256 over a
// process-wide secret injected at construction. Claims carry the subject
// (account id), issue and expiry times, a type tag ("access" or "refresh"),
// denormalized email and role claims, and for refresh tokens the server-side
// record identifier (jti). Parse classifies failures into exactly three
// sentinels: [ErrSignature], [ErrExpired], [ErrMalformed].
//
// # Architecture boundaries
//
// This package owns signing and claim validation only. It does NOT enforce
// token-type routing (access vs refresh), consult revocation records, or
// touch any store — those responsibilities belong to the Engine and to the
// refresh registry.
//
// # What this package must NOT do
//
//   - Import authgate or any sibling package.
//   - Read signing keys from ambient/global state.
//   - Mutate shared state during Parse.
package token
