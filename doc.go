// Package authgate provides an authentication engine with signed JWT access
// tokens, revocable refresh tokens, one-time email verification and password
// reset tokens, and progressive account lockout.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// authgate is the public surface. It exposes [Engine], [Builder], [Config],
// and value types (SessionResult, IntrospectionResult, MetricsSnapshot, etc.).
// Token signing lives in token/, refresh state in refresh/, one-time tokens in
// onetime/, hashing in password/, throttling in rate/. Account persistence is
// caller-supplied through [AccountStore]; accountstore/ ships the memory and
// Postgres implementations.
//
// # What this package must NOT do
//
//   - Expose Redis or Postgres clients, internal stores, or record encodings
//     in its public API.
//   - Perform I/O outside of Engine methods (construction via Builder is
//     allocation-only until Build).
//   - Reveal through its errors whether a signin failure was caused by an
//     unknown email or a wrong password.
//
// # Performance contract
//
// Introspect of an access token is the hot path. It must complete without a
// store round-trip. Signin, Refresh, and the one-time token flows are allowed
// one store round-trip per call plus the account read and write.
package authgate
