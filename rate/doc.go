// Package rate provides in-process token-bucket admission control keyed by
// client identity.
//
// # Design
//
// Each key owns a bucket of capacity C refilled at R tokens per minute.
// Refill is lazy: on every Allow the elapsed time since the bucket's last
// refill is converted to tokens, clamped to [0, C], and only then is one
// token deducted. Buckets are created on first observation and retained for
// the process lifetime; there is no eviction.
//
// # What this package must NOT do
//
//   - Share state across processes. The limiter is per-node.
//   - Block. Allow is a constant-time check under a per-bucket lock.
package rate
