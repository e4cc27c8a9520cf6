// Package accountstore provides AccountStore implementations: an in-process
// store for tests and single-node setups, and a Postgres store on pgx.
//
// Both enforce email uniqueness on create and optimistic version checks on
// update, the contract the engine's lockout state machine depends on.
package accountstore
