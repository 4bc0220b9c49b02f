// Package storage persists per-user OAuth credential blobs in a Valkey
// (Redis-compatible) key-value store.
//
// Keys are derived deterministically from the Telegram user id as
// "user:<id>:token". The blob content is opaque to this package.
package storage
