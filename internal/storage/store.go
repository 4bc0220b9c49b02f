package storage

import (
	"context"
	"fmt"
)

// TokenStore persists one opaque credential blob per Telegram user id.
//
// The store never interprets the blob; serialization is owned by the calendar
// layer. All methods follow the same failure policy: underlying I/O errors
// are logged by the implementation and surface only as a false / absent
// result, never as an error value.
type TokenStore interface {
	// Save stores the credential blob for the user, overwriting any
	// previous value. Returns false if the write failed.
	Save(ctx context.Context, userID int64, blob []byte) bool

	// Get returns the stored blob, or false if none exists or the read failed.
	Get(ctx context.Context, userID int64) ([]byte, bool)

	// Delete removes the stored blob. Deleting a missing key is not an
	// error; returns false only on I/O failure.
	Delete(ctx context.Context, userID int64) bool

	// Exists reports whether a blob is stored for the user.
	Exists(ctx context.Context, userID int64) bool
}

// tokenKey derives the deterministic storage key for a user's credential.
func tokenKey(userID int64) string {
	return fmt.Sprintf("user:%d:token", userID)
}
