// Package calendar manages per-user Google Calendar access.
//
// Each user moves through an explicit lifecycle: disconnected, awaiting an
// authorization code, connected. Credentials are persisted per user through
// a storage.TokenStore and refreshed transparently; authenticated calendar
// API handles are cached in memory and invalidated whenever the credential
// changes or the user disconnects.
package calendar
