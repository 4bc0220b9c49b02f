// Package logging provides structured logging helpers built on log/slog.
//
// It defines canonical attribute keys used across the application so that
// log lines from the storage, calendar, gigachat and telegram layers can be
// correlated by user id, service and operation.
package logging
