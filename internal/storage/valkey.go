package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/valkey-io/valkey-go"

	"github.com/gigacal/gigacal/internal/logging"
)

// ValkeyStore is a TokenStore backed by a Valkey (or Redis) server.
type ValkeyStore struct {
	client valkey.Client
	logger *slog.Logger
}

// ValkeyConfig holds connection settings for the Valkey server.
type ValkeyConfig struct {
	// URL is the server address as host:port (e.g. "localhost:6379").
	URL string

	// Password is the optional password for authentication.
	Password string

	// DB is the database number to select.
	DB int
}

// NewValkeyStore connects to the Valkey server and returns a store.
// Connection failure is the one place where an error is returned: without a
// reachable store the bot cannot persist any credentials, so startup
// should fail loudly rather than degrade silently.
func NewValkeyStore(cfg ValkeyConfig, logger *slog.Logger) (*ValkeyStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{cfg.URL},
		Password:    cfg.Password,
		SelectDB:    cfg.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to valkey at %s: %w", cfg.URL, err)
	}

	logger.Info("connected to valkey", "addr", cfg.URL, "db", cfg.DB)

	return &ValkeyStore{
		client: client,
		logger: logging.WithService(logger, "storage"),
	}, nil
}

// Save stores the credential blob for the user.
func (s *ValkeyStore) Save(ctx context.Context, userID int64, blob []byte) bool {
	key := tokenKey(userID)
	err := s.client.Do(ctx, s.client.B().Set().Key(key).Value(string(blob)).Build()).Error()
	if err != nil {
		s.logger.Error("failed to save token", logging.UserID(userID), logging.Err(err))
		return false
	}
	s.logger.Info("token saved", logging.UserID(userID))
	return true
}

// Get returns the stored credential blob for the user.
func (s *ValkeyStore) Get(ctx context.Context, userID int64) ([]byte, bool) {
	key := tokenKey(userID)
	val, err := s.client.Do(ctx, s.client.B().Get().Key(key).Build()).ToString()
	if err != nil {
		if !valkey.IsValkeyNil(err) {
			s.logger.Error("failed to get token", logging.UserID(userID), logging.Err(err))
		}
		return nil, false
	}
	return []byte(val), true
}

// Delete removes the stored credential blob for the user.
func (s *ValkeyStore) Delete(ctx context.Context, userID int64) bool {
	key := tokenKey(userID)
	err := s.client.Do(ctx, s.client.B().Del().Key(key).Build()).Error()
	if err != nil {
		s.logger.Error("failed to delete token", logging.UserID(userID), logging.Err(err))
		return false
	}
	s.logger.Info("token deleted", logging.UserID(userID))
	return true
}

// Exists reports whether a credential blob is stored for the user.
func (s *ValkeyStore) Exists(ctx context.Context, userID int64) bool {
	key := tokenKey(userID)
	n, err := s.client.Do(ctx, s.client.B().Exists().Key(key).Build()).AsInt64()
	if err != nil {
		s.logger.Error("failed to check token existence", logging.UserID(userID), logging.Err(err))
		return false
	}
	return n > 0
}

// Close releases the underlying Valkey connection.
func (s *ValkeyStore) Close() {
	s.client.Close()
}
