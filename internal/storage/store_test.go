package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenKey(t *testing.T) {
	tests := []struct {
		userID int64
		want   string
	}{
		{userID: 1, want: "user:1:token"},
		{userID: 123456789, want: "user:123456789:token"},
		{userID: -1, want: "user:-1:token"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tokenKey(tt.userID))
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	assert.False(t, store.Exists(ctx, 42))
	_, ok := store.Get(ctx, 42)
	assert.False(t, ok)

	require.True(t, store.Save(ctx, 42, []byte(`{"access_token":"abc"}`)))
	assert.True(t, store.Exists(ctx, 42))

	blob, ok := store.Get(ctx, 42)
	require.True(t, ok)
	assert.Equal(t, `{"access_token":"abc"}`, string(blob))

	// Other users are unaffected.
	assert.False(t, store.Exists(ctx, 43))
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	store.Save(ctx, 7, []byte("blob"))
	require.True(t, store.Delete(ctx, 7))
	assert.False(t, store.Exists(ctx, 7))

	// Deleting a missing key is not an error.
	assert.True(t, store.Delete(ctx, 7))
}

func TestMemoryStoreCopiesBlob(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	blob := []byte("original")
	store.Save(ctx, 1, blob)
	blob[0] = 'X'

	got, ok := store.Get(ctx, 1)
	require.True(t, ok)
	assert.Equal(t, "original", string(got))
}

func TestMemoryStoreConcurrentUsers(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	done := make(chan struct{})
	for i := int64(0); i < 10; i++ {
		go func(id int64) {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				store.Save(ctx, id, []byte{byte(id)})
				store.Get(ctx, id)
				store.Exists(ctx, id)
			}
		}(i)
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	assert.Equal(t, 10, store.Len())
}
