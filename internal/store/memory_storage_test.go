package store

import (
	"context"
	"testing"
	"time"

	"github.com/gofiber/storage/memory/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRecord struct {
	ID     string `json:"id"     redis:"id"`
	UserID uint   `json:"userID" redis:"user_id"`
}

func newTestStore(t *testing.T) Store[testRecord] {
	t.Helper()
	mem := memory.New(memory.Config{GCInterval: time.Minute})
	t.Cleanup(func() { mem.Close() })
	return New[testRecord](NewMemoryStorage(mem), "t:")
}

func TestMemoryStorage_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Set(ctx, "abc", testRecord{ID: "abc", UserID: 7}, time.Minute))

	got, err := s.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, testRecord{ID: "abc", UserID: 7}, got)

	require.NoError(t, s.Delete(ctx, "abc"))
	assert.ErrorIs(t, s.Delete(ctx, "abc"), ErrNotFound)

	_, err = s.Get(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStorage_KeysArePrefixed(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	t.Cleanup(func() { mem.Close() })
	storage := NewMemoryStorage(mem)
	s := New[testRecord](storage, "p:")

	require.NoError(t, s.Set(ctx, "k", testRecord{ID: "k"}, time.Minute))

	var rec testRecord
	require.NoError(t, storage.Get(ctx, "p:k", &rec))
	assert.Equal(t, "k", rec.ID)
	assert.ErrorIs(t, storage.Get(ctx, "k", &rec), ErrNotFound)
}

func TestMemoryStorage_Expires(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Set(ctx, "short", testRecord{ID: "short"}, time.Second))
	time.Sleep(2500 * time.Millisecond)

	_, err := s.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrNotFound)
}
