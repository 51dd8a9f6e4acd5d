package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/storage/memory/v2"
)

// MemoryStorage is the single-process fallback used when no redis is
// configured. Values are kept JSON encoded in a gofiber memory storage.
type MemoryStorage struct {
	mu      sync.Mutex
	storage *memory.Storage
}

func (s *MemoryStorage) Conn() *memory.Storage {
	return s.storage
}

func (s *MemoryStorage) Get(ctx context.Context, key string, val any) error {
	data, err := s.storage.Get(key)
	if err != nil {
		return err
	}
	if data == nil {
		return ErrNotFound
	}
	return json.Unmarshal(data, val)
}

func (s *MemoryStorage) Set(ctx context.Context, key string, val any, expiresIn time.Duration) error {
	data, err := json.Marshal(val)
	if err != nil {
		return err
	}
	if expiresIn < 0 {
		expiresIn = 0
	}
	return s.storage.Set(key, data, expiresIn)
}

func (s *MemoryStorage) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.storage.Get(key)
	if err != nil {
		return err
	}
	if data == nil {
		return ErrNotFound
	}
	return s.storage.Delete(key)
}

func NewMemoryStorage(storage *memory.Storage) *MemoryStorage {
	return &MemoryStorage{storage: storage}
}
