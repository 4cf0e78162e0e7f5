package storage

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	billingapp "github.com/society/backend/internal/application/billing"
)

var _ billingapp.ObjectStorage = (*MemoryObjectStorage)(nil)

// MemoryObjectStorage keeps objects in process. Used when no bucket is
// configured and in tests.
type MemoryObjectStorage struct {
	mu      sync.RWMutex
	objects map[string]Object
	baseURL string
}

// Object is a stored blob
type Object struct {
	Data        []byte
	ContentType string
}

// NewMemoryObjectStorage creates an empty store whose URLs start with baseURL
func NewMemoryObjectStorage(baseURL string) *MemoryObjectStorage {
	if baseURL == "" {
		baseURL = "memory://statements"
	}
	return &MemoryObjectStorage{objects: make(map[string]Object), baseURL: baseURL}
}

func (m *MemoryObjectStorage) Upload(_ context.Context, key string, data []byte, contentType string) error {
	if key == "" {
		return errors.New("storage key is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = Object{Data: append([]byte(nil), data...), ContentType: contentType}
	return nil
}

func (m *MemoryObjectStorage) DownloadURL(_ context.Context, key string, expiresIn time.Duration) (string, time.Time, error) {
	m.mu.RLock()
	_, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return "", time.Time{}, errors.New("object not found: " + key)
	}
	expiresAt := time.Now().Add(expiresIn)
	return m.baseURL + "/" + url.PathEscape(key) + "?expires=" + url.QueryEscape(expiresAt.UTC().Format(time.RFC3339)), expiresAt, nil
}

// Get returns a stored object
func (m *MemoryObjectStorage) Get(key string) (Object, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.objects[key]
	return o, ok
}
