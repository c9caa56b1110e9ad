package storage

import (
	"context"
	"sync"
)

type object struct {
	data        []byte
	contentType string
}

// Memory keeps objects in process; used for local runs and tests.
type Memory struct {
	urls URLBuilder

	mu      sync.RWMutex
	objects map[string]object
}

func NewMemory(urls URLBuilder) *Memory {
	return &Memory{urls: urls, objects: make(map[string]object)}
}

func (m *Memory) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if err := validKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	m.mu.Lock()
	m.objects[key] = object{data: cp, contentType: contentType}
	m.mu.Unlock()
	return nil
}

func (m *Memory) Get(ctx context.Context, key string) ([]byte, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	m.mu.RLock()
	obj, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return nil, "", ErrObjectNotFound
	}
	return obj.data, obj.contentType, nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) URL(key string) string {
	return m.urls.URL(key)
}

// Len reports the number of stored objects.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
