package vault

import (
	"context"
	"fmt"
	"sync"
)

// MemoryBackend is an in-memory Backend for tests. InTx takes a snapshot
// and restores it if fn fails, matching the all-or-nothing contract of
// the sqlite backend.
type MemoryBackend struct {
	mu      sync.Mutex
	secure  map[string][]byte
	scalars map[string][]byte
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		secure:  make(map[string][]byte),
		scalars: make(map[string][]byte),
	}
}

func (m *MemoryBackend) Secure() Store  { return &memStore{b: m, items: &m.secure} }
func (m *MemoryBackend) Scalars() Store { return &memStore{b: m, items: &m.scalars} }

func (m *MemoryBackend) InTx(ctx context.Context, fn func(Backend) error) error {
	m.mu.Lock()
	secureSnap := cloneSlots(m.secure)
	scalarSnap := cloneSlots(m.scalars)
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.secure = secureSnap
		m.scalars = scalarSnap
		m.mu.Unlock()
		return err
	}
	return nil
}

func cloneSlots(src map[string][]byte) map[string][]byte {
	dst := make(map[string][]byte, len(src))
	for k, v := range src {
		dst[k] = append([]byte(nil), v...)
	}
	return dst
}

type memStore struct {
	b     *MemoryBackend
	items *map[string][]byte
}

func (s *memStore) Get(_ context.Context, slot string) ([]byte, error) {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	v, ok := (*s.items)[slot]
	if !ok {
		return nil, fmt.Errorf("%s: %w", slot, ErrNotSet)
	}
	return append([]byte(nil), v...), nil
}

func (s *memStore) Set(_ context.Context, slot string, value []byte) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	(*s.items)[slot] = append([]byte(nil), value...)
	return nil
}

func (s *memStore) Delete(_ context.Context, slot string) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	delete(*s.items, slot)
	return nil
}
