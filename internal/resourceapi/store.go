// internal/resourceapi/store.go
package resourceapi

import (
	"context"
	"errors"
	"sync"
)

// ErrRecordNotFound is returned when no record matches (org, type, id).
var ErrRecordNotFound = errors.New("record not found")

// Record is an org-scoped document. The business schema is the client's
// concern; the backend only guarantees id and org partitioning.
type Record = map[string]any

// Store is the uniform record manager behind every resource type.
type Store interface {
	List(ctx context.Context, orgID, typ string) ([]Record, error)
	Get(ctx context.Context, orgID, typ, id string) (Record, error)
	Put(ctx context.Context, orgID, typ, id string, data Record) error
	Delete(ctx context.Context, orgID, typ, id string) error
}

// memStore is the dev/test fallback when DATABASE_URL is absent.
type memStore struct {
	mu   sync.RWMutex
	recs map[string]Record // key: orgID|typ|id
}

func NewMemoryStore() Store {
	return &memStore{recs: map[string]Record{}}
}

func memKey(orgID, typ, id string) string { return orgID + "|" + typ + "|" + id }

func (m *memStore) List(ctx context.Context, orgID, typ string) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	prefix := orgID + "|" + typ + "|"
	out := []Record{}
	for k, rec := range m.recs {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *memStore) Get(ctx context.Context, orgID, typ, id string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if rec, ok := m.recs[memKey(orgID, typ, id)]; ok {
		return rec, nil
	}
	return nil, ErrRecordNotFound
}

func (m *memStore) Put(ctx context.Context, orgID, typ, id string, data Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs[memKey(orgID, typ, id)] = data
	return nil
}

func (m *memStore) Delete(ctx context.Context, orgID, typ, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := memKey(orgID, typ, id)
	if _, ok := m.recs[key]; !ok {
		return ErrRecordNotFound
	}
	delete(m.recs, key)
	return nil
}
