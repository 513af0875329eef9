// pkg/orgs/memory.go
package orgs

import (
	"context"
	"os"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type memStore struct {
	log  *zap.SugaredLogger
	mu   sync.RWMutex
	byID map[string]Organization
}

// NewMemoryStore builds an empty in-memory registry (dev and tests).
func NewMemoryStore(log *zap.SugaredLogger) Store {
	return &memStore{log: log, byID: map[string]Organization{}}
}

// NewMemoryStoreFromSeed loads organizations from a YAML seed file:
//
//	- org_id: "org-42"
//	  aud: "1234.apps.googleusercontent.com"
//	  name: "Search and Rescue"
func NewMemoryStoreFromSeed(log *zap.SugaredLogger, path string) (Store, error) {
	m := &memStore{log: log, byID: map[string]Organization{}}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []Organization
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.OrgID == "" {
			e.OrgID = uuid.NewString()
		}
		m.byID[e.OrgID] = e
	}
	log.Infow("organization seed loaded", "path", path, "count", len(entries))
	return m, nil
}

func (m *memStore) GetByID(ctx context.Context, orgID string) (Organization, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if o, ok := m.byID[orgID]; ok {
		return o, nil
	}
	return Organization{}, ErrNotFound
}

func (m *memStore) GetByAud(ctx context.Context, aud string) (Organization, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, o := range m.byID {
		if o.Aud == aud {
			return o, nil
		}
	}
	return Organization{}, ErrNotFound
}

func (m *memStore) Create(ctx context.Context, aud, name, hd, notes string) (Organization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.byID {
		if o.Aud == aud {
			return Organization{}, ErrAudTaken
		}
	}
	org := Organization{OrgID: uuid.NewString(), Aud: aud, Name: name, HD: hd, Notes: notes}
	m.byID[org.OrgID] = org
	return org, nil
}

func (m *memStore) Update(ctx context.Context, orgID string, patch Patch) (Organization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	org, ok := m.byID[orgID]
	if !ok {
		return Organization{}, ErrNotFound
	}
	if patch.Aud != nil {
		for id, o := range m.byID {
			if id != orgID && o.Aud == *patch.Aud {
				return Organization{}, ErrAudTaken
			}
		}
		org.Aud = *patch.Aud
	}
	if patch.Name != nil {
		org.Name = *patch.Name
	}
	if patch.HD != nil {
		org.HD = *patch.HD
	}
	if patch.Notes != nil {
		org.Notes = *patch.Notes
	}
	m.byID[orgID] = org
	return org, nil
}

func (m *memStore) Delete(ctx context.Context, orgID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[orgID]; !ok {
		return ErrNotFound
	}
	delete(m.byID, orgID)
	return nil
}

func (m *memStore) List(ctx context.Context) ([]Organization, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Organization, 0, len(m.byID))
	for _, o := range m.byID {
		out = append(out, o)
	}
	return out, nil
}
