// pkg/orgs/memory_test.go
package orgs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore() Store {
	return NewMemoryStore(zap.NewNop().Sugar())
}

func strptr(s string) *string { return &s }

func TestMemoryStoreCreateAndLookup(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	org, err := s.Create(ctx, "client-42.apps.example", "Search and Rescue 42", "example.org", "seed tenant")
	require.NoError(t, err)
	require.NotEmpty(t, org.OrgID)

	byID, err := s.GetByID(ctx, org.OrgID)
	require.NoError(t, err)
	assert.Equal(t, org, byID)

	byAud, err := s.GetByAud(ctx, "client-42.apps.example")
	require.NoError(t, err)
	assert.Equal(t, org.OrgID, byAud.OrgID)

	_, err = s.GetByAud(ctx, "unregistered")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreAudUniqueness(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	_, err := s.Create(ctx, "client-42.apps.example", "First", "", "")
	require.NoError(t, err)

	_, err = s.Create(ctx, "client-42.apps.example", "Second", "", "")
	assert.ErrorIs(t, err, ErrAudTaken)

	other, err := s.Create(ctx, "client-43.apps.example", "Other", "", "")
	require.NoError(t, err)
	_, err = s.Update(ctx, other.OrgID, Patch{Aud: strptr("client-42.apps.example")})
	assert.ErrorIs(t, err, ErrAudTaken)
}

func TestMemoryStoreUpdatePartial(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	org, err := s.Create(ctx, "client-42.apps.example", "Old Name", "example.org", "")
	require.NoError(t, err)

	updated, err := s.Update(ctx, org.OrgID, Patch{Name: strptr("New Name")})
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)
	assert.Equal(t, "client-42.apps.example", updated.Aud)
	assert.Equal(t, "example.org", updated.HD)

	_, err = s.Update(ctx, "missing", Patch{Name: strptr("x")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreDelete(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	org, err := s.Create(ctx, "client-42.apps.example", "Gone Soon", "", "")
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, org.OrgID))

	_, err = s.GetByID(ctx, org.OrgID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, org.OrgID), ErrNotFound)
}

func TestMemoryStoreFromSeed(t *testing.T) {
	seed := `
- org_id: "org-42"
  aud: "client-42.apps.example"
  name: "Search and Rescue 42"
  hd: "example.org"
- aud: "client-43.apps.example"
  name: "County Fire"
`
	path := filepath.Join(t.TempDir(), "orgs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seed), 0o600))

	s, err := NewMemoryStoreFromSeed(zap.NewNop().Sugar(), path)
	require.NoError(t, err)

	org, err := s.GetByID(context.Background(), "org-42")
	require.NoError(t, err)
	assert.Equal(t, "Search and Rescue 42", org.Name)

	// Entries without an explicit id get one assigned.
	fire, err := s.GetByAud(context.Background(), "client-43.apps.example")
	require.NoError(t, err)
	assert.NotEmpty(t, fire.OrgID)

	all, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
