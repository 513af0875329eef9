// pkg/orgs/store.go
package orgs

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when no organization matches the lookup key.
	ErrNotFound = errors.New("organization not found")
	// ErrAudTaken is returned when an aud is already registered to a tenant.
	ErrAudTaken = errors.New("audience already registered")
)

// Store is the organization registry. GetByAud is the reverse lookup the
// identity provider adapter depends on; the set of valid external audiences
// is exactly the set of registered aud values.
type Store interface {
	GetByID(ctx context.Context, orgID string) (Organization, error)
	GetByAud(ctx context.Context, aud string) (Organization, error)
	Create(ctx context.Context, aud, name, hd, notes string) (Organization, error)
	Update(ctx context.Context, orgID string, patch Patch) (Organization, error)
	Delete(ctx context.Context, orgID string) error
	List(ctx context.Context) ([]Organization, error)
}
