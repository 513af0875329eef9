// pkg/orgs/model.go
package orgs

// Organization is an isolated customer account. All resource data is
// partitioned by OrgID. Aud is the external identity provider's client id
// registered to this tenant; at most one organization per aud.
type Organization struct {
	OrgID string `json:"org_id" yaml:"org_id"`
	Aud   string `json:"aud" yaml:"aud"`
	Name  string `json:"name" yaml:"name"`
	HD    string `json:"hd,omitempty" yaml:"hd,omitempty"`
	Notes string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Patch carries the updatable subset of an organization. Nil fields are
// left untouched.
type Patch struct {
	Aud   *string `json:"aud"`
	Name  *string `json:"name"`
	HD    *string `json:"hd"`
	Notes *string `json:"notes"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Aud == nil && p.Name == nil && p.HD == nil && p.Notes == nil
}
