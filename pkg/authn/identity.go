// pkg/authn/identity.go
package authn

// UserIdentity is the normalized result of a successful external
// authentication: provider attributes plus the resolved tenant.
type UserIdentity struct {
	Sub        string
	Email      string
	Name       string
	GivenName  string
	FamilyName string
	Picture    string
	HD         string
	OrgID      string
	OrgName    string
}
