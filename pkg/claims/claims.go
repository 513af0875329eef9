// pkg/claims/claims.go
package claims

import (
	"time"

	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Claims is the decoded payload of a verified session token. It is built
// once per request and never mutated afterwards. OrgID and ExpiresAt are
// the required subset; everything else is optional display data.
type Claims struct {
	Sub        string
	Email      string
	Name       string
	GivenName  string
	FamilyName string
	Picture    string
	HD         string // Google hosted-domain hint; never an authorization key
	OrgID      string
	OrgName    string
	IsAdmin    bool
	Issuer     string
	ExpiresAt  time.Time
}

// HasOrg reports whether the claims carry a tenant scope.
func (c Claims) HasOrg() bool { return c.OrgID != "" }

// FromToken maps a verified jwx token onto the typed Claims record.
func FromToken(tok jwt.Token) Claims {
	c := Claims{
		Sub:       tok.Subject(),
		Issuer:    tok.Issuer(),
		ExpiresAt: tok.Expiration(),
	}
	c.Email = stringClaim(tok, "email")
	c.Name = stringClaim(tok, "name")
	c.GivenName = stringClaim(tok, "givenName")
	c.FamilyName = stringClaim(tok, "familyName")
	c.Picture = stringClaim(tok, "picture")
	c.HD = stringClaim(tok, "hd")
	c.OrgID = stringClaim(tok, "org_id")
	c.OrgName = stringClaim(tok, "org_name")
	if v, ok := tok.Get("is_admin"); ok {
		if b, ok := v.(bool); ok {
			c.IsAdmin = b
		}
	}
	return c
}

func stringClaim(tok jwt.Token, name string) string {
	if v, ok := tok.Get(name); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
