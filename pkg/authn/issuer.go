// pkg/authn/issuer.go
package authn

import (
	"errors"
	"fmt"
	"time"

	"incidentcmd/pkg/config"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Signing modes.
const (
	ModeHS256 = "hs256"
	ModeRS256 = "rs256"
)

// SessionIssuer mints this system's own session tokens from a normalized
// identity. In rs256 mode the kid is derived from the key thumbprint so
// verifiers can select the right key without trial and error, and the
// public side is published via PublicKeySet (current + previous key, so
// in-flight tokens survive a rotation).
type SessionIssuer struct {
	issuer string
	ttl    time.Duration
	mode   string

	secret  []byte  // hs256
	signKey jwk.Key // rs256 private key, kid assigned
	prevPub jwk.Key // rs256 previous public key, optional

	now func() time.Time
}

// IssuerOption adjusts issuer construction.
type IssuerOption func(*SessionIssuer)

func WithIssuerClock(now func() time.Time) IssuerOption {
	return func(s *SessionIssuer) { s.now = now }
}

// NewSessionIssuer builds an issuer from deployment configuration.
func NewSessionIssuer(cfg config.Config, opts ...IssuerOption) (*SessionIssuer, error) {
	s := &SessionIssuer{
		issuer: cfg.SessionIssuer,
		ttl:    cfg.SessionTTL,
		mode:   cfg.SigningMode,
		now:    time.Now,
	}
	switch cfg.SigningMode {
	case ModeHS256:
		if cfg.SessionSecret == "" {
			return nil, newError(ErrCodeSigningKey, errors.New("SESSION_SECRET not set"))
		}
		s.secret = []byte(cfg.SessionSecret)
	case ModeRS256:
		if cfg.SessionPrivateKeyPEM == "" {
			return nil, newError(ErrCodeSigningKey, errors.New("SESSION_PRIVATE_KEY_PEM not set"))
		}
		key, err := jwk.ParseKey([]byte(cfg.SessionPrivateKeyPEM), jwk.WithPEM(true))
		if err != nil {
			return nil, newError(ErrCodeSigningKey, err)
		}
		if err := jwk.AssignKeyID(key); err != nil {
			return nil, newError(ErrCodeSigningKey, err)
		}
		_ = key.Set(jwk.AlgorithmKey, jwa.RS256)
		s.signKey = key
		if pem := cfg.PreviousPublicKeyPEM; pem != "" {
			prev, err := jwk.ParseKey([]byte(pem), jwk.WithPEM(true))
			if err != nil {
				return nil, newError(ErrCodeSigningKey, err)
			}
			if err := jwk.AssignKeyID(prev); err != nil {
				return nil, newError(ErrCodeSigningKey, err)
			}
			_ = prev.Set(jwk.AlgorithmKey, jwa.RS256)
			s.prevPub = prev
		}
	default:
		return nil, newError(ErrCodeSigningKey, fmt.Errorf("unknown signing mode %q", cfg.SigningMode))
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Issue mints a signed session token carrying the identity snapshot.
func (s *SessionIssuer) Issue(id UserIdentity, isAdmin bool) (string, error) {
	now := s.now()
	b := jwt.NewBuilder().
		Issuer(s.issuer).
		Subject(id.Sub).
		IssuedAt(now).
		Expiration(now.Add(s.ttl)).
		Claim("email", id.Email).
		Claim("name", id.Name).
		Claim("org_id", id.OrgID).
		Claim("org_name", id.OrgName).
		Claim("is_admin", isAdmin)
	if id.GivenName != "" {
		b = b.Claim("givenName", id.GivenName)
	}
	if id.FamilyName != "" {
		b = b.Claim("familyName", id.FamilyName)
	}
	if id.Picture != "" {
		b = b.Claim("picture", id.Picture)
	}
	if id.HD != "" {
		b = b.Claim("hd", id.HD)
	}
	tok, err := b.Build()
	if err != nil {
		return "", newError(ErrCodeSigningKey, err)
	}

	var signed []byte
	if s.mode == ModeHS256 {
		signed, err = jwt.Sign(tok, jwt.WithKey(jwa.HS256, s.secret))
	} else {
		signed, err = jwt.Sign(tok, jwt.WithKey(jwa.RS256, s.signKey))
	}
	if err != nil {
		return "", newError(ErrCodeSigningKey, err)
	}
	return string(signed), nil
}

// Mode reports the active signing mode.
func (s *SessionIssuer) Mode() string { return s.mode }

// Issuer reports the canonical issuer identity stamped into tokens.
func (s *SessionIssuer) Issuer() string { return s.issuer }

// PublicKeySet returns the publishable JWKS: the current public key plus
// the previous one when configured. Symmetric deployments publish nothing.
func (s *SessionIssuer) PublicKeySet() (jwk.Set, error) {
	if s.mode != ModeRS256 {
		return nil, newError(ErrCodeSigningKey, errors.New("no public keys in symmetric mode"))
	}
	pub, err := s.signKey.PublicKey()
	if err != nil {
		return nil, newError(ErrCodeSigningKey, err)
	}
	set := jwk.NewSet()
	if err := set.AddKey(pub); err != nil {
		return nil, newError(ErrCodeSigningKey, err)
	}
	if s.prevPub != nil {
		if err := set.AddKey(s.prevPub); err != nil {
			return nil, newError(ErrCodeSigningKey, err)
		}
	}
	return set, nil
}
