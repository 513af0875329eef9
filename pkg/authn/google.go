// pkg/authn/google.go
package authn

import (
	"context"
	"errors"
	"fmt"
	"time"

	"incidentcmd/pkg/orgs"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"go.uber.org/zap"
)

const (
	defaultGoogleRetries = 3
	defaultGoogleBackoff = 500 * time.Millisecond
)

// Provider exchanges an external identity token for a normalized identity.
type Provider interface {
	Authenticate(ctx context.Context, token string) (*UserIdentity, error)
}

// GoogleProvider verifies Google ID tokens against Google's published JWKS
// and resolves the token audience to a registered organization. The set of
// acceptable audiences is dynamic: whatever auds the organization registry
// currently holds.
type GoogleProvider struct {
	log     *zap.SugaredLogger
	keys    *KeyCache
	orgs    orgs.Store
	issuers map[string]struct{}
	retries int
	backoff time.Duration
	leeway  time.Duration
	now     func() time.Time
	sleep   func(time.Duration)
}

// GoogleOption adjusts provider construction.
type GoogleOption func(*GoogleProvider)

func WithGoogleRetries(n int) GoogleOption {
	return func(p *GoogleProvider) { p.retries = n }
}

func WithGoogleBackoff(d time.Duration) GoogleOption {
	return func(p *GoogleProvider) { p.backoff = d }
}

func WithGoogleClock(now func() time.Time) GoogleOption {
	return func(p *GoogleProvider) { p.now = now }
}

func WithGoogleSleep(f func(time.Duration)) GoogleOption {
	return func(p *GoogleProvider) { p.sleep = f }
}

// NewGoogleProvider builds the adapter. allowedIssuers is Google's issuer
// pair; keys points at Google's JWKS endpoint.
func NewGoogleProvider(log *zap.SugaredLogger, keys *KeyCache, store orgs.Store, allowedIssuers []string, opts ...GoogleOption) *GoogleProvider {
	p := &GoogleProvider{
		log:     log,
		keys:    keys,
		orgs:    store,
		issuers: map[string]struct{}{},
		retries: defaultGoogleRetries,
		backoff: defaultGoogleBackoff,
		leeway:  defaultLeeway,
		now:     time.Now,
		sleep:   time.Sleep,
	}
	for _, iss := range allowedIssuers {
		p.issuers[iss] = struct{}{}
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Authenticate verifies the external token and resolves its tenant.
// The JWKS fetch is retried with linear backoff; Google is a third-party
// dependency and first-attempt transient failures are expected. After the
// retry budget is exhausted, authentication fails closed.
func (p *GoogleProvider) Authenticate(ctx context.Context, token string) (*UserIdentity, error) {
	if token == "" {
		return nil, newError(ErrCodeMalformedToken, errors.New("empty token"))
	}

	set, err := p.fetchKeys(ctx)
	if err != nil {
		return nil, err
	}

	tok, err := jwt.Parse([]byte(token), jwt.WithKeySet(set), jwt.WithValidate(false))
	if err != nil {
		return nil, newError(ErrCodeInvalidSignature, err)
	}
	verr := jwt.Validate(tok,
		jwt.WithClock(jwt.ClockFunc(p.now)),
		jwt.WithAcceptableSkew(p.leeway),
	)
	switch {
	case verr == nil:
	case errors.Is(verr, jwt.ErrTokenExpired()):
		return nil, newError(ErrCodeExpiredToken, verr)
	default:
		return nil, newError(ErrCodeMalformedToken, verr)
	}
	if _, ok := p.issuers[tok.Issuer()]; !ok {
		return nil, newError(ErrCodeIssuerMismatch, fmt.Errorf("issuer %q not allowed", tok.Issuer()))
	}

	org, aud, err := p.resolveOrg(ctx, tok.Audience())
	if err != nil {
		return nil, err
	}
	p.log.Infow("external identity resolved", "aud", aud, "org_id", org.OrgID)

	id := &UserIdentity{
		Sub:        tok.Subject(),
		Email:      stringClaim(tok, "email"),
		Name:       stringClaim(tok, "name"),
		GivenName:  stringClaim(tok, "given_name"),
		FamilyName: stringClaim(tok, "family_name"),
		Picture:    stringClaim(tok, "picture"),
		HD:         stringClaim(tok, "hd"),
		OrgID:      org.OrgID,
		OrgName:    org.Name,
	}
	return id, nil
}

func (p *GoogleProvider) fetchKeys(ctx context.Context) (set jwk.Set, err error) {
	for attempt := 1; attempt <= p.retries; attempt++ {
		set, err = p.keys.Get(ctx)
		if err == nil {
			return set, nil
		}
		p.log.Warnw("google jwks fetch failed", "attempt", attempt, "err", err)
		if attempt < p.retries {
			p.sleep(p.backoff * time.Duration(attempt))
		}
	}
	return nil, err
}

// resolveOrg maps one of the token's audience values to a registered
// organization. This is the multi-tenant boundary: an external token is
// only usable when its OAuth client id is registered to exactly one tenant.
func (p *GoogleProvider) resolveOrg(ctx context.Context, auds []string) (orgs.Organization, string, error) {
	for _, aud := range auds {
		if aud == "" {
			continue
		}
		org, err := p.orgs.GetByAud(ctx, aud)
		if err == nil {
			return org, aud, nil
		}
		if !errors.Is(err, orgs.ErrNotFound) {
			return orgs.Organization{}, "", err
		}
	}
	return orgs.Organization{}, "", newError(ErrCodeAudienceUnknown, fmt.Errorf("aud %v", auds))
}

func stringClaim(tok jwt.Token, name string) string {
	if v, ok := tok.Get(name); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
