// pkg/authn/verifier.go
package authn

import (
	"context"
	"errors"
	"fmt"
	"time"

	"incidentcmd/pkg/claims"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const defaultLeeway = 3 * time.Second

// Verifier validates session tokens against a key cache (rs256) or a shared
// secret (hs256) and produces typed claims. Exactly one mode is active per
// deployment.
type Verifier struct {
	keys   *KeyCache
	secret []byte
	alg    jwa.SignatureAlgorithm
	issuer string
	leeway time.Duration
	now    func() time.Time
}

// VerifierOption adjusts verifier construction.
type VerifierOption func(*Verifier)

func WithLeeway(d time.Duration) VerifierOption {
	return func(v *Verifier) { v.leeway = d }
}

func WithVerifierClock(now func() time.Time) VerifierOption {
	return func(v *Verifier) { v.now = now }
}

// NewVerifier builds an asymmetric (RS256) verifier resolving keys through
// the given cache.
func NewVerifier(keys *KeyCache, issuer string, opts ...VerifierOption) *Verifier {
	v := &Verifier{keys: keys, alg: jwa.RS256, issuer: issuer, leeway: defaultLeeway, now: time.Now}
	for _, o := range opts {
		o(v)
	}
	return v
}

// NewSymmetricVerifier builds an HS256 verifier for closed deployments where
// issuer and verifier share a secret.
func NewSymmetricVerifier(secret []byte, issuer string, opts ...VerifierOption) *Verifier {
	v := &Verifier{secret: secret, alg: jwa.HS256, issuer: issuer, leeway: defaultLeeway, now: time.Now}
	for _, o := range opts {
		o(v)
	}
	return v
}

// Verify checks signature, issuer and expiry of raw and returns its claims.
func (v *Verifier) Verify(ctx context.Context, raw string) (claims.Claims, error) {
	msg, err := jws.Parse([]byte(raw))
	if err != nil {
		return claims.Claims{}, newError(ErrCodeMalformedToken, err)
	}
	sigs := msg.Signatures()
	if len(sigs) == 0 {
		return claims.Claims{}, newError(ErrCodeMalformedToken, errors.New("no signature present"))
	}
	hdr := sigs[0].ProtectedHeaders()
	if hdr.Algorithm() != v.alg {
		// "none" and any non-allow-listed algorithm land here.
		return claims.Claims{}, newError(ErrCodeInvalidSignature, fmt.Errorf("algorithm %q not allowed", hdr.Algorithm()))
	}

	var tok jwt.Token
	if v.alg == jwa.HS256 {
		tok, err = jwt.Parse([]byte(raw), jwt.WithKey(jwa.HS256, v.secret), jwt.WithValidate(false))
		if err != nil {
			return claims.Claims{}, newError(ErrCodeInvalidSignature, err)
		}
	} else {
		set, kerr := v.keys.Get(ctx)
		if kerr != nil {
			return claims.Claims{}, kerr
		}
		tok, err = verifyAgainstSet(raw, set, hdr.KeyID())
		if err != nil {
			return claims.Claims{}, err
		}
	}

	if tok.Expiration().IsZero() {
		return claims.Claims{}, newError(ErrCodeExpiredToken, errors.New("missing exp claim"))
	}
	verr := jwt.Validate(tok,
		jwt.WithClock(jwt.ClockFunc(v.now)),
		jwt.WithAcceptableSkew(v.leeway),
		jwt.WithIssuer(v.issuer),
	)
	switch {
	case verr == nil:
	case errors.Is(verr, jwt.ErrTokenExpired()):
		return claims.Claims{}, newError(ErrCodeExpiredToken, verr)
	case errors.Is(verr, jwt.ErrInvalidIssuer()):
		return claims.Claims{}, newError(ErrCodeIssuerMismatch, verr)
	default:
		return claims.Claims{}, newError(ErrCodeMalformedToken, verr)
	}

	return claims.FromToken(tok), nil
}

// verifyAgainstSet selects the key by kid when the header names one, and
// otherwise tries every key in order. A failure on one key is never fatal;
// multiple key versions are simultaneously valid during rotation.
func verifyAgainstSet(raw string, set jwk.Set, kid string) (jwt.Token, error) {
	if kid != "" {
		key, ok := set.LookupKeyID(kid)
		if !ok {
			return nil, newError(ErrCodeUnknownKey, fmt.Errorf("kid %q not in key set", kid))
		}
		tok, err := jwt.Parse([]byte(raw), jwt.WithKey(jwa.RS256, key), jwt.WithValidate(false))
		if err != nil {
			return nil, newError(ErrCodeInvalidSignature, err)
		}
		return tok, nil
	}
	var lastErr error
	for i := 0; i < set.Len(); i++ {
		key, ok := set.Key(i)
		if !ok {
			continue
		}
		tok, err := jwt.Parse([]byte(raw), jwt.WithKey(jwa.RS256, key), jwt.WithValidate(false))
		if err == nil {
			return tok, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errors.New("empty key set")
	}
	return nil, newError(ErrCodeInvalidSignature, lastErr)
}
