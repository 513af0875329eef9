// pkg/claims/context.go
package claims

import "context"

type ctxClaimsKey struct{}

// WithContext stores verified claims for downstream handlers.
func WithContext(ctx context.Context, c Claims) context.Context {
	return context.WithValue(ctx, ctxClaimsKey{}, c)
}

// FromContext retrieves claims stored during authentication.
func FromContext(ctx context.Context) (Claims, bool) {
	if v := ctx.Value(ctxClaimsKey{}); v != nil {
		if c, ok := v.(Claims); ok {
			return c, true
		}
	}
	return Claims{}, false
}
