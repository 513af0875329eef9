// pkg/middleware/auth_test.go
package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"incidentcmd/pkg/authn"
	"incidentcmd/pkg/claims"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi", true},
		{"bearer abc.def.ghi", "abc.def.ghi", true},
		{"BEARER abc.def.ghi", "abc.def.ghi", true},
		{"Bearer ", "", false},
		{"Basic dXNlcjpwdw==", "", false},
		{"abc.def.ghi", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		got, ok := BearerToken(req)
		assert.Equal(t, tc.ok, ok, tc.header)
		assert.Equal(t, tc.want, got, tc.header)
	}
}

func signedSession(t *testing.T, secret, issuer, orgID string) string {
	t.Helper()
	tok, err := jwt.NewBuilder().
		Issuer(issuer).
		Subject("user-1").
		Expiration(time.Now().Add(time.Hour)).
		Claim("org_id", orgID).
		Build()
	require.NoError(t, err)
	raw, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, []byte(secret)))
	require.NoError(t, err)
	return string(raw)
}

func TestSessionAuthAttachesClaims(t *testing.T) {
	v := authn.NewSymmetricVerifier([]byte("secret"), "incident-cmd-backend")
	var seen claims.Claims
	h := SessionAuth(zap.NewNop().Sugar(), v)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = claims.FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/volunteers/", nil)
	req.Header.Set("Authorization", "Bearer "+signedSession(t, "secret", "incident-cmd-backend", "org-42"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "org-42", seen.OrgID)
}

func TestSessionAuthRejectsInvalidToken(t *testing.T) {
	v := authn.NewSymmetricVerifier([]byte("secret"), "incident-cmd-backend")
	called := false
	h := SessionAuth(zap.NewNop().Sugar(), v)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	for _, header := range []string{"", "Bearer bogus", "Bearer " + signedSession(t, "wrong", "incident-cmd-backend", "org-42")} {
		req := httptest.NewRequest(http.MethodGet, "/volunteers/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, header)
		assert.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String(), header)
	}
	assert.False(t, called)
}

func TestSessionAuthSkipsPublicPaths(t *testing.T) {
	v := authn.NewSymmetricVerifier([]byte("secret"), "incident-cmd-backend")
	h := SessionAuth(zap.NewNop().Sugar(), v)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, path := range []string{"/healthz", "/metrics", "/.well-known/jwks.json"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestRequireOrg(t *testing.T) {
	h := RequireOrg(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/volunteers/", nil)
	req = req.WithContext(claims.WithContext(req.Context(), claims.Claims{OrgID: "org-42"}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/volunteers/", nil)
	req = req.WithContext(claims.WithContext(req.Context(), claims.Claims{}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"Missing organization scope"}`, rec.Body.String())
}
