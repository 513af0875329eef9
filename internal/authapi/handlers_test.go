// internal/authapi/handlers_test.go
package authapi

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"incidentcmd/pkg/authn"
	"incidentcmd/pkg/authz"
	"incidentcmd/pkg/config"
	"incidentcmd/pkg/orgs"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const flagModule = `
package flags

default admin_access := false

admin_access {
	input.user.email == "ops@example.org"
}

default super_admin_access := false

super_admin_access {
	input.user.email == "root@example.org"
}
`

type stubProvider struct {
	identity *authn.UserIdentity
	err      error
}

func (s stubProvider) Authenticate(ctx context.Context, token string) (*authn.UserIdentity, error) {
	return s.identity, s.err
}

type testEnv struct {
	app    *App
	cfg    config.Config
	store  orgs.Store
	issuer *authn.SessionIssuer
	org    orgs.Organization
}

func newTestEnv(t *testing.T, provider authn.Provider) *testEnv {
	t.Helper()
	log := zap.NewNop().Sugar()
	cfg := config.Config{
		SessionIssuer: "incident-cmd-backend",
		SessionTTL:    time.Hour,
		SigningMode:   authn.ModeHS256,
		SessionSecret: "test-secret",
	}
	store := orgs.NewMemoryStore(log)
	org, err := store.Create(context.Background(), "client-42.apps.example", "Search and Rescue 42", "example.org", "")
	require.NoError(t, err)

	issuer, err := authn.NewSessionIssuer(cfg)
	require.NoError(t, err)
	verifier := authn.NewSymmetricVerifier([]byte(cfg.SessionSecret), cfg.SessionIssuer)
	gate := authz.New(log, flagModule)

	providers := map[string]authn.Provider{}
	if provider != nil {
		providers["google"] = provider
	}
	app := New(log, cfg, store, issuer, verifier, gate, providers)
	return &testEnv{app: app, cfg: cfg, store: store, issuer: issuer, org: org}
}

func (e *testEnv) sessionToken(t *testing.T, email string) string {
	t.Helper()
	raw, err := e.issuer.Issue(authn.UserIdentity{
		Sub:     "sub-" + email,
		Email:   email,
		Name:    "Test User",
		OrgID:   e.org.OrgID,
		OrgName: e.org.Name,
	}, false)
	require.NoError(t, err)
	return raw
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestLoginIssuesVerifiableSession(t *testing.T) {
	env := newTestEnv(t, nil)
	env.app.providers["google"] = stubProvider{identity: &authn.UserIdentity{
		Sub:     "google-sub-1",
		Email:   "responder@example.org",
		Name:    "Casey Responder",
		OrgID:   env.org.OrgID,
		OrgName: env.org.Name,
		HD:      "example.org",
	}}
	h := env.app.Handler()

	rec := doJSON(t, h, http.MethodPost, "/auth/login", "", map[string]string{
		"provider": "google",
		"token":    "external-id-token",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Token string `json:"token"`
		User  struct {
			Email   string `json:"email"`
			OrgID   string `json:"org_id"`
			OrgName string `json:"org_name"`
			IsAdmin bool   `json:"is_admin"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, env.org.OrgID, resp.User.OrgID)
	assert.Equal(t, "responder@example.org", resp.User.Email)
	assert.False(t, resp.User.IsAdmin)

	// The issued token passes the same verifier the protected routes use.
	v := authn.NewSymmetricVerifier([]byte(env.cfg.SessionSecret), env.cfg.SessionIssuer)
	c, err := v.Verify(context.Background(), resp.Token)
	require.NoError(t, err)
	assert.Equal(t, env.org.OrgID, c.OrgID)

	// The raw response never leaks the provider subject.
	assert.NotContains(t, rec.Body.String(), "google-sub-1")
}

func TestLoginStampsAdminFlag(t *testing.T) {
	env := newTestEnv(t, stubProvider{identity: &authn.UserIdentity{
		Sub:     "google-sub-2",
		Email:   "ops@example.org",
		OrgID:   "org-42",
		OrgName: "Search and Rescue 42",
	}})
	rec := doJSON(t, env.app.Handler(), http.MethodPost, "/auth/login", "", map[string]string{"token": "x"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		User struct {
			IsAdmin bool `json:"is_admin"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.User.IsAdmin)
}

func TestLoginUnknownAudienceMessage(t *testing.T) {
	env := newTestEnv(t, stubProvider{err: &authn.Error{Code: authn.ErrCodeAudienceUnknown}})
	rec := doJSON(t, env.app.Handler(), http.MethodPost, "/auth/login", "", map[string]string{"token": "x"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "No organization found for this audience (aud)", errorBody(t, rec))
}

func TestLoginFailureIsGeneric(t *testing.T) {
	env := newTestEnv(t, stubProvider{err: &authn.Error{Code: authn.ErrCodeInvalidSignature}})
	rec := doJSON(t, env.app.Handler(), http.MethodPost, "/auth/login", "", map[string]string{"token": "x"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Unauthorized", errorBody(t, rec))
}

func TestLoginBadRequests(t *testing.T) {
	env := newTestEnv(t, stubProvider{})
	h := env.app.Handler()

	rec := doJSON(t, h, http.MethodPost, "/auth/login", "", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing token", errorBody(t, rec))

	rec = doJSON(t, h, http.MethodPost, "/auth/login", "", map[string]string{"provider": "github", "token": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Unsupported provider: github", errorBody(t, rec))

	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString("{not json"))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestOrgRoutesRequireSession(t *testing.T) {
	env := newTestEnv(t, nil)
	h := env.app.Handler()

	rec := doJSON(t, h, http.MethodGet, "/orgs/"+env.org.OrgID, "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Unauthorized", errorBody(t, rec))

	rec = doJSON(t, h, http.MethodGet, "/orgs/"+env.org.OrgID, "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOrgLookup(t *testing.T) {
	env := newTestEnv(t, nil)
	h := env.app.Handler()
	token := env.sessionToken(t, "responder@example.org")

	rec := doJSON(t, h, http.MethodGet, "/orgs/"+env.org.OrgID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var org orgs.Organization
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &org))
	assert.Equal(t, env.org.Aud, org.Aud)

	rec = doJSON(t, h, http.MethodGet, "/orgs/aud/"+env.org.Aud, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/orgs/nope", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Organization not found", errorBody(t, rec))
}

func TestOrgMutationsRequireSuperAdmin(t *testing.T) {
	env := newTestEnv(t, nil)
	h := env.app.Handler()
	body := map[string]string{"aud": "client-43.apps.example", "name": "County Fire"}

	rec := doJSON(t, h, http.MethodPost, "/orgs/", env.sessionToken(t, "responder@example.org"), body)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Super-admin privileges required", errorBody(t, rec))

	rec = doJSON(t, h, http.MethodPost, "/orgs/", env.sessionToken(t, "root@example.org"), body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// The new tenant is immediately resolvable by aud.
	org, err := env.store.GetByAud(context.Background(), "client-43.apps.example")
	require.NoError(t, err)
	assert.Equal(t, "County Fire", org.Name)
}

func TestOrgCreateValidation(t *testing.T) {
	env := newTestEnv(t, nil)
	h := env.app.Handler()
	root := env.sessionToken(t, "root@example.org")

	rec := doJSON(t, h, http.MethodPost, "/orgs/", root, map[string]string{"name": "No Aud"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing aud or name in request body", errorBody(t, rec))

	rec = doJSON(t, h, http.MethodPost, "/orgs/", root, map[string]string{"aud": env.org.Aud, "name": "Dup"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestOrgUpdateAndDelete(t *testing.T) {
	env := newTestEnv(t, nil)
	h := env.app.Handler()
	root := env.sessionToken(t, "root@example.org")

	rec := doJSON(t, h, http.MethodPut, "/orgs/"+env.org.OrgID, root, map[string]string{"name": "Renamed"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, h, http.MethodPut, "/orgs/"+env.org.OrgID, root, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No valid fields to update", errorBody(t, rec))

	rec = doJSON(t, h, http.MethodDelete, "/orgs/"+env.org.OrgID, root, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, h, http.MethodDelete, "/orgs/"+env.org.OrgID, root, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestJWKSEndpointPublishesPublicKeys(t *testing.T) {
	log := zap.NewNop().Sugar()
	raw, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	keyPEM := string(pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(raw),
	}))
	cfg := config.Config{
		SessionIssuer:        "incident-cmd-backend",
		SessionTTL:           time.Hour,
		SigningMode:          authn.ModeRS256,
		SessionPrivateKeyPEM: keyPEM,
	}
	issuer, err := authn.NewSessionIssuer(cfg)
	require.NoError(t, err)

	set, err := issuer.PublicKeySet()
	require.NoError(t, err)
	keys := authn.NewKeyCache("static", authn.WithFetchFunc(func(ctx context.Context, url string) (jwk.Set, error) {
		return set, nil
	}))
	verifier := authn.NewVerifier(keys, cfg.SessionIssuer)

	store := orgs.NewMemoryStore(log)
	app := New(log, cfg, store, issuer, verifier, authz.New(log, ""), nil)

	rec := doJSON(t, app.Handler(), http.MethodGet, "/auth/.well-known/jwks.json", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Keys []map[string]any `json:"keys"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Keys, 1)
	assert.Equal(t, "RSA", body.Keys[0]["kty"])
	assert.NotEmpty(t, body.Keys[0]["kid"])
	// Private exponent must never appear in published keys.
	assert.NotContains(t, body.Keys[0], "d")
}
