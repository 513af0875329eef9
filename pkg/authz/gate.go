// pkg/authz/gate.go
package authz

import (
	"context"
	"os"

	"incidentcmd/pkg/claims"

	"github.com/open-policy-agent/opa/rego"
	"go.uber.org/zap"
)

// Flag names evaluated by the gate. Tenant-scoped admin and cross-tenant
// super-admin are independent capabilities; neither implies the other.
const (
	FlagAdminAccess      = "admin_access"
	FlagSuperAdminAccess = "super_admin_access"
)

// Authorizer is what handlers depend on. Implementations must be
// fail-closed: any uncertainty resolves to deny.
type Authorizer interface {
	HasAdminAccess(ctx context.Context, c claims.Claims) bool
	HasSuperAdminAccess(ctx context.Context, c claims.Claims) bool
}

// Gate evaluates boolean flags against a composite user+organization
// context using a rego module. The module exposes `data.flags` as a map
// from flag name to bool, e.g.:
//
//	package flags
//
//	default admin_access := false
//	admin_access { input.user.email == "ops@example.org" }
//	default super_admin_access := false
//
// An unloadable or absent module leaves the gate uninitialized and every
// check returns false. The gate never returns an error to callers.
type Gate struct {
	log   *zap.SugaredLogger
	query *rego.PreparedEvalQuery
}

// New compiles the flag module. moduleSrc may be empty (uninitialized gate).
func New(log *zap.SugaredLogger, moduleSrc string) *Gate {
	g := &Gate{log: log}
	if moduleSrc == "" {
		log.Warnw("flag module not configured; all privileged access denied")
		return g
	}
	q, err := rego.New(
		rego.Query("data.flags"),
		rego.Module("flags.rego", moduleSrc),
	).PrepareForEval(context.Background())
	if err != nil {
		log.Errorw("flag module compile failed; all privileged access denied", "err", err)
		return g
	}
	g.query = &q
	return g
}

// NewFromFile loads the module from disk (FLAG_MODULE_PATH).
func NewFromFile(log *zap.SugaredLogger, path string) *Gate {
	if path == "" {
		return New(log, "")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Errorw("flag module read failed; all privileged access denied", "path", path, "err", err)
		return New(log, "")
	}
	return New(log, string(raw))
}

func (g *Gate) HasAdminAccess(ctx context.Context, c claims.Claims) bool {
	return g.variation(ctx, FlagAdminAccess, c)
}

func (g *Gate) HasSuperAdminAccess(ctx context.Context, c claims.Claims) bool {
	return g.variation(ctx, FlagSuperAdminAccess, c)
}

func (g *Gate) variation(ctx context.Context, flag string, c claims.Claims) bool {
	if g.query == nil {
		return false
	}
	userKey := c.Email
	if userKey == "" {
		userKey = c.Sub
	}
	input := map[string]any{
		"user": map[string]any{
			"key":      userKey,
			"email":    c.Email,
			"sub":      c.Sub,
			"name":     c.Name,
			"org_id":   c.OrgID,
			"org_name": c.OrgName,
		},
		"organization": map[string]any{
			"key":    c.OrgID,
			"org_id": c.OrgID,
			"name":   c.OrgName,
		},
	}
	rs, err := g.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		g.log.Warnw("flag evaluation failed", "flag", flag, "err", err)
		return false
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false
	}
	flags, ok := rs[0].Expressions[0].Value.(map[string]any)
	if !ok {
		return false
	}
	v, ok := flags[flag].(bool)
	return ok && v
}
