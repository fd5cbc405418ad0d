package engine

import (
	"context"
	"fmt"
	"os"

	"github.com/open-policy-agent/opa/v1/rego"
	"go.uber.org/zap"

	"teamhub/backend/internal/logger"
	roledomain "teamhub/backend/internal/role/domain"
)

const allowQuery = "data.teamhub.authz.allow"

// DefaultPolicy grants a permission when it is listed on the caller's role.
const DefaultPolicy = `package teamhub.authz

default allow := false

allow if {
	input.permission in input.role.permissions
}
`

// OPAEvaluator evaluates workspace permissions with an in-process OPA Rego query.
// The query is prepared once; evaluation is safe for concurrent use.
type OPAEvaluator struct {
	query rego.PreparedEvalQuery
}

// NewOPAEvaluator compiles policy (DefaultPolicy when empty) and prepares the allow query.
func NewOPAEvaluator(ctx context.Context, policy string) (*OPAEvaluator, error) {
	if policy == "" {
		policy = DefaultPolicy
	}
	pq, err := rego.New(
		rego.Query(allowQuery),
		rego.Module("authz.rego", policy),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("policy: compile: %w", err)
	}
	return &OPAEvaluator{query: pq}, nil
}

// LoadPolicyFile reads a Rego module from path. An empty path returns DefaultPolicy.
func LoadPolicyFile(path string) (string, error) {
	if path == "" {
		return DefaultPolicy, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("policy: read %s: %w", path, err)
	}
	return string(b), nil
}

// HealthCheck evaluates the prepared query with a role that holds the permission it asks for.
func (e *OPAEvaluator) HealthCheck(ctx context.Context) error {
	probe := &roledomain.Role{Name: roledomain.Owner, Permissions: []roledomain.Permission{roledomain.ViewOnly}}
	ok, err := e.Allowed(ctx, probe, roledomain.ViewOnly)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("policy: health probe denied")
	}
	return nil
}

// Allowed evaluates the allow rule. Evaluation errors deny.
func (e *OPAEvaluator) Allowed(ctx context.Context, role *roledomain.Role, permission roledomain.Permission) (bool, error) {
	if role == nil {
		return false, nil
	}
	rs, err := e.query.Eval(ctx, rego.EvalInput(buildInput(role, permission)))
	if err != nil {
		logger.From(ctx).Error("policy: evaluation failed",
			zap.String("role", string(role.Name)), zap.String("permission", string(permission)), zap.Error(err))
		return false, fmt.Errorf("policy: eval: %w", err)
	}
	return rs.Allowed(), nil
}

func buildInput(role *roledomain.Role, permission roledomain.Permission) map[string]any {
	perms := make([]string, 0, len(role.Permissions))
	for _, p := range role.Permissions {
		perms = append(perms, string(p))
	}
	return map[string]any{
		"permission": string(permission),
		"role": map[string]any{
			"id":          role.ID,
			"name":        string(role.Name),
			"permissions": perms,
		},
	}
}
