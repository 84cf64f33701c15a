// Package authz holds the role authorization table of the recruitment workflow and
// evaluates it with a casbin enforcer.
package authz

import (
	"fmt"
	"sync"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/talentpivot/talentpivot/pkg/models"
)

// Objects guarded by the policy.
const (
	ObjectCampaign       = "campaign"
	ObjectCandidate      = "candidate"
	ObjectFinalCandidate = "candidate/final"
	stageObjectPrefix    = "stage/"
)

// Actions guarded by the policy.
const (
	ActionCreate   = "create"
	ActionComplete = "complete"
	ActionReopen   = "reopen"
	ActionAssign   = "assign"
	ActionAdd      = "add"
	ActionWrite    = "write"
)

// modelText is a plain RBAC-less ACL whose object column supports keyMatch wildcards.
const modelText = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && keyMatch(r.obj, p.obj) && r.act == p.act
`

// Rule is one allowed (role, object, action) triple.
type Rule struct {
	Role   models.Role
	Object string
	Action string
}

// StageObject names the policy object guarding writes to stage.
func StageObject(stage models.Stage) string {
	return stageObjectPrefix + string(stage)
}

// Rules returns the authorization table. Anything not listed is denied.
func Rules() []Rule {
	rules := []Rule{
		{models.RoleHR, ObjectCampaign, ActionCreate},
		{models.RoleHR, ObjectCampaign, ActionComplete},
		{models.RoleHR, ObjectCampaign, ActionReopen},
		{models.RoleHR, ObjectCampaign, ActionAssign},
		{models.RoleHR, stageObjectPrefix + "*", ActionWrite},
		{models.RoleHR, ObjectFinalCandidate, ActionWrite},
		{models.RoleL1, StageObject(models.StageL1), ActionWrite},
		{models.RoleL2, StageObject(models.StageL2), ActionWrite},
		{models.RoleL3, StageObject(models.StageL3), ActionWrite},
	}

	for _, role := range models.Roles {
		rules = append(rules, Rule{role, ObjectCandidate, ActionAdd})
	}

	return rules
}

// Authorizer answers whether a role may perform an action on an object.
type Authorizer struct {
	mu       sync.RWMutex
	enforcer *casbin.Enforcer
}

// New builds an Authorizer loaded with rules.
func New(rules []Rule) (*Authorizer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("authz: failed to parse model: %w", err)
	}

	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("authz: failed to initialize enforcer: %w", err)
	}

	policies := make([][]string, 0, len(rules))
	for _, rule := range rules {
		policies = append(policies, []string{string(rule.Role), rule.Object, rule.Action})
	}

	if len(policies) > 0 {
		if _, err := enforcer.AddPolicies(policies); err != nil {
			return nil, fmt.Errorf("authz: failed to load policies: %w", err)
		}
	}

	return &Authorizer{enforcer: enforcer}, nil
}

// NewDefault builds an Authorizer for the default table.
func NewDefault() (*Authorizer, error) {
	return New(Rules())
}

// Allowed evaluates a single request. Unknown roles are always denied.
func (a *Authorizer) Allowed(role models.Role, object, action string) (bool, error) {
	if !role.Valid() {
		return false, nil
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	allowed, err := a.enforcer.Enforce(string(role), object, action)
	if err != nil {
		return false, fmt.Errorf("authz: enforce failed: %w", err)
	}

	return allowed, nil
}

// CanWriteStage reports whether role may write the given stage record.
func (a *Authorizer) CanWriteStage(role models.Role, stage models.Stage) (bool, error) {
	return a.Allowed(role, StageObject(stage), ActionWrite)
}
