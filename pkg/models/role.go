// Package models defines the campaign, candidate and account models of the recruitment workflow.
package models

import "strings"

// Role is the closed set of identities that take part in a campaign.
type Role string

const (
	RoleHR Role = "HR"
	RoleL1 Role = "L1"
	RoleL2 Role = "L2"
	RoleL3 Role = "L3"
)

// Roles lists every role in review order, HR last.
var Roles = []Role{RoleL1, RoleL2, RoleL3, RoleHR}

// ParseRole accepts the role labels used by clients ("hr", "l1", "L2", ...).
func ParseRole(value string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(value))) {
	case RoleHR:
		return RoleHR, true
	case RoleL1:
		return RoleL1, true
	case RoleL2:
		return RoleL2, true
	case RoleL3:
		return RoleL3, true
	default:
		return "", false
	}
}

// Valid reports whether r belongs to the closed role set.
func (r Role) Valid() bool {
	switch r {
	case RoleHR, RoleL1, RoleL2, RoleL3:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	return string(r)
}
