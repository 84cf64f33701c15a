package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/talentpivot/talentpivot/pkg/models"
)

func TestAuthorizer_StageMatrix(t *testing.T) {
	authorizer, err := NewDefault()
	require.NoError(t, err)

	// role -> stages it may write
	want := map[models.Role][]models.Stage{
		models.RoleHR: {models.StageL1, models.StageL2, models.StageL3, models.StageHR},
		models.RoleL1: {models.StageL1},
		models.RoleL2: {models.StageL2},
		models.RoleL3: {models.StageL3},
	}

	for _, role := range models.Roles {
		for _, stage := range models.Stages {
			allowed, err := authorizer.CanWriteStage(role, stage)
			require.NoError(t, err)
			assert.Equal(t, contains(want[role], stage), allowed, "role %s writing stage %s", role, stage)
		}
	}
}

func TestAuthorizer_CampaignActions(t *testing.T) {
	authorizer, err := NewDefault()
	require.NoError(t, err)

	tests := []struct {
		name   string
		role   models.Role
		object string
		action string
		want   bool
	}{
		{"hr creates campaign", models.RoleHR, ObjectCampaign, ActionCreate, true},
		{"l3 cannot create campaign", models.RoleL3, ObjectCampaign, ActionCreate, false},
		{"hr completes campaign", models.RoleHR, ObjectCampaign, ActionComplete, true},
		{"l1 cannot complete campaign", models.RoleL1, ObjectCampaign, ActionComplete, false},
		{"hr reopens campaign", models.RoleHR, ObjectCampaign, ActionReopen, true},
		{"l2 cannot reopen campaign", models.RoleL2, ObjectCampaign, ActionReopen, false},
		{"hr assigns reviewers", models.RoleHR, ObjectCampaign, ActionAssign, true},
		{"l2 cannot assign reviewers", models.RoleL2, ObjectCampaign, ActionAssign, false},
		{"l1 adds candidates", models.RoleL1, ObjectCandidate, ActionAdd, true},
		{"hr adds candidates", models.RoleHR, ObjectCandidate, ActionAdd, true},
		{"hr writes final candidates", models.RoleHR, ObjectFinalCandidate, ActionWrite, true},
		{"l3 cannot write final candidates", models.RoleL3, ObjectFinalCandidate, ActionWrite, false},
		{"unknown role denied", models.Role("CEO"), ObjectCampaign, ActionCreate, false},
		{"unknown action denied", models.RoleHR, ObjectCampaign, "delete", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allowed, err := authorizer.Allowed(tt.role, tt.object, tt.action)
			require.NoError(t, err)
			assert.Equal(t, tt.want, allowed)
		})
	}
}

func TestAuthorizer_CustomTable(t *testing.T) {
	authorizer, err := New([]Rule{{models.RoleL1, StageObject(models.StageL2), ActionWrite}})
	require.NoError(t, err)

	allowed, err := authorizer.CanWriteStage(models.RoleL1, models.StageL2)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = authorizer.CanWriteStage(models.RoleHR, models.StageL2)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func contains(stages []models.Stage, stage models.Stage) bool {
	for _, s := range stages {
		if s == stage {
			return true
		}
	}

	return false
}
