package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveAppStatus(t *testing.T) {
	t.Parallel()

	build := func(l1, l2, l3, hr StageStatus) StageRecords {
		return StageRecords{
			L1: StageRecord{Status: l1},
			L2: StageRecord{Status: l2},
			L3: StageRecord{Status: l3},
			HR: StageRecord{Status: hr},
		}
	}

	tests := []struct {
		name   string
		stages StageRecords
		want   AppStatus
	}{
		{"all pending", NewStageRecords(), AppStatusInProgress},
		{"reviewers completed, hr pending", build(StageStatusCompleted, StageStatusCompleted, StageStatusCompleted, StageStatusPending), AppStatusInProgress},
		{"hr completed", build(StageStatusCompleted, StageStatusCompleted, StageStatusCompleted, StageStatusCompleted), AppStatusCompleted},
		{"hr completed alone", build(StageStatusPending, StageStatusPending, StageStatusPending, StageStatusCompleted), AppStatusCompleted},
		{"l1 rejected", build(StageStatusRejected, StageStatusPending, StageStatusPending, StageStatusPending), AppStatusRejected},
		{"rejection beats hr completion", build(StageStatusCompleted, StageStatusRejected, StageStatusCompleted, StageStatusCompleted), AppStatusRejected},
		{"hr rejected", build(StageStatusCompleted, StageStatusCompleted, StageStatusCompleted, StageStatusRejected), AppStatusRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, DeriveAppStatus(tt.stages))
		})
	}
}

// Rejected iff some stage is rejected; Completed iff HR completed and nothing rejected.
func TestDeriveAppStatus_Exhaustive(t *testing.T) {
	t.Parallel()

	statuses := []StageStatus{StageStatusPending, StageStatusCompleted, StageStatusRejected}

	for _, l1 := range statuses {
		for _, l2 := range statuses {
			for _, l3 := range statuses {
				for _, hr := range statuses {
					stages := StageRecords{
						L1: StageRecord{Status: l1},
						L2: StageRecord{Status: l2},
						L3: StageRecord{Status: l3},
						HR: StageRecord{Status: hr},
					}
					anyRejected := l1 == StageStatusRejected || l2 == StageStatusRejected ||
						l3 == StageStatusRejected || hr == StageStatusRejected

					got := DeriveAppStatus(stages)

					assert.Equal(t, anyRejected, got == AppStatusRejected, "%v", stages)
					assert.Equal(t, !anyRejected && hr == StageStatusCompleted, got == AppStatusCompleted, "%v", stages)
				}
			}
		}
	}
}

func TestParseRoleAndStage(t *testing.T) {
	t.Parallel()

	role, ok := ParseRole(" hr ")
	assert.True(t, ok)
	assert.Equal(t, RoleHR, role)

	_, ok = ParseRole("manager")
	assert.False(t, ok)

	stage, ok := ParseStage("l2")
	assert.True(t, ok)
	assert.Equal(t, StageL2, stage)
	assert.Equal(t, RoleL2, stage.Role())

	status, ok := ParseStageStatus("REJECTED")
	assert.True(t, ok)
	assert.Equal(t, StageStatusRejected, status)

	_, ok = ParseStageStatus("done")
	assert.False(t, ok)

	assert.True(t, RoleL3.Valid())
	assert.False(t, Role("l3").Valid())
}

func TestReviewers(t *testing.T) {
	t.Parallel()

	reviewers := Reviewers{}

	assert.True(t, reviewers.Add(RoleL3, "Lead@Example.com"))
	assert.False(t, reviewers.Add(RoleL3, "lead@example.com "))
	assert.True(t, reviewers.Contains(RoleL3, "LEAD@example.com"))
	assert.False(t, reviewers.Contains(RoleL1, "lead@example.com"))
	assert.True(t, reviewers.HasAny("lead@example.com"))
	assert.Len(t, reviewers[RoleL3], 1)

	clone := reviewers.Clone()
	clone.Add(RoleL3, "other@example.com")
	assert.Len(t, reviewers[RoleL3], 1)
}

func TestCampaign_VisibleTo(t *testing.T) {
	t.Parallel()

	campaign := &Campaign{
		Owner:     "hr@example.com",
		Reviewers: Reviewers{RoleL1: {"l1@example.com"}},
	}

	assert.True(t, campaign.VisibleTo("HR@example.com"))
	assert.True(t, campaign.VisibleTo("l1@example.com"))
	assert.False(t, campaign.VisibleTo("stranger@example.com"))
}

func TestStageRecords_SetGet(t *testing.T) {
	t.Parallel()

	records := NewStageRecords()
	records.Set(StageL3, StageRecord{Status: StageStatusCompleted, Feedback: "strong system design"})

	assert.Equal(t, StageStatusCompleted, records.Get(StageL3).Status)
	assert.Equal(t, "strong system design", records.Get(StageL3).Feedback)
	assert.Equal(t, StageStatusPending, records.Get(StageL1).Status)
	assert.Equal(t, StageRecord{}, records.Get(Stage("L9")))
}
