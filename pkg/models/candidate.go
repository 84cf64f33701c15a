package models

import "time"

// AppStatus is the application-level status derived from the stage records.
type AppStatus string

const (
	AppStatusInProgress AppStatus = "In Progress"
	AppStatusCompleted  AppStatus = "Completed"
	AppStatusRejected   AppStatus = "Rejected"
)

// Final reports whether the application reached a terminal status.
func (s AppStatus) Final() bool {
	return s == AppStatusCompleted || s == AppStatusRejected
}

// DeriveAppStatus computes the application status from the four stage records.
// Any rejection wins over completion; completion requires the HR stage.
func DeriveAppStatus(stages StageRecords) AppStatus {
	for _, stage := range Stages {
		if stages.Get(stage).Status == StageStatusRejected {
			return AppStatusRejected
		}
	}

	if stages.HR.Status == StageStatusCompleted {
		return AppStatusCompleted
	}

	return AppStatusInProgress
}

// Candidate is a person evaluated within exactly one campaign.
type Candidate struct {
	ID         string       `json:"candidate_id"`
	CampaignID string       `json:"campaign_id"`
	FullName   string       `json:"full_name"`
	Email      string       `json:"email_id"`
	Phone      string       `json:"phone"`
	AppStatus  AppStatus    `json:"app_status"`
	Stages     StageRecords `json:"stages"`
	Resume     Artifact     `json:"resume"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// Recompute refreshes AppStatus from the stage records.
func (c *Candidate) Recompute() {
	c.AppStatus = DeriveAppStatus(c.Stages)
}

// Clone returns a copy that can be mutated without touching c.
func (c *Candidate) Clone() *Candidate {
	if c == nil {
		return nil
	}

	clone := *c

	return &clone
}
