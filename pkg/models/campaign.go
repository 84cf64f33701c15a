package models

import (
	"slices"
	"strings"
	"time"
)

// CampaignStatus represents the lifecycle state of a campaign.
type CampaignStatus string

const (
	CampaignStatusActive    CampaignStatus = "Active"
	CampaignStatusCompleted CampaignStatus = "Completed"
)

// DateLayout is the calendar date format used for campaign start and end dates.
const DateLayout = "2006-01-02"

// Reviewers maps each role to the emails assigned to it.
type Reviewers map[Role][]string

// Contains reports whether email is assigned to role. Emails compare case-insensitively.
func (r Reviewers) Contains(role Role, email string) bool {
	email = NormalizeEmail(email)

	return slices.ContainsFunc(r[role], func(assigned string) bool {
		return NormalizeEmail(assigned) == email
	})
}

// Add appends the normalized email to role unless already present and reports whether it was added.
func (r Reviewers) Add(role Role, email string) bool {
	if r.Contains(role, email) {
		return false
	}

	r[role] = append(r[role], NormalizeEmail(email))

	return true
}

// HasAny reports whether email is assigned to any role.
func (r Reviewers) HasAny(email string) bool {
	for _, role := range Roles {
		if r.Contains(role, email) {
			return true
		}
	}

	return false
}

// Clone deep-copies the assignments.
func (r Reviewers) Clone() Reviewers {
	clone := make(Reviewers, len(r))
	for role, emails := range r {
		clone[role] = slices.Clone(emails)
	}

	return clone
}

// Campaign is a hiring campaign that owns candidates and reviewer assignments.
type Campaign struct {
	ID              string         `json:"campaign_id"`
	Name            string         `json:"campaign_name"`
	Note            string         `json:"note"`
	StartDate       time.Time      `json:"start_date"`
	EndDate         time.Time      `json:"end_date"`
	Status          CampaignStatus `json:"campaign_status"`
	Owner           string         `json:"owner"`
	Reviewers       Reviewers      `json:"reviewers"`
	JobDescriptions []Artifact     `json:"job_descriptions"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// Active reports whether the campaign accepts candidate mutations.
func (c *Campaign) Active() bool {
	return c.Status == CampaignStatusActive
}

// VisibleTo reports whether the campaign is owned by or assigned to email.
func (c *Campaign) VisibleTo(email string) bool {
	return NormalizeEmail(c.Owner) == NormalizeEmail(email) || c.Reviewers.HasAny(email)
}

// Clone returns a deep copy of the campaign.
func (c *Campaign) Clone() *Campaign {
	if c == nil {
		return nil
	}

	clone := *c
	clone.Reviewers = c.Reviewers.Clone()
	clone.JobDescriptions = slices.Clone(c.JobDescriptions)

	return &clone
}

// NormalizeEmail lowercases and trims an email for comparisons and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
