// Package persistence provides the storage abstraction for campaigns, candidates and accounts.
package persistence

import (
	"context"
	"time"

	"github.com/talentpivot/talentpivot/pkg/models"
)

// Persistence bundles the repositories of one storage backend.
type Persistence interface {
	CampaignRepository() CampaignRepository
	CandidateRepository() CandidateRepository
	UserRepository() UserRepository
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}

// CampaignMutation mutates a copy of a campaign inside an atomic read-modify-write.
// Returning an error discards every change.
type CampaignMutation func(campaign *models.Campaign) error

// CandidateMutation mutates a copy of a candidate while its parent campaign is held stable.
// Returning an error discards every change.
type CandidateMutation func(campaign *models.Campaign, candidate *models.Candidate) error

// CampaignGuard inspects the parent campaign before a dependent write.
type CampaignGuard func(campaign *models.Campaign) error

// CampaignRepository stores campaigns and their reviewer assignments.
type CampaignRepository interface {
	Create(ctx context.Context, campaign *models.Campaign) error
	GetByID(ctx context.Context, id string) (*models.Campaign, error)
	List(ctx context.Context, opts ListCampaignsOptions) ([]*models.Campaign, error)
	Update(ctx context.Context, id string, mutate CampaignMutation) (*models.Campaign, error)
}

// CandidateRepository stores candidates scoped to a campaign.
type CandidateRepository interface {
	// Create stores candidate after guard accepted the current state of its campaign.
	Create(ctx context.Context, candidate *models.Candidate, guard CampaignGuard) error
	GetByID(ctx context.Context, campaignID, candidateID string) (*models.Candidate, error)
	List(ctx context.Context, campaignID string, opts ListCandidatesOptions) (*CandidateListResult, error)
	Update(ctx context.Context, campaignID, candidateID string, mutate CandidateMutation) (*models.Candidate, error)
}

// UserRepository stores accounts keyed by normalized email.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePassword(ctx context.Context, email, passwordHash string) error
}

// ListCampaignsOptions filters campaign listings.
type ListCampaignsOptions struct {
	// VisibleTo restricts results to campaigns owned by or assigned to this email.
	VisibleTo string
	Status    *models.CampaignStatus
	// EndsBefore restricts results to campaigns whose end date is strictly before it.
	EndsBefore *time.Time
}

// ListCandidatesOptions filters and paginates candidate listings.
type ListCandidatesOptions struct {
	Limit  int
	Offset int

	// Status matches the application status or any stage status.
	Status string
	Name   string
	Email  string
	Phone  string
}

// CandidateListResult is one page of candidates.
type CandidateListResult struct {
	Candidates  []*models.Candidate `json:"candidates"`
	TotalCount  int64               `json:"total_count"`
	HasNextPage bool                `json:"has_next_page"`
}
