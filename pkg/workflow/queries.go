package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/talentpivot/talentpivot/pkg/identity"
	"github.com/talentpivot/talentpivot/pkg/models"
	"github.com/talentpivot/talentpivot/pkg/persistence"
)

const (
	opGetCampaign        = "GetCampaign"
	opCampaignStatus     = "CampaignStatus"
	opListCampaigns      = "ListCampaigns"
	opGetCandidate       = "GetCandidate"
	opListCandidates     = "ListCandidates"
	opCampaignSummary    = "CampaignSummary"
	opResumeURL          = "ResumeURL"
	opJobDescriptionURLs = "JobDescriptionURLs"
)

func (e *Engine) loadCampaign(ctx context.Context, op, campaignID string) (*models.Campaign, error) {
	campaign, err := e.persistence.CampaignRepository().GetByID(ctx, campaignID)
	if err != nil {
		return nil, notFound(op, err)
	}

	return campaign, nil
}

// visibleCampaign loads a campaign the caller owns or is assigned to.
func (e *Engine) visibleCampaign(ctx context.Context, op string, caller identity.Identity, campaignID string) (*models.Campaign, error) {
	campaign, err := e.loadCampaign(ctx, op, campaignID)
	if err != nil {
		return nil, err
	}

	if !campaign.VisibleTo(caller.Email) {
		return nil, authorizationError(op, CodeForbidden,
			fmt.Sprintf("campaign %s is not shared with %s", campaignID, caller.Email))
	}

	return campaign, nil
}

// GetCampaign returns a campaign with its reviewer assignments.
func (e *Engine) GetCampaign(ctx context.Context, caller identity.Identity, campaignID string) (*models.Campaign, error) {
	return e.visibleCampaign(ctx, opGetCampaign, caller, campaignID)
}

// CampaignStatus returns the lifecycle status of a campaign.
func (e *Engine) CampaignStatus(ctx context.Context, caller identity.Identity, campaignID string) (models.CampaignStatus, error) {
	campaign, err := e.visibleCampaign(ctx, opCampaignStatus, caller, campaignID)
	if err != nil {
		return "", err
	}

	return campaign.Status, nil
}

// ListCampaigns returns campaigns owned by or assigned to the caller, Active first.
func (e *Engine) ListCampaigns(ctx context.Context, caller identity.Identity) ([]*models.Campaign, error) {
	campaigns, err := e.persistence.CampaignRepository().List(ctx, persistence.ListCampaignsOptions{
		VisibleTo: caller.Email,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opListCampaigns, err)
	}

	return campaigns, nil
}

// GetCandidate returns one candidate of a campaign.
func (e *Engine) GetCandidate(ctx context.Context, campaignID, candidateID string) (*models.Candidate, error) {
	candidate, err := e.persistence.CandidateRepository().GetByID(ctx, campaignID, candidateID)
	if err != nil {
		return nil, notFound(opGetCandidate, err)
	}

	return candidate, nil
}

// ListCandidates returns one filtered page of a campaign's candidates.
func (e *Engine) ListCandidates(
	ctx context.Context,
	caller identity.Identity,
	campaignID string,
	opts persistence.ListCandidatesOptions,
) (*persistence.CandidateListResult, error) {
	if opts.Offset < 0 {
		return nil, validationError(opListCandidates, CodeInvalidInput, "offset must not be negative")
	}

	if opts.Limit < 0 || opts.Limit > persistence.MaxCandidatePageSize {
		return nil, validationError(opListCandidates, CodeInvalidInput,
			fmt.Sprintf("limit must be between 1 and %d", persistence.MaxCandidatePageSize))
	}

	if _, err := e.visibleCampaign(ctx, opListCandidates, caller, campaignID); err != nil {
		return nil, err
	}

	result, err := e.persistence.CandidateRepository().List(ctx, campaignID, opts.Normalized())
	if err != nil {
		return nil, notFound(opListCandidates, err)
	}

	return result, nil
}

// Summary counts a campaign's candidates by progress.
type Summary struct {
	Total      int `json:"total"`
	InProgress int `json:"in_progress"`
	AwaitingL1 int `json:"awaiting_l1"`
	AwaitingL2 int `json:"awaiting_l2"`
	AwaitingL3 int `json:"awaiting_l3"`
	AwaitingHR int `json:"awaiting_hr"`
	Completed  int `json:"completed"`
	Rejected   int `json:"rejected"`
}

// CampaignSummary counts the campaign's candidates. A stage is awaiting when its record
// is still Pending.
func (e *Engine) CampaignSummary(ctx context.Context, caller identity.Identity, campaignID string) (*Summary, error) {
	if _, err := e.visibleCampaign(ctx, opCampaignSummary, caller, campaignID); err != nil {
		return nil, err
	}

	summary := &Summary{}
	opts := persistence.ListCandidatesOptions{Limit: persistence.MaxCandidatePageSize}

	for {
		page, err := e.persistence.CandidateRepository().List(ctx, campaignID, opts)
		if err != nil {
			return nil, notFound(opCampaignSummary, err)
		}

		for _, candidate := range page.Candidates {
			summary.add(candidate)
		}

		if !page.HasNextPage || len(page.Candidates) == 0 {
			return summary, nil
		}

		opts.Offset += len(page.Candidates)
	}
}

func (s *Summary) add(candidate *models.Candidate) {
	s.Total++

	switch models.DeriveAppStatus(candidate.Stages) {
	case models.AppStatusCompleted:
		s.Completed++
	case models.AppStatusRejected:
		s.Rejected++
	default:
		s.InProgress++
	}

	pending := func(stage models.Stage) int {
		if candidate.Stages.Get(stage).Status == models.StageStatusPending {
			return 1
		}

		return 0
	}

	s.AwaitingL1 += pending(models.StageL1)
	s.AwaitingL2 += pending(models.StageL2)
	s.AwaitingL3 += pending(models.StageL3)
	s.AwaitingHR += pending(models.StageHR)
}

// SignedLink is a time-limited download URL for a stored document.
type SignedLink struct {
	FileName  string    `json:"file_name"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ResumeURL signs a download URL for the candidate's resume.
func (e *Engine) ResumeURL(ctx context.Context, caller identity.Identity, campaignID, candidateID string, ttl time.Duration) (*SignedLink, error) {
	if _, err := e.visibleCampaign(ctx, opResumeURL, caller, campaignID); err != nil {
		return nil, err
	}

	candidate, err := e.persistence.CandidateRepository().GetByID(ctx, campaignID, candidateID)
	if err != nil {
		return nil, notFound(opResumeURL, err)
	}

	if candidate.Resume.Key == "" {
		return nil, &Error{Op: opResumeURL, Code: CodeArtifactUnavailable, Message: "candidate has no resume", Err: ErrNotFound}
	}

	return e.sign(opResumeURL, candidate.Resume, ttl)
}

// JobDescriptionURLs signs a download URL for every job description of the campaign.
func (e *Engine) JobDescriptionURLs(ctx context.Context, caller identity.Identity, campaignID string, ttl time.Duration) ([]*SignedLink, error) {
	campaign, err := e.visibleCampaign(ctx, opJobDescriptionURLs, caller, campaignID)
	if err != nil {
		return nil, err
	}

	links := make([]*SignedLink, 0, len(campaign.JobDescriptions))

	for _, artifact := range campaign.JobDescriptions {
		link, err := e.sign(opJobDescriptionURLs, artifact, ttl)
		if err != nil {
			return nil, err
		}

		links = append(links, link)
	}

	return links, nil
}

func (e *Engine) sign(op string, artifact models.Artifact, ttl time.Duration) (*SignedLink, error) {
	if ttl <= 0 {
		ttl = DefaultURLTTL
	}

	url, expiresAt, err := e.artifacts.SignedURL(artifact.Key, ttl)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to sign %s: %w", op, artifact.Key, err)
	}

	return &SignedLink{FileName: artifact.FileName, URL: url, ExpiresAt: expiresAt}, nil
}

// DefaultURLTTL is the lifetime of signed document URLs when the caller gives none.
const DefaultURLTTL = 15 * time.Minute

// OverdueCampaigns returns Active campaigns whose end date lies before the calendar day of asOf.
func (e *Engine) OverdueCampaigns(ctx context.Context, asOf time.Time) ([]*models.Campaign, error) {
	year, month, day := asOf.UTC().Date()
	today := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	active := models.CampaignStatusActive

	campaigns, err := e.persistence.CampaignRepository().List(ctx, persistence.ListCampaignsOptions{
		Status:     &active,
		EndsBefore: &today,
	})
	if err != nil {
		return nil, fmt.Errorf("OverdueCampaigns: %w", err)
	}

	return campaigns, nil
}
