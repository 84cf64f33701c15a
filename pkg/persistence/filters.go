package persistence

import (
	"sort"
	"strings"

	"github.com/talentpivot/talentpivot/pkg/models"
)

const (
	DefaultCandidatePageSize = 10
	MaxCandidatePageSize     = 100
)

// Normalized applies pagination defaults and bounds.
func (o ListCandidatesOptions) Normalized() ListCandidatesOptions {
	if o.Limit <= 0 {
		o.Limit = DefaultCandidatePageSize
	}

	if o.Limit > MaxCandidatePageSize {
		o.Limit = MaxCandidatePageSize
	}

	if o.Offset < 0 {
		o.Offset = 0
	}

	o.Status = strings.TrimSpace(o.Status)
	if strings.EqualFold(o.Status, "all") {
		o.Status = ""
	}

	return o
}

// Matches reports whether candidate passes the filters. Pagination is ignored.
func (o ListCandidatesOptions) Matches(candidate *models.Candidate) bool {
	if !containsFold(candidate.FullName, o.Name) ||
		!containsFold(candidate.Email, o.Email) ||
		!containsFold(candidate.Phone, o.Phone) {
		return false
	}

	if o.Status == "" {
		return true
	}

	if strings.EqualFold(string(candidate.AppStatus), o.Status) {
		return true
	}

	for _, stage := range models.Stages {
		if strings.EqualFold(string(candidate.Stages.Get(stage).Status), o.Status) {
			return true
		}
	}

	return false
}

// Matches reports whether campaign passes the filters.
func (o ListCampaignsOptions) Matches(campaign *models.Campaign) bool {
	if o.VisibleTo != "" && !campaign.VisibleTo(o.VisibleTo) {
		return false
	}

	if o.Status != nil && campaign.Status != *o.Status {
		return false
	}

	if o.EndsBefore != nil && !campaign.EndDate.Before(*o.EndsBefore) {
		return false
	}

	return true
}

// SortCampaigns orders active campaigns first, newest first within each status.
func SortCampaigns(campaigns []*models.Campaign) {
	sort.SliceStable(campaigns, func(i, j int) bool {
		if campaigns[i].Active() != campaigns[j].Active() {
			return campaigns[i].Active()
		}

		return campaigns[i].CreatedAt.After(campaigns[j].CreatedAt)
	})
}

// Paginate slices a filtered candidate list into a page.
func Paginate(candidates []*models.Candidate, opts ListCandidatesOptions) *CandidateListResult {
	total := len(candidates)
	if opts.Offset >= total {
		return &CandidateListResult{
			Candidates: make([]*models.Candidate, 0),
			TotalCount: int64(total),
		}
	}

	end := min(opts.Offset+opts.Limit, total)

	return &CandidateListResult{
		Candidates:  candidates[opts.Offset:end],
		TotalCount:  int64(total),
		HasNextPage: end < total,
	}
}

func containsFold(value, fragment string) bool {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return true
	}

	return strings.Contains(strings.ToLower(value), strings.ToLower(fragment))
}
