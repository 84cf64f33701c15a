package file

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/talentpivot/talentpivot/pkg/models"
	"github.com/talentpivot/talentpivot/pkg/persistence"
)

// CandidateRepository handles candidate-related file operations.
type CandidateRepository struct {
	store *Persistence
}

func (cr *CandidateRepository) file(campaignID, candidateID string) string {
	return cr.store.path("candidates", campaignID, candidateID+".json")
}

// Create stores a candidate after guard accepted its campaign.
func (cr *CandidateRepository) Create(_ context.Context, candidate *models.Candidate, guard persistence.CampaignGuard) error {
	cr.store.mu.Lock()
	defer cr.store.mu.Unlock()

	campaign, err := cr.store.campaignRepo.load(candidate.CampaignID)
	if err != nil {
		return err
	}

	if guard != nil {
		if err := guard(campaign); err != nil {
			return err
		}
	}

	path := cr.file(candidate.CampaignID, candidate.ID)

	found, err := exists(path)
	if err != nil {
		return persistence.NewCandidateError("Create", candidate.ID, err)
	}

	if found {
		return persistence.NewCandidateError("Create", candidate.ID, persistence.ErrCandidateAlreadyExists)
	}

	now := time.Now().UTC()
	if candidate.CreatedAt.IsZero() {
		candidate.CreatedAt = now
	}

	candidate.UpdatedAt = now

	return writeJSON(path, candidate)
}

// GetByID retrieves a candidate of a campaign.
func (cr *CandidateRepository) GetByID(_ context.Context, campaignID, candidateID string) (*models.Candidate, error) {
	cr.store.mu.RLock()
	defer cr.store.mu.RUnlock()

	return cr.load(campaignID, candidateID)
}

func (cr *CandidateRepository) load(campaignID, candidateID string) (*models.Candidate, error) {
	if !validID(campaignID) || !validID(candidateID) {
		return nil, persistence.NewCandidateError("GetByID", candidateID, persistence.ErrCandidateNotFound)
	}

	var candidate models.Candidate

	found, err := readJSON(cr.file(campaignID, candidateID), &candidate)
	if err != nil {
		return nil, persistence.NewCandidateError("GetByID", candidateID, err)
	}

	if !found {
		return nil, persistence.NewCandidateError("GetByID", candidateID, persistence.ErrCandidateNotFound)
	}

	return &candidate, nil
}

// List returns one page of the campaign's candidates, oldest first.
func (cr *CandidateRepository) List(_ context.Context, campaignID string, opts persistence.ListCandidatesOptions) (*persistence.CandidateListResult, error) {
	cr.store.mu.RLock()
	defer cr.store.mu.RUnlock()

	if _, err := cr.store.campaignRepo.load(campaignID); err != nil {
		return nil, err
	}

	opts = opts.Normalized()

	jsonFiles, err := fs.Glob(os.DirFS(cr.store.path("candidates", campaignID)), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list candidate files: %w", err)
	}

	filtered := make([]*models.Candidate, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		candidate, err := cr.load(campaignID, strings.TrimSuffix(file, ".json"))
		if err != nil {
			return nil, fmt.Errorf("failed to load candidate %s: %w", file, err)
		}

		if opts.Matches(candidate) {
			filtered = append(filtered, candidate)
		}
	}

	sortCandidates(filtered)

	return persistence.Paginate(filtered, opts), nil
}

// Update applies mutate to a copy of the candidate while the campaign cannot change.
func (cr *CandidateRepository) Update(_ context.Context, campaignID, candidateID string, mutate persistence.CandidateMutation) (*models.Candidate, error) {
	cr.store.mu.Lock()
	defer cr.store.mu.Unlock()

	campaign, err := cr.store.campaignRepo.load(campaignID)
	if err != nil {
		return nil, err
	}

	current, err := cr.load(campaignID, candidateID)
	if err != nil {
		return nil, err
	}

	updated := current.Clone()
	if err := mutate(campaign, updated); err != nil {
		return nil, err
	}

	updated.ID = current.ID
	updated.CampaignID = current.CampaignID
	updated.CreatedAt = current.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	if err := writeJSON(cr.file(campaignID, candidateID), updated); err != nil {
		return nil, persistence.NewCandidateError("Update", candidateID, err)
	}

	return updated, nil
}

// sortCandidates orders by creation time, then id for a stable page order.
func sortCandidates(candidates []*models.Candidate) {
	slices.SortStableFunc(candidates, func(a, b *models.Candidate) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}

		return strings.Compare(a.ID, b.ID)
	})
}
