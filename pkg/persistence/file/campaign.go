package file

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/talentpivot/talentpivot/pkg/models"
	"github.com/talentpivot/talentpivot/pkg/persistence"
)

// CampaignRepository handles campaign-related file operations.
type CampaignRepository struct {
	store *Persistence
}

func (cr *CampaignRepository) file(id string) string {
	return cr.store.path("campaigns", id+".json")
}

// Create stores a new campaign.
func (cr *CampaignRepository) Create(_ context.Context, campaign *models.Campaign) error {
	cr.store.mu.Lock()
	defer cr.store.mu.Unlock()

	path := cr.file(campaign.ID)

	found, err := exists(path)
	if err != nil {
		return persistence.NewCampaignError("Create", campaign.ID, err)
	}

	if found {
		return persistence.NewCampaignError("Create", campaign.ID, persistence.ErrCampaignAlreadyExists)
	}

	now := time.Now().UTC()
	if campaign.CreatedAt.IsZero() {
		campaign.CreatedAt = now
	}

	campaign.UpdatedAt = now

	return writeJSON(path, campaign)
}

// GetByID retrieves a campaign by its ID from the file system.
func (cr *CampaignRepository) GetByID(_ context.Context, id string) (*models.Campaign, error) {
	cr.store.mu.RLock()
	defer cr.store.mu.RUnlock()

	return cr.load(id)
}

func (cr *CampaignRepository) load(id string) (*models.Campaign, error) {
	if !validID(id) {
		return nil, persistence.NewCampaignError("GetByID", id, persistence.ErrCampaignNotFound)
	}

	var campaign models.Campaign

	found, err := readJSON(cr.file(id), &campaign)
	if err != nil {
		return nil, persistence.NewCampaignError("GetByID", id, err)
	}

	if !found {
		return nil, persistence.NewCampaignError("GetByID", id, persistence.ErrCampaignNotFound)
	}

	if campaign.Reviewers == nil {
		campaign.Reviewers = models.Reviewers{}
	}

	return &campaign, nil
}

// List returns campaigns matching opts, active first and newest first.
func (cr *CampaignRepository) List(_ context.Context, opts persistence.ListCampaignsOptions) ([]*models.Campaign, error) {
	cr.store.mu.RLock()
	defer cr.store.mu.RUnlock()

	jsonFiles, err := fs.Glob(os.DirFS(cr.store.path("campaigns")), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list campaign files: %w", err)
	}

	campaigns := make([]*models.Campaign, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		campaign, err := cr.load(strings.TrimSuffix(file, ".json"))
		if err != nil {
			return nil, fmt.Errorf("failed to load campaign %s: %w", file, err)
		}

		if opts.Matches(campaign) {
			campaigns = append(campaigns, campaign)
		}
	}

	persistence.SortCampaigns(campaigns)

	return campaigns, nil
}

// Update applies mutate to a copy of the campaign and stores it when mutate succeeds.
func (cr *CampaignRepository) Update(_ context.Context, id string, mutate persistence.CampaignMutation) (*models.Campaign, error) {
	cr.store.mu.Lock()
	defer cr.store.mu.Unlock()

	current, err := cr.load(id)
	if err != nil {
		return nil, err
	}

	updated := current.Clone()
	if err := mutate(updated); err != nil {
		return nil, err
	}

	updated.ID = current.ID
	updated.CreatedAt = current.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	if err := writeJSON(cr.file(id), updated); err != nil {
		return nil, persistence.NewCampaignError("Update", id, err)
	}

	return updated, nil
}

// validID rejects identifiers that could escape the storage root.
func validID(id string) bool {
	return id != "" && !strings.ContainsAny(id, `/\`) && id != "." && id != ".."
}
