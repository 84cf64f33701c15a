package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/talentpivot/talentpivot/pkg/models"
	"github.com/talentpivot/talentpivot/pkg/persistence"
)

const campaignColumns = `
	c.id
  , c.name
  , c.note
  , c.start_date
  , c.end_date
  , c.status
  , c.owner
  , c.job_descriptions
  , c.created_at
  , c.updated_at
`

// CampaignRepository handles campaign-related database operations.
type CampaignRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewCampaignRepository creates a new campaign repository.
func NewCampaignRepository(db *sql.DB, logger *slog.Logger) *CampaignRepository {
	return &CampaignRepository{db: db, logger: logger}
}

// Create inserts the campaign and its reviewer assignments in one transaction.
func (r *CampaignRepository) Create(ctx context.Context, campaign *models.Campaign) error {
	now := time.Now().UTC()
	if campaign.CreatedAt.IsZero() {
		campaign.CreatedAt = now
	}

	campaign.UpdatedAt = now

	jobDescriptions, err := json.Marshal(nonNilArtifacts(campaign.JobDescriptions))
	if err != nil {
		return persistence.NewCampaignError("Create", campaign.ID, fmt.Errorf("failed to marshal job descriptions: %w", err))
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(ctx, r.logger, tx)

	_, err = tx.ExecContext(ctx, `
		INSERT INTO campaigns (id, name, note, start_date, end_date, status, owner, job_descriptions, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		campaign.ID, campaign.Name, campaign.Note, campaign.StartDate, campaign.EndDate,
		campaign.Status, models.NormalizeEmail(campaign.Owner), jobDescriptions,
		campaign.CreatedAt, campaign.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return persistence.NewCampaignError("Create", campaign.ID, persistence.ErrCampaignAlreadyExists)
		}

		return persistence.NewCampaignError("Create", campaign.ID, err)
	}

	if err := insertReviewers(ctx, tx, campaign.ID, campaign.Reviewers); err != nil {
		return persistence.NewCampaignError("Create", campaign.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit campaign %s: %w", campaign.ID, err)
	}

	return nil
}

// GetByID retrieves a campaign with its reviewer assignments.
func (r *CampaignRepository) GetByID(ctx context.Context, id string) (*models.Campaign, error) {
	return getCampaign(ctx, r.db, id, "")
}

// List returns campaigns matching opts, active first and newest first.
func (r *CampaignRepository) List(ctx context.Context, opts persistence.ListCampaignsOptions) ([]*models.Campaign, error) {
	var (
		conditions []string
		args       []any
	)

	if opts.VisibleTo != "" {
		args = append(args, models.NormalizeEmail(opts.VisibleTo))
		placeholder := "$" + strconv.Itoa(len(args))
		conditions = append(conditions, "(c.owner = "+placeholder+
			" OR EXISTS (SELECT 1 FROM campaign_reviewers cr WHERE cr.campaign_id = c.id AND cr.email = "+placeholder+"))")
	}

	if opts.Status != nil {
		args = append(args, string(*opts.Status))
		conditions = append(conditions, "c.status = $"+strconv.Itoa(len(args)))
	}

	if opts.EndsBefore != nil {
		args = append(args, *opts.EndsBefore)
		conditions = append(conditions, "c.end_date < $"+strconv.Itoa(len(args)))
	}

	query := "SELECT " + campaignColumns + " FROM campaigns c"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY (c.status = 'Active') DESC, c.created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query campaigns: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	campaigns := make([]*models.Campaign, 0)

	for rows.Next() {
		campaign, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan campaign: %w", err)
		}

		campaigns = append(campaigns, campaign)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating campaigns: %w", err)
	}

	for _, campaign := range campaigns {
		campaign.Reviewers, err = loadReviewers(ctx, r.db, campaign.ID)
		if err != nil {
			return nil, err
		}
	}

	return campaigns, nil
}

// Update locks the campaign row, applies mutate to a copy and writes it back.
// Reviewer assignments are append-only.
func (r *CampaignRepository) Update(ctx context.Context, id string, mutate persistence.CampaignMutation) (*models.Campaign, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(ctx, r.logger, tx)

	current, err := getCampaign(ctx, tx, id, "FOR UPDATE")
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

	jobDescriptions, err := json.Marshal(nonNilArtifacts(updated.JobDescriptions))
	if err != nil {
		return nil, persistence.NewCampaignError("Update", id, fmt.Errorf("failed to marshal job descriptions: %w", err))
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE campaigns
		SET name = $2, note = $3, start_date = $4, end_date = $5, status = $6,
			job_descriptions = $7, updated_at = $8
		WHERE id = $1`,
		id, updated.Name, updated.Note, updated.StartDate, updated.EndDate, updated.Status,
		jobDescriptions, updated.UpdatedAt,
	)
	if err != nil {
		return nil, persistence.NewCampaignError("Update", id, err)
	}

	if err := insertReviewers(ctx, tx, id, updated.Reviewers); err != nil {
		return nil, persistence.NewCampaignError("Update", id, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit campaign %s: %w", id, err)
	}

	return updated, nil
}

// getCampaign loads a campaign row, optionally with a locking clause, plus its reviewers.
func getCampaign(ctx context.Context, q queryer, id, lock string) (*models.Campaign, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, persistence.NewCampaignError("GetByID", id, persistence.ErrCampaignNotFound)
	}

	query := "SELECT " + campaignColumns + " FROM campaigns c WHERE c.id = $1 " + lock

	campaign, err := scanCampaign(q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewCampaignError("GetByID", id, persistence.ErrCampaignNotFound)
		}

		return nil, persistence.NewCampaignError("GetByID", id, err)
	}

	campaign.Reviewers, err = loadReviewers(ctx, q, campaign.ID)
	if err != nil {
		return nil, err
	}

	return campaign, nil
}

func scanCampaign(row scanner) (*models.Campaign, error) {
	var (
		campaign        models.Campaign
		status          string
		jobDescriptions []byte
	)

	err := row.Scan(
		&campaign.ID,
		&campaign.Name,
		&campaign.Note,
		&campaign.StartDate,
		&campaign.EndDate,
		&status,
		&campaign.Owner,
		&jobDescriptions,
		&campaign.CreatedAt,
		&campaign.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	campaign.Status = models.CampaignStatus(status)
	campaign.StartDate = campaign.StartDate.UTC()
	campaign.EndDate = campaign.EndDate.UTC()

	if len(jobDescriptions) > 0 {
		if err := json.Unmarshal(jobDescriptions, &campaign.JobDescriptions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal job descriptions: %w", err)
		}
	}

	return &campaign, nil
}

func loadReviewers(ctx context.Context, q queryer, campaignID string) (models.Reviewers, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT role, email FROM campaign_reviewers WHERE campaign_id = $1 ORDER BY position", campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reviewers of campaign %s: %w", campaignID, err)
	}

	defer func() { _ = rows.Close() }()

	reviewers := models.Reviewers{}

	for rows.Next() {
		var role, email string
		if err := rows.Scan(&role, &email); err != nil {
			return nil, fmt.Errorf("failed to scan reviewer: %w", err)
		}

		reviewers.Add(models.Role(role), email)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reviewers: %w", err)
	}

	return reviewers, nil
}

func insertReviewers(ctx context.Context, q queryer, campaignID string, reviewers models.Reviewers) error {
	for _, role := range models.Roles {
		for _, email := range reviewers[role] {
			_, err := q.ExecContext(ctx, `
				INSERT INTO campaign_reviewers (campaign_id, role, email)
				VALUES ($1, $2, $3)
				ON CONFLICT DO NOTHING`,
				campaignID, string(role), models.NormalizeEmail(email),
			)
			if err != nil {
				return fmt.Errorf("failed to assign %s as %s: %w", email, role, err)
			}
		}
	}

	return nil
}

func nonNilArtifacts(artifacts []models.Artifact) []models.Artifact {
	if artifacts == nil {
		return []models.Artifact{}
	}

	return artifacts
}
