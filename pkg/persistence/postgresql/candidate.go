package postgresql

import (
	"context"
	"database/sql"
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

const candidateColumns = `
	id
  , campaign_id
  , full_name
  , email
  , phone
  , app_status
  , l1_status
  , l1_feedback
  , l2_status
  , l2_feedback
  , l3_status
  , l3_feedback
  , hr_status
  , hr_feedback
  , resume_key
  , resume_file_name
  , resume_content_type
  , resume_size
  , created_at
  , updated_at
`

// CandidateRepository handles candidate-related database operations.
type CandidateRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewCandidateRepository creates a new candidate repository.
func NewCandidateRepository(db *sql.DB, logger *slog.Logger) *CandidateRepository {
	return &CandidateRepository{db: db, logger: logger}
}

// Create inserts the candidate while holding a share lock on its campaign.
func (r *CandidateRepository) Create(ctx context.Context, candidate *models.Candidate, guard persistence.CampaignGuard) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(ctx, r.logger, tx)

	campaign, err := getCampaign(ctx, tx, candidate.CampaignID, "FOR SHARE")
	if err != nil {
		return err
	}

	if guard != nil {
		if err := guard(campaign); err != nil {
			return err
		}
	}

	now := time.Now().UTC()
	if candidate.CreatedAt.IsZero() {
		candidate.CreatedAt = now
	}

	candidate.UpdatedAt = now

	_, err = tx.ExecContext(ctx, `
		INSERT INTO candidates (
			id, campaign_id, full_name, email, phone, app_status,
			l1_status, l1_feedback, l2_status, l2_feedback,
			l3_status, l3_feedback, hr_status, hr_feedback,
			resume_key, resume_file_name, resume_content_type, resume_size,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
		candidate.ID, candidate.CampaignID, candidate.FullName, candidate.Email, candidate.Phone,
		candidate.AppStatus,
		candidate.Stages.L1.Status, candidate.Stages.L1.Feedback,
		candidate.Stages.L2.Status, candidate.Stages.L2.Feedback,
		candidate.Stages.L3.Status, candidate.Stages.L3.Feedback,
		candidate.Stages.HR.Status, candidate.Stages.HR.Feedback,
		candidate.Resume.Key, candidate.Resume.FileName, candidate.Resume.ContentType, candidate.Resume.Size,
		candidate.CreatedAt, candidate.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return persistence.NewCandidateError("Create", candidate.ID, persistence.ErrCandidateAlreadyExists)
		}

		return persistence.NewCandidateError("Create", candidate.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit candidate %s: %w", candidate.ID, err)
	}

	return nil
}

// GetByID retrieves a candidate of a campaign.
func (r *CandidateRepository) GetByID(ctx context.Context, campaignID, candidateID string) (*models.Candidate, error) {
	return getCandidate(ctx, r.db, campaignID, candidateID, "")
}

// List returns one page of the campaign's candidates, oldest first.
func (r *CandidateRepository) List(ctx context.Context, campaignID string, opts persistence.ListCandidatesOptions) (*persistence.CandidateListResult, error) {
	if _, err := getCampaign(ctx, r.db, campaignID, ""); err != nil {
		return nil, err
	}

	opts = opts.Normalized()

	conditions := []string{"campaign_id = $1"}
	args := []any{campaignID}

	like := func(column, value string) {
		value = strings.TrimSpace(value)
		if value == "" {
			return
		}

		args = append(args, "%"+escapeLike(value)+"%")
		conditions = append(conditions, column+" ILIKE $"+strconv.Itoa(len(args)))
	}

	like("full_name", opts.Name)
	like("email", opts.Email)
	like("phone", opts.Phone)

	// Status is an exact, case-insensitive match like the file backend, never a pattern.
	if opts.Status != "" {
		args = append(args, strings.ToLower(opts.Status))
		placeholder := "$" + strconv.Itoa(len(args))
		conditions = append(conditions, "(LOWER(app_status) = "+placeholder+
			" OR LOWER(l1_status) = "+placeholder+
			" OR LOWER(l2_status) = "+placeholder+
			" OR LOWER(l3_status) = "+placeholder+
			" OR LOWER(hr_status) = "+placeholder+")")
	}

	where := " WHERE " + strings.Join(conditions, " AND ")

	var totalCount int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM candidates"+where, args...).Scan(&totalCount); err != nil {
		return nil, fmt.Errorf("failed to count candidates: %w", err)
	}

	args = append(args, opts.Limit, opts.Offset)
	query := "SELECT " + candidateColumns + " FROM candidates" + where +
		" ORDER BY created_at, id LIMIT $" + strconv.Itoa(len(args)-1) + " OFFSET $" + strconv.Itoa(len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	candidates := make([]*models.Candidate, 0, opts.Limit)

	for rows.Next() {
		candidate, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}

		candidates = append(candidates, candidate)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating candidates: %w", err)
	}

	return &persistence.CandidateListResult{
		Candidates:  candidates,
		TotalCount:  totalCount,
		HasNextPage: int64(opts.Offset+len(candidates)) < totalCount,
	}, nil
}

// Update takes FOR SHARE on the campaign and FOR UPDATE on the candidate, then applies
// mutate to a copy and writes every stage column back.
func (r *CandidateRepository) Update(ctx context.Context, campaignID, candidateID string, mutate persistence.CandidateMutation) (*models.Candidate, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(ctx, r.logger, tx)

	campaign, err := getCampaign(ctx, tx, campaignID, "FOR SHARE")
	if err != nil {
		return nil, err
	}

	current, err := getCandidate(ctx, tx, campaignID, candidateID, "FOR UPDATE")
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

	_, err = tx.ExecContext(ctx, `
		UPDATE candidates
		SET full_name = $3, email = $4, phone = $5, app_status = $6,
			l1_status = $7, l1_feedback = $8, l2_status = $9, l2_feedback = $10,
			l3_status = $11, l3_feedback = $12, hr_status = $13, hr_feedback = $14,
			updated_at = $15
		WHERE campaign_id = $1 AND id = $2`,
		campaignID, candidateID, updated.FullName, updated.Email, updated.Phone, updated.AppStatus,
		updated.Stages.L1.Status, updated.Stages.L1.Feedback,
		updated.Stages.L2.Status, updated.Stages.L2.Feedback,
		updated.Stages.L3.Status, updated.Stages.L3.Feedback,
		updated.Stages.HR.Status, updated.Stages.HR.Feedback,
		updated.UpdatedAt,
	)
	if err != nil {
		return nil, persistence.NewCandidateError("Update", candidateID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit candidate %s: %w", candidateID, err)
	}

	return updated, nil
}

func getCandidate(ctx context.Context, q queryer, campaignID, candidateID, lock string) (*models.Candidate, error) {
	if _, err := uuid.Parse(campaignID); err != nil {
		return nil, persistence.NewCandidateError("GetByID", candidateID, persistence.ErrCandidateNotFound)
	}

	if _, err := uuid.Parse(candidateID); err != nil {
		return nil, persistence.NewCandidateError("GetByID", candidateID, persistence.ErrCandidateNotFound)
	}

	query := "SELECT " + candidateColumns + " FROM candidates WHERE campaign_id = $1 AND id = $2 " + lock

	candidate, err := scanCandidate(q.QueryRowContext(ctx, query, campaignID, candidateID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewCandidateError("GetByID", candidateID, persistence.ErrCandidateNotFound)
		}

		return nil, persistence.NewCandidateError("GetByID", candidateID, err)
	}

	return candidate, nil
}

func scanCandidate(row scanner) (*models.Candidate, error) {
	var (
		candidate models.Candidate
		appStatus string
		statuses  [4]string
	)

	err := row.Scan(
		&candidate.ID,
		&candidate.CampaignID,
		&candidate.FullName,
		&candidate.Email,
		&candidate.Phone,
		&appStatus,
		&statuses[0], &candidate.Stages.L1.Feedback,
		&statuses[1], &candidate.Stages.L2.Feedback,
		&statuses[2], &candidate.Stages.L3.Feedback,
		&statuses[3], &candidate.Stages.HR.Feedback,
		&candidate.Resume.Key,
		&candidate.Resume.FileName,
		&candidate.Resume.ContentType,
		&candidate.Resume.Size,
		&candidate.CreatedAt,
		&candidate.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	candidate.AppStatus = models.AppStatus(appStatus)
	candidate.Stages.L1.Status = models.StageStatus(statuses[0])
	candidate.Stages.L2.Status = models.StageStatus(statuses[1])
	candidate.Stages.L3.Status = models.StageStatus(statuses[2])
	candidate.Stages.HR.Status = models.StageStatus(statuses[3])

	return &candidate, nil
}

func escapeLike(value string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(value)
}
