package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/talentpivot/talentpivot/pkg/artifacts"
	"github.com/talentpivot/talentpivot/pkg/authz"
	"github.com/talentpivot/talentpivot/pkg/events"
	"github.com/talentpivot/talentpivot/pkg/identity"
	"github.com/talentpivot/talentpivot/pkg/models"
	"github.com/talentpivot/talentpivot/pkg/otelhelper"
	"go.opentelemetry.io/otel/attribute"
)

// errUnchanged aborts an update whose mutation would not change anything.
var errUnchanged = errors.New("unchanged")

const (
	opCreateCampaign   = "CreateCampaign"
	opCompleteCampaign = "CompleteCampaign"
	opReopenCampaign   = "ReopenCampaign"
	opAssignRole       = "AssignRole"
)

// CreateCampaignInput carries the metadata of a new campaign.
type CreateCampaignInput struct {
	Name            string
	Note            string
	StartDate       string // models.DateLayout
	EndDate         string // models.DateLayout
	JobDescriptions []Upload
	Reviewers       models.Reviewers
}

// CreateCampaign opens a new Active campaign owned by caller. The caller is also
// assigned to the HR role of the campaign.
func (e *Engine) CreateCampaign(ctx context.Context, caller identity.Identity, input CreateCampaignInput) (campaign *models.Campaign, err error) {
	ctx, span := e.startSpan(ctx, opCreateCampaign, caller)
	defer func() { finish(span, err) }()

	if err := e.authorize(opCreateCampaign, caller, authz.ObjectCampaign, authz.ActionCreate); err != nil {
		return nil, err
	}

	campaign, err = buildCampaign(caller, input)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String(otelhelper.CampaignIDKey, campaign.ID))

	stored, err := e.storeDocuments(ctx, opCreateCampaign, models.ArtifactKindJobDescription, input.JobDescriptions)
	if err != nil {
		return nil, err
	}

	campaign.JobDescriptions = stored

	if err := e.persistence.CampaignRepository().Create(ctx, campaign); err != nil {
		e.discardArtifacts(ctx, stored)

		return nil, fmt.Errorf("%s: failed to save campaign: %w", opCreateCampaign, err)
	}

	e.logger.InfoContext(ctx, "campaign created", "campaign_id", campaign.ID, "owner", campaign.Owner)

	e.publish(ctx, campaign.ID, events.CampaignCreated{
		BaseEvent: events.NewBaseEvent(events.CampaignCreatedEvent, campaign.ID, caller.Email),
		Name:      campaign.Name,
		StartDate: campaign.StartDate.Format(models.DateLayout),
		EndDate:   campaign.EndDate.Format(models.DateLayout),
		Reviewers: campaign.Reviewers.Clone(),
	})

	return campaign, nil
}

// buildCampaign validates input without touching storage.
func buildCampaign(caller identity.Identity, input CreateCampaignInput) (*models.Campaign, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, validationError(opCreateCampaign, CodeInvalidInput, "campaign name is required")
	}

	startDate, ok := ParseDate(input.StartDate)
	if !ok {
		return nil, validationError(opCreateCampaign, CodeInvalidDates, "start date must be a date in YYYY-MM-DD format")
	}

	endDate, ok := ParseDate(input.EndDate)
	if !ok {
		return nil, validationError(opCreateCampaign, CodeInvalidDates, "end date must be a date in YYYY-MM-DD format")
	}

	if endDate.Before(startDate) {
		return nil, validationError(opCreateCampaign, CodeInvalidDates, "end date must not be before start date")
	}

	if len(input.JobDescriptions) == 0 {
		return nil, validationError(opCreateCampaign, CodeInvalidDocument, "at least one job description file is required")
	}

	reviewers := models.Reviewers{}

	for role, emails := range input.Reviewers {
		if !role.Valid() {
			return nil, validationError(opCreateCampaign, CodeInvalidInput, fmt.Sprintf("unknown role %q", role))
		}

		for _, email := range emails {
			if !ValidEmail(email) {
				return nil, validationError(opCreateCampaign, CodeInvalidEmail, fmt.Sprintf("invalid %s email %q", role, email))
			}

			reviewers.Add(role, email)
		}
	}

	if len(reviewers[models.RoleL3]) == 0 {
		return nil, validationError(opCreateCampaign, CodeMissingReviewer, "at least one L3 reviewer email is required")
	}

	if ValidEmail(caller.Email) {
		reviewers.Add(models.RoleHR, caller.Email)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to generate campaign id: %w", opCreateCampaign, err)
	}

	return &models.Campaign{
		ID:        id.String(),
		Name:      name,
		Note:      strings.TrimSpace(input.Note),
		StartDate: startDate,
		EndDate:   endDate,
		Status:    models.CampaignStatusActive,
		Owner:     models.NormalizeEmail(caller.Email),
		Reviewers: reviewers,
	}, nil
}

// storeDocuments stores every upload or none of them.
func (e *Engine) storeDocuments(ctx context.Context, op string, kind models.ArtifactKind, uploads []Upload) ([]models.Artifact, error) {
	stored := make([]models.Artifact, 0, len(uploads))

	for _, upload := range uploads {
		artifact, err := e.artifacts.Put(ctx, kind, upload.FileName, upload.Data)
		if err != nil {
			e.discardArtifacts(ctx, stored)

			if artifacts.IsRejectedUpload(err) {
				return nil, &Error{
					Op:      op,
					Code:    CodeInvalidDocument,
					Message: fmt.Sprintf("%s: %v", upload.FileName, err),
					Err:     fmt.Errorf("%w: %w", ErrValidation, err),
				}
			}

			return nil, fmt.Errorf("%s: failed to store %s: %w", op, upload.FileName, err)
		}

		stored = append(stored, artifact)
	}

	return stored, nil
}

func (e *Engine) discardArtifacts(ctx context.Context, stored []models.Artifact) {
	for _, artifact := range stored {
		if err := e.artifacts.Delete(ctx, artifact.Key); err != nil {
			e.logger.WarnContext(ctx, "failed to delete orphaned artifact", "key", artifact.Key, "error", err)
		}
	}
}

// CompleteCampaign closes an Active campaign. Completing a Completed campaign is a no-op.
func (e *Engine) CompleteCampaign(ctx context.Context, caller identity.Identity, campaignID string) (campaign *models.Campaign, err error) {
	ctx, span := e.startSpan(ctx, opCompleteCampaign, caller, attribute.String(otelhelper.CampaignIDKey, campaignID))
	defer func() { finish(span, err) }()

	if err := e.authorize(opCompleteCampaign, caller, authz.ObjectCampaign, authz.ActionComplete); err != nil {
		return nil, err
	}

	campaign, err = e.persistence.CampaignRepository().Update(ctx, campaignID, func(c *models.Campaign) error {
		if !c.Active() {
			return errUnchanged
		}

		c.Status = models.CampaignStatusCompleted

		return nil
	})
	if errors.Is(err, errUnchanged) {
		return e.loadCampaign(ctx, opCompleteCampaign, campaignID)
	}

	if err != nil {
		return nil, notFound(opCompleteCampaign, err)
	}

	e.logger.InfoContext(ctx, "campaign completed", "campaign_id", campaignID, "by", caller.Email)

	e.publish(ctx, campaignID, events.CampaignCompleted{
		BaseEvent: events.NewBaseEvent(events.CampaignCompletedEvent, campaignID, caller.Email),
	})

	return campaign, nil
}

// ReopenCampaign moves a Completed campaign back to Active.
func (e *Engine) ReopenCampaign(ctx context.Context, caller identity.Identity, campaignID string) (campaign *models.Campaign, err error) {
	ctx, span := e.startSpan(ctx, opReopenCampaign, caller, attribute.String(otelhelper.CampaignIDKey, campaignID))
	defer func() { finish(span, err) }()

	if err := e.authorize(opReopenCampaign, caller, authz.ObjectCampaign, authz.ActionReopen); err != nil {
		return nil, err
	}

	campaign, err = e.persistence.CampaignRepository().Update(ctx, campaignID, func(c *models.Campaign) error {
		if c.Active() {
			return validationError(opReopenCampaign, CodeNotCompleted, "campaign is not completed")
		}

		c.Status = models.CampaignStatusActive

		return nil
	})
	if err != nil {
		return nil, notFound(opReopenCampaign, err)
	}

	e.logger.InfoContext(ctx, "campaign reopened", "campaign_id", campaignID, "by", caller.Email)

	e.publish(ctx, campaignID, events.CampaignReopened{
		BaseEvent: events.NewBaseEvent(events.CampaignReopenedEvent, campaignID, caller.Email),
	})

	return campaign, nil
}

// AssignRole adds email to the role's reviewer set. Assigning an existing reviewer
// changes nothing. Completed campaigns accept assignments.
func (e *Engine) AssignRole(ctx context.Context, caller identity.Identity, campaignID string, role models.Role, email string) (campaign *models.Campaign, err error) {
	ctx, span := e.startSpan(ctx, opAssignRole, caller, attribute.String(otelhelper.CampaignIDKey, campaignID))
	defer func() { finish(span, err) }()

	if err := e.authorize(opAssignRole, caller, authz.ObjectCampaign, authz.ActionAssign); err != nil {
		return nil, err
	}

	if !role.Valid() {
		return nil, validationError(opAssignRole, CodeInvalidInput, fmt.Sprintf("unknown role %q", role))
	}

	if !ValidEmail(email) {
		return nil, validationError(opAssignRole, CodeInvalidEmail, fmt.Sprintf("invalid email %q", email))
	}

	campaign, err = e.persistence.CampaignRepository().Update(ctx, campaignID, func(c *models.Campaign) error {
		if c.Reviewers == nil {
			c.Reviewers = models.Reviewers{}
		}

		if !c.Reviewers.Add(role, email) {
			return errUnchanged
		}

		return nil
	})
	if errors.Is(err, errUnchanged) {
		return e.loadCampaign(ctx, opAssignRole, campaignID)
	}

	if err != nil {
		return nil, notFound(opAssignRole, err)
	}

	e.logger.InfoContext(ctx, "reviewer assigned", "campaign_id", campaignID, "role", role, "email", email)

	e.publish(ctx, campaignID, events.CampaignReviewerAssigned{
		BaseEvent: events.NewBaseEvent(events.CampaignReviewerAssignedEvent, campaignID, caller.Email),
		Role:      role,
		Email:     models.NormalizeEmail(email),
	})

	return campaign, nil
}
