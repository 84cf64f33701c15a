package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/talentpivot/talentpivot/pkg/authz"
	"github.com/talentpivot/talentpivot/pkg/events"
	"github.com/talentpivot/talentpivot/pkg/identity"
	"github.com/talentpivot/talentpivot/pkg/models"
	"github.com/talentpivot/talentpivot/pkg/otelhelper"
	"go.opentelemetry.io/otel/attribute"
)

const (
	opAddCandidate          = "AddCandidate"
	opUpdateCandidateStages = "UpdateCandidateStages"
)

// AddCandidateInput carries a new candidate and their resume.
type AddCandidateInput struct {
	FullName string
	Email    string
	Phone    string
	Resume   *Upload
}

// AddCandidate registers a candidate on an Active campaign with every stage Pending.
func (e *Engine) AddCandidate(ctx context.Context, caller identity.Identity, campaignID string, input AddCandidateInput) (candidate *models.Candidate, err error) {
	ctx, span := e.startSpan(ctx, opAddCandidate, caller, attribute.String(otelhelper.CampaignIDKey, campaignID))
	defer func() { finish(span, err) }()

	if err := e.authorize(opAddCandidate, caller, authz.ObjectCandidate, authz.ActionAdd); err != nil {
		return nil, err
	}

	fullName := strings.TrimSpace(input.FullName)
	if fullName == "" {
		return nil, validationError(opAddCandidate, CodeInvalidInput, "full name is required")
	}

	if !ValidEmail(input.Email) {
		return nil, validationError(opAddCandidate, CodeInvalidEmail, fmt.Sprintf("invalid email %q", input.Email))
	}

	if !ValidPhone(input.Phone) {
		return nil, validationError(opAddCandidate, CodeInvalidPhone, "phone must be exactly 10 digits")
	}

	if input.Resume == nil {
		return nil, validationError(opAddCandidate, CodeInvalidDocument, "a resume file is required")
	}

	campaign, err := e.loadCampaign(ctx, opAddCandidate, campaignID)
	if err != nil {
		return nil, err
	}

	if !campaign.Active() {
		return nil, campaignClosedError(opAddCandidate, campaignID)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to generate candidate id: %w", opAddCandidate, err)
	}

	span.SetAttributes(attribute.String(otelhelper.CandidateIDKey, id.String()))

	stored, err := e.storeDocuments(ctx, opAddCandidate, models.ArtifactKindResume, []Upload{*input.Resume})
	if err != nil {
		return nil, err
	}

	candidate = &models.Candidate{
		ID:         id.String(),
		CampaignID: campaign.ID,
		FullName:   fullName,
		Email:      strings.TrimSpace(input.Email),
		Phone:      strings.TrimSpace(input.Phone),
		Stages:     models.NewStageRecords(),
		Resume:     stored[0],
	}
	candidate.Recompute()

	err = e.persistence.CandidateRepository().Create(ctx, candidate, func(c *models.Campaign) error {
		if !c.Active() {
			return campaignClosedError(opAddCandidate, c.ID)
		}

		return nil
	})
	if err != nil {
		e.discardArtifacts(ctx, stored)

		return nil, notFound(opAddCandidate, err)
	}

	e.logger.InfoContext(ctx, "candidate added", "campaign_id", campaign.ID, "candidate_id", candidate.ID)

	e.publish(ctx, campaign.ID, events.CandidateAdded{
		BaseEvent:   events.NewBaseEvent(events.CandidateAddedEvent, campaign.ID, caller.Email),
		CandidateID: candidate.ID,
		FullName:    candidate.FullName,
	})

	return candidate, nil
}

// StageUpdate is one edit of a stage record.
type StageUpdate struct {
	Stage models.Stage
	// Status is left unchanged when empty.
	Status models.StageStatus
	// Feedback is left unchanged when nil.
	Feedback *string
}

// UpdateCandidateStage writes the status and feedback of a single stage.
func (e *Engine) UpdateCandidateStage(
	ctx context.Context,
	caller identity.Identity,
	campaignID, candidateID string,
	stage models.Stage,
	status models.StageStatus,
	feedback string,
) (*models.Candidate, error) {
	if status == "" {
		return nil, validationError(opUpdateCandidateStages, CodeInvalidStatus, "status is required")
	}

	return e.UpdateCandidateStages(ctx, caller, campaignID, candidateID, []StageUpdate{
		{Stage: stage, Status: status, Feedback: &feedback},
	})
}

// UpdateCandidateStages applies all updates in one atomic step. If any update is refused
// the candidate is left untouched.
func (e *Engine) UpdateCandidateStages(ctx context.Context, caller identity.Identity, campaignID, candidateID string, updates []StageUpdate) (candidate *models.Candidate, err error) {
	ctx, span := e.startSpan(ctx, opUpdateCandidateStages, caller,
		attribute.String(otelhelper.CampaignIDKey, campaignID),
		attribute.String(otelhelper.CandidateIDKey, candidateID),
	)
	defer func() { finish(span, err) }()

	updates, err = normalizeUpdates(updates)
	if err != nil {
		return nil, err
	}

	for _, update := range updates {
		if err := e.authorize(opUpdateCandidateStages, caller, authz.StageObject(update.Stage), authz.ActionWrite); err != nil {
			return nil, err
		}
	}

	canWriteFinal, err := e.authorizer.Allowed(caller.Role, authz.ObjectFinalCandidate, authz.ActionWrite)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opUpdateCandidateStages, err)
	}

	var changes []events.StageChange

	candidate, err = e.persistence.CandidateRepository().Update(ctx, campaignID, candidateID, func(c *models.Campaign, cand *models.Candidate) error {
		if !c.Active() {
			return campaignClosedError(opUpdateCandidateStages, c.ID)
		}

		if models.DeriveAppStatus(cand.Stages).Final() && !canWriteFinal {
			return authorizationError(opUpdateCandidateStages, CodeFinalCandidate,
				"candidate already has a final status; only HR may change it")
		}

		changes = make([]events.StageChange, 0, len(updates))

		for _, update := range updates {
			previous := cand.Stages.Get(update.Stage)
			current := previous

			if update.Status != "" {
				current.Status = update.Status
			}

			if update.Feedback != nil {
				current.Feedback = strings.TrimSpace(*update.Feedback)
			}

			cand.Stages.Set(update.Stage, current)
			changes = append(changes, events.StageChange{Stage: update.Stage, Previous: previous, Current: current})
		}

		cand.Recompute()

		return nil
	})
	if err != nil {
		return nil, notFound(opUpdateCandidateStages, err)
	}

	e.logger.InfoContext(ctx, "candidate stages updated",
		"campaign_id", campaignID,
		"candidate_id", candidateID,
		"by", caller.Email,
		"app_status", candidate.AppStatus)

	e.publish(ctx, campaignID, events.CandidateStageUpdated{
		BaseEvent:   events.NewBaseEvent(events.CandidateStageUpdatedEvent, campaignID, caller.Email),
		CandidateID: candidateID,
		Changes:     changes,
		AppStatus:   candidate.AppStatus,
	})

	return candidate, nil
}

// normalizeUpdates canonicalizes stage and status labels and rejects unknown ones.
func normalizeUpdates(updates []StageUpdate) ([]StageUpdate, error) {
	if len(updates) == 0 {
		return nil, validationError(opUpdateCandidateStages, CodeInvalidInput, "no stage updates given")
	}

	normalized := make([]StageUpdate, 0, len(updates))

	for _, update := range updates {
		stage, ok := models.ParseStage(string(update.Stage))
		if !ok {
			return nil, validationError(opUpdateCandidateStages, CodeInvalidStage, fmt.Sprintf("unknown stage %q", update.Stage))
		}

		update.Stage = stage

		if update.Status != "" {
			status, ok := models.ParseStageStatus(string(update.Status))
			if !ok {
				return nil, validationError(opUpdateCandidateStages, CodeInvalidStatus, fmt.Sprintf("unknown status %q", update.Status))
			}

			update.Status = status
		}

		if update.Status == "" && update.Feedback == nil {
			return nil, validationError(opUpdateCandidateStages, CodeInvalidInput, fmt.Sprintf("empty update for stage %s", stage))
		}

		normalized = append(normalized, update)
	}

	return normalized, nil
}
