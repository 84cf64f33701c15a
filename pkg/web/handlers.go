package web

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/talentpivot/talentpivot/pkg/models"
	"github.com/talentpivot/talentpivot/pkg/services"
	"github.com/talentpivot/talentpivot/pkg/workflow"
)

// ArtifactReader serves signed downloads.
type ArtifactReader interface {
	Open(ctx context.Context, key string) (io.ReadCloser, models.Artifact, error)
	Verify(key, token string) error
	HealthCheck(ctx context.Context) error
}

type APIHandlers struct {
	engine    *workflow.Engine
	accounts  *services.Accounts
	artifacts ArtifactReader
	validator *validator.Validate
	limiter   Limiter
	logger    *slog.Logger
	urlTTL    time.Duration
}

func NewAPIHandlers(
	engine *workflow.Engine,
	accounts *services.Accounts,
	artifacts ArtifactReader,
	validator *validator.Validate,
	limiter Limiter,
	logger *slog.Logger,
	urlTTL time.Duration,
) *APIHandlers {
	return &APIHandlers{
		engine:    engine,
		accounts:  accounts,
		artifacts: artifacts,
		validator: validator,
		limiter:   limiter,
		logger:    logger,
		urlTTL:    urlTTL,
	}
}

func (h *APIHandlers) fail(c fiber.Ctx, err error) error {
	return handleError(c, h.logger, err)
}

func (h *APIHandlers) Register(c fiber.Ctx) error {
	var req services.RegisterRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	user, err := h.accounts.Register(c.Context(), req)
	if err != nil {
		return h.fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(user)
}

func (h *APIHandlers) Login(c fiber.Ctx) error {
	var req services.LoginRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if h.limiter != nil {
		key := "login:" + models.NormalizeEmail(req.Email) + ":" + c.IP()
		if !h.limiter.Allow(c.Context(), key, LoginAttempts, LoginWindow) {
			return tooManyRequests(c)
		}
	}

	resp, err := h.accounts.Login(c.Context(), req)
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(resp)
}

func (h *APIHandlers) ChangePassword(c fiber.Ctx) error {
	id, ok := caller(c)
	if !ok {
		return unauthorized(c, "missing bearer token")
	}

	var req services.ChangePasswordRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.accounts.ChangePassword(c.Context(), id, req); err != nil {
		return h.fail(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) CreateCampaign(c fiber.Ctx) error {
	id, ok := caller(c)
	if !ok {
		return unauthorized(c, "missing bearer token")
	}

	input, err := parseCampaignForm(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	campaign, err := h.engine.CreateCampaign(c.Context(), id, *input)
	if err != nil {
		return h.fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(campaign)
}

func (h *APIHandlers) ListCampaigns(c fiber.Ctx) error {
	id, ok := caller(c)
	if !ok {
		return unauthorized(c, "missing bearer token")
	}

	campaigns, err := h.engine.ListCampaigns(c.Context(), id)
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(CampaignListResponse{Campaigns: campaigns})
}

func (h *APIHandlers) GetCampaign(c fiber.Ctx) error {
	id, ok := caller(c)
	if !ok {
		return unauthorized(c, "missing bearer token")
	}

	campaign, err := h.engine.GetCampaign(c.Context(), id, c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(campaign)
}

func (h *APIHandlers) GetCampaignStatus(c fiber.Ctx) error {
	id, ok := caller(c)
	if !ok {
		return unauthorized(c, "missing bearer token")
	}

	campaignID := c.Params("id")

	status, err := h.engine.CampaignStatus(c.Context(), id, campaignID)
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(CampaignStatusResponse{CampaignID: campaignID, Status: status})
}

func (h *APIHandlers) GetCampaignSummary(c fiber.Ctx) error {
	id, ok := caller(c)
	if !ok {
		return unauthorized(c, "missing bearer token")
	}

	summary, err := h.engine.CampaignSummary(c.Context(), id, c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(summary)
}

func (h *APIHandlers) CompleteCampaign(c fiber.Ctx) error {
	id, ok := caller(c)
	if !ok {
		return unauthorized(c, "missing bearer token")
	}

	campaign, err := h.engine.CompleteCampaign(c.Context(), id, c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(campaign)
}

func (h *APIHandlers) ReopenCampaign(c fiber.Ctx) error {
	id, ok := caller(c)
	if !ok {
		return unauthorized(c, "missing bearer token")
	}

	campaign, err := h.engine.ReopenCampaign(c.Context(), id, c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(campaign)
}

func (h *APIHandlers) AssignRole(c fiber.Ctx) error {
	id, ok := caller(c)
	if !ok {
		return unauthorized(c, "missing bearer token")
	}

	var req AssignRoleRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	role, ok := models.ParseRole(req.Role)
	if !ok {
		return badRequest(c, fmt.Sprintf("unknown role %q", req.Role))
	}

	campaign, err := h.engine.AssignRole(c.Context(), id, c.Params("id"), role, req.Email)
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(campaign)
}

func (h *APIHandlers) AddCandidate(c fiber.Ctx) error {
	id, ok := caller(c)
	if !ok {
		return unauthorized(c, "missing bearer token")
	}

	input, err := parseCandidateForm(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	candidate, err := h.engine.AddCandidate(c.Context(), id, c.Params("id"), *input)
	if err != nil {
		return h.fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(candidate)
}

func (h *APIHandlers) ListCandidates(c fiber.Ctx) error {
	id, ok := caller(c)
	if !ok {
		return unauthorized(c, "missing bearer token")
	}

	opts, err := parseListCandidatesQuery(c)
	if err != nil {
		return badRequest(c, "Invalid query parameters: "+err.Error())
	}

	result, err := h.engine.ListCandidates(c.Context(), id, c.Params("id"), *opts)
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(fiber.Map{
		"candidates":    result.Candidates,
		"total_count":   result.TotalCount,
		"has_next_page": result.HasNextPage,
		"pagination": fiber.Map{
			"limit":  opts.Normalized().Limit,
			"offset": opts.Offset,
		},
	})
}

func (h *APIHandlers) UpdateCandidateStatus(c fiber.Ctx) error {
	id, ok := caller(c)
	if !ok {
		return unauthorized(c, "missing bearer token")
	}

	var req StageStatusRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	updates, err := stageUpdates(req)
	if err != nil {
		return badRequest(c, err.Error())
	}

	candidate, err := h.engine.UpdateCandidateStages(c.Context(), id, c.Params("id"), c.Params("cid"), updates)
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(candidate)
}

func (h *APIHandlers) GetResumeURL(c fiber.Ctx) error {
	id, ok := caller(c)
	if !ok {
		return unauthorized(c, "missing bearer token")
	}

	link, err := h.engine.ResumeURL(c.Context(), id, c.Params("id"), c.Params("cid"), h.urlTTL)
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(link)
}

func (h *APIHandlers) GetJobDescriptionURLs(c fiber.Ctx) error {
	id, ok := caller(c)
	if !ok {
		return unauthorized(c, "missing bearer token")
	}

	links, err := h.engine.JobDescriptionURLs(c.Context(), id, c.Params("id"), h.urlTTL)
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(fiber.Map{"job_descriptions": links})
}

// DownloadArtifact streams a stored document to the holder of a signed URL.
func (h *APIHandlers) DownloadArtifact(c fiber.Ctx) error {
	key := c.Params("*")

	if err := h.artifacts.Verify(key, c.Query("token")); err != nil {
		return h.fail(c, err)
	}

	content, artifact, err := h.artifacts.Open(c.Context(), key)
	if err != nil {
		return h.fail(c, err)
	}

	c.Attachment(artifact.FileName)
	c.Set(fiber.HeaderContentType, artifact.ContentType)
	c.Set(fiber.HeaderXContentTypeOptions, "nosniff")

	return c.SendStream(content, int(artifact.Size))
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.engine.HealthCheck(c.Context())

	artifactCheck, artOk := "Artifact store is healthy", true
	if err := h.artifacts.HealthCheck(c.Context()); err != nil {
		artifactCheck, artOk = "Artifact store is unhealthy: "+err.Error(), false
	}

	status := "unhealthy"
	message := "TalentPivot API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk && artOk {
		status = "healthy"
		message = "TalentPivot API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
			"artifacts":  artifactCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

// stageUpdates converts either request form into engine updates in stage order.
func stageUpdates(req StageStatusRequest) ([]workflow.StageUpdate, error) {
	if len(req.Updates) == 0 {
		if req.Stage == "" {
			return nil, fmt.Errorf("either updates or stage is required")
		}

		return []workflow.StageUpdate{{
			Stage:    models.Stage(req.Stage),
			Status:   models.StageStatus(req.Status),
			Feedback: req.Feedback,
		}}, nil
	}

	byStage := make(map[models.Stage]*workflow.StageUpdate, len(models.Stages))

	for field, value := range req.Updates {
		prefix, attribute, ok := strings.Cut(strings.ToLower(field), "_")
		if !ok {
			return nil, fmt.Errorf("unknown update field %q", field)
		}

		stage, ok := models.ParseStage(prefix)
		if !ok {
			return nil, fmt.Errorf("unknown update field %q", field)
		}

		update, ok := byStage[stage]
		if !ok {
			update = &workflow.StageUpdate{Stage: stage}
			byStage[stage] = update
		}

		switch attribute {
		case "status":
			update.Status = models.StageStatus(value)
		case "feedback":
			feedback := value
			update.Feedback = &feedback
		default:
			return nil, fmt.Errorf("unknown update field %q", field)
		}
	}

	updates := make([]workflow.StageUpdate, 0, len(byStage))

	for _, stage := range models.Stages {
		if update, ok := byStage[stage]; ok {
			updates = append(updates, *update)
		}
	}

	return updates, nil
}
