package web

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
	"github.com/talentpivot/talentpivot/pkg/artifacts"
	"github.com/talentpivot/talentpivot/pkg/identity"
	"github.com/talentpivot/talentpivot/pkg/services"
	"github.com/talentpivot/talentpivot/pkg/workflow"
)

func problem(c fiber.Ctx, status int, problemType, detail string) error {
	p := problems.NewStatusProblem(status).
		WithInstance(c.Path()).
		WithType(problemType).
		WithDetail(detail)

	return c.Status(status).JSON(p)
}

func badRequest(c fiber.Ctx, detail string) error {
	return problem(c, fiber.StatusBadRequest, "validation_error", detail)
}

func unauthorized(c fiber.Ctx, detail string) error {
	return problem(c, fiber.StatusUnauthorized, "unauthorized", detail)
}

func notFound(c fiber.Ctx, detail string) error {
	return problem(c, fiber.StatusNotFound, "not_found", detail)
}

func tooManyRequests(c fiber.Ctx) error {
	return problem(c, fiber.StatusTooManyRequests, "rate_limited", "too many attempts, try again later")
}

func internalError(c fiber.Ctx, err error) error {
	p := problems.NewStatusProblem(fiber.StatusInternalServerError).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(p)
}

// typeOf prefers the engine's error code as problem type.
func typeOf(err error, fallback string) string {
	if code := workflow.Code(err); code != "" {
		return code
	}

	var serviceErr *services.ServiceError
	if errors.As(err, &serviceErr) && serviceErr.Code != "" {
		return serviceErr.Code
	}

	return fallback
}

// handleError maps engine, account and artifact errors to problem responses.
func handleError(c fiber.Ctx, logger *slog.Logger, err error) error {
	switch {
	case workflow.IsValidationError(err), services.IsValidationError(err):
		return problem(c, fiber.StatusBadRequest, typeOf(err, "validation_error"), err.Error())

	case services.IsUnauthorizedError(err), errors.Is(err, identity.ErrUnauthorized):
		return problem(c, fiber.StatusUnauthorized, typeOf(err, "unauthorized"), err.Error())

	case errors.Is(err, artifacts.ErrInvalidToken):
		return problem(c, fiber.StatusUnauthorized, "invalid_token", err.Error())

	case workflow.IsAuthorizationError(err):
		return problem(c, fiber.StatusForbidden, typeOf(err, "forbidden"), err.Error())

	case workflow.IsNotFoundError(err):
		return problem(c, fiber.StatusNotFound, typeOf(err, "not_found"), err.Error())

	case errors.Is(err, artifacts.ErrNotFound), errors.Is(err, artifacts.ErrInvalidKey):
		return notFound(c, "artifact not found")

	case workflow.IsCampaignClosedError(err):
		return problem(c, fiber.StatusConflict, typeOf(err, "campaign_closed"), err.Error())

	case services.IsConflictError(err):
		return problem(c, fiber.StatusConflict, typeOf(err, "conflict"), err.Error())

	default:
		logger.ErrorContext(c.Context(), "request failed", "path", c.Path(), "error", err)

		return internalError(c, err)
	}
}
