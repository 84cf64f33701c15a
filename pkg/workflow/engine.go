// Package workflow is the campaign and candidate status-workflow engine. It owns the
// legal transitions of both entities and asks the authorization table before each one.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/talentpivot/talentpivot/pkg/eventbus"
	"github.com/talentpivot/talentpivot/pkg/identity"
	"github.com/talentpivot/talentpivot/pkg/models"
	"github.com/talentpivot/talentpivot/pkg/otelhelper"
	"github.com/talentpivot/talentpivot/pkg/persistence"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Authorizer evaluates the (role, object, action) table.
type Authorizer interface {
	Allowed(role models.Role, object, action string) (bool, error)
}

// ArtifactStore keeps uploaded documents and signs download URLs for them.
type ArtifactStore interface {
	Put(ctx context.Context, kind models.ArtifactKind, fileName string, data []byte) (models.Artifact, error)
	Delete(ctx context.Context, key string) error
	SignedURL(key string, ttl time.Duration) (string, time.Time, error)
}

// Upload is a file received from a client, not yet stored.
type Upload struct {
	FileName string
	Data     []byte
}

// Engine executes workflow operations on behalf of an authenticated caller.
// It keeps no state between calls.
type Engine struct {
	persistence persistence.Persistence
	authorizer  Authorizer
	artifacts   ArtifactStore
	publisher   eventbus.EventPublisher
	logger      *slog.Logger
	tracer      trace.Tracer
}

// Option customizes an Engine.
type Option func(*Engine)

// WithPublisher publishes domain events after each committed transition.
func WithPublisher(publisher eventbus.EventPublisher) Option {
	return func(e *Engine) {
		e.publisher = publisher
	}
}

// WithTracer overrides the tracer used for operation spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) {
		e.tracer = tracer
	}
}

// NewEngine creates a workflow engine.
func NewEngine(
	persistence persistence.Persistence,
	authorizer Authorizer,
	artifacts ArtifactStore,
	logger *slog.Logger,
	opts ...Option,
) *Engine {
	engine := &Engine{
		persistence: persistence,
		authorizer:  authorizer,
		artifacts:   artifacts,
		logger:      logger,
		tracer:      otelhelper.Tracer("talentpivot/workflow"),
	}

	for _, opt := range opts {
		opt(engine)
	}

	return engine
}

// HealthCheck checks the health of the persistence layer.
func (e *Engine) HealthCheck(ctx context.Context) (string, bool) {
	if e.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := e.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// authorize returns an AuthorizationError unless the caller's role may act on object.
func (e *Engine) authorize(op string, caller identity.Identity, object, action string) error {
	allowed, err := e.authorizer.Allowed(caller.Role, object, action)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if !allowed {
		return authorizationError(op, CodeForbidden,
			fmt.Sprintf("role %q may not %s %s", caller.Role, action, object))
	}

	return nil
}

// publish emits event after a committed transition. Failures are logged only.
func (e *Engine) publish(ctx context.Context, campaignID string, event eventbus.Event) {
	if e.publisher == nil {
		return
	}

	if err := e.publisher.Publish(ctx, campaignID, event); err != nil {
		e.logger.ErrorContext(ctx, "failed to publish event",
			"event_type", event.GetType(),
			"campaign_id", campaignID,
			"error", err)
	}
}

// nolint:spancheck // callers end the span through finish
func (e *Engine) startSpan(ctx context.Context, op string, caller identity.Identity, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs,
		attribute.String(otelhelper.OperationKey, op),
		attribute.String(otelhelper.RoleKey, string(caller.Role)),
	)

	return otelhelper.StartSpan(ctx, e.tracer, "workflow."+op, attrs...)
}

// finish ends span, recording err when the operation failed.
func finish(span trace.Span, err error) {
	if err != nil {
		otelhelper.RecordFailure(span, err, Code(err))
	}

	span.End()
}
