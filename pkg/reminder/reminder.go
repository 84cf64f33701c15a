// Package reminder periodically announces Active campaigns that ran past their end date.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/talentpivot/talentpivot/pkg/eventbus"
	"github.com/talentpivot/talentpivot/pkg/events"
	"github.com/talentpivot/talentpivot/pkg/models"
)

// DefaultSchedule runs the scan once a day at midnight.
const DefaultSchedule = "@daily"

const systemActor = "system:reminder"

// Scanner finds overdue campaigns.
type Scanner interface {
	OverdueCampaigns(ctx context.Context, asOf time.Time) ([]*models.Campaign, error)
}

// Reminder publishes campaign.overdue events on a cron schedule. It never changes
// campaign state.
type Reminder struct {
	Schedule string
	Enabled  bool

	scanner   Scanner
	publisher eventbus.EventPublisher
	cron      *cron.Cron
	logger    *slog.Logger
	now       func() time.Time
	mu        sync.Mutex
}

// New creates a Reminder. An empty schedule disables it.
func New(schedule string, scanner Scanner, publisher eventbus.EventPublisher, logger *slog.Logger) (*Reminder, error) {
	r := &Reminder{
		Schedule:  schedule,
		Enabled:   schedule != "",
		scanner:   scanner,
		publisher: publisher,
		logger:    logger.With("module", "reminder", "schedule", schedule),
		now:       time.Now,
	}

	if err := r.Validate(); err != nil {
		return nil, err
	}

	return r, nil
}

func (r *Reminder) Validate() error {
	if r.scanner == nil || r.publisher == nil {
		return errors.New("reminder requires a scanner and a publisher")
	}

	if !r.Enabled {
		return nil
	}

	if _, err := cron.ParseStandard(r.Schedule); err != nil {
		return fmt.Errorf("invalid reminder schedule: %w", err)
	}

	return nil
}

// Start schedules the scan. It returns immediately.
func (r *Reminder) Start(ctx context.Context) error {
	if !r.Enabled {
		r.logger.InfoContext(ctx, "reminder is disabled")

		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cronLogger := cron.PrintfLogger(slog.NewLogLogger(r.logger.Handler(), slog.LevelWarn))
	r.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cronLogger),
		cron.Recover(cronLogger),
	))

	id, err := r.cron.AddFunc(r.Schedule, func() {
		if _, err := r.RunOnce(ctx); err != nil {
			r.logger.ErrorContext(ctx, "overdue scan failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add reminder job: %w", err)
	}

	r.logger.InfoContext(ctx, "starting reminder", "entry_id", id)
	r.cron.Start()

	return nil
}

// RunOnce publishes one campaign.overdue event per overdue campaign and returns how
// many were published.
func (r *Reminder) RunOnce(ctx context.Context) (int, error) {
	campaigns, err := r.scanner.OverdueCampaigns(ctx, r.now())
	if err != nil {
		return 0, err
	}

	published := 0

	for _, campaign := range campaigns {
		event := events.CampaignOverdue{
			BaseEvent: events.NewBaseEvent(events.CampaignOverdueEvent, campaign.ID, systemActor),
			Name:      campaign.Name,
			Owner:     campaign.Owner,
			EndDate:   campaign.EndDate.Format(models.DateLayout),
		}

		if err := r.publisher.Publish(ctx, campaign.ID, event); err != nil {
			r.logger.ErrorContext(ctx, "failed to publish overdue event", "campaign_id", campaign.ID, "error", err)

			continue
		}

		published++
	}

	r.logger.InfoContext(ctx, "overdue scan finished", "overdue", len(campaigns), "published", published)

	return published, nil
}

// Stop halts the schedule and waits for a running scan until ctx is done.
func (r *Reminder) Stop(ctx context.Context) error {
	r.mu.Lock()
	c := r.cron
	r.mu.Unlock()

	if c == nil {
		return nil
	}

	r.logger.InfoContext(ctx, "stopping reminder")

	select {
	case <-c.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
