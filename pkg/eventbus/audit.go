package eventbus

import (
	"context"
	"log/slog"

	"github.com/talentpivot/talentpivot/pkg/events"
)

// RegisterAuditLog logs every workflow event delivered to sub.
func RegisterAuditLog(sub EventSubscriber, logger *slog.Logger) error {
	for _, eventType := range events.Types {
		err := sub.Handle(eventType, func(ctx context.Context, event any) error {
			attrs := []any{"event_type", eventType}

			if e, ok := event.(interface{ Header() events.BaseEvent }); ok {
				header := e.Header()
				attrs = append(attrs,
					"event_id", header.ID,
					"campaign_id", header.CampaignID,
					"actor", header.Actor,
					"at", header.Timestamp,
				)
			}

			logger.InfoContext(ctx, "audit", append(attrs, "event", event)...)

			return nil
		})
		if err != nil {
			return err
		}
	}

	return nil
}
