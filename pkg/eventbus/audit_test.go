package eventbus_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/talentpivot/talentpivot/pkg/eventbus"
	"github.com/talentpivot/talentpivot/pkg/events"
)

type recordingSubscriber struct {
	handlers map[events.EventType]eventbus.EventHandler
}

func (r *recordingSubscriber) Handle(eventType events.EventType, handler eventbus.EventHandler) error {
	r.handlers[eventType] = handler

	return nil
}

func (r *recordingSubscriber) Subscribe(context.Context) error {
	return nil
}

func TestRegisterAuditLog(t *testing.T) {
	var buf bytes.Buffer

	sub := &recordingSubscriber{handlers: map[events.EventType]eventbus.EventHandler{}}
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	require.NoError(t, eventbus.RegisterAuditLog(sub, logger))
	assert.Len(t, sub.handlers, len(events.Types))

	event := &events.CampaignCompleted{
		BaseEvent: events.NewBaseEvent(events.CampaignCompletedEvent, "camp-1", "hr@example.com"),
	}

	require.NoError(t, sub.handlers[events.CampaignCompletedEvent](context.Background(), event))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "audit", entry["msg"])
	assert.Equal(t, "campaign.completed", entry["event_type"])
	assert.Equal(t, "camp-1", entry["campaign_id"])
	assert.Equal(t, "hr@example.com", entry["actor"])
}
