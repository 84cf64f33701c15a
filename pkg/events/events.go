// Package events defines the domain events emitted after committed workflow transitions.
package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/talentpivot/talentpivot/pkg/models"
)

type EventType string

// Topic carries every workflow event; the message key is the campaign id.
const Topic = "talentpivot.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Campaign lifecycle events.
	CampaignCreatedEvent          EventType = "campaign.created"
	CampaignCompletedEvent        EventType = "campaign.completed"
	CampaignReopenedEvent         EventType = "campaign.reopened"
	CampaignReviewerAssignedEvent EventType = "campaign.reviewer_assigned"
	CampaignOverdueEvent          EventType = "campaign.overdue"

	// Candidate events.
	CandidateAddedEvent        EventType = "candidate.added"
	CandidateStageUpdatedEvent EventType = "candidate.stage_updated"
)

// Types lists every event type in publication order of a campaign's life.
var Types = []EventType{
	CampaignCreatedEvent,
	CampaignReviewerAssignedEvent,
	CandidateAddedEvent,
	CandidateStageUpdatedEvent,
	CampaignOverdueEvent,
	CampaignCompletedEvent,
	CampaignReopenedEvent,
}

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	CampaignID string         `json:"campaign_id"`
	Actor      string         `json:"actor,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// NewBaseEvent stamps a new event for campaignID performed by actor.
func NewBaseEvent(eventType EventType, campaignID, actor string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		CampaignID: campaignID,
		Actor:      actor,
		Metadata:   make(map[string]any),
	}
}

// Header returns the common fields of any event embedding BaseEvent.
func (e BaseEvent) Header() BaseEvent {
	return e
}

type CampaignCreated struct {
	BaseEvent

	Name      string           `json:"campaign_name"`
	StartDate string           `json:"start_date"`
	EndDate   string           `json:"end_date"`
	Reviewers models.Reviewers `json:"reviewers"`
}

func (e CampaignCreated) GetType() EventType {
	return CampaignCreatedEvent
}

type CampaignCompleted struct {
	BaseEvent
}

func (e CampaignCompleted) GetType() EventType {
	return CampaignCompletedEvent
}

type CampaignReopened struct {
	BaseEvent
}

func (e CampaignReopened) GetType() EventType {
	return CampaignReopenedEvent
}

type CampaignReviewerAssigned struct {
	BaseEvent

	Role  models.Role `json:"role"`
	Email string      `json:"email"`
}

func (e CampaignReviewerAssigned) GetType() EventType {
	return CampaignReviewerAssignedEvent
}

// CampaignOverdue announces an Active campaign whose end date has passed.
type CampaignOverdue struct {
	BaseEvent

	Name    string `json:"campaign_name"`
	Owner   string `json:"owner"`
	EndDate string `json:"end_date"`
}

func (e CampaignOverdue) GetType() EventType {
	return CampaignOverdueEvent
}

type CandidateAdded struct {
	BaseEvent

	CandidateID string `json:"candidate_id"`
	FullName    string `json:"full_name"`
}

func (e CandidateAdded) GetType() EventType {
	return CandidateAddedEvent
}

// StageChange is the before/after record of one stage written in a transition.
type StageChange struct {
	Stage    models.Stage       `json:"stage"`
	Previous models.StageRecord `json:"previous"`
	Current  models.StageRecord `json:"current"`
}

type CandidateStageUpdated struct {
	BaseEvent

	CandidateID string           `json:"candidate_id"`
	Changes     []StageChange    `json:"changes"`
	AppStatus   models.AppStatus `json:"app_status"`
}

func (e CandidateStageUpdated) GetType() EventType {
	return CandidateStageUpdatedEvent
}

// NewEvent returns an empty event value for eventType, ready to unmarshal into.
func NewEvent(eventType EventType) (any, bool) {
	switch eventType {
	case CampaignCreatedEvent:
		return &CampaignCreated{}, true
	case CampaignCompletedEvent:
		return &CampaignCompleted{}, true
	case CampaignReopenedEvent:
		return &CampaignReopened{}, true
	case CampaignReviewerAssignedEvent:
		return &CampaignReviewerAssigned{}, true
	case CampaignOverdueEvent:
		return &CampaignOverdue{}, true
	case CandidateAddedEvent:
		return &CandidateAdded{}, true
	case CandidateStageUpdatedEvent:
		return &CandidateStageUpdated{}, true
	default:
		return nil, false
	}
}
