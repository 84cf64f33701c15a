// Package web provides the HTTP handlers and request types of the TalentPivot API.
package web

import "github.com/talentpivot/talentpivot/pkg/models"

// StageStatusRequest updates one or more stage records of a candidate. Either Updates
// ({"l1_status": "Completed", "l1_feedback": "..."}) or Stage/Status/Feedback is set.
type StageStatusRequest struct {
	Updates  map[string]string `json:"updates,omitempty"`
	Stage    string            `json:"stage,omitempty"`
	Status   string            `json:"status,omitempty"`
	Feedback *string           `json:"feedback,omitempty"`
}

// AssignRoleRequest adds a reviewer to a campaign role.
type AssignRoleRequest struct {
	Role  string `json:"role"  validate:"required"`
	Email string `json:"email" validate:"required"`
}

// CampaignListResponse wraps the campaigns visible to the caller.
type CampaignListResponse struct {
	Campaigns []*models.Campaign `json:"campaigns"`
}

// CampaignStatusResponse reports the lifecycle status of a campaign.
type CampaignStatusResponse struct {
	CampaignID string                `json:"campaign_id"`
	Status     models.CampaignStatus `json:"status"`
}

// EmailEntry is the object form of a reviewer in multipart reviewer lists.
type EmailEntry struct {
	Email string `json:"email"`
}
