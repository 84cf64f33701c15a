package models

import "strings"

// Stage is one of the four review checkpoints a candidate passes through.
type Stage string

const (
	StageL1 Stage = "L1"
	StageL2 Stage = "L2"
	StageL3 Stage = "L3"
	StageHR Stage = "HR"
)

// Stages lists the review checkpoints in order. HR is the terminal stage.
var Stages = []Stage{StageL1, StageL2, StageL3, StageHR}

// ParseStage accepts "l1", "L1", "hr", ...
func ParseStage(value string) (Stage, bool) {
	switch Stage(strings.ToUpper(strings.TrimSpace(value))) {
	case StageL1:
		return StageL1, true
	case StageL2:
		return StageL2, true
	case StageL3:
		return StageL3, true
	case StageHR:
		return StageHR, true
	default:
		return "", false
	}
}

// Role returns the reviewer role that owns the stage.
func (s Stage) Role() Role {
	return Role(s)
}

// StageStatus is the status of a single stage record.
type StageStatus string

const (
	StageStatusPending   StageStatus = "Pending"
	StageStatusCompleted StageStatus = "Completed"
	StageStatusRejected  StageStatus = "Rejected"
)

// ParseStageStatus accepts case-insensitive status labels.
func ParseStageStatus(value string) (StageStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "pending":
		return StageStatusPending, true
	case "completed":
		return StageStatusCompleted, true
	case "rejected":
		return StageStatusRejected, true
	default:
		return "", false
	}
}

// StageRecord is the status and reviewer feedback of one stage.
type StageRecord struct {
	Status   StageStatus `json:"status"`
	Feedback string      `json:"feedback"`
}

// StageRecords holds the four independent stage records of a candidate.
type StageRecords struct {
	L1 StageRecord `json:"l1"`
	L2 StageRecord `json:"l2"`
	L3 StageRecord `json:"l3"`
	HR StageRecord `json:"hr"`
}

// NewStageRecords returns records with every stage Pending.
func NewStageRecords() StageRecords {
	pending := StageRecord{Status: StageStatusPending}

	return StageRecords{L1: pending, L2: pending, L3: pending, HR: pending}
}

// Get returns the record for stage.
func (s StageRecords) Get(stage Stage) StageRecord {
	switch stage {
	case StageL1:
		return s.L1
	case StageL2:
		return s.L2
	case StageL3:
		return s.L3
	case StageHR:
		return s.HR
	default:
		return StageRecord{}
	}
}

// Set replaces the record for stage. Unknown stages are ignored.
func (s *StageRecords) Set(stage Stage, record StageRecord) {
	switch stage {
	case StageL1:
		s.L1 = record
	case StageL2:
		s.L2 = record
	case StageL3:
		s.L3 = record
	case StageHR:
		s.HR = record
	}
}
