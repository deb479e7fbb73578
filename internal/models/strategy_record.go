package models

import "time"

// StrategyRecord tracks one prescribed improvement action from a report
// through execution to a measured outcome. Records are created in a single
// batch per report and only mutated through status transitions.
type StrategyRecord struct {
	ID                  uint       `gorm:"primaryKey" json:"id"`
	ReportID            uint       `gorm:"not null;index" json:"report_id"`
	StudentID           uint       `gorm:"not null;index" json:"student_id"`
	Type                string     `gorm:"size:32;not null" json:"type"`
	Title               string     `gorm:"size:255;not null" json:"title"`
	Description         string     `gorm:"type:text" json:"description"`
	TargetConcept       string     `gorm:"size:128" json:"target_concept"`
	Status              string     `gorm:"size:16;not null;default:pending" json:"status"`
	StartedAt           *time.Time `json:"started_at"`
	CompletedAt         *time.Time `json:"completed_at"`
	PreScore            *float64   `json:"pre_score"`
	PostScore           *float64   `json:"post_score"`
	ImprovementRate     *float64   `json:"improvement_rate"`
	EffectivenessRating *int       `json:"effectiveness_rating"`
	DifficultyRating    *int       `json:"difficulty_rating"`
	Feedback            string     `gorm:"type:text" json:"feedback"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
	Report              Report     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

const (
	// StrategyStatusPending means the prescription has not been picked up yet.
	StrategyStatusPending = "pending"
	// StrategyStatusInProgress means the student started working on it.
	StrategyStatusInProgress = "in_progress"
	// StrategyStatusCompleted means the action was carried out in full.
	StrategyStatusCompleted = "completed"
	// StrategyStatusSkipped means the action was abandoned without execution.
	StrategyStatusSkipped = "skipped"
	// StrategyStatusPartial means the action was carried out incompletely.
	StrategyStatusPartial = "partial"
)

// Strategy type labels form a fixed category set mined per type.
const (
	StrategyTypeConceptReview  = "concept_review"
	StrategyTypeProblemSolving = "problem_solving"
	StrategyTypeHabit          = "habit"
	StrategyTypeTimeManagement = "time_management"
	StrategyTypeMotivation     = "motivation"
)

// StrategyTypes lists the known strategy categories in mining order.
var StrategyTypes = []string{
	StrategyTypeConceptReview,
	StrategyTypeProblemSolving,
	StrategyTypeHabit,
	StrategyTypeTimeManagement,
	StrategyTypeMotivation,
}

// CanTransitionStrategyStatus reports whether moving from one execution
// status to another is allowed: pending -> in_progress -> {completed,
// skipped, partial}, plus pending -> skipped directly.
func CanTransitionStrategyStatus(from, to string) bool {
	switch from {
	case StrategyStatusPending:
		return to == StrategyStatusInProgress || to == StrategyStatusSkipped
	case StrategyStatusInProgress:
		return to == StrategyStatusCompleted || to == StrategyStatusSkipped || to == StrategyStatusPartial
	}
	return false
}

// IsValidStrategyStatus reports whether status is a known execution status.
func IsValidStrategyStatus(status string) bool {
	switch status {
	case StrategyStatusPending, StrategyStatusInProgress, StrategyStatusCompleted,
		StrategyStatusSkipped, StrategyStatusPartial:
		return true
	}
	return false
}
