package dto

import (
	"time"

	"github.com/noah-isme/insight-go-api/internal/models"
)

// AchievementEvent carries the facts an evaluation run is triggered with.
type AchievementEvent struct {
	StudentID      uint     `json:"student_id" validate:"required,gt=0"`
	Trigger        string   `json:"trigger" validate:"required,oneof=report_saved plan_completed"`
	ReportID       *uint    `json:"report_id" validate:"omitempty,gt=0"`
	StudyPlanID    *uint    `json:"study_plan_id" validate:"omitempty,gt=0"`
	ReportKind     string   `json:"report_kind"`
	Score          *float64 `json:"score"`
	PreviousScore  *float64 `json:"previous_score"`
	CompletedPlans *int64   `json:"completed_plans"`
}

// Event trigger kinds.
const (
	TriggerReportSaved   = "report_saved"
	TriggerPlanCompleted = "plan_completed"
)

// EarnedAchievementResponse serializes one earned record.
type EarnedAchievementResponse struct {
	ID          uint      `json:"id"`
	StudentID   uint      `json:"student_id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Tier        string    `json:"tier"`
	Points      int       `json:"points"`
	Reason      string    `json:"reason"`
	ReportID    *uint     `json:"report_id,omitempty"`
	StudyPlanID *uint     `json:"study_plan_id,omitempty"`
	Notified    bool      `json:"notified"`
	EarnedAt    time.Time `json:"earned_at"`
}

// NewEarnedAchievementResponse converts an earned record into a DTO.
func NewEarnedAchievementResponse(model models.StudentAchievement) EarnedAchievementResponse {
	return EarnedAchievementResponse{
		ID:          model.ID,
		StudentID:   model.StudentID,
		Code:        model.Achievement.Code,
		Name:        model.Achievement.Name,
		Category:    model.Achievement.Category,
		Tier:        model.Achievement.Tier,
		Points:      model.Achievement.Points,
		Reason:      model.Reason,
		ReportID:    model.ReportID,
		StudyPlanID: model.StudyPlanID,
		Notified:    model.Notified,
		EarnedAt:    model.EarnedAt,
	}
}

// NewEarnedAchievementResponseSlice converts earned records into DTOs.
func NewEarnedAchievementResponseSlice(records []models.StudentAchievement) []EarnedAchievementResponse {
	responses := make([]EarnedAchievementResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, NewEarnedAchievementResponse(record))
	}

	return responses
}

// MarkNotifiedRequest lists earned records whose notification was dispatched.
type MarkNotifiedRequest struct {
	IDs []uint `json:"ids" validate:"required,min=1,dive,gt=0"`
}

// MarkNotifiedSummary reports a batch notification flag run. Items are
// independent; failures never abort the batch.
type MarkNotifiedSummary struct {
	Marked   int           `json:"marked"`
	Failures []ItemFailure `json:"failures,omitempty"`
}
