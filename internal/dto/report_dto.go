package dto

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/insight-go-api/internal/models"
)

// ReportCreateRequest is the payload saved by the report pipeline. Forecasts
// and prescriptions ride along and are registered as derived records.
type ReportCreateRequest struct {
	StudentID  uint                   `json:"student_id" validate:"required,gt=0"`
	Kind       string                 `json:"kind" validate:"required"`
	Title      string                 `json:"title" validate:"omitempty,max=255"`
	TestLabel  string                 `json:"test_label" validate:"omitempty,max=255"`
	Score      *float64               `json:"score" validate:"omitempty,gte=0"`
	MaxScore   *float64               `json:"max_score" validate:"omitempty,gt=0"`
	Summary    string                 `json:"summary"`
	Strengths  []string               `json:"strengths"`
	Weaknesses []string               `json:"weaknesses"`
	NextGoals  []string               `json:"next_goals"`
	TestDate   time.Time              `json:"test_date" validate:"required"`
	Strategies []StrategyPrescription `json:"strategies" validate:"omitempty,dive"`
	Forecasts  []ForecastRequest      `json:"forecasts" validate:"omitempty,dive"`
}

// ReportResponse is returned after the save pipeline completes.
type ReportResponse struct {
	ID            uint                        `json:"id"`
	StudentID     uint                        `json:"student_id"`
	Kind          string                      `json:"kind"`
	Title         string                      `json:"title"`
	TestLabel     string                      `json:"test_label"`
	Score         *float64                    `json:"score"`
	MaxScore      *float64                    `json:"max_score"`
	Summary       string                      `json:"summary"`
	Strengths     []string                    `json:"strengths"`
	Weaknesses    []string                    `json:"weaknesses"`
	NextGoals     []string                    `json:"next_goals"`
	TestDate      time.Time                   `json:"test_date"`
	CreatedAt     time.Time                   `json:"created_at"`
	Predictions   []PredictionResponse        `json:"predictions,omitempty"`
	Strategies    []StrategyResponse          `json:"strategies,omitempty"`
	NewlyEarned   []EarnedAchievementResponse `json:"newly_earned,omitempty"`
	StrategyCount int                         `json:"strategy_count"`
}

// NewReportResponse converts a Report model into a DTO.
func NewReportResponse(model models.Report) ReportResponse {
	return ReportResponse{
		ID:         model.ID,
		StudentID:  model.StudentID,
		Kind:       model.Kind,
		Title:      model.Title,
		TestLabel:  model.TestLabel,
		Score:      model.Score,
		MaxScore:   model.MaxScore,
		Summary:    model.Summary,
		Strengths:  decodeStringArray(model.Strengths),
		Weaknesses: decodeStringArray(model.Weaknesses),
		NextGoals:  decodeStringArray(model.NextGoals),
		TestDate:   model.TestDate,
		CreatedAt:  model.CreatedAt,
	}
}

func decodeStringArray(raw []byte) []string {
	if len(raw) == 0 {
		return nil
	}

	var values []string
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil
	}

	return values
}
