package dto

import (
	"time"

	"github.com/noah-isme/insight-go-api/internal/models"
)

// StrategyPrescription is one prescribed improvement action inside a report
// payload, registered as a StrategyRecord at save time.
type StrategyPrescription struct {
	Type          string `json:"type" validate:"required,oneof=concept_review problem_solving habit time_management motivation"`
	Title         string `json:"title" validate:"required,max=255"`
	Description   string `json:"description"`
	TargetConcept string `json:"target_concept" validate:"omitempty,max=128"`
}

// StrategyStatusUpdateRequest drives one state machine transition.
type StrategyStatusUpdateRequest struct {
	Status              string   `json:"status" validate:"required,oneof=in_progress completed skipped partial"`
	PreScore            *float64 `json:"pre_score" validate:"omitempty,gte=0,lte=100"`
	PostScore           *float64 `json:"post_score" validate:"omitempty,gte=0,lte=100"`
	EffectivenessRating *int     `json:"effectiveness_rating" validate:"omitempty,gte=1,lte=5"`
	DifficultyRating    *int     `json:"difficulty_rating" validate:"omitempty,gte=1,lte=5"`
	Feedback            *string  `json:"feedback"`
}

// StrategyResponse serializes a strategy record.
type StrategyResponse struct {
	ID                  uint       `json:"id"`
	ReportID            uint       `json:"report_id"`
	StudentID           uint       `json:"student_id"`
	Type                string     `json:"type"`
	Title               string     `json:"title"`
	Description         string     `json:"description"`
	TargetConcept       string     `json:"target_concept"`
	Status              string     `json:"status"`
	StartedAt           *time.Time `json:"started_at,omitempty"`
	CompletedAt         *time.Time `json:"completed_at,omitempty"`
	PreScore            *float64   `json:"pre_score,omitempty"`
	PostScore           *float64   `json:"post_score,omitempty"`
	ImprovementRate     *float64   `json:"improvement_rate,omitempty"`
	EffectivenessRating *int       `json:"effectiveness_rating,omitempty"`
	DifficultyRating    *int       `json:"difficulty_rating,omitempty"`
	Feedback            string     `json:"feedback"`
}

// NewStrategyResponse converts a StrategyRecord model into a DTO.
func NewStrategyResponse(model models.StrategyRecord) StrategyResponse {
	return StrategyResponse{
		ID:                  model.ID,
		ReportID:            model.ReportID,
		StudentID:           model.StudentID,
		Type:                model.Type,
		Title:               model.Title,
		Description:         model.Description,
		TargetConcept:       model.TargetConcept,
		Status:              model.Status,
		StartedAt:           model.StartedAt,
		CompletedAt:         model.CompletedAt,
		PreScore:            model.PreScore,
		PostScore:           model.PostScore,
		ImprovementRate:     model.ImprovementRate,
		EffectivenessRating: model.EffectivenessRating,
		DifficultyRating:    model.DifficultyRating,
		Feedback:            model.Feedback,
	}
}

// NewStrategyResponseSlice converts strategy models into DTOs.
func NewStrategyResponseSlice(records []models.StrategyRecord) []StrategyResponse {
	responses := make([]StrategyResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, NewStrategyResponse(record))
	}

	return responses
}

// TypeEffectiveness aggregates completed strategies for one declared type.
type TypeEffectiveness struct {
	Type            string  `json:"type"`
	TotalSeen       int     `json:"total_seen"`
	Completed       int     `json:"completed"`
	CompletionRate  float64 `json:"completion_rate"`
	MeanImprovement float64 `json:"mean_improvement"`
	MeanRating      float64 `json:"mean_rating"`
	SuccessRate     float64 `json:"success_rate"`
}

// ConceptEffectiveness ranks target concepts by cumulative improvement:
// many small wins outrank one big win for curriculum prioritization.
type ConceptEffectiveness struct {
	Concept               string  `json:"concept"`
	Count                 int     `json:"count"`
	MeanImprovement       float64 `json:"mean_improvement"`
	CumulativeImprovement float64 `json:"cumulative_improvement"`
}

// StrategyPattern is a (type, title) prescription signature used at least
// twice, with its measured outcomes.
type StrategyPattern struct {
	Type            string  `json:"type"`
	Title           string  `json:"title"`
	Uses            int     `json:"uses"`
	MeanImprovement float64 `json:"mean_improvement"`
	MeanRating      float64 `json:"mean_rating"`
	SuccessRate     float64 `json:"success_rate"`
}

// IneffectiveStrategy surfaces a completed record whose improvement fell
// below the low threshold, with its feedback, to steer future prescriptions.
type IneffectiveStrategy struct {
	ID              uint    `json:"id"`
	Type            string  `json:"type"`
	Title           string  `json:"title"`
	ImprovementRate float64 `json:"improvement_rate"`
	Feedback        string  `json:"feedback"`
}

// EffectivenessReport is the full mining output, recomputed on demand.
type EffectivenessReport struct {
	ByType        []TypeEffectiveness    `json:"by_type"`
	ByConcept     []ConceptEffectiveness `json:"by_concept"`
	BestPatterns  []StrategyPattern      `json:"best_patterns"`
	Ineffective   []IneffectiveStrategy  `json:"ineffective"`
	PromptSummary string                 `json:"prompt_summary"`
	GeneratedAt   time.Time              `json:"generated_at"`
}
