package dto

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/insight-go-api/internal/models"
)

// ForecastRequest is one forward-looking score forecast attached to a report.
type ForecastRequest struct {
	Timeframe      string   `json:"timeframe" validate:"required,oneof=1_month 3_month 6_month 1_year"`
	PredictedScore float64  `json:"predicted_score" validate:"required,gt=0,lte=100"`
	Confidence     string   `json:"confidence" validate:"omitempty,oneof=low medium high"`
	Assumptions    []string `json:"assumptions"`
}

// PredictionResponse serializes a prediction, including its verification
// block once reconciled.
type PredictionResponse struct {
	ID              uint       `json:"id"`
	ReportID        uint       `json:"report_id"`
	StudentID       uint       `json:"student_id"`
	Timeframe       string     `json:"timeframe"`
	PredictedScore  float64    `json:"predicted_score"`
	Confidence      string     `json:"confidence"`
	Assumptions     []string   `json:"assumptions"`
	TargetDate      time.Time  `json:"target_date"`
	Verified        bool       `json:"verified"`
	ActualScore     *float64   `json:"actual_score,omitempty"`
	OutcomeReportID *uint      `json:"outcome_report_id,omitempty"`
	ErrorAmount     *float64   `json:"error_amount,omitempty"`
	ErrorPercentage *float64   `json:"error_percentage,omitempty"`
	Accurate        *bool      `json:"accurate,omitempty"`
	VerifiedAt      *time.Time `json:"verified_at,omitempty"`
}

// NewPredictionResponse converts a Prediction model into a DTO.
func NewPredictionResponse(model models.Prediction) PredictionResponse {
	response := PredictionResponse{
		ID:              model.ID,
		ReportID:        model.ReportID,
		StudentID:       model.StudentID,
		Timeframe:       model.Timeframe,
		PredictedScore:  model.PredictedScore,
		Confidence:      model.Confidence,
		TargetDate:      model.TargetDate,
		Verified:        model.Verified,
		ActualScore:     model.ActualScore,
		OutcomeReportID: model.OutcomeReportID,
		ErrorAmount:     model.ErrorAmount,
		ErrorPercentage: model.ErrorPercentage,
		Accurate:        model.Accurate,
		VerifiedAt:      model.VerifiedAt,
	}

	if len(model.Assumptions) > 0 {
		var assumptions []string
		if err := json.Unmarshal(model.Assumptions, &assumptions); err == nil {
			response.Assumptions = assumptions
		}
	}

	return response
}

// NewPredictionResponseSlice converts prediction models into DTOs.
func NewPredictionResponseSlice(predictions []models.Prediction) []PredictionResponse {
	responses := make([]PredictionResponse, 0, len(predictions))
	for _, prediction := range predictions {
		responses = append(responses, NewPredictionResponse(prediction))
	}

	return responses
}

// ReconcileRequest scopes a reconciliation run.
type ReconcileRequest struct {
	StudentID *uint `json:"student_id" validate:"omitempty,gt=0"`
}

// ItemFailure records one failed item inside an otherwise successful batch.
type ItemFailure struct {
	ID    uint   `json:"id"`
	Error string `json:"error"`
}

// ReconciliationSummary reports the outcome of one reconciliation run. The
// batch always succeeds as a whole; individual failures are embedded.
type ReconciliationSummary struct {
	Checked             int           `json:"checked"`
	Verified            int           `json:"verified"`
	Accurate            int           `json:"accurate"`
	Pending             int           `json:"pending"`
	AccuracyRate        float64       `json:"accuracy_rate"`
	MeanErrorPercentage float64       `json:"mean_error_percentage"`
	Failures            []ItemFailure `json:"failures,omitempty"`
	RanAt               time.Time     `json:"ran_at"`
}

// TimeframeStats is the model-trust signal for one forecast bucket.
type TimeframeStats struct {
	Timeframe           string  `json:"timeframe"`
	Verified            int     `json:"verified"`
	Accurate            int     `json:"accurate"`
	AccuracyRate        float64 `json:"accuracy_rate"`
	MeanErrorPercentage float64 `json:"mean_error_percentage"`
}

// PredictionStatsResponse groups verification statistics per timeframe.
// Always derived on read, never cached.
type PredictionStatsResponse struct {
	Buckets     []TimeframeStats `json:"buckets"`
	GeneratedAt time.Time        `json:"generated_at"`
}
