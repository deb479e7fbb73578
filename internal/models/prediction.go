package models

import (
	"time"

	"gorm.io/datatypes"
)

// Prediction is a forward-looking score forecast attached to a report. It is
// created unverified and reconciled against a real outcome exactly once.
type Prediction struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	ReportID        uint           `gorm:"not null;index" json:"report_id"`
	StudentID       uint           `gorm:"not null;index" json:"student_id"`
	Timeframe       string         `gorm:"size:16;not null" json:"timeframe"`
	PredictedScore  float64        `gorm:"not null" json:"predicted_score"`
	Confidence      string         `gorm:"size:16" json:"confidence"`
	Assumptions     datatypes.JSON `json:"assumptions"`
	TargetDate      time.Time      `gorm:"not null;index" json:"target_date"`
	Verified        bool           `gorm:"not null;default:false;index" json:"verified"`
	ActualScore     *float64       `json:"actual_score"`
	OutcomeReportID *uint          `json:"outcome_report_id"`
	ErrorAmount     *float64       `json:"error_amount"`
	ErrorPercentage *float64       `json:"error_percentage"`
	Accurate        *bool          `json:"accurate"`
	VerifiedAt      *time.Time     `json:"verified_at"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	Report          Report         `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// Timeframe buckets supported for forecasts.
const (
	TimeframeOneMonth   = "1_month"
	TimeframeThreeMonth = "3_month"
	TimeframeSixMonth   = "6_month"
	TimeframeOneYear    = "1_year"
)

// Timeframes lists the forecast buckets in horizon order.
var Timeframes = []string{TimeframeOneMonth, TimeframeThreeMonth, TimeframeSixMonth, TimeframeOneYear}

// TimeframeOffsetMonths maps a timeframe bucket to its calendar-month offset.
// The second return is false for unknown buckets.
func TimeframeOffsetMonths(timeframe string) (int, bool) {
	switch timeframe {
	case TimeframeOneMonth:
		return 1, true
	case TimeframeThreeMonth:
		return 3, true
	case TimeframeSixMonth:
		return 6, true
	case TimeframeOneYear:
		return 12, true
	}
	return 0, false
}

// PredictionTargetDate computes the verification horizon for a forecast made
// on reportDate. Calendar-month arithmetic, not fixed-length days.
func PredictionTargetDate(reportDate time.Time, timeframe string) (time.Time, bool) {
	months, ok := TimeframeOffsetMonths(timeframe)
	if !ok {
		return time.Time{}, false
	}
	return reportDate.AddDate(0, months, 0), true
}
