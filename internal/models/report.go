package models

import (
	"time"

	"gorm.io/datatypes"
)

// Report is a periodic analysis snapshot for a student. Reports are immutable
// once created; downstream records (predictions, strategies) reference them.
type Report struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	StudentID  uint           `gorm:"not null;index" json:"student_id"`
	Kind       string         `gorm:"size:32;not null;index" json:"kind"`
	Title      string         `gorm:"size:255" json:"title"`
	TestLabel  string         `gorm:"size:255" json:"test_label"`
	Score      *float64       `json:"score"`
	MaxScore   *float64       `json:"max_score"`
	Summary    string         `gorm:"type:text" json:"summary"`
	Strengths  datatypes.JSON `json:"strengths"`
	Weaknesses datatypes.JSON `json:"weaknesses"`
	NextGoals  datatypes.JSON `json:"next_goals"`
	TestDate   time.Time      `gorm:"not null;index" json:"test_date"`
	CreatedAt  time.Time      `json:"created_at"`
	Student    Student        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

const (
	// ReportKindBaseline is the one-time diagnostic assessment establishing reference scores.
	ReportKindBaseline = "baseline_assessment"
	// ReportKindSingleTest covers a single scored test.
	ReportKindSingleTest = "single_test"
	// ReportKindWeekly covers one week of study.
	ReportKindWeekly = "weekly"
	// ReportKindMonthly covers one month of study.
	ReportKindMonthly = "monthly"
	// ReportKindSemiAnnual covers a half-year trajectory.
	ReportKindSemiAnnual = "semi_annual"
	// ReportKindAnnual covers a full-year trajectory.
	ReportKindAnnual = "annual"
	// ReportKindConsolidated merges several reports into one digest.
	ReportKindConsolidated = "consolidated"
)

// MicroLoopKinds are the short-cycle report kinds tracking tactical execution.
var MicroLoopKinds = []string{ReportKindSingleTest, ReportKindWeekly, ReportKindMonthly}

// MacroLoopKinds are the long-cycle report kinds tracking strategic trajectory.
var MacroLoopKinds = []string{ReportKindSemiAnnual, ReportKindAnnual}

// IsMicroLoopKind reports whether kind belongs to the micro loop.
func IsMicroLoopKind(kind string) bool {
	for _, k := range MicroLoopKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// IsMacroLoopKind reports whether kind belongs to the macro loop.
func IsMacroLoopKind(kind string) bool {
	for _, k := range MacroLoopKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// IsValidReportKind reports whether kind is one of the known report kinds.
func IsValidReportKind(kind string) bool {
	switch kind {
	case ReportKindBaseline, ReportKindSingleTest, ReportKindWeekly, ReportKindMonthly,
		ReportKindSemiAnnual, ReportKindAnnual, ReportKindConsolidated:
		return true
	}
	return false
}

// NormalizedScore converts the report score to a 0-100 scale. Source max
// scores vary by test, so aggregation always works on normalized values.
// The second return is false when the report carries no usable score.
func (r Report) NormalizedScore() (float64, bool) {
	if r.Score == nil || r.MaxScore == nil || *r.MaxScore <= 0 {
		return 0, false
	}
	return (*r.Score / *r.MaxScore) * 100, true
}
