package dto

import "time"

// AnalysisContext is the temporal context object the generation step
// conditions on. Missing history is signalled through explicit no-data
// markers; building the context never fails the caller.
type AnalysisContext struct {
	StudentID       uint              `json:"student_id"`
	TargetKind      string            `json:"target_kind"`
	PreviousCycle   *PreviousCycle    `json:"previous_cycle,omitempty"`
	PeriodSummary   *PeriodSummary    `json:"period_summary,omitempty"`
	Baseline        *BaselineSnapshot `json:"baseline,omitempty"`
	BaselineMissing bool              `json:"baseline_missing"`
	GeneratedAt     time.Time         `json:"generated_at"`
}

// PreviousCycle carries the prior same-tier report and its declared goals.
type PreviousCycle struct {
	ReportID   uint           `json:"report_id"`
	ReportDate time.Time      `json:"report_date"`
	Summary    string         `json:"summary"`
	Goals      []PreviousGoal `json:"goals"`
}

// PreviousGoal is a goal declared by the previous cycle. Achieved starts
// false with Determined false: attainment is judged downstream from other
// evidence, not by the aggregator.
type PreviousGoal struct {
	Text       string `json:"text"`
	Achieved   bool   `json:"achieved"`
	Determined bool   `json:"determined"`
}

// PeriodSummary aggregates micro-loop activity inside a macro window.
type PeriodSummary struct {
	From          time.Time `json:"from"`
	To            time.Time `json:"to"`
	TotalSessions int       `json:"total_sessions"`
	ContactHours  float64   `json:"contact_hours"`
	TotalTests    int       `json:"total_tests"`
	MeanScore     *float64  `json:"mean_score"`
	Improvement   *float64  `json:"improvement"`
}

// BaselineSnapshot is the student's diagnostic reference, attached verbatim.
type BaselineSnapshot struct {
	AssessedAt    time.Time          `json:"assessed_at"`
	Scores        map[string]float64 `json:"scores"`
	LearningStyle string             `json:"learning_style"`
}
