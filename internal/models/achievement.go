package models

import "time"

// Achievement is a static catalog entry describing one badge and the named
// condition that awards it. Entries are read-only at evaluation time; adding
// behaviour means adding a new condition case, not a rule expression.
type Achievement struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Code        string    `gorm:"size:64;uniqueIndex;not null" json:"code"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Category    string    `gorm:"size:64" json:"category"`
	Icon        string    `gorm:"size:64" json:"icon"`
	Tier        string    `gorm:"size:32" json:"tier"`
	Condition   string    `gorm:"size:32;not null" json:"condition"`
	Threshold   *float64  `json:"threshold"`
	TargetKind  string    `gorm:"size:32" json:"target_kind"`
	Points      int       `gorm:"not null;default:0" json:"points"`
	Active      bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Closed set of achievement condition kinds.
const (
	// ConditionReportCount awards when the student's total report count reaches the threshold.
	ConditionReportCount = "report_count"
	// ConditionScoreAtLeast awards when the triggering score reaches the threshold.
	ConditionScoreAtLeast = "score_at_least"
	// ConditionScoreImprovement awards when score minus previous score reaches the threshold.
	ConditionScoreImprovement = "score_improvement"
	// ConditionReportKind awards when the triggering report kind equals the target kind.
	ConditionReportKind = "report_kind"
	// ConditionPlanCount awards when the completed study plan count reaches the threshold.
	ConditionPlanCount = "plan_count"
)

// StudentAchievement is the earned record joining a student to a catalog
// entry. The composite unique index is the actual exactly-once guarantee:
// two concurrent evaluations can both pass the skip-list check, and the
// second insert must fail at the constraint, not duplicate the award.
type StudentAchievement struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	StudentID     uint        `gorm:"not null;uniqueIndex:idx_student_achievement" json:"student_id"`
	AchievementID uint        `gorm:"not null;uniqueIndex:idx_student_achievement" json:"achievement_id"`
	Reason        string      `gorm:"size:512" json:"reason"`
	ReportID      *uint       `json:"report_id"`
	StudyPlanID   *uint       `json:"study_plan_id"`
	Notified      bool        `gorm:"not null;default:false;index" json:"notified"`
	EarnedAt      time.Time   `gorm:"not null" json:"earned_at"`
	Achievement   Achievement `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"achievement"`
}
