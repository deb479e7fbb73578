package models

import "time"

// StudyPlan is a scheduled block of prescribed study. Completed plan counts
// feed plan-based achievement conditions.
type StudyPlan struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	StudentID   uint       `gorm:"not null;index" json:"student_id"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Status      string     `gorm:"size:16;not null;default:planned" json:"status"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

const (
	// StudyPlanStatusPlanned marks a plan that has not been worked yet.
	StudyPlanStatusPlanned = "planned"
	// StudyPlanStatusCompleted marks a finished plan.
	StudyPlanStatusCompleted = "completed"
)
