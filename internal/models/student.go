package models

import (
	"time"

	"gorm.io/datatypes"
)

// Student represents a learner tracked by the analytics engine.
type Student struct {
	ID             uint              `gorm:"primaryKey" json:"id"`
	Name           string            `gorm:"size:255;not null" json:"name"`
	Grade          int               `gorm:"not null" json:"grade"`
	LearningStyle  string            `gorm:"size:64" json:"learning_style"`
	BaselineAt     *time.Time        `json:"baseline_at"`
	BaselineScores datatypes.JSONMap `json:"baseline_scores"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// HasBaseline reports whether the student's diagnostic baseline has been recorded.
func (s Student) HasBaseline() bool {
	return s.BaselineAt != nil
}
