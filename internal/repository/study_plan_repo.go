package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/insight-go-api/internal/models"
)

// StudyPlanRepository provides access to study plan records.
type StudyPlanRepository interface {
	CountCompleted(ctx context.Context, studentID uint) (int64, error)
}

type studyPlanRepository struct {
	db *gorm.DB
}

// NewStudyPlanRepository constructs a study plan repository.
func NewStudyPlanRepository(db *gorm.DB) StudyPlanRepository {
	return &studyPlanRepository{db: db}
}

func (r *studyPlanRepository) CountCompleted(ctx context.Context, studentID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.StudyPlan{}).
		Where("student_id = ? AND status = ?", studentID, models.StudyPlanStatusCompleted).
		Count(&count).Error

	return count, err
}
