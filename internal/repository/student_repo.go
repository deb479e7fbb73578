package repository

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/insight-go-api/internal/models"
)

// StudentRepository provides access to student records.
type StudentRepository interface {
	GetByID(ctx context.Context, id uint) (models.Student, error)
	SetBaseline(ctx context.Context, id uint, at time.Time, scores datatypes.JSONMap) error
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository constructs a student repository.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) GetByID(ctx context.Context, id uint) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).First(&student, id).Error; err != nil {
		return models.Student{}, err
	}

	return student, nil
}

// SetBaseline stamps the baseline snapshot once. Students with an existing
// baseline are left untouched; the baseline is referenced, never recomputed.
func (r *studentRepository) SetBaseline(ctx context.Context, id uint, at time.Time, scores datatypes.JSONMap) error {
	return r.db.WithContext(ctx).
		Model(&models.Student{}).
		Where("id = ? AND baseline_at IS NULL", id).
		Updates(map[string]interface{}{
			"baseline_at":     at,
			"baseline_scores": scores,
		}).Error
}
