package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/insight-go-api/internal/models"
)

// SessionRepository provides access to raw study session records.
type SessionRepository interface {
	ListInRange(ctx context.Context, studentID uint, from, to time.Time) ([]models.StudySession, error)
}

type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository constructs a session repository.
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) ListInRange(ctx context.Context, studentID uint, from, to time.Time) ([]models.StudySession, error) {
	var sessions []models.StudySession
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND started_at >= ? AND started_at <= ?", studentID, from, to).
		Order("started_at ASC").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}

	return sessions, nil
}
