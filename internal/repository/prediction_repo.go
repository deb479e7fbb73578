package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/insight-go-api/internal/models"
)

// PredictionRepository provides access to score predictions.
type PredictionRepository interface {
	CreateBatch(ctx context.Context, predictions []models.Prediction) error
	ListDueUnverified(ctx context.Context, asOf time.Time, studentID *uint) ([]models.Prediction, error)
	Update(ctx context.Context, prediction *models.Prediction) error
	ListVerified(ctx context.Context, studentID *uint) ([]models.Prediction, error)
	ListByReport(ctx context.Context, reportID uint) ([]models.Prediction, error)
}

type predictionRepository struct {
	db *gorm.DB
}

// NewPredictionRepository constructs a prediction repository.
func NewPredictionRepository(db *gorm.DB) PredictionRepository {
	return &predictionRepository{db: db}
}

func (r *predictionRepository) CreateBatch(ctx context.Context, predictions []models.Prediction) error {
	if len(predictions) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Create(&predictions).Error
}

// ListDueUnverified returns unverified predictions whose target date has
// passed, optionally scoped to one student. Already-verified predictions are
// excluded so reconciliation stays idempotent.
func (r *predictionRepository) ListDueUnverified(ctx context.Context, asOf time.Time, studentID *uint) ([]models.Prediction, error) {
	query := r.db.WithContext(ctx).
		Where("verified = ? AND target_date <= ?", false, asOf)
	if studentID != nil {
		query = query.Where("student_id = ?", *studentID)
	}

	var predictions []models.Prediction
	if err := query.Order("target_date ASC").Find(&predictions).Error; err != nil {
		return nil, err
	}

	return predictions, nil
}

func (r *predictionRepository) Update(ctx context.Context, prediction *models.Prediction) error {
	return r.db.WithContext(ctx).Save(prediction).Error
}

func (r *predictionRepository) ListVerified(ctx context.Context, studentID *uint) ([]models.Prediction, error) {
	query := r.db.WithContext(ctx).Where("verified = ?", true)
	if studentID != nil {
		query = query.Where("student_id = ?", *studentID)
	}

	var predictions []models.Prediction
	if err := query.Find(&predictions).Error; err != nil {
		return nil, err
	}

	return predictions, nil
}

func (r *predictionRepository) ListByReport(ctx context.Context, reportID uint) ([]models.Prediction, error) {
	var predictions []models.Prediction
	err := r.db.WithContext(ctx).
		Where("report_id = ?", reportID).
		Order("id ASC").
		Find(&predictions).Error
	if err != nil {
		return nil, err
	}

	return predictions, nil
}
