package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/insight-go-api/internal/models"
)

// ReportRepository provides access to analysis reports.
type ReportRepository interface {
	Create(ctx context.Context, report *models.Report) error
	GetByID(ctx context.Context, id uint) (models.Report, error)
	LatestPriorOfKind(ctx context.Context, studentID uint, kind string, before time.Time) (models.Report, error)
	ListByKindsInRange(ctx context.Context, studentID uint, kinds []string, from, to time.Time) ([]models.Report, error)
	FirstScoredTestOnOrAfter(ctx context.Context, studentID uint, date time.Time) (models.Report, error)
	CountByStudent(ctx context.Context, studentID uint) (int64, error)
}

type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository constructs a report repository.
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) Create(ctx context.Context, report *models.Report) error {
	return r.db.WithContext(ctx).Create(report).Error
}

func (r *reportRepository) GetByID(ctx context.Context, id uint) (models.Report, error) {
	var report models.Report
	if err := r.db.WithContext(ctx).First(&report, id).Error; err != nil {
		return models.Report{}, err
	}

	return report, nil
}

// LatestPriorOfKind returns the most recent report of the given kind created
// strictly before the reference time.
func (r *reportRepository) LatestPriorOfKind(ctx context.Context, studentID uint, kind string, before time.Time) (models.Report, error) {
	var report models.Report
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND kind = ? AND created_at < ?", studentID, kind, before).
		Order("created_at DESC").
		First(&report).Error
	if err != nil {
		return models.Report{}, err
	}

	return report, nil
}

// ListByKindsInRange returns reports of the given kinds whose test date falls
// inside [from, to], ordered by test date ascending.
func (r *reportRepository) ListByKindsInRange(ctx context.Context, studentID uint, kinds []string, from, to time.Time) ([]models.Report, error) {
	var reports []models.Report
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND kind IN ? AND test_date >= ? AND test_date <= ?", studentID, kinds, from, to).
		Order("test_date ASC").
		Find(&reports).Error
	if err != nil {
		return nil, err
	}

	return reports, nil
}

// FirstScoredTestOnOrAfter returns the earliest scored single-test report
// with a test date at or after the given date. An outcome before the horizon
// cannot confirm a forward-looking forecast, so the lower bound is inclusive.
func (r *reportRepository) FirstScoredTestOnOrAfter(ctx context.Context, studentID uint, date time.Time) (models.Report, error) {
	var report models.Report
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND kind = ? AND score IS NOT NULL AND test_date >= ?",
			studentID, models.ReportKindSingleTest, date).
		Order("test_date ASC").
		First(&report).Error
	if err != nil {
		return models.Report{}, err
	}

	return report, nil
}

func (r *reportRepository) CountByStudent(ctx context.Context, studentID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Report{}).
		Where("student_id = ?", studentID).
		Count(&count).Error

	return count, err
}
