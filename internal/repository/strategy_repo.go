package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/insight-go-api/internal/models"
)

// StrategyRepository provides access to prescribed strategy records.
type StrategyRepository interface {
	CountByReport(ctx context.Context, reportID uint) (int64, error)
	CreateBatch(ctx context.Context, records []models.StrategyRecord) error
	GetByID(ctx context.Context, id uint) (models.StrategyRecord, error)
	Update(ctx context.Context, record *models.StrategyRecord) error
	ListCompleted(ctx context.Context, studentID *uint) ([]models.StrategyRecord, error)
	ListByReport(ctx context.Context, reportID uint) ([]models.StrategyRecord, error)
	CountByType(ctx context.Context, studentID *uint) (map[string]int64, error)
}

type strategyRepository struct {
	db *gorm.DB
}

// NewStrategyRepository constructs a strategy repository.
func NewStrategyRepository(db *gorm.DB) StrategyRepository {
	return &strategyRepository{db: db}
}

func (r *strategyRepository) CountByReport(ctx context.Context, reportID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.StrategyRecord{}).
		Where("report_id = ?", reportID).
		Count(&count).Error

	return count, err
}

func (r *strategyRepository) CreateBatch(ctx context.Context, records []models.StrategyRecord) error {
	if len(records) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Create(&records).Error
}

func (r *strategyRepository) GetByID(ctx context.Context, id uint) (models.StrategyRecord, error) {
	var record models.StrategyRecord
	if err := r.db.WithContext(ctx).First(&record, id).Error; err != nil {
		return models.StrategyRecord{}, err
	}

	return record, nil
}

func (r *strategyRepository) Update(ctx context.Context, record *models.StrategyRecord) error {
	return r.db.WithContext(ctx).Save(record).Error
}

// ListCompleted returns completed strategy records, optionally scoped to one
// student. Mining only ever looks at completed records.
func (r *strategyRepository) ListCompleted(ctx context.Context, studentID *uint) ([]models.StrategyRecord, error) {
	query := r.db.WithContext(ctx).Where("status = ?", models.StrategyStatusCompleted)
	if studentID != nil {
		query = query.Where("student_id = ?", *studentID)
	}

	var records []models.StrategyRecord
	if err := query.Order("completed_at ASC").Find(&records).Error; err != nil {
		return nil, err
	}

	return records, nil
}

// CountByType returns how many strategy records of each type exist in any
// status, optionally scoped to one student. Per-type completion rates divide
// completed counts by these totals.
func (r *strategyRepository) CountByType(ctx context.Context, studentID *uint) (map[string]int64, error) {
	query := r.db.WithContext(ctx).Model(&models.StrategyRecord{})
	if studentID != nil {
		query = query.Where("student_id = ?", *studentID)
	}

	var rows []struct {
		Type  string
		Count int64
	}
	if err := query.Select("type, COUNT(*) AS count").Group("type").Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Type] = row.Count
	}

	return counts, nil
}

func (r *strategyRepository) ListByReport(ctx context.Context, reportID uint) ([]models.StrategyRecord, error) {
	var records []models.StrategyRecord
	err := r.db.WithContext(ctx).
		Where("report_id = ?", reportID).
		Order("id ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	return records, nil
}
