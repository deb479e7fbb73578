package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/insight-go-api/internal/models"
)

// AchievementRepository provides access to the achievement catalog and the
// per-student earned records.
type AchievementRepository interface {
	ListActive(ctx context.Context) ([]models.Achievement, error)
	UpsertBatch(ctx context.Context, entries []models.Achievement) (int64, error)
	ListEarnedIDs(ctx context.Context, studentID uint) ([]uint, error)
	CreateEarned(ctx context.Context, earned *models.StudentAchievement) error
	ListUnnotified(ctx context.Context, studentID uint) ([]models.StudentAchievement, error)
	MarkNotified(ctx context.Context, id uint) error
}

type achievementRepository struct {
	db *gorm.DB
}

// NewAchievementRepository constructs an achievement repository.
func NewAchievementRepository(db *gorm.DB) AchievementRepository {
	return &achievementRepository{db: db}
}

func (r *achievementRepository) ListActive(ctx context.Context) ([]models.Achievement, error) {
	var entries []models.Achievement
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// UpsertBatch inserts catalog entries, updating existing ones by code. Earned
// records are never touched; re-seeding only refreshes the catalog side.
func (r *achievementRepository) UpsertBatch(ctx context.Context, entries []models.Achievement) (int64, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "description", "category", "icon", "tier",
			"condition", "threshold", "target_kind", "points", "active",
		}),
	}).Create(&entries)
	if tx.Error != nil {
		return 0, tx.Error
	}

	return tx.RowsAffected, nil
}

func (r *achievementRepository) ListEarnedIDs(ctx context.Context, studentID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.StudentAchievement{}).
		Where("student_id = ?", studentID).
		Pluck("achievement_id", &ids).Error
	if err != nil {
		return nil, err
	}

	return ids, nil
}

// CreateEarned inserts one earned record. The composite unique index on
// (student_id, achievement_id) makes concurrent duplicate awards surface as
// gorm.ErrDuplicatedKey; callers treat that as a benign skip.
func (r *achievementRepository) CreateEarned(ctx context.Context, earned *models.StudentAchievement) error {
	return r.db.WithContext(ctx).Create(earned).Error
}

func (r *achievementRepository) ListUnnotified(ctx context.Context, studentID uint) ([]models.StudentAchievement, error) {
	var earned []models.StudentAchievement
	err := r.db.WithContext(ctx).
		Preload("Achievement").
		Where("student_id = ? AND notified = ?", studentID, false).
		Order("earned_at ASC").
		Find(&earned).Error
	if err != nil {
		return nil, err
	}

	return earned, nil
}

func (r *achievementRepository) MarkNotified(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).
		Model(&models.StudentAchievement{}).
		Where("id = ?", id).
		Update("notified", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
