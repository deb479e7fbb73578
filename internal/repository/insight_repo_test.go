package repository

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/insight-go-api/internal/models"
)

var testDBCounter int64

// setupTestDB opens an isolated in-memory database with error translation
// enabled, matching the production connection settings.
func setupTestDB(t *testing.T, entities ...interface{}) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:insight_test_%d?mode=memory&cache=shared", atomic.AddInt64(&testDBCounter, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(entities...))
	return db
}

func scorePtr(v float64) *float64 {
	return &v
}

func TestStudentRepositorySetBaselineIsSetOnce(t *testing.T) {
	db := setupTestDB(t, &models.Student{})
	repo := NewStudentRepository(db)

	student := models.Student{Name: "김하늘", Grade: 10}
	require.NoError(t, db.Create(&student).Error)

	first := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.SetBaseline(context.Background(), student.ID, first, datatypes.JSONMap{"overall": 62.0}))

	second := first.AddDate(1, 0, 0)
	require.NoError(t, repo.SetBaseline(context.Background(), student.ID, second, datatypes.JSONMap{"overall": 90.0}))

	stored, err := repo.GetByID(context.Background(), student.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.BaselineAt)
	require.Equal(t, first.Unix(), stored.BaselineAt.Unix(), "a recorded baseline is never overwritten")
}

func TestReportRepositoryFirstScoredTestOnOrAfter(t *testing.T) {
	db := setupTestDB(t, &models.Student{}, &models.Report{})
	repo := NewReportRepository(db)

	target := time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC)
	seed := []models.Report{
		{StudentID: 1, Kind: models.ReportKindSingleTest, Score: scorePtr(95), TestDate: target.AddDate(0, 0, -10)},
		{StudentID: 1, Kind: models.ReportKindSingleTest, TestDate: target.AddDate(0, 0, 1)},
		{StudentID: 1, Kind: models.ReportKindWeekly, Score: scorePtr(80), TestDate: target.AddDate(0, 0, 2)},
		{StudentID: 1, Kind: models.ReportKindSingleTest, Score: scorePtr(81), TestDate: target.AddDate(0, 0, 5)},
		{StudentID: 1, Kind: models.ReportKindSingleTest, Score: scorePtr(99), TestDate: target.AddDate(0, 0, 9)},
		{StudentID: 2, Kind: models.ReportKindSingleTest, Score: scorePtr(50), TestDate: target},
	}
	for i := range seed {
		require.NoError(t, db.Create(&seed[i]).Error)
	}

	outcome, err := repo.FirstScoredTestOnOrAfter(context.Background(), 1, target)
	require.NoError(t, err)
	// the earlier report predates the horizon, the next is unscored, and the
	// weekly report is the wrong kind
	require.Equal(t, scorePtr(81), outcome.Score)

	_, err = repo.FirstScoredTestOnOrAfter(context.Background(), 3, target)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestReportRepositoryLatestPriorOfKind(t *testing.T) {
	db := setupTestDB(t, &models.Student{}, &models.Report{})
	repo := NewReportRepository(db)

	now := time.Now()
	older := models.Report{StudentID: 1, Kind: models.ReportKindWeekly, Summary: "older", CreatedAt: now.Add(-48 * time.Hour)}
	newer := models.Report{StudentID: 1, Kind: models.ReportKindWeekly, Summary: "newer", CreatedAt: now.Add(-2 * time.Hour)}
	otherKind := models.Report{StudentID: 1, Kind: models.ReportKindMonthly, Summary: "monthly", CreatedAt: now.Add(-time.Hour)}
	require.NoError(t, db.Create(&older).Error)
	require.NoError(t, db.Create(&newer).Error)
	require.NoError(t, db.Create(&otherKind).Error)

	prior, err := repo.LatestPriorOfKind(context.Background(), 1, models.ReportKindWeekly, now)
	require.NoError(t, err)
	require.Equal(t, "newer", prior.Summary)

	_, err = repo.LatestPriorOfKind(context.Background(), 1, models.ReportKindAnnual, now)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestPredictionRepositoryListDueUnverified(t *testing.T) {
	db := setupTestDB(t, &models.Student{}, &models.Report{}, &models.Prediction{})
	repo := NewPredictionRepository(db)

	now := time.Now()
	due := models.Prediction{ReportID: 1, StudentID: 1, Timeframe: models.TimeframeOneMonth, PredictedScore: 80, TargetDate: now.Add(-time.Hour)}
	future := models.Prediction{ReportID: 1, StudentID: 1, Timeframe: models.TimeframeSixMonth, PredictedScore: 85, TargetDate: now.Add(24 * time.Hour)}
	verified := models.Prediction{ReportID: 1, StudentID: 1, Timeframe: models.TimeframeOneMonth, PredictedScore: 70, TargetDate: now.Add(-48 * time.Hour), Verified: true}
	otherStudent := models.Prediction{ReportID: 2, StudentID: 2, Timeframe: models.TimeframeOneMonth, PredictedScore: 60, TargetDate: now.Add(-time.Hour)}
	for _, p := range []*models.Prediction{&due, &future, &verified, &otherStudent} {
		require.NoError(t, db.Create(p).Error)
	}

	all, err := repo.ListDueUnverified(context.Background(), now, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)

	studentID := uint(1)
	scoped, err := repo.ListDueUnverified(context.Background(), now, &studentID)
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	require.Equal(t, due.ID, scoped[0].ID)
}

func TestAchievementRepositoryUniqueIndexGuardsDoubleAward(t *testing.T) {
	db := setupTestDB(t, &models.Achievement{}, &models.StudentAchievement{})
	repo := NewAchievementRepository(db)

	badge := models.Achievement{Code: "ten_reports", Name: "Ten Reports", Condition: models.ConditionReportCount, Active: true}
	require.NoError(t, db.Create(&badge).Error)

	first := models.StudentAchievement{StudentID: 1, AchievementID: badge.ID, EarnedAt: time.Now()}
	require.NoError(t, repo.CreateEarned(context.Background(), &first))

	// second insert for the same pair must fail at the constraint
	duplicate := models.StudentAchievement{StudentID: 1, AchievementID: badge.ID, EarnedAt: time.Now()}
	err := repo.CreateEarned(context.Background(), &duplicate)
	require.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	// a different student is unaffected
	other := models.StudentAchievement{StudentID: 2, AchievementID: badge.ID, EarnedAt: time.Now()}
	require.NoError(t, repo.CreateEarned(context.Background(), &other))
}

func TestAchievementRepositoryUpsertBatchRefreshesByCode(t *testing.T) {
	db := setupTestDB(t, &models.Achievement{}, &models.StudentAchievement{})
	repo := NewAchievementRepository(db)

	threshold := 10.0
	_, err := repo.UpsertBatch(context.Background(), []models.Achievement{
		{Code: "ten_reports", Name: "Ten Reports", Condition: models.ConditionReportCount, Threshold: &threshold, Active: true},
	})
	require.NoError(t, err)

	// re-seeding the same code updates the entry instead of duplicating it
	raised := 20.0
	_, err = repo.UpsertBatch(context.Background(), []models.Achievement{
		{Code: "ten_reports", Name: "Twenty Reports", Condition: models.ConditionReportCount, Threshold: &raised, Active: true},
	})
	require.NoError(t, err)

	catalog, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, catalog, 1)
	require.Equal(t, "Twenty Reports", catalog[0].Name)
	require.Equal(t, raised, *catalog[0].Threshold)
}

func TestAchievementRepositoryNotificationFlow(t *testing.T) {
	db := setupTestDB(t, &models.Achievement{}, &models.StudentAchievement{})
	repo := NewAchievementRepository(db)

	badge := models.Achievement{Code: "big_jump", Name: "Big Jump", Condition: models.ConditionScoreImprovement, Active: true}
	require.NoError(t, db.Create(&badge).Error)

	earned := models.StudentAchievement{StudentID: 1, AchievementID: badge.ID, EarnedAt: time.Now()}
	require.NoError(t, repo.CreateEarned(context.Background(), &earned))

	pending, err := repo.ListUnnotified(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, "big_jump", pending[0].Achievement.Code)

	require.NoError(t, repo.MarkNotified(context.Background(), earned.ID))

	pending, err = repo.ListUnnotified(context.Background(), 1)
	require.NoError(t, err)
	require.Empty(t, pending)

	err = repo.MarkNotified(context.Background(), 999)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestStrategyRepositoryCountByType(t *testing.T) {
	db := setupTestDB(t, &models.Student{}, &models.Report{}, &models.StrategyRecord{})
	repo := NewStrategyRepository(db)

	records := []models.StrategyRecord{
		{ReportID: 1, StudentID: 1, Type: models.StrategyTypeHabit, Title: "a", Status: models.StrategyStatusPending},
		{ReportID: 1, StudentID: 1, Type: models.StrategyTypeHabit, Title: "b", Status: models.StrategyStatusCompleted},
		{ReportID: 2, StudentID: 2, Type: models.StrategyTypeConceptReview, Title: "c", Status: models.StrategyStatusCompleted},
	}
	require.NoError(t, repo.CreateBatch(context.Background(), records))

	counts, err := repo.CountByType(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, int64(2), counts[models.StrategyTypeHabit])
	require.Equal(t, int64(1), counts[models.StrategyTypeConceptReview])

	studentID := uint(1)
	scoped, err := repo.CountByType(context.Background(), &studentID)
	require.NoError(t, err)
	require.Equal(t, int64(2), scoped[models.StrategyTypeHabit])
	require.Zero(t, scoped[models.StrategyTypeConceptReview])
}
