package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/insight-go-api/internal/dto"
	"github.com/noah-isme/insight-go-api/internal/models"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func floatPtr(v float64) *float64 {
	return &v
}

type predictionRepoStub struct {
	created []models.Prediction
	due     []models.Prediction
	updated []models.Prediction
	stored  []models.Prediction
}

func (p *predictionRepoStub) CreateBatch(_ context.Context, predictions []models.Prediction) error {
	p.created = append(p.created, predictions...)
	return nil
}

func (p *predictionRepoStub) ListDueUnverified(_ context.Context, _ time.Time, _ *uint) ([]models.Prediction, error) {
	return p.due, nil
}

func (p *predictionRepoStub) Update(_ context.Context, prediction *models.Prediction) error {
	p.updated = append(p.updated, *prediction)
	return nil
}

func (p *predictionRepoStub) ListVerified(_ context.Context, _ *uint) ([]models.Prediction, error) {
	return p.stored, nil
}

func (p *predictionRepoStub) ListByReport(_ context.Context, reportID uint) ([]models.Prediction, error) {
	var results []models.Prediction
	for _, prediction := range p.stored {
		if prediction.ReportID == reportID {
			results = append(results, prediction)
		}
	}
	return results, nil
}

type outcomeRepoStub struct {
	firstScored func(studentID uint, date time.Time) (models.Report, error)
}

func (o *outcomeRepoStub) Create(_ context.Context, _ *models.Report) error { return nil }

func (o *outcomeRepoStub) GetByID(_ context.Context, _ uint) (models.Report, error) {
	return models.Report{}, gorm.ErrRecordNotFound
}

func (o *outcomeRepoStub) LatestPriorOfKind(_ context.Context, _ uint, _ string, _ time.Time) (models.Report, error) {
	return models.Report{}, gorm.ErrRecordNotFound
}

func (o *outcomeRepoStub) ListByKindsInRange(_ context.Context, _ uint, _ []string, _, _ time.Time) ([]models.Report, error) {
	return nil, nil
}

func (o *outcomeRepoStub) FirstScoredTestOnOrAfter(_ context.Context, studentID uint, date time.Time) (models.Report, error) {
	if o.firstScored == nil {
		return models.Report{}, gorm.ErrRecordNotFound
	}
	return o.firstScored(studentID, date)
}

func (o *outcomeRepoStub) CountByStudent(_ context.Context, _ uint) (int64, error) { return 0, nil }

func TestPredictionServiceRegisterComputesCalendarTargetDates(t *testing.T) {
	repo := &predictionRepoStub{}
	svc := NewPredictionService(repo, &outcomeRepoStub{}, 10, testLogger())

	report := models.Report{
		ID:        7,
		StudentID: 3,
		TestDate:  time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
	}

	created, err := svc.Register(context.Background(), report, []dto.ForecastRequest{
		{Timeframe: models.TimeframeThreeMonth, PredictedScore: 82, Confidence: "medium"},
		{Timeframe: models.TimeframeOneYear, PredictedScore: 90, Confidence: "low"},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)

	require.Equal(t, time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC), created[0].TargetDate)
	require.Equal(t, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), created[1].TargetDate)
	require.Equal(t, uint(7), created[0].ReportID)
	require.Equal(t, uint(3), created[0].StudentID)
	require.False(t, created[0].Verified)
	require.Len(t, repo.created, 2)
}

func TestPredictionServiceRegisterRejectsUnknownTimeframe(t *testing.T) {
	repo := &predictionRepoStub{}
	svc := NewPredictionService(repo, &outcomeRepoStub{}, 10, testLogger())

	_, err := svc.Register(context.Background(), models.Report{ID: 1}, []dto.ForecastRequest{
		{Timeframe: "2_week", PredictedScore: 70},
	})
	require.ErrorIs(t, err, ErrInvalidTimeframe)
	require.Empty(t, repo.created)
}

func TestPredictionServiceReconcileVerifiesAtToleranceBoundary(t *testing.T) {
	target := time.Now().AddDate(0, -1, 0)
	repo := &predictionRepoStub{
		due: []models.Prediction{{ID: 11, StudentID: 3, PredictedScore: 80, TargetDate: target}},
	}
	outcomes := &outcomeRepoStub{
		firstScored: func(_ uint, _ time.Time) (models.Report, error) {
			return models.Report{ID: 99, Score: floatPtr(88), MaxScore: floatPtr(100)}, nil
		},
	}
	svc := NewPredictionService(repo, outcomes, 10, testLogger())

	summary, err := svc.Reconcile(context.Background(), dto.ReconcileRequest{})
	require.NoError(t, err)
	require.Equal(t, 1, summary.Checked)
	require.Equal(t, 1, summary.Verified)
	require.Equal(t, 1, summary.Accurate)
	require.Equal(t, 0, summary.Pending)
	require.Empty(t, summary.Failures)

	require.Len(t, repo.updated, 1)
	verified := repo.updated[0]
	require.True(t, verified.Verified)
	require.Equal(t, uint(99), *verified.OutcomeReportID)
	require.InDelta(t, 8.0, *verified.ErrorAmount, 1e-9)
	// 10% error is accurate, the tolerance bound is inclusive.
	require.InDelta(t, 10.0, *verified.ErrorPercentage, 1e-9)
	require.True(t, *verified.Accurate)
}

func TestPredictionServiceReconcileNormalizesOutcomeScore(t *testing.T) {
	repo := &predictionRepoStub{
		due: []models.Prediction{{ID: 4, StudentID: 2, PredictedScore: 50, TargetDate: time.Now().AddDate(0, 0, -7)}},
	}
	outcomes := &outcomeRepoStub{
		firstScored: func(_ uint, _ time.Time) (models.Report, error) {
			return models.Report{ID: 12, Score: floatPtr(30), MaxScore: floatPtr(50)}, nil
		},
	}
	svc := NewPredictionService(repo, outcomes, 10, testLogger())

	summary, err := svc.Reconcile(context.Background(), dto.ReconcileRequest{})
	require.NoError(t, err)
	require.Equal(t, 1, summary.Verified)

	verified := repo.updated[0]
	require.InDelta(t, 60.0, *verified.ActualScore, 1e-9)
	require.InDelta(t, 10.0, *verified.ErrorAmount, 1e-9)
	require.InDelta(t, 20.0, *verified.ErrorPercentage, 1e-9)
	require.False(t, *verified.Accurate)
}

func TestPredictionServiceReconcileKeepsUnmatchedPending(t *testing.T) {
	repo := &predictionRepoStub{
		due: []models.Prediction{{ID: 5, StudentID: 2, PredictedScore: 75, TargetDate: time.Now().AddDate(0, 0, -1)}},
	}
	svc := NewPredictionService(repo, &outcomeRepoStub{}, 10, testLogger())

	summary, err := svc.Reconcile(context.Background(), dto.ReconcileRequest{})
	require.NoError(t, err)
	require.Equal(t, 1, summary.Checked)
	require.Equal(t, 0, summary.Verified)
	require.Equal(t, 1, summary.Pending)
	require.Empty(t, repo.updated)
}

func TestPredictionServiceReconcileIsolatesItemFailures(t *testing.T) {
	repo := &predictionRepoStub{
		due: []models.Prediction{
			{ID: 1, StudentID: 1, PredictedScore: 80, TargetDate: time.Now().AddDate(0, 0, -3)},
			{ID: 2, StudentID: 2, PredictedScore: 60, TargetDate: time.Now().AddDate(0, 0, -3)},
		},
	}
	outcomes := &outcomeRepoStub{
		firstScored: func(studentID uint, _ time.Time) (models.Report, error) {
			if studentID == 1 {
				return models.Report{}, errors.New("storage offline")
			}
			return models.Report{ID: 44, Score: floatPtr(66), MaxScore: floatPtr(100)}, nil
		},
	}
	svc := NewPredictionService(repo, outcomes, 10, testLogger())

	summary, err := svc.Reconcile(context.Background(), dto.ReconcileRequest{})
	require.NoError(t, err)
	require.Equal(t, 2, summary.Checked)
	require.Equal(t, 1, summary.Verified)
	require.Len(t, summary.Failures, 1)
	require.Equal(t, uint(1), summary.Failures[0].ID)
}

func TestPredictionServiceStatsBucketsAllTimeframes(t *testing.T) {
	accurate := true
	inaccurate := false
	repo := &predictionRepoStub{
		stored: []models.Prediction{
			{Timeframe: models.TimeframeOneMonth, Accurate: &accurate, ErrorPercentage: floatPtr(4)},
			{Timeframe: models.TimeframeOneMonth, Accurate: &inaccurate, ErrorPercentage: floatPtr(16)},
			{Timeframe: models.TimeframeSixMonth, Accurate: &accurate, ErrorPercentage: floatPtr(8)},
		},
	}
	svc := NewPredictionService(repo, &outcomeRepoStub{}, 10, testLogger())

	stats, err := svc.Stats(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, stats.Buckets, len(models.Timeframes))
	require.Equal(t, models.Timeframes[0], stats.Buckets[0].Timeframe)

	oneMonth := stats.Buckets[0]
	require.Equal(t, 2, oneMonth.Verified)
	require.Equal(t, 1, oneMonth.Accurate)
	require.InDelta(t, 50.0, oneMonth.AccuracyRate, 1e-9)
	require.InDelta(t, 10.0, oneMonth.MeanErrorPercentage, 1e-9)

	threeMonth := stats.Buckets[1]
	require.Equal(t, 0, threeMonth.Verified)
	require.Zero(t, threeMonth.AccuracyRate)
}
