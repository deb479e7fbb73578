package service

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/noah-isme/insight-go-api/internal/dto"
	"github.com/noah-isme/insight-go-api/internal/models"
	"github.com/noah-isme/insight-go-api/internal/observability"
	"github.com/noah-isme/insight-go-api/internal/repository"
)

// PredictionService registers forward-looking forecasts and reconciles them
// against eventual outcomes.
type PredictionService interface {
	Register(ctx context.Context, report models.Report, forecasts []dto.ForecastRequest) ([]models.Prediction, error)
	Reconcile(ctx context.Context, req dto.ReconcileRequest) (dto.ReconciliationSummary, error)
	Stats(ctx context.Context, studentID *uint) (dto.PredictionStatsResponse, error)
}

type predictionService struct {
	predictions repository.PredictionRepository
	reports     repository.ReportRepository
	tolerance   float64
	logger      zerolog.Logger
	now         func() time.Time
}

// NewPredictionService constructs a prediction service. tolerancePct is the
// inclusive error-percentage bound for counting a verification as accurate.
func NewPredictionService(
	predictions repository.PredictionRepository,
	reports repository.ReportRepository,
	tolerancePct float64,
	logger zerolog.Logger,
) PredictionService {
	if tolerancePct <= 0 {
		tolerancePct = 10
	}

	return &predictionService{
		predictions: predictions,
		reports:     reports,
		tolerance:   tolerancePct,
		logger:      logger.With().Str("component", "prediction_service").Logger(),
		now:         time.Now,
	}
}

// Register persists the report's forecasts as unverified predictions. The
// call is append-only; not calling it twice for the same report is the
// caller's responsibility.
func (s *predictionService) Register(ctx context.Context, report models.Report, forecasts []dto.ForecastRequest) ([]models.Prediction, error) {
	if len(forecasts) == 0 {
		return nil, nil
	}

	predictions := make([]models.Prediction, 0, len(forecasts))
	for _, forecast := range forecasts {
		targetDate, ok := models.PredictionTargetDate(report.TestDate, forecast.Timeframe)
		if !ok {
			return nil, ErrInvalidTimeframe
		}

		prediction := models.Prediction{
			ReportID:       report.ID,
			StudentID:      report.StudentID,
			Timeframe:      forecast.Timeframe,
			PredictedScore: forecast.PredictedScore,
			Confidence:     forecast.Confidence,
			TargetDate:     targetDate,
		}

		if len(forecast.Assumptions) > 0 {
			if raw, err := json.Marshal(forecast.Assumptions); err == nil {
				prediction.Assumptions = raw
			}
		}

		predictions = append(predictions, prediction)
	}

	if err := s.predictions.CreateBatch(ctx, predictions); err != nil {
		return nil, err
	}

	observability.PredictionsRegistered().Add(float64(len(predictions)))
	s.logger.Info().
		Uint("report_id", report.ID).
		Int("count", len(predictions)).
		Msg("predictions registered")

	return predictions, nil
}

// Reconcile matches due unverified predictions to their earliest at-or-after
// outcome. Safe to re-run; already-verified predictions are never selected
// again, and one item's failure never aborts the batch.
func (s *predictionService) Reconcile(ctx context.Context, req dto.ReconcileRequest) (dto.ReconciliationSummary, error) {
	tracer := otel.Tracer("github.com/noah-isme/insight-go-api/internal/service/prediction")
	ctx, span := tracer.Start(ctx, "predictions.reconcile")
	defer span.End()

	asOf := s.now()
	summary := dto.ReconciliationSummary{RanAt: asOf}

	due, err := s.predictions.ListDueUnverified(ctx, asOf, req.StudentID)
	if err != nil {
		return dto.ReconciliationSummary{}, err
	}

	summary.Checked = len(due)
	span.SetAttributes(attribute.Int("predictions.due", len(due)))

	var errorPctSum float64
	for i := range due {
		prediction := due[i]

		outcome, err := s.reports.FirstScoredTestOnOrAfter(ctx, prediction.StudentID, prediction.TargetDate)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// No outcome at or after the horizon yet; re-checked next run.
				summary.Pending++
				continue
			}
			summary.Failures = append(summary.Failures, dto.ItemFailure{ID: prediction.ID, Error: err.Error()})
			continue
		}

		verified, err := s.verify(ctx, &prediction, outcome, asOf)
		if err != nil {
			summary.Failures = append(summary.Failures, dto.ItemFailure{ID: prediction.ID, Error: err.Error()})
			continue
		}

		summary.Verified++
		errorPctSum += *verified.ErrorPercentage
		if verified.Accurate != nil && *verified.Accurate {
			summary.Accurate++
		}
	}

	if summary.Verified > 0 {
		summary.AccuracyRate = float64(summary.Accurate) / float64(summary.Verified) * 100
		summary.MeanErrorPercentage = errorPctSum / float64(summary.Verified)
	}

	observability.PredictionsVerified().Add(float64(summary.Verified))
	s.logger.Info().
		Int("checked", summary.Checked).
		Int("verified", summary.Verified).
		Int("pending", summary.Pending).
		Int("failed", len(summary.Failures)).
		Msg("prediction reconciliation completed")

	return summary, nil
}

// verify computes and persists all derived verification fields in one update.
func (s *predictionService) verify(ctx context.Context, prediction *models.Prediction, outcome models.Report, asOf time.Time) (*models.Prediction, error) {
	actual := *outcome.Score
	if outcome.MaxScore != nil && *outcome.MaxScore > 0 && *outcome.MaxScore != 100 {
		actual = (actual / *outcome.MaxScore) * 100
	}

	errorAmount := actual - prediction.PredictedScore
	errorPercentage := math.Abs(errorAmount) / prediction.PredictedScore * 100
	accurate := errorPercentage <= s.tolerance

	prediction.Verified = true
	prediction.ActualScore = &actual
	prediction.OutcomeReportID = &outcome.ID
	prediction.ErrorAmount = &errorAmount
	prediction.ErrorPercentage = &errorPercentage
	prediction.Accurate = &accurate
	prediction.VerifiedAt = &asOf

	if err := s.predictions.Update(ctx, prediction); err != nil {
		return nil, err
	}

	return prediction, nil
}

// Stats derives the per-timeframe trust signal on every read.
func (s *predictionService) Stats(ctx context.Context, studentID *uint) (dto.PredictionStatsResponse, error) {
	verified, err := s.predictions.ListVerified(ctx, studentID)
	if err != nil {
		return dto.PredictionStatsResponse{}, err
	}

	type bucket struct {
		verified int
		accurate int
		errorSum float64
	}

	buckets := make(map[string]*bucket, len(models.Timeframes))
	for _, timeframe := range models.Timeframes {
		buckets[timeframe] = &bucket{}
	}

	for _, prediction := range verified {
		entry, ok := buckets[prediction.Timeframe]
		if !ok {
			continue
		}
		entry.verified++
		if prediction.Accurate != nil && *prediction.Accurate {
			entry.accurate++
		}
		if prediction.ErrorPercentage != nil {
			entry.errorSum += *prediction.ErrorPercentage
		}
	}

	response := dto.PredictionStatsResponse{GeneratedAt: s.now()}
	for _, timeframe := range models.Timeframes {
		entry := buckets[timeframe]
		stats := dto.TimeframeStats{
			Timeframe: timeframe,
			Verified:  entry.verified,
			Accurate:  entry.accurate,
		}
		if entry.verified > 0 {
			stats.AccuracyRate = float64(entry.accurate) / float64(entry.verified) * 100
			stats.MeanErrorPercentage = entry.errorSum / float64(entry.verified)
		}
		response.Buckets = append(response.Buckets, stats)
	}

	return response, nil
}
