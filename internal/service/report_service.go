package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/insight-go-api/internal/dto"
	"github.com/noah-isme/insight-go-api/internal/models"
	"github.com/noah-isme/insight-go-api/internal/observability"
	"github.com/noah-isme/insight-go-api/internal/repository"
)

// ReportService runs the report save pipeline: persist the report, register
// its forecasts and prescriptions, stamp the baseline when applicable, and
// trigger achievement evaluation. The report itself is the source of truth;
// a failed side effect is logged and surfaced in the response counts, never
// by rolling the report back.
type ReportService interface {
	Save(ctx context.Context, req dto.ReportCreateRequest) (dto.ReportResponse, error)
	GetByID(ctx context.Context, id uint) (dto.ReportResponse, error)
}

type reportService struct {
	students     repository.StudentRepository
	reports      repository.ReportRepository
	strategies   repository.StrategyRepository
	predictions  PredictionService
	prescription StrategyService
	achievements AchievementService
	validate     *validator.Validate
	nats         *nats.Conn
	natsSubject  string
	logger       zerolog.Logger
	now          func() time.Time
}

// reportSavedEvent is the fan-out payload published after a successful save.
type reportSavedEvent struct {
	ReportID    uint      `json:"report_id"`
	StudentID   uint      `json:"student_id"`
	Kind        string    `json:"kind"`
	Predictions int       `json:"predictions"`
	Strategies  int       `json:"strategies"`
	SavedAt     time.Time `json:"saved_at"`
}

// NewReportService constructs the report pipeline service.
func NewReportService(
	students repository.StudentRepository,
	reports repository.ReportRepository,
	strategies repository.StrategyRepository,
	predictions PredictionService,
	prescription StrategyService,
	achievements AchievementService,
	validate *validator.Validate,
	natsConn *nats.Conn,
	natsSubject string,
	logger zerolog.Logger,
) ReportService {
	if natsSubject == "" {
		natsSubject = "insight.report.saved"
	}

	return &reportService{
		students:     students,
		reports:      reports,
		strategies:   strategies,
		predictions:  predictions,
		prescription: prescription,
		achievements: achievements,
		validate:     validate,
		nats:         natsConn,
		natsSubject:  natsSubject,
		logger:       logger.With().Str("component", "report_service").Logger(),
		now:          time.Now,
	}
}

func (s *reportService) Save(ctx context.Context, req dto.ReportCreateRequest) (dto.ReportResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return dto.ReportResponse{}, err
	}
	if !models.IsValidReportKind(req.Kind) {
		return dto.ReportResponse{}, ErrInvalidReportKind
	}

	tracer := otel.Tracer("github.com/noah-isme/insight-go-api/internal/service/report")
	ctx, span := tracer.Start(ctx, "report.save")
	span.SetAttributes(
		attribute.Int64("student.id", int64(req.StudentID)),
		attribute.String("report.kind", req.Kind),
	)
	defer span.End()

	student, err := s.students.GetByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ReportResponse{}, ErrStudentNotFound
		}
		return dto.ReportResponse{}, err
	}

	report := models.Report{
		StudentID:  req.StudentID,
		Kind:       req.Kind,
		Title:      req.Title,
		TestLabel:  req.TestLabel,
		Score:      req.Score,
		MaxScore:   req.MaxScore,
		Summary:    req.Summary,
		Strengths:  encodeStringArray(req.Strengths),
		Weaknesses: encodeStringArray(req.Weaknesses),
		NextGoals:  encodeStringArray(req.NextGoals),
		TestDate:   req.TestDate,
	}

	if err := s.reports.Create(ctx, &report); err != nil {
		return dto.ReportResponse{}, err
	}
	span.SetAttributes(attribute.Int64("report.id", int64(report.ID)))

	if report.Kind == models.ReportKindBaseline && !student.HasBaseline() {
		s.stampBaseline(ctx, report)
	}

	response := dto.NewReportResponse(report)

	predictions, err := s.predictions.Register(ctx, report, req.Forecasts)
	if err != nil {
		s.logger.Error().Err(err).Uint("report_id", report.ID).Msg("failed to register predictions")
	} else {
		response.Predictions = dto.NewPredictionResponseSlice(predictions)
	}

	strategies, err := s.prescription.RegisterBatch(ctx, report, req.Strategies)
	if err != nil && !errors.Is(err, ErrStrategiesAlreadyRegistered) {
		s.logger.Error().Err(err).Uint("report_id", report.ID).Msg("failed to register strategies")
	} else if err == nil {
		response.Strategies = dto.NewStrategyResponseSlice(strategies)
		response.StrategyCount = len(strategies)
	}

	response.NewlyEarned = s.evaluateAchievements(ctx, report)

	s.publishSaved(report, len(response.Predictions), response.StrategyCount)

	observability.ReportsSaved().WithLabelValues(report.Kind).Inc()
	s.logger.Info().
		Uint("report_id", report.ID).
		Uint("student_id", report.StudentID).
		Str("kind", report.Kind).
		Int("predictions", len(response.Predictions)).
		Int("strategies", response.StrategyCount).
		Msg("report saved")

	return response, nil
}

// stampBaseline records the diagnostic snapshot on the student. The update is
// conditioned on the baseline still being empty, so a concurrent save cannot
// overwrite an earlier snapshot.
func (s *reportService) stampBaseline(ctx context.Context, report models.Report) {
	scores := datatypes.JSONMap{}
	if normalized, ok := report.NormalizedScore(); ok {
		scores["overall"] = normalized
	}

	if err := s.students.SetBaseline(ctx, report.StudentID, report.TestDate, scores); err != nil {
		s.logger.Error().Err(err).Uint("student_id", report.StudentID).Msg("failed to stamp baseline")
		return
	}

	s.logger.Info().Uint("student_id", report.StudentID).Msg("baseline snapshot stamped")
}

// evaluateAchievements triggers badge evaluation with the facts this save
// produced. The previous score comes from the latest earlier scored test so
// improvement conditions compare like with like.
func (s *reportService) evaluateAchievements(ctx context.Context, report models.Report) []dto.EarnedAchievementResponse {
	event := dto.AchievementEvent{
		StudentID:  report.StudentID,
		Trigger:    dto.TriggerReportSaved,
		ReportID:   &report.ID,
		ReportKind: report.Kind,
	}

	if normalized, ok := report.NormalizedScore(); ok {
		event.Score = &normalized

		prior, err := s.reports.LatestPriorOfKind(ctx, report.StudentID, models.ReportKindSingleTest, report.CreatedAt)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				s.logger.Warn().Err(err).Uint("student_id", report.StudentID).Msg("failed to load previous scored test")
			}
		} else if previous, ok := prior.NormalizedScore(); ok {
			event.PreviousScore = &previous
		}
	}

	earned, err := s.achievements.Evaluate(ctx, event)
	if err != nil {
		s.logger.Error().Err(err).Uint("report_id", report.ID).Msg("achievement evaluation failed")
		return nil
	}

	return earned
}

func (s *reportService) publishSaved(report models.Report, predictions, strategies int) {
	if s.nats == nil {
		return
	}

	event := reportSavedEvent{
		ReportID:    report.ID,
		StudentID:   report.StudentID,
		Kind:        report.Kind,
		Predictions: predictions,
		Strategies:  strategies,
		SavedAt:     s.now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return
	}

	if err := s.nats.Publish(s.natsSubject, payload); err != nil {
		s.logger.Warn().Err(err).Uint("report_id", report.ID).Msg("failed to publish report saved event")
	}
}

func (s *reportService) GetByID(ctx context.Context, id uint) (dto.ReportResponse, error) {
	report, err := s.reports.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ReportResponse{}, ErrReportNotFound
		}
		return dto.ReportResponse{}, err
	}

	response := dto.NewReportResponse(report)

	if strategies, err := s.strategies.ListByReport(ctx, id); err == nil {
		response.Strategies = dto.NewStrategyResponseSlice(strategies)
		response.StrategyCount = len(strategies)
	}

	return response, nil
}

func encodeStringArray(values []string) datatypes.JSON {
	if len(values) == 0 {
		return nil
	}

	raw, err := json.Marshal(values)
	if err != nil {
		return nil
	}

	return raw
}
