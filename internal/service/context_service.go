package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/noah-isme/insight-go-api/internal/dto"
	"github.com/noah-isme/insight-go-api/internal/models"
	"github.com/noah-isme/insight-go-api/internal/repository"
)

// ContextService assembles the hierarchical temporal context a new analysis
// conditions on. Context building is best-effort: missing history yields
// explicit no-data markers, never an error for the caller.
type ContextService interface {
	Aggregate(ctx context.Context, studentID uint, targetKind string) (dto.AnalysisContext, error)
}

type contextService struct {
	students        repository.StudentRepository
	reports         repository.ReportRepository
	sessions        repository.SessionRepository
	cache           *redis.Client
	cacheTTL        time.Duration
	defaultDuration time.Duration
	logger          zerolog.Logger
	now             func() time.Time
}

// NewContextService constructs a context aggregation service.
func NewContextService(
	students repository.StudentRepository,
	reports repository.ReportRepository,
	sessions repository.SessionRepository,
	cache *redis.Client,
	cacheTTL time.Duration,
	defaultDuration time.Duration,
	logger zerolog.Logger,
) ContextService {
	return &contextService{
		students:        students,
		reports:         reports,
		sessions:        sessions,
		cache:           cache,
		cacheTTL:        cacheTTL,
		defaultDuration: defaultDuration,
		logger:          logger.With().Str("component", "context_service").Logger(),
		now:             time.Now,
	}
}

func (s *contextService) Aggregate(ctx context.Context, studentID uint, targetKind string) (dto.AnalysisContext, error) {
	if !models.IsValidReportKind(targetKind) {
		return dto.AnalysisContext{}, ErrInvalidReportKind
	}

	tracer := otel.Tracer("github.com/noah-isme/insight-go-api/internal/service/context")
	ctx, span := tracer.Start(ctx, "context.aggregate")
	span.SetAttributes(
		attribute.Int64("student.id", int64(studentID)),
		attribute.String("report.kind", targetKind),
	)
	defer span.End()

	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AnalysisContext{}, ErrStudentNotFound
		}
		return dto.AnalysisContext{}, err
	}

	now := s.now()
	result := dto.AnalysisContext{
		StudentID:   studentID,
		TargetKind:  targetKind,
		GeneratedAt: now,
	}

	s.attachBaseline(&result, student)

	switch {
	case models.IsMicroLoopKind(targetKind):
		result.PreviousCycle = s.previousCycle(ctx, studentID, targetKind, now)
	case models.IsMacroLoopKind(targetKind):
		result.PeriodSummary = s.periodSummary(ctx, studentID, targetKind, now)
	}

	return result, nil
}

func (s *contextService) attachBaseline(result *dto.AnalysisContext, student models.Student) {
	if !student.HasBaseline() {
		// Downstream consumers caveat confidence claims on this flag.
		result.BaselineMissing = true
		return
	}

	scores := make(map[string]float64, len(student.BaselineScores))
	for domain, value := range student.BaselineScores {
		if number, ok := toFloat(value); ok {
			scores[domain] = number
		}
	}

	result.Baseline = &dto.BaselineSnapshot{
		AssessedAt:    *student.BaselineAt,
		Scores:        scores,
		LearningStyle: student.LearningStyle,
	}
}

// previousCycle surfaces the prior same-tier report's declared goals with
// attainment left undetermined; the downstream generator judges achievement
// from other evidence.
func (s *contextService) previousCycle(ctx context.Context, studentID uint, kind string, now time.Time) *dto.PreviousCycle {
	report, err := s.reports.LatestPriorOfKind(ctx, studentID, kind, now)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn().Err(err).Uint("student_id", studentID).Msg("failed to load previous cycle report")
		}
		return nil
	}

	var goalTexts []string
	if len(report.NextGoals) > 0 {
		if err := json.Unmarshal(report.NextGoals, &goalTexts); err != nil {
			s.logger.Warn().Err(err).Uint("report_id", report.ID).Msg("previous cycle goals are not decodable")
		}
	}

	goals := make([]dto.PreviousGoal, 0, len(goalTexts))
	for _, text := range goalTexts {
		goals = append(goals, dto.PreviousGoal{Text: text, Achieved: false, Determined: false})
	}

	return &dto.PreviousCycle{
		ReportID:   report.ID,
		ReportDate: report.TestDate,
		Summary:    report.Summary,
		Goals:      goals,
	}
}

func (s *contextService) periodSummary(ctx context.Context, studentID uint, kind string, now time.Time) *dto.PeriodSummary {
	months := 6
	if kind == models.ReportKindAnnual {
		months = 12
	}
	from := now.AddDate(0, -months, 0)

	cacheKey := fmt.Sprintf("insight:context:period:%d:%s", studentID, kind)
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, cacheKey).Result()
		if err == nil {
			var summary dto.PeriodSummary
			if unmarshalErr := json.Unmarshal([]byte(cached), &summary); unmarshalErr == nil {
				return &summary
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read period summary cache")
		}
	}

	summary := s.buildPeriodSummary(ctx, studentID, from, now)

	if s.cache != nil && summary != nil {
		if payload, err := json.Marshal(summary); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store period summary cache")
			}
		}
	}

	return summary
}

func (s *contextService) buildPeriodSummary(ctx context.Context, studentID uint, from, to time.Time) *dto.PeriodSummary {
	summary := &dto.PeriodSummary{From: from, To: to}

	sessions, err := s.sessions.ListInRange(ctx, studentID, from, to)
	if err != nil {
		s.logger.Warn().Err(err).Uint("student_id", studentID).Msg("failed to load sessions for period summary")
	} else {
		summary.TotalSessions = len(sessions)
		var total time.Duration
		for _, session := range sessions {
			total += session.Duration(s.defaultDuration)
		}
		summary.ContactHours = total.Hours()
	}

	reports, err := s.reports.ListByKindsInRange(ctx, studentID, models.MicroLoopKinds, from, to)
	if err != nil {
		s.logger.Warn().Err(err).Uint("student_id", studentID).Msg("failed to load micro reports for period summary")
		return summary
	}

	var scores []float64
	for _, report := range reports {
		if normalized, ok := report.NormalizedScore(); ok {
			scores = append(scores, normalized)
		}
	}

	summary.TotalTests = len(scores)
	if len(scores) > 0 {
		var sum float64
		for _, score := range scores {
			sum += score
		}
		mean := sum / float64(len(scores))
		summary.MeanScore = &mean
	}
	if len(scores) >= 2 {
		improvement := scores[len(scores)-1] - scores[0]
		summary.Improvement = &improvement
	}

	return summary
}

func toFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		number, err := v.Float64()
		return number, err == nil
	}
	return 0, false
}
