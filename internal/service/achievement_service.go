package service

import (
	"context"
	"errors"
	"fmt"
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

// AchievementService evaluates the badge catalog against student events and
// awards each badge at most once.
type AchievementService interface {
	Evaluate(ctx context.Context, event dto.AchievementEvent) ([]dto.EarnedAchievementResponse, error)
	Unnotified(ctx context.Context, studentID uint) ([]dto.EarnedAchievementResponse, error)
	MarkNotified(ctx context.Context, req dto.MarkNotifiedRequest) (dto.MarkNotifiedSummary, error)
}

type achievementService struct {
	achievements repository.AchievementRepository
	reports      repository.ReportRepository
	plans        repository.StudyPlanRepository
	logger       zerolog.Logger
	now          func() time.Time
}

// NewAchievementService constructs an achievement service.
func NewAchievementService(
	achievements repository.AchievementRepository,
	reports repository.ReportRepository,
	plans repository.StudyPlanRepository,
	logger zerolog.Logger,
) AchievementService {
	return &achievementService{
		achievements: achievements,
		reports:      reports,
		plans:        plans,
		logger:       logger.With().Str("component", "achievement_service").Logger(),
		now:          time.Now,
	}
}

// achievementFacts are the freshly computed aggregates conditions run against.
type achievementFacts struct {
	reportCount    int64
	completedPlans int64
	event          dto.AchievementEvent
}

// Evaluate runs every active, not-yet-earned catalog entry against fresh
// aggregates. The earned skip-list is only a fast path: two concurrent
// evaluations can both pass it, and the storage-level unique constraint is
// what actually keeps the award exactly-once. A duplicate insert is a benign
// skip, never an error for the triggering caller.
func (s *achievementService) Evaluate(ctx context.Context, event dto.AchievementEvent) ([]dto.EarnedAchievementResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/insight-go-api/internal/service/achievement")
	ctx, span := tracer.Start(ctx, "achievements.evaluate")
	span.SetAttributes(
		attribute.Int64("student.id", int64(event.StudentID)),
		attribute.String("event.trigger", event.Trigger),
	)
	defer span.End()

	catalog, err := s.achievements.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	earnedIDs, err := s.achievements.ListEarnedIDs(ctx, event.StudentID)
	if err != nil {
		return nil, err
	}

	earned := make(map[uint]struct{}, len(earnedIDs))
	for _, id := range earnedIDs {
		earned[id] = struct{}{}
	}

	facts, err := s.loadFacts(ctx, event)
	if err != nil {
		return nil, err
	}

	var newlyEarned []dto.EarnedAchievementResponse
	awardedAt := s.now()
	for _, entry := range catalog {
		if _, already := earned[entry.ID]; already {
			continue
		}

		satisfied, reason := evaluateCondition(entry, facts)
		if !satisfied {
			continue
		}

		record := models.StudentAchievement{
			StudentID:     event.StudentID,
			AchievementID: entry.ID,
			Reason:        reason,
			ReportID:      event.ReportID,
			StudyPlanID:   event.StudyPlanID,
			EarnedAt:      awardedAt,
		}

		if err := s.achievements.CreateEarned(ctx, &record); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				s.logger.Debug().
					Uint("student_id", event.StudentID).
					Str("code", entry.Code).
					Msg("achievement already awarded by concurrent evaluation")
				continue
			}
			s.logger.Error().Err(err).
				Uint("student_id", event.StudentID).
				Str("code", entry.Code).
				Msg("failed to persist earned achievement")
			continue
		}

		record.Achievement = entry
		newlyEarned = append(newlyEarned, dto.NewEarnedAchievementResponse(record))
		observability.AchievementsAwarded().WithLabelValues(entry.Code).Inc()
	}

	span.SetAttributes(attribute.Int("achievements.newly_earned", len(newlyEarned)))

	return newlyEarned, nil
}

func (s *achievementService) loadFacts(ctx context.Context, event dto.AchievementEvent) (achievementFacts, error) {
	facts := achievementFacts{event: event}

	reportCount, err := s.reports.CountByStudent(ctx, event.StudentID)
	if err != nil {
		return achievementFacts{}, err
	}
	facts.reportCount = reportCount

	if event.CompletedPlans != nil {
		facts.completedPlans = *event.CompletedPlans
	} else if event.Trigger == dto.TriggerPlanCompleted {
		completed, err := s.plans.CountCompleted(ctx, event.StudentID)
		if err != nil {
			return achievementFacts{}, err
		}
		facts.completedPlans = completed
	}

	return facts, nil
}

// evaluateCondition dispatches over the closed condition set. Adding a badge
// behaviour means adding a named case here, keeping evaluation auditable.
func evaluateCondition(entry models.Achievement, facts achievementFacts) (bool, string) {
	threshold := 0.0
	if entry.Threshold != nil {
		threshold = *entry.Threshold
	}

	switch entry.Condition {
	case models.ConditionReportCount:
		if threshold > 0 && float64(facts.reportCount) >= threshold {
			return true, fmt.Sprintf("accumulated %d analysis reports", facts.reportCount)
		}
	case models.ConditionScoreAtLeast:
		if facts.event.Score != nil && threshold > 0 && *facts.event.Score >= threshold {
			return true, fmt.Sprintf("scored %.1f, at or above %.0f", *facts.event.Score, threshold)
		}
	case models.ConditionScoreImprovement:
		if facts.event.Score != nil && facts.event.PreviousScore != nil {
			delta := *facts.event.Score - *facts.event.PreviousScore
			if threshold > 0 && delta >= threshold {
				return true, fmt.Sprintf("improved by %.1f points since the previous test", delta)
			}
		}
	case models.ConditionReportKind:
		if entry.TargetKind != "" && facts.event.ReportKind == entry.TargetKind {
			return true, fmt.Sprintf("completed a %s report", entry.TargetKind)
		}
	case models.ConditionPlanCount:
		if threshold > 0 && float64(facts.completedPlans) >= threshold {
			return true, fmt.Sprintf("completed %d study plans", facts.completedPlans)
		}
	}

	return false, ""
}

// Unnotified lists earned records still awaiting notification. The query is
// replay-safe; the dispatcher consuming it is a separate collaborator.
func (s *achievementService) Unnotified(ctx context.Context, studentID uint) ([]dto.EarnedAchievementResponse, error) {
	earned, err := s.achievements.ListUnnotified(ctx, studentID)
	if err != nil {
		return nil, err
	}

	return dto.NewEarnedAchievementResponseSlice(earned), nil
}

// MarkNotified flags dispatched notifications item by item. Individual
// failures are collected; the batch itself always reports success.
func (s *achievementService) MarkNotified(ctx context.Context, req dto.MarkNotifiedRequest) (dto.MarkNotifiedSummary, error) {
	summary := dto.MarkNotifiedSummary{}
	for _, id := range req.IDs {
		if err := s.achievements.MarkNotified(ctx, id); err != nil {
			message := err.Error()
			if errors.Is(err, gorm.ErrRecordNotFound) {
				message = ErrEarnedAchievementNotFound.Error()
			}
			summary.Failures = append(summary.Failures, dto.ItemFailure{ID: id, Error: message})
			continue
		}
		summary.Marked++
	}

	return summary, nil
}
