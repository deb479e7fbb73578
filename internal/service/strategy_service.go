package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/noah-isme/insight-go-api/internal/config"
	"github.com/noah-isme/insight-go-api/internal/dto"
	"github.com/noah-isme/insight-go-api/internal/models"
	"github.com/noah-isme/insight-go-api/internal/observability"
	"github.com/noah-isme/insight-go-api/internal/repository"
)

// StrategyService tracks prescribed-action execution and mines which
// prescriptions actually moved scores.
type StrategyService interface {
	RegisterBatch(ctx context.Context, report models.Report, items []dto.StrategyPrescription) ([]models.StrategyRecord, error)
	UpdateStatus(ctx context.Context, id uint, req dto.StrategyStatusUpdateRequest) (dto.StrategyResponse, error)
	Effectiveness(ctx context.Context, studentID *uint) (dto.EffectivenessReport, error)
}

type strategyService struct {
	strategies repository.StrategyRepository
	thresholds config.MinerThresholds
	sanitizer  *bluemonday.Policy
	logger     zerolog.Logger
	now        func() time.Time
}

// NewStrategyService constructs a strategy service. The mining thresholds
// are fixed at construction; a live update is a rebuild, not a mutation.
func NewStrategyService(strategies repository.StrategyRepository, thresholds config.MinerThresholds, logger zerolog.Logger) StrategyService {
	if thresholds.SuccessImprovement <= 0 {
		thresholds.SuccessImprovement = 10
	}
	if thresholds.LowImprovement <= 0 {
		thresholds.LowImprovement = 5
	}
	if thresholds.TopPatterns <= 0 {
		thresholds.TopPatterns = 10
	}
	if thresholds.MinPatternUses < 2 {
		thresholds.MinPatternUses = 2
	}

	return &strategyService{
		strategies: strategies,
		thresholds: thresholds,
		sanitizer:  bluemonday.StrictPolicy(),
		logger:     logger.With().Str("component", "strategy_service").Logger(),
		now:        time.Now,
	}
}

// RegisterBatch creates the report's strategy records in one batch. A report
// that already has any records keeps its first batch: the call is rejected
// without mutation and the caller learns zero records were added.
func (s *strategyService) RegisterBatch(ctx context.Context, report models.Report, items []dto.StrategyPrescription) ([]models.StrategyRecord, error) {
	if len(items) == 0 {
		return nil, nil
	}

	existing, err := s.strategies.CountByReport(ctx, report.ID)
	if err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, ErrStrategiesAlreadyRegistered
	}

	records := make([]models.StrategyRecord, 0, len(items))
	for _, item := range items {
		records = append(records, models.StrategyRecord{
			ReportID:      report.ID,
			StudentID:     report.StudentID,
			Type:          item.Type,
			Title:         strings.TrimSpace(item.Title),
			Description:   item.Description,
			TargetConcept: strings.TrimSpace(item.TargetConcept),
			Status:        models.StrategyStatusPending,
		})
	}

	if err := s.strategies.CreateBatch(ctx, records); err != nil {
		return nil, err
	}

	observability.StrategiesRegistered().Add(float64(len(records)))
	s.logger.Info().
		Uint("report_id", report.ID).
		Int("count", len(records)).
		Msg("strategy batch registered")

	return records, nil
}

// UpdateStatus runs one state machine transition:
// pending -> in_progress -> {completed, skipped, partial}, plus
// pending -> skipped directly.
func (s *strategyService) UpdateStatus(ctx context.Context, id uint, req dto.StrategyStatusUpdateRequest) (dto.StrategyResponse, error) {
	record, err := s.strategies.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StrategyResponse{}, ErrStrategyNotFound
		}
		return dto.StrategyResponse{}, err
	}

	if !models.CanTransitionStrategyStatus(record.Status, req.Status) {
		return dto.StrategyResponse{}, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, record.Status, req.Status)
	}

	if req.PreScore != nil {
		record.PreScore = req.PreScore
	}
	if req.PostScore != nil {
		record.PostScore = req.PostScore
	}
	if req.EffectivenessRating != nil {
		record.EffectivenessRating = req.EffectivenessRating
	}
	if req.DifficultyRating != nil {
		record.DifficultyRating = req.DifficultyRating
	}
	if req.Feedback != nil {
		record.Feedback = strings.TrimSpace(s.sanitizer.Sanitize(*req.Feedback))
	}

	now := s.now()
	switch req.Status {
	case models.StrategyStatusInProgress:
		if record.StartedAt == nil {
			record.StartedAt = &now
		}
	case models.StrategyStatusCompleted:
		if record.CompletedAt == nil {
			record.CompletedAt = &now
		}
		if record.PreScore != nil && record.PostScore != nil {
			// Signed: a regression is a meaningful outcome, not an error.
			improvement := *record.PostScore - *record.PreScore
			record.ImprovementRate = &improvement
		}
	}
	record.Status = req.Status

	if err := s.strategies.Update(ctx, &record); err != nil {
		return dto.StrategyResponse{}, err
	}

	s.logger.Info().
		Uint("strategy_id", record.ID).
		Str("status", record.Status).
		Msg("strategy status updated")

	return dto.NewStrategyResponse(record), nil
}

// Effectiveness recomputes the mining report from completed records on
// demand, optionally scoped to one student.
func (s *strategyService) Effectiveness(ctx context.Context, studentID *uint) (dto.EffectivenessReport, error) {
	tracer := otel.Tracer("github.com/noah-isme/insight-go-api/internal/service/strategy")
	ctx, span := tracer.Start(ctx, "strategies.effectiveness")
	defer span.End()

	completed, err := s.strategies.ListCompleted(ctx, studentID)
	if err != nil {
		return dto.EffectivenessReport{}, err
	}

	typeCounts, err := s.strategies.CountByType(ctx, studentID)
	if err != nil {
		return dto.EffectivenessReport{}, err
	}

	span.SetAttributes(attribute.Int("strategies.completed", len(completed)))

	report := dto.EffectivenessReport{
		ByType:       s.mineByType(completed, typeCounts),
		ByConcept:    s.mineByConcept(completed),
		BestPatterns: s.minePatterns(completed),
		Ineffective:  s.mineIneffective(completed),
		GeneratedAt:  s.now(),
	}
	report.PromptSummary = s.buildPromptSummary(report.BestPatterns, report.Ineffective)

	return report, nil
}

func (s *strategyService) mineByType(completed []models.StrategyRecord, typeCounts map[string]int64) []dto.TypeEffectiveness {
	type accumulator struct {
		completed      int
		improvementSum float64
		improvementN   int
		ratingSum      int
		ratingN        int
		successes      int
	}

	perType := make(map[string]*accumulator)
	for _, record := range completed {
		entry, ok := perType[record.Type]
		if !ok {
			entry = &accumulator{}
			perType[record.Type] = entry
		}
		entry.completed++
		if record.ImprovementRate != nil {
			entry.improvementSum += *record.ImprovementRate
			entry.improvementN++
			if *record.ImprovementRate >= s.thresholds.SuccessImprovement {
				entry.successes++
			}
		}
		if record.EffectivenessRating != nil {
			entry.ratingSum += *record.EffectivenessRating
			entry.ratingN++
		}
	}

	results := make([]dto.TypeEffectiveness, 0, len(models.StrategyTypes))
	for _, strategyType := range models.StrategyTypes {
		total := typeCounts[strategyType]
		entry := perType[strategyType]
		if total == 0 && entry == nil {
			continue
		}

		stats := dto.TypeEffectiveness{Type: strategyType, TotalSeen: int(total)}
		if entry != nil {
			stats.Completed = entry.completed
			if entry.improvementN > 0 {
				stats.MeanImprovement = entry.improvementSum / float64(entry.improvementN)
				stats.SuccessRate = float64(entry.successes) / float64(entry.improvementN) * 100
			}
			if entry.ratingN > 0 {
				stats.MeanRating = float64(entry.ratingSum) / float64(entry.ratingN)
			}
		}
		if total > 0 && entry != nil {
			stats.CompletionRate = float64(entry.completed) / float64(total) * 100
		}

		results = append(results, stats)
	}

	return results
}

// mineByConcept ranks concepts by cumulative improvement: many small wins
// outrank one big win when prioritizing curriculum attention.
func (s *strategyService) mineByConcept(completed []models.StrategyRecord) []dto.ConceptEffectiveness {
	type accumulator struct {
		count int
		sum   float64
	}

	perConcept := make(map[string]*accumulator)
	for _, record := range completed {
		if record.TargetConcept == "" || record.ImprovementRate == nil {
			continue
		}
		entry, ok := perConcept[record.TargetConcept]
		if !ok {
			entry = &accumulator{}
			perConcept[record.TargetConcept] = entry
		}
		entry.count++
		entry.sum += *record.ImprovementRate
	}

	results := make([]dto.ConceptEffectiveness, 0, len(perConcept))
	for concept, entry := range perConcept {
		results = append(results, dto.ConceptEffectiveness{
			Concept:               concept,
			Count:                 entry.count,
			MeanImprovement:       entry.sum / float64(entry.count),
			CumulativeImprovement: entry.sum,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].CumulativeImprovement != results[j].CumulativeImprovement {
			return results[i].CumulativeImprovement > results[j].CumulativeImprovement
		}
		return results[i].Concept < results[j].Concept
	})

	return results
}

// minePatterns groups completed records by their (type, title) prescription
// signature. A single use is not a pattern.
func (s *strategyService) minePatterns(completed []models.StrategyRecord) []dto.StrategyPattern {
	type accumulator struct {
		strategyType   string
		title          string
		uses           int
		improvementSum float64
		improvementN   int
		ratingSum      int
		ratingN        int
		successes      int
	}

	groups := make(map[string]*accumulator)
	for _, record := range completed {
		key := record.Type + "\x00" + record.Title
		entry, ok := groups[key]
		if !ok {
			entry = &accumulator{strategyType: record.Type, title: record.Title}
			groups[key] = entry
		}
		entry.uses++
		if record.ImprovementRate != nil {
			entry.improvementSum += *record.ImprovementRate
			entry.improvementN++
			if *record.ImprovementRate >= s.thresholds.SuccessImprovement {
				entry.successes++
			}
		}
		if record.EffectivenessRating != nil {
			entry.ratingSum += *record.EffectivenessRating
			entry.ratingN++
		}
	}

	patterns := make([]dto.StrategyPattern, 0, len(groups))
	for _, entry := range groups {
		if entry.uses < s.thresholds.MinPatternUses {
			continue
		}

		pattern := dto.StrategyPattern{
			Type:  entry.strategyType,
			Title: entry.title,
			Uses:  entry.uses,
		}
		if entry.improvementN > 0 {
			pattern.MeanImprovement = entry.improvementSum / float64(entry.improvementN)
			pattern.SuccessRate = float64(entry.successes) / float64(entry.improvementN) * 100
		}
		if entry.ratingN > 0 {
			pattern.MeanRating = float64(entry.ratingSum) / float64(entry.ratingN)
		}

		patterns = append(patterns, pattern)
	}

	sort.Slice(patterns, func(i, j int) bool {
		if patterns[i].MeanImprovement != patterns[j].MeanImprovement {
			return patterns[i].MeanImprovement > patterns[j].MeanImprovement
		}
		return patterns[i].Title < patterns[j].Title
	})

	if len(patterns) > s.thresholds.TopPatterns {
		patterns = patterns[:s.thresholds.TopPatterns]
	}

	return patterns
}

func (s *strategyService) mineIneffective(completed []models.StrategyRecord) []dto.IneffectiveStrategy {
	var results []dto.IneffectiveStrategy
	for _, record := range completed {
		if record.ImprovementRate == nil || *record.ImprovementRate >= s.thresholds.LowImprovement {
			continue
		}
		results = append(results, dto.IneffectiveStrategy{
			ID:              record.ID,
			Type:            record.Type,
			Title:           record.Title,
			ImprovementRate: *record.ImprovementRate,
			Feedback:        record.Feedback,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].ImprovementRate < results[j].ImprovementRate
	})

	return results
}

const promptSummaryBound = 3

// buildPromptSummary condenses the mined outcomes into a short block the
// next generation request carries, closing the feedback loop from measured
// results back into future prescriptions.
func (s *strategyService) buildPromptSummary(best []dto.StrategyPattern, ineffective []dto.IneffectiveStrategy) string {
	if len(best) == 0 && len(ineffective) == 0 {
		return ""
	}

	builder := strings.Builder{}
	if len(best) > 0 {
		builder.WriteString("Proven strategies:\n")
		for i, pattern := range best {
			if i >= promptSummaryBound {
				break
			}
			builder.WriteString(fmt.Sprintf("- [%s] %s: avg %+.1f points over %d uses\n",
				pattern.Type, pattern.Title, pattern.MeanImprovement, pattern.Uses))
		}
	}

	if len(ineffective) > 0 {
		builder.WriteString("Avoid repeating:\n")
		for i, item := range ineffective {
			if i >= promptSummaryBound {
				break
			}
			line := fmt.Sprintf("- [%s] %s: %+.1f points", item.Type, item.Title, item.ImprovementRate)
			if item.Feedback != "" {
				line += " (" + item.Feedback + ")"
			}
			builder.WriteString(line + "\n")
		}
	}

	return strings.TrimRight(builder.String(), "\n")
}
