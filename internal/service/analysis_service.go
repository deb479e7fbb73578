package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/noah-isme/insight-go-api/internal/dto"
	"github.com/noah-isme/insight-go-api/internal/models"
	"github.com/noah-isme/insight-go-api/internal/repository"
	"github.com/noah-isme/insight-go-api/pkg/ai"
)

// AnalysisService composes context aggregation, tier routing, and generation
// into the draft path for the next report.
type AnalysisService interface {
	Route(ctx context.Context, studentID uint, kind, testLabel, override string) (dto.RouteResponse, error)
	Prepare(ctx context.Context, req dto.AnalysisDraftRequest) (dto.AnalysisDraftResponse, error)
}

type analysisService struct {
	students   repository.StudentRepository
	contexts   ContextService
	strategies StrategyService
	policy     TierPolicy
	generator  ai.Generator
	logger     zerolog.Logger
	now        func() time.Time
}

// NewAnalysisService constructs the analysis draft service.
func NewAnalysisService(
	students repository.StudentRepository,
	contexts ContextService,
	strategies StrategyService,
	policy TierPolicy,
	generator ai.Generator,
	logger zerolog.Logger,
) AnalysisService {
	return &analysisService{
		students:   students,
		contexts:   contexts,
		strategies: strategies,
		policy:     policy,
		generator:  generator,
		logger:     logger.With().Str("component", "analysis_service").Logger(),
		now:        time.Now,
	}
}

// Route exposes the tier decision for a hypothetical request without running
// it, so operators can audit the policy.
func (s *analysisService) Route(ctx context.Context, studentID uint, kind, testLabel, override string) (dto.RouteResponse, error) {
	if !models.IsValidReportKind(kind) {
		return dto.RouteResponse{}, ErrInvalidReportKind
	}

	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.RouteResponse{}, ErrStudentNotFound
		}
		return dto.RouteResponse{}, err
	}

	decision := s.policy.Route(RouteInput{
		Kind:      kind,
		Grade:     student.Grade,
		TestLabel: testLabel,
		Override:  ai.Tier(override),
	})

	return dto.RouteResponse{
		Tier:   string(decision.Tier),
		Rule:   decision.Rule,
		Reason: decision.Reason,
	}, nil
}

// Prepare aggregates the student's temporal context, routes the request, and
// asks the generator for a structured draft. Generation errors pass through
// untranslated so the transport layer can distinguish upstream failures from
// schema mismatches.
func (s *analysisService) Prepare(ctx context.Context, req dto.AnalysisDraftRequest) (dto.AnalysisDraftResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/insight-go-api/internal/service/analysis")
	ctx, span := tracer.Start(ctx, "analysis.prepare")
	span.SetAttributes(
		attribute.Int64("student.id", int64(req.StudentID)),
		attribute.String("report.kind", req.Kind),
	)
	defer span.End()

	student, err := s.students.GetByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AnalysisDraftResponse{}, ErrStudentNotFound
		}
		return dto.AnalysisDraftResponse{}, err
	}

	analysisContext, err := s.contexts.Aggregate(ctx, req.StudentID, req.Kind)
	if err != nil {
		return dto.AnalysisDraftResponse{}, err
	}

	decision := s.policy.Route(RouteInput{
		Kind:      req.Kind,
		Grade:     student.Grade,
		TestLabel: req.TestLabel,
		Override:  ai.Tier(req.Override),
	})
	span.SetAttributes(attribute.String("route.tier", string(decision.Tier)))

	contextJSON, err := json.Marshal(analysisContext)
	if err != nil {
		return dto.AnalysisDraftResponse{}, err
	}

	// Effectiveness history is advisory; a mining failure degrades the prompt
	// rather than blocking the draft.
	effectivenessSummary := ""
	if effectiveness, err := s.strategies.Effectiveness(ctx, &req.StudentID); err != nil {
		s.logger.Warn().Err(err).Uint("student_id", req.StudentID).Msg("effectiveness summary unavailable for draft")
	} else {
		effectivenessSummary = effectiveness.PromptSummary
	}

	payload, err := s.generator.Generate(ctx, ai.GenerationInput{
		StudentName:          student.Name,
		Grade:                student.Grade,
		TargetKind:           req.Kind,
		ContextJSON:          string(contextJSON),
		EffectivenessSummary: effectivenessSummary,
		Tier:                 decision.Tier,
	})
	if err != nil {
		return dto.AnalysisDraftResponse{}, err
	}

	return dto.AnalysisDraftResponse{
		StudentID: req.StudentID,
		Kind:      req.Kind,
		Route: dto.RouteResponse{
			Tier:   string(decision.Tier),
			Rule:   decision.Rule,
			Reason: decision.Reason,
		},
		Context:     analysisContext,
		Payload:     payload,
		GeneratedAt: s.now(),
	}, nil
}
