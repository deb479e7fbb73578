package ai

import (
	"context"
	"errors"
	"fmt"
)

// Tier selects the cost/quality level a generation request runs at.
type Tier string

const (
	// TierHigh is used for infrequent, high-consequence analyses.
	TierHigh Tier = "high"
	// TierStandard is the cost-optimized default for frequent analyses.
	TierStandard Tier = "standard"
)

// ErrUpstream indicates the generative call failed transport-wise. The
// request is terminal; retries are the caller's responsibility.
var ErrUpstream = errors.New("generation upstream failure")

// ErrSchema indicates the model responded but not in the expected shape.
var ErrSchema = errors.New("generation response schema mismatch")

// GenerationInput carries everything the model needs to draft an analysis.
// Context and effectiveness are pre-serialized so this package stays
// independent of the service layer's DTO shapes.
type GenerationInput struct {
	StudentName          string
	Grade                int
	TargetKind           string
	ContextJSON          string
	EffectivenessSummary string
	Tier                 Tier
}

// StrategyDraft is one prescribed action drafted by the model.
type StrategyDraft struct {
	Type          string `json:"type"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	TargetConcept string `json:"target_concept"`
}

// ForecastDraft is one forward-looking score forecast drafted by the model.
type ForecastDraft struct {
	Timeframe      string   `json:"timeframe"`
	PredictedScore float64  `json:"predicted_score"`
	Confidence     string   `json:"confidence"`
	Assumptions    []string `json:"assumptions"`
}

// AnalysisPayload is the structured analysis returned by the generator.
type AnalysisPayload struct {
	Summary    string          `json:"summary"`
	Strengths  []string        `json:"strengths"`
	Weaknesses []string        `json:"weaknesses"`
	NextGoals  []string        `json:"next_goals"`
	Strategies []StrategyDraft `json:"strategies"`
	Forecasts  []ForecastDraft `json:"forecasts"`
}

// Generator describes a model capable of drafting analysis payloads.
type Generator interface {
	Generate(ctx context.Context, input GenerationInput) (AnalysisPayload, error)
}

// UnavailableGenerator rejects every request with ErrUpstream. It stands in
// when no credentials are configured so the rest of the API keeps serving.
type UnavailableGenerator struct{}

// Generate always fails with ErrUpstream.
func (UnavailableGenerator) Generate(_ context.Context, _ GenerationInput) (AnalysisPayload, error) {
	return AnalysisPayload{}, fmt.Errorf("%w: generator not configured", ErrUpstream)
}
