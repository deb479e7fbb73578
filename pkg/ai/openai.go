package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	generationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "insight",
		Subsystem: "ai",
		Name:      "generation_duration_seconds",
		Help:      "Duration of analysis generation requests",
	}, []string{"model", "tier"})

	generationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "insight",
		Subsystem: "ai",
		Name:      "generation_failures_total",
		Help:      "Number of analysis generation failures",
	}, []string{"model", "reason"})
)

// OpenAIConfig defines configuration options for the OpenAI generator.
type OpenAIConfig struct {
	APIKey        string
	HighModel     string
	StandardModel string
	MaxTokens     int
	Temperature   float32
	Logger        zerolog.Logger
}

// OpenAIGenerator implements Generator against the OpenAI chat completion
// API. The routed tier selects the model.
type OpenAIGenerator struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIGenerator builds a new generator using the provided configuration.
func NewOpenAIGenerator(cfg OpenAIConfig) (*OpenAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.HighModel == "" {
		cfg.HighModel = "gpt-4o"
	}

	if cfg.StandardModel == "" {
		cfg.StandardModel = "gpt-4o-mini"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 2048
	}

	tracer := otel.Tracer("github.com/noah-isme/insight-go-api/pkg/ai/openai")
	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	client := openai.NewClientWithConfig(config)

	return &OpenAIGenerator{
		client: client,
		cfg:    cfg,
		tracer: tracer,
		logger: logger,
	}, nil
}

// ModelForTier returns the model name the given tier maps to.
func (g *OpenAIGenerator) ModelForTier(tier Tier) string {
	if tier == TierHigh {
		return g.cfg.HighModel
	}
	return g.cfg.StandardModel
}

// Generate sends the analysis request to OpenAI, parses the response and
// validates it against the payload schema. No retries are attempted.
func (g *OpenAIGenerator) Generate(parent context.Context, input GenerationInput) (AnalysisPayload, error) {
	model := g.ModelForTier(input.Tier)

	ctx, span := g.tracer.Start(parent, "openai.generate", trace.WithAttributes(
		attribute.String("model", model),
		attribute.String("tier", string(input.Tier)),
		attribute.String("report.kind", input.TargetKind),
	))
	defer span.End()

	start := time.Now()
	request := openai.ChatCompletionRequest{
		Model:       model,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: generatorSystemPrompt(),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildGenerationPrompt(input),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}

	resp, err := g.client.CreateChatCompletion(ctx, request)
	generationDuration.WithLabelValues(model, string(input.Tier)).Observe(time.Since(start).Seconds())
	if err != nil {
		generationFailures.WithLabelValues(model, "upstream").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return AnalysisPayload{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	if len(resp.Choices) == 0 {
		generationFailures.WithLabelValues(model, "upstream").Inc()
		err := fmt.Errorf("%w: no choices returned", ErrUpstream)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return AnalysisPayload{}, err
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	payload, err := ParseAnalysisPayload(content)
	if err != nil {
		generationFailures.WithLabelValues(model, "schema").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return AnalysisPayload{}, err
	}

	return payload, nil
}

// ParseAnalysisPayload decodes and schema-validates a raw model response.
func ParseAnalysisPayload(content string) (AnalysisPayload, error) {
	var document interface{}
	decoder := json.NewDecoder(bytes.NewReader([]byte(content)))
	decoder.UseNumber()
	if err := decoder.Decode(&document); err != nil {
		return AnalysisPayload{}, fmt.Errorf("%w: %v", ErrSchema, err)
	}

	if err := analysisSchema.Validate(document); err != nil {
		return AnalysisPayload{}, fmt.Errorf("%w: %v", ErrSchema, err)
	}

	var payload AnalysisPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return AnalysisPayload{}, fmt.Errorf("%w: %v", ErrSchema, err)
	}

	return payload, nil
}

func generatorSystemPrompt() string {
	return "You are a tutoring analyst. Respond with a JSON object containing summary, strengths, weaknesses, next_goals, " +
		"strategies (type, title, description, target_concept) and forecasts (timeframe, predicted_score, confidence, " +
		"assumptions). Ground every claim in the provided context and avoid inventing history."
}

func buildGenerationPrompt(input GenerationInput) string {
	builder := strings.Builder{}
	builder.WriteString("# Student\n")
	builder.WriteString(fmt.Sprintf("%s (grade %d)\n", input.StudentName, input.Grade))
	builder.WriteString("\n## Target Report Kind\n")
	builder.WriteString(input.TargetKind)
	builder.WriteString("\n\n## Temporal Context\n")
	builder.WriteString(input.ContextJSON)
	if input.EffectivenessSummary != "" {
		builder.WriteString("\n\n## Measured Strategy Outcomes\n")
		builder.WriteString(input.EffectivenessSummary)
	}
	builder.WriteString("\nReturn JSON.")
	return builder.String()
}
