package dto

import (
	"time"

	"github.com/noah-isme/insight-go-api/pkg/ai"
)

// AnalysisDraftRequest asks for a model-drafted analysis for one student.
type AnalysisDraftRequest struct {
	StudentID uint   `json:"student_id" validate:"required,gt=0"`
	Kind      string `json:"kind" validate:"required"`
	TestLabel string `json:"test_label" validate:"omitempty,max=255"`
	Override  string `json:"override" validate:"omitempty,oneof=high standard"`
}

// RouteResponse reports which tier a request routed to and why.
type RouteResponse struct {
	Tier   string `json:"tier"`
	Rule   string `json:"rule"`
	Reason string `json:"reason"`
}

// AnalysisDraftResponse pairs the drafted payload with the context and
// routing decision it was conditioned on, for audit.
type AnalysisDraftResponse struct {
	StudentID   uint               `json:"student_id"`
	Kind        string             `json:"kind"`
	Route       RouteResponse      `json:"route"`
	Context     AnalysisContext    `json:"context"`
	Payload     ai.AnalysisPayload `json:"payload"`
	GeneratedAt time.Time          `json:"generated_at"`
}
