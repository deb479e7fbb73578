package service

import (
	"strings"

	"github.com/noah-isme/insight-go-api/internal/config"
	"github.com/noah-isme/insight-go-api/internal/models"
	"github.com/noah-isme/insight-go-api/pkg/ai"
)

// TierPolicy routes an analysis request to a processing tier. The policy is
// an immutable value constructed from configuration; identical inputs always
// yield identical decisions, which reproducible audits depend on.
type TierPolicy struct {
	gradeThreshold    int
	highStakesLabels  []string
	singleTestDefault ai.Tier
}

// RouteInput carries the facts the routing decision is made from.
type RouteInput struct {
	Kind      string
	Grade     int
	TestLabel string
	Override  ai.Tier
}

// RouteDecision pairs the selected tier with the rule that fired, for
// audit and observability.
type RouteDecision struct {
	Tier   ai.Tier `json:"tier"`
	Rule   string  `json:"rule"`
	Reason string  `json:"reason"`
}

// Routing rule identifiers, first match wins in declaration order.
const (
	RuleOverride          = "explicit_override"
	RuleHighStakesKind    = "high_stakes_kind"
	RuleRoutineKind       = "routine_kind"
	RuleGradePromotion    = "grade_promotion"
	RuleKeywordPromotion  = "keyword_promotion"
	RuleSingleTestDefault = "single_test_default"
	RuleFallback          = "fallback"
)

// NewTierPolicy builds an immutable routing policy from configuration.
func NewTierPolicy(cfg config.RoutingPolicy) TierPolicy {
	labels := make([]string, 0, len(cfg.HighStakesLabels))
	for _, label := range cfg.HighStakesLabels {
		trimmed := strings.ToLower(strings.TrimSpace(label))
		if trimmed != "" {
			labels = append(labels, trimmed)
		}
	}

	fallback := ai.TierStandard
	if strings.EqualFold(cfg.SingleTestDefault, string(ai.TierHigh)) {
		fallback = ai.TierHigh
	}

	return TierPolicy{
		gradeThreshold:    cfg.GradeThreshold,
		highStakesLabels:  labels,
		singleTestDefault: fallback,
	}
}

// Route selects the processing tier for an analysis request. Pure function,
// no side effects.
func (p TierPolicy) Route(input RouteInput) RouteDecision {
	if input.Override == ai.TierHigh || input.Override == ai.TierStandard {
		return RouteDecision{
			Tier:   input.Override,
			Rule:   RuleOverride,
			Reason: "explicit override supplied by caller",
		}
	}

	switch input.Kind {
	case models.ReportKindBaseline, models.ReportKindSemiAnnual, models.ReportKindAnnual:
		// Infrequent, high-consequence decisions always get the stronger tier.
		return RouteDecision{
			Tier:   ai.TierHigh,
			Rule:   RuleHighStakesKind,
			Reason: "report kind " + input.Kind + " always routes high",
		}
	case models.ReportKindWeekly, models.ReportKindMonthly, models.ReportKindConsolidated:
		return RouteDecision{
			Tier:   ai.TierStandard,
			Rule:   RuleRoutineKind,
			Reason: "report kind " + input.Kind + " is cost-optimized",
		}
	case models.ReportKindSingleTest:
		if p.gradeThreshold > 0 && input.Grade >= p.gradeThreshold {
			return RouteDecision{
				Tier:   ai.TierHigh,
				Rule:   RuleGradePromotion,
				Reason: "grade meets promotion threshold",
			}
		}
		if label := p.matchHighStakesLabel(input.TestLabel); label != "" {
			return RouteDecision{
				Tier:   ai.TierHigh,
				Rule:   RuleKeywordPromotion,
				Reason: "test label contains high-stakes keyword " + label,
			}
		}
		return RouteDecision{
			Tier:   p.singleTestDefault,
			Rule:   RuleSingleTestDefault,
			Reason: "single test without promotion uses configured default",
		}
	}

	return RouteDecision{
		Tier:   ai.TierStandard,
		Rule:   RuleFallback,
		Reason: "unrecognized report kind falls back to standard",
	}
}

func (p TierPolicy) matchHighStakesLabel(testLabel string) string {
	if testLabel == "" {
		return ""
	}

	normalized := strings.ToLower(testLabel)
	for _, label := range p.highStakesLabels {
		if strings.Contains(normalized, label) {
			return label
		}
	}

	return ""
}
