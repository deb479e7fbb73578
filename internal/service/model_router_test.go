package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/insight-go-api/internal/config"
	"github.com/noah-isme/insight-go-api/internal/models"
	"github.com/noah-isme/insight-go-api/pkg/ai"
)

func testPolicy() TierPolicy {
	return NewTierPolicy(config.RoutingPolicy{
		GradeThreshold:    11,
		HighStakesLabels:  []string{"수능", "모의고사", "중간고사", "기말고사"},
		SingleTestDefault: "standard",
	})
}

func TestTierPolicyHighStakesKindsAlwaysRouteHigh(t *testing.T) {
	policy := testPolicy()

	for _, kind := range []string{models.ReportKindBaseline, models.ReportKindSemiAnnual, models.ReportKindAnnual} {
		decision := policy.Route(RouteInput{Kind: kind, Grade: 8})
		require.Equal(t, ai.TierHigh, decision.Tier, kind)
		require.Equal(t, RuleHighStakesKind, decision.Rule)
	}
}

func TestTierPolicyRoutineKindWinsOverGradeAndLabel(t *testing.T) {
	policy := testPolicy()

	// Kind is checked before grade or label promotion, so a weekly report for
	// a grade 12 student labeled 기말고사 still runs on the standard tier.
	decision := policy.Route(RouteInput{Kind: models.ReportKindWeekly, Grade: 12, TestLabel: "기말고사 대비"})
	require.Equal(t, ai.TierStandard, decision.Tier)
	require.Equal(t, RuleRoutineKind, decision.Rule)
}

func TestTierPolicySingleTestGradePromotion(t *testing.T) {
	policy := testPolicy()

	decision := policy.Route(RouteInput{Kind: models.ReportKindSingleTest, Grade: 11})
	require.Equal(t, ai.TierHigh, decision.Tier)
	require.Equal(t, RuleGradePromotion, decision.Rule)
}

func TestTierPolicySingleTestKeywordPromotion(t *testing.T) {
	policy := testPolicy()

	decision := policy.Route(RouteInput{Kind: models.ReportKindSingleTest, Grade: 9, TestLabel: "6월 모의고사"})
	require.Equal(t, ai.TierHigh, decision.Tier)
	require.Equal(t, RuleKeywordPromotion, decision.Rule)
}

func TestTierPolicySingleTestDefaultsToStandard(t *testing.T) {
	policy := testPolicy()

	decision := policy.Route(RouteInput{Kind: models.ReportKindSingleTest, Grade: 9, TestLabel: "단원평가"})
	require.Equal(t, ai.TierStandard, decision.Tier)
	require.Equal(t, RuleSingleTestDefault, decision.Rule)
}

func TestTierPolicyOverrideBeatsEveryRule(t *testing.T) {
	policy := testPolicy()

	decision := policy.Route(RouteInput{Kind: models.ReportKindAnnual, Grade: 12, Override: ai.TierStandard})
	require.Equal(t, ai.TierStandard, decision.Tier)
	require.Equal(t, RuleOverride, decision.Rule)
}

func TestTierPolicyIsDeterministic(t *testing.T) {
	policy := testPolicy()
	input := RouteInput{Kind: models.ReportKindSingleTest, Grade: 10, TestLabel: "중간고사"}

	first := policy.Route(input)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, policy.Route(input))
	}
}
