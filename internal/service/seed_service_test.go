package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/insight-go-api/internal/models"
)

func TestSeedServiceDisabled(t *testing.T) {
	svc := NewSeedService(newAchievementRepoStub(), false, "secret", testLogger())

	_, err := svc.SeedAchievements(context.Background(), "secret", []models.Achievement{{Name: "Ten Reports"}})
	require.ErrorIs(t, err, ErrSeedDisabled)
}

func TestSeedServiceTokenGuard(t *testing.T) {
	repo := newAchievementRepoStub()
	svc := NewSeedService(repo, true, "secret", testLogger())

	_, err := svc.SeedAchievements(context.Background(), "wrong", []models.Achievement{{Name: "Ten Reports"}})
	require.ErrorIs(t, err, ErrSeedUnauthorized)
	require.Empty(t, repo.catalog)

	affected, err := svc.SeedAchievements(context.Background(), "secret", []models.Achievement{
		{Name: "Ten Reports", Condition: models.ConditionReportCount, Threshold: floatPtr(10), Active: true},
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), affected)
	require.Len(t, repo.catalog, 1)
}

func TestSeedServiceEmptyTokenNeverMatches(t *testing.T) {
	svc := NewSeedService(newAchievementRepoStub(), true, "", testLogger())

	_, err := svc.SeedAchievements(context.Background(), "", []models.Achievement{{Name: "Ten Reports"}})
	require.ErrorIs(t, err, ErrSeedUnauthorized)
}

func TestSeedServiceDerivesCodeFromName(t *testing.T) {
	repo := newAchievementRepoStub()
	svc := NewSeedService(repo, true, "secret", testLogger())

	_, err := svc.SeedAchievements(context.Background(), "secret", []models.Achievement{
		{Name: "Ninety Club", Condition: models.ConditionScoreAtLeast, Threshold: floatPtr(90), Active: true},
		{Code: "big_jump", Name: "Big Jump", Condition: models.ConditionScoreImprovement, Threshold: floatPtr(15), Active: true},
	})
	require.NoError(t, err)
	require.Equal(t, "ninety_club", repo.catalog[0].Code)
	require.Equal(t, "big_jump", repo.catalog[1].Code, "explicit codes are kept")
}
