package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/insight-go-api/internal/models"
	"github.com/noah-isme/insight-go-api/internal/repository"
)

var (
	// ErrSeedDisabled indicates the seeding tools are disabled by configuration.
	ErrSeedDisabled = errors.New("seeding is disabled")
	// ErrSeedUnauthorized indicates the provided token is invalid.
	ErrSeedUnauthorized = errors.New("invalid seed token")
)

// SeedService provisions the achievement catalog. A fresh deployment carries
// no badges until the catalog is seeded; evaluation reads the catalog and
// never writes it.
type SeedService interface {
	SeedAchievements(ctx context.Context, token string, entries []models.Achievement) (int64, error)
}

type seedService struct {
	achievements repository.AchievementRepository
	enabled      bool
	token        string
	logger       zerolog.Logger
}

// NewSeedService constructs a seeding service.
func NewSeedService(achievements repository.AchievementRepository, enabled bool, token string, logger zerolog.Logger) SeedService {
	return &seedService{
		achievements: achievements,
		enabled:      enabled,
		token:        token,
		logger:       logger.With().Str("component", "seed_service").Logger(),
	}
}

func (s *seedService) SeedAchievements(ctx context.Context, token string, entries []models.Achievement) (int64, error) {
	if !s.enabled {
		return 0, ErrSeedDisabled
	}
	if !s.validateToken(token) {
		return 0, ErrSeedUnauthorized
	}

	normalized := normalizeAchievements(entries)
	affected, err := s.achievements.UpsertBatch(ctx, normalized)
	if err != nil {
		return 0, err
	}

	s.logger.Info().Int64("affected", affected).Msg("achievement catalog seeded")
	return affected, nil
}

func (s *seedService) validateToken(token string) bool {
	expected := strings.TrimSpace(s.token)
	if expected == "" {
		return false
	}
	return constantTimeEquals(expected, strings.TrimSpace(token))
}

func constantTimeEquals(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	mismatch := byte(0)
	for i := 0; i < len(a); i++ {
		mismatch |= a[i] ^ b[i]
	}
	return mismatch == 0
}

func normalizeAchievements(entries []models.Achievement) []models.Achievement {
	for i := range entries {
		if entries[i].Code == "" {
			entries[i].Code = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(entries[i].Name)), " ", "_")
		}
	}
	return entries
}
