package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the insight service. The
// struct is built once at startup and passed down by value; live updates are
// a reload-and-replace, never in-place mutation shared across callers.
type Config struct {
	AppName     string
	AppEnv      string
	AppPort     string
	DatabaseURL string
	RedisURL    string
	NATSURL     string
	JWTSecret   string

	OpenAIAPIKey  string
	HighTierModel string
	StandardModel string

	SeedEnabled bool
	SeedToken   string

	ContextCacheTTL        time.Duration
	DefaultSessionDuration time.Duration

	Routing    RoutingPolicy
	Reconciler ReconcilerConfig
	Miner      MinerThresholds
}

// RoutingPolicy parameterizes single-test tier promotion. Values are fixed
// for the lifetime of the process so routing stays deterministic.
type RoutingPolicy struct {
	GradeThreshold    int
	HighStakesLabels  []string
	SingleTestDefault string
}

// ReconcilerConfig holds prediction verification tolerances.
type ReconcilerConfig struct {
	// AccuracyTolerancePct is the inclusive error-percentage bound under
	// which a verified prediction counts as accurate.
	AccuracyTolerancePct float64
}

// MinerThresholds holds the strategy mining cut-offs.
type MinerThresholds struct {
	SuccessImprovement float64
	LowImprovement     float64
	TopPatterns        int
	MinPatternUses     int
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("INSIGHT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "INSIGHT API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("context.cache_ttl", "5m")
	v.SetDefault("session.default_minutes", 50)
	v.SetDefault("ai.high_tier_model", "gpt-4o")
	v.SetDefault("ai.standard_model", "gpt-4o-mini")
	v.SetDefault("seed.enabled", false)
	v.SetDefault("routing.grade_threshold", 11)
	v.SetDefault("routing.high_stakes_labels", "수능,모의고사,중간고사,기말고사")
	v.SetDefault("routing.single_test_default", "standard")
	v.SetDefault("reconciler.accuracy_tolerance_pct", 10.0)
	v.SetDefault("miner.success_improvement", 10.0)
	v.SetDefault("miner.low_improvement", 5.0)
	v.SetDefault("miner.top_patterns", 10)
	v.SetDefault("miner.min_pattern_uses", 2)

	ttlString := v.GetString("context.cache_ttl")
	if ttlString == "" {
		ttlString = "5m"
	}

	ttl, err := time.ParseDuration(ttlString)
	if err != nil {
		return Config{}, fmt.Errorf("invalid context cache ttl: %w", err)
	}

	sessionMinutes := v.GetInt("session.default_minutes")
	if sessionMinutes <= 0 {
		sessionMinutes = 50
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		JWTSecret:              v.GetString("jwt.secret"),
		OpenAIAPIKey:           v.GetString("openai_api_key"),
		HighTierModel:          v.GetString("ai.high_tier_model"),
		StandardModel:          v.GetString("ai.standard_model"),
		SeedEnabled:            v.GetBool("seed.enabled"),
		SeedToken:              v.GetString("seed.token"),
		ContextCacheTTL:        ttl,
		DefaultSessionDuration: time.Duration(sessionMinutes) * time.Minute,
		Routing: RoutingPolicy{
			GradeThreshold:    v.GetInt("routing.grade_threshold"),
			HighStakesLabels:  splitLabels(v.GetString("routing.high_stakes_labels")),
			SingleTestDefault: strings.ToLower(v.GetString("routing.single_test_default")),
		},
		Reconciler: ReconcilerConfig{
			AccuracyTolerancePct: v.GetFloat64("reconciler.accuracy_tolerance_pct"),
		},
		Miner: MinerThresholds{
			SuccessImprovement: v.GetFloat64("miner.success_improvement"),
			LowImprovement:     v.GetFloat64("miner.low_improvement"),
			TopPatterns:        v.GetInt("miner.top_patterns"),
			MinPatternUses:     v.GetInt("miner.min_pattern_uses"),
		},
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.Reconciler.AccuracyTolerancePct <= 0 {
		cfg.Reconciler.AccuracyTolerancePct = 10.0
	}

	if cfg.Miner.TopPatterns <= 0 {
		cfg.Miner.TopPatterns = 10
	}

	if cfg.Miner.MinPatternUses < 2 {
		cfg.Miner.MinPatternUses = 2
	}

	return cfg, nil
}

func splitLabels(raw string) []string {
	parts := strings.Split(raw, ",")
	labels := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			labels = append(labels, trimmed)
		}
	}

	return labels
}
