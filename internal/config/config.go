package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/wesleyautomate-ship-it/retrieval-engine/internal/model"
)

// Config holds all configuration for the retrieval engine.
type Config struct {
	PostgreSQL PostgreSQLConfig
	Server     ServerConfig
	Search     SearchConfig
	Ranking    RankingConfig
	Cache      CacheConfig
	OpenAI     OpenAIConfig
	Breaker    BreakerConfig
}

// PostgreSQLConfig holds PostgreSQL database configuration.
type PostgreSQLConfig struct {
	DSN                string // full connection string, takes precedence
	Host               string
	Port               int
	User               string
	Password           string
	Database           string
	SSLMode            string
	MaxConnections     int
	MaxIdleConnections int
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port           int
	Host           string
	GinMode        string
	AllowedOrigins string
}

// SearchConfig holds retrieval limits and deadlines.
type SearchConfig struct {
	DefaultLimit int
	MaxLimit     int
	// RequestDeadline bounds a whole Search call.
	RequestDeadline time.Duration
	// AdapterDeadline bounds each adapter call; must be shorter than
	// RequestDeadline so one slow source cannot starve the request.
	AdapterDeadline time.Duration
	// MinFilterCount is the structured adapter's cost gate: constraint
	// sets with fewer structured filters are rejected with an empty
	// result instead of scanning the whole table.
	MinFilterCount int
	// ConfidenceFloor is the interpretation confidence below which the
	// orchestrator degrades to unconstrained semantic retrieval.
	ConfidenceFloor float64
}

// SourceWeights are the fusion weights applied to the normalized scores of
// each retrieval source for one intent.
type SourceWeights struct {
	Semantic   float64
	Structured float64
}

// RankingConfig holds the fusion and ranking configuration. The weight
// table is intent-dependent and inspectable, not a hidden constant.
type RankingConfig struct {
	Weights map[model.Intent]SourceWeights
	// PresenceBonus is added when both sources surface the same entity.
	// It is capped by PresenceBonusCap at load time so corroboration can
	// never invert a large single-source advantage.
	PresenceBonus    float64
	PresenceBonusCap float64
	TopK             int
}

// WeightsFor returns the weight pair for an intent, falling back to the
// unknown-intent weights.
func (r *RankingConfig) WeightsFor(intent model.Intent) SourceWeights {
	if w, ok := r.Weights[intent]; ok {
		return w
	}
	return r.Weights[model.IntentUnknown]
}

// CacheConfig holds the cache coordinator configuration. TTLs are
// per-intent: market queries go stale faster than policy answers.
type CacheConfig struct {
	DefaultTTL time.Duration
	TTLs       map[model.Intent]time.Duration
	Capacity   int
}

// TTLFor returns the TTL for an intent, falling back to the default.
func (c *CacheConfig) TTLFor(intent model.Intent) time.Duration {
	if ttl, ok := c.TTLs[intent]; ok {
		return ttl
	}
	return c.DefaultTTL
}

// OpenAIConfig holds the embeddings API configuration.
type OpenAIConfig struct {
	APIKey              string
	APIBase             string
	EmbeddingModel      string
	EmbeddingDimensions int
	Timeout             time.Duration
	Enabled             bool
}

// BreakerConfig holds circuit breaker settings for the embeddings API.
type BreakerConfig struct {
	FailureRatio float64
	MinRequests  uint32
	OpenTimeout  time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load()

	cfg := &Config{
		PostgreSQL: PostgreSQLConfig{
			DSN:                getEnv("DATABASE_URL", getEnv("PG_DSN", "")),
			Host:               getEnv("PG_HOST", "localhost"),
			Port:               getEnvAsInt("PG_PORT", 5432),
			User:               getEnv("PG_USER", "postgres"),
			Password:           getEnv("PG_PASSWORD", ""),
			Database:           getEnv("PG_DATABASE", "realtor_assistant"),
			SSLMode:            getEnv("PG_SSLMODE", "disable"),
			MaxConnections:     getEnvAsInt("PG_MAX_CONNECTIONS", 25),
			MaxIdleConnections: getEnvAsInt("PG_MAX_IDLE_CONNECTIONS", 5),
		},
		Server: ServerConfig{
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			GinMode:        getEnv("GIN_MODE", "release"),
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		Search: SearchConfig{
			DefaultLimit:    getEnvAsInt("SEARCH_DEFAULT_LIMIT", 20),
			MaxLimit:        getEnvAsInt("SEARCH_MAX_LIMIT", 100),
			RequestDeadline: getEnvAsMillis("SEARCH_REQUEST_DEADLINE_MS", 5000),
			AdapterDeadline: getEnvAsMillis("SEARCH_ADAPTER_DEADLINE_MS", 2000),
			MinFilterCount:  getEnvAsInt("SEARCH_MIN_FILTER_COUNT", 1),
			ConfidenceFloor: getEnvAsFloat("SEARCH_CONFIDENCE_FLOOR", 0.3),
		},
		Ranking: RankingConfig{
			Weights: map[model.Intent]SourceWeights{
				model.IntentPropertySearch: {
					Semantic:   getEnvAsFloat("RANK_PROPERTY_SEARCH_SEMANTIC", 0.35),
					Structured: getEnvAsFloat("RANK_PROPERTY_SEARCH_STRUCTURED", 0.65),
				},
				model.IntentMarketInfo: {
					Semantic:   getEnvAsFloat("RANK_MARKET_INFO_SEMANTIC", 0.6),
					Structured: getEnvAsFloat("RANK_MARKET_INFO_STRUCTURED", 0.4),
				},
				model.IntentInvestmentQuestion: {
					Semantic:   getEnvAsFloat("RANK_INVESTMENT_SEMANTIC", 0.6),
					Structured: getEnvAsFloat("RANK_INVESTMENT_STRUCTURED", 0.4),
				},
				model.IntentPolicyQuestion: {
					Semantic:   getEnvAsFloat("RANK_POLICY_SEMANTIC", 1.0),
					Structured: getEnvAsFloat("RANK_POLICY_STRUCTURED", 0.0),
				},
				model.IntentAgentSupport: {
					Semantic:   getEnvAsFloat("RANK_AGENT_SUPPORT_SEMANTIC", 0.7),
					Structured: getEnvAsFloat("RANK_AGENT_SUPPORT_STRUCTURED", 0.3),
				},
				model.IntentUnknown: {
					Semantic:   getEnvAsFloat("RANK_UNKNOWN_SEMANTIC", 0.5),
					Structured: getEnvAsFloat("RANK_UNKNOWN_STRUCTURED", 0.5),
				},
			},
			PresenceBonus:    getEnvAsFloat("RANK_PRESENCE_BONUS", 0.1),
			PresenceBonusCap: getEnvAsFloat("RANK_PRESENCE_BONUS_CAP", 0.15),
			TopK:             getEnvAsInt("RANK_TOP_K", 20),
		},
		Cache: CacheConfig{
			DefaultTTL: getEnvAsMinutes("CACHE_DEFAULT_TTL_MIN", 30),
			TTLs: map[model.Intent]time.Duration{
				model.IntentPropertySearch: getEnvAsMinutes("CACHE_PROPERTY_SEARCH_TTL_MIN", 15),
				model.IntentMarketInfo:     getEnvAsMinutes("CACHE_MARKET_INFO_TTL_MIN", 10),
				model.IntentPolicyQuestion: getEnvAsMinutes("CACHE_POLICY_TTL_MIN", 120),
			},
			Capacity: getEnvAsInt("CACHE_CAPACITY", 1000),
		},
		OpenAI: OpenAIConfig{
			APIKey:              getEnv("OPENAI_API_KEY", ""),
			APIBase:             getEnv("OPENAI_API_BASE", "https://api.openai.com/v1"),
			EmbeddingModel:      getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
			EmbeddingDimensions: getEnvAsInt("OPENAI_EMBEDDING_DIMENSIONS", 1536),
			Timeout:             getEnvAsMillis("OPENAI_TIMEOUT_MS", 10000),
			Enabled:             getEnv("OPENAI_API_KEY", "") != "",
		},
		Breaker: BreakerConfig{
			FailureRatio: getEnvAsFloat("BREAKER_FAILURE_RATIO", 0.6),
			MinRequests:  uint32(getEnvAsInt("BREAKER_MIN_REQUESTS", 5)),
			OpenTimeout:  getEnvAsMillis("BREAKER_OPEN_TIMEOUT_MS", 30000),
		},
	}

	if cfg.Ranking.PresenceBonus > cfg.Ranking.PresenceBonusCap {
		log.Printf("Warning: RANK_PRESENCE_BONUS %.2f exceeds cap %.2f, clamping",
			cfg.Ranking.PresenceBonus, cfg.Ranking.PresenceBonusCap)
		cfg.Ranking.PresenceBonus = cfg.Ranking.PresenceBonusCap
	}
	if cfg.Search.AdapterDeadline >= cfg.Search.RequestDeadline {
		return nil, fmt.Errorf("adapter deadline %s must be shorter than request deadline %s",
			cfg.Search.AdapterDeadline, cfg.Search.RequestDeadline)
	}

	return cfg, nil
}

// GetPostgreSQLDSN returns the PostgreSQL connection string.
func (c *Config) GetPostgreSQLDSN() string {
	if c.PostgreSQL.DSN != "" {
		return c.PostgreSQL.DSN
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgreSQL.Host,
		c.PostgreSQL.Port,
		c.PostgreSQL.User,
		c.PostgreSQL.Password,
		c.PostgreSQL.Database,
		c.PostgreSQL.SSLMode,
	)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer value for %s, using default %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid float value for %s, using default %f", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsMillis(key string, defaultValue int) time.Duration {
	return time.Duration(getEnvAsInt(key, defaultValue)) * time.Millisecond
}

func getEnvAsMinutes(key string, defaultValue int) time.Duration {
	return time.Duration(getEnvAsInt(key, defaultValue)) * time.Minute
}
