package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// PipelineMode selects the per-turn pipeline variant.
const (
	PipelineRetrieval = "retrieval"
	PipelineTools     = "tools"
)

// Config holds process-level configuration, read once at startup.
type Config struct {
	HTTPAddr    string
	DatabaseURL string

	SupabaseURL string
	SupabaseKey string

	SessionDir     string
	ReconnectDelay time.Duration
	MaxReconnect   int

	GenerativeModel string
	EmbeddingModel  string
	MatchThreshold  float64
	MatchCount      int
	PipelineMode    string

	// Local proxy instance used as step 2 of the catalog fallback chain.
	CatalogProxyURL string

	// Tenant key for the WhatsApp channel. When empty, the authenticated
	// phone number is used.
	ClientID string
}

// Load reads configuration from the environment. Only the data-store
// credentials are mandatory; everything else has a default.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPAddr:        envOr("HTTP_ADDR", "0.0.0.0:8081"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		SupabaseURL:     os.Getenv("SUPABASE_URL"),
		SupabaseKey:     os.Getenv("SUPABASE_SERVICE_KEY"),
		SessionDir:      envOr("SESSION_DIR", "session_data"),
		ReconnectDelay:  envDuration("RECONNECT_DELAY", 3*time.Second),
		MaxReconnect:    envInt("MAX_RECONNECT", 5),
		GenerativeModel: envOr("GENERATIVE_MODEL", "gemini-2.5-flash-lite"),
		EmbeddingModel:  envOr("EMBEDDING_MODEL", "text-embedding-004"),
		MatchThreshold:  envFloat("MATCH_THRESHOLD", 0.5),
		MatchCount:      envInt("MATCH_COUNT", 5),
		PipelineMode:    envOr("PIPELINE_MODE", PipelineTools),
		CatalogProxyURL: os.Getenv("CATALOG_PROXY_URL"),
		ClientID:        os.Getenv("CLIENT_ID"),
	}

	if cfg.SupabaseURL == "" || cfg.SupabaseKey == "" {
		return nil, fmt.Errorf("SUPABASE_URL and SUPABASE_SERVICE_KEY are required")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.PipelineMode != PipelineRetrieval && cfg.PipelineMode != PipelineTools {
		return nil, fmt.Errorf("invalid PIPELINE_MODE %q", cfg.PipelineMode)
	}
	return cfg, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
