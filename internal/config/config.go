package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds everything read from the environment. File-based pipeline
// settings live in pipeline.yaml / agent.yaml (see loader.go).
type Config struct {
	// Sinks
	PGDSN          string
	KafkaBootstrap string

	// Upstream credentials
	PandaScoreToken  string
	LolEsportsAPIKey string

	// Telemetry
	PromPort int
	LogLevel string

	// YAML config locations
	PipelinePath string
	AgentPath    string
}

func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		PGDSN:          os.Getenv("PG_DSN"),
		KafkaBootstrap: os.Getenv("KAFKA_BOOTSTRAP"),

		PandaScoreToken:  os.Getenv("PANDASCORE_TOKEN"),
		LolEsportsAPIKey: os.Getenv("LOLESPORTS_API_KEY"),

		PromPort: envInt("PROM_PORT", 9108),
		LogLevel: envStr("LOG_LEVEL", "info"),

		PipelinePath: envStr("CONFIG_PATH", "config/pipeline.yaml"),
		AgentPath:    envStr("AGENT_CONFIG_PATH", "config/agent.yaml"),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
