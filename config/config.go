package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Settings centralises runtime configuration for every agent and service.
// Values come from environment variables; a .env file in the working
// directory is loaded first (without overriding variables already set).
// Project-specific variables carry the EG_ prefix to avoid collisions.
type Settings struct {
	// Notion
	NotionAPIKey     string
	NotionDatabaseID string

	// LLM
	CohereAPIKey string
	DefaultModel string

	// Search
	ExaAPIKey string

	// Messaging
	KafkaBrokers      []string
	RenderRequestTopic string
	RenderResultTopic  string
	KafkaGroupID       string

	// Redis (topic leases + similarity cache)
	RedisAddr string
	RedisPass string

	// Artifact store
	S3Bucket string
	S3Region string
	S3Prefix string

	// Voiceover service
	TTSServiceURL string

	// Orchestrator
	Port         string
	CronSchedule string
}

// Load reads settings from the environment, applying defaults for everything
// that is not a credential.
func Load() *Settings {
	_ = godotenv.Load()

	return &Settings{
		NotionAPIKey:     os.Getenv("NOTION_API_KEY"),
		NotionDatabaseID: os.Getenv("EG_NOTION_DB_ID"),

		CohereAPIKey: os.Getenv("COHERE_API_KEY"),
		DefaultModel: GetEnvOrDefault("EG_DEFAULT_MODEL", "command-r-08-2024"),

		ExaAPIKey: os.Getenv("EXA_API_KEY"),

		KafkaBrokers:       splitBrokers(GetEnvOrDefault("KAFKA_BOOTSTRAP_SERVERS", "localhost:9092")),
		RenderRequestTopic: GetEnvOrDefault("EG_RENDER_REQUEST_TOPIC", "render-requests"),
		RenderResultTopic:  GetEnvOrDefault("EG_RENDER_RESULT_TOPIC", "render-results"),
		KafkaGroupID:       GetEnvOrDefault("EG_KAFKA_GROUP_ID", "giggle-orchestrator"),

		RedisAddr: GetEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPass: os.Getenv("REDIS_PASS"),

		S3Bucket: strings.TrimSpace(os.Getenv("S3_BUCKET")),
		S3Region: strings.TrimSpace(os.Getenv("S3_REGION")),
		S3Prefix: normalizePrefix(os.Getenv("S3_PREFIX")),

		TTSServiceURL: GetEnvOrDefault("EG_TTS_URL", "http://tts-service:8000"),

		Port:         GetEnvOrDefault("PORT", "8080"),
		CronSchedule: GetEnvOrDefault("EG_CRON", ""),
	}
}

// Validate checks the credentials the pipeline cannot run without.
// Optional integrations (S3, Exa) are checked by their own constructors.
func (s *Settings) Validate() error {
	var missing []string
	if s.NotionAPIKey == "" {
		missing = append(missing, "NOTION_API_KEY")
	}
	if s.NotionDatabaseID == "" {
		missing = append(missing, "EG_NOTION_DB_ID")
	}
	if s.CohereAPIKey == "" {
		missing = append(missing, "COHERE_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// GetEnvOrDefault returns the environment variable value or a default when
// it is unset or empty.
func GetEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func splitBrokers(v string) []string {
	parts := strings.Split(v, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}

func normalizePrefix(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	return strings.Trim(p, "/") + "/"
}
