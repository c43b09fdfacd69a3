// Package app assembles the handlers from process configuration.
package app

import (
	"fmt"
	"strings"
	"time"

	"claim-assistant/internal/auth"
	"claim-assistant/internal/config"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverDynamoDB = "dynamodb"

	BackendMindStudio = "mindstudio"
	BackendOpenAI     = "openai"
)

// SSM parameter names, relative to PARAM_PREFIX.
const (
	paramJWTSecret       = "jwt-secret"
	paramMindStudioToken = "mindstudio-token"
	paramOpenAIToken     = "open-ai-token"
	paramDatabaseURL     = "database-url"
)

type Config struct {
	LogMode string

	// ParamPrefix enables SSM-backed secrets. When empty, secrets come from
	// the plain environment values below.
	ParamPrefix      string
	JWTSecret        string
	MindStudioAPIKey string
	OpenAIAPIKey     string
	DatabaseURL      string

	JWTAudience string

	StoreDriver string
	TableName   string
	AutoMigrate bool

	GeneratorBackend  string
	MindStudioBaseURL string
	InterviewAppID    string
	InterviewWorkflow string
	SuggestAppID      string
	SuggestWorkflow   string
	OpenAIBaseURL     string
	OpenAIModel       string
	MaxAnswerLength   int
	GeneratorTimeout  time.Duration
	TurnLockRedisAddr string
	TurnLockTTL       time.Duration

	DocumentBucket   string
	DocumentQueueURL string
	UploadURLTTL     time.Duration
	MaxDocumentBytes int64

	AWSEndpointURL string

	DevAddr     string
	CORSOrigins []string
}

// LoadConfig reads the environment. TABLE_NAME is required up front for the
// dynamodb driver; requirements that depend on which handler is built are
// checked by the Builder.
func LoadConfig() (Config, error) {
	agentID := config.Env("MINDSTUDIO_AGENT_ID", "")
	cfg := Config{
		LogMode: config.Env("LOG_MODE", "production"),

		ParamPrefix:      config.Env("PARAM_PREFIX", ""),
		JWTSecret:        config.Env("JWT_SECRET", ""),
		MindStudioAPIKey: config.Env("MINDSTUDIO_API_KEY", ""),
		OpenAIAPIKey:     config.Env("OPENAI_API_KEY", ""),
		DatabaseURL:      config.Env("DATABASE_URL", ""),

		JWTAudience: config.Env("JWT_AUDIENCE", auth.DefaultAudience),

		StoreDriver: strings.ToLower(config.Env("STORE_DRIVER", StoreDriverPostgres)),
		AutoMigrate: strings.EqualFold(config.Env("DB_AUTO_MIGRATE", "false"), "true"),

		GeneratorBackend:  strings.ToLower(config.Env("GENERATOR_BACKEND", BackendMindStudio)),
		MindStudioBaseURL: config.Env("MINDSTUDIO_BASE_URL", ""),
		InterviewAppID:    config.Env("MINDSTUDIO_INTERVIEW_APP_ID", agentID),
		InterviewWorkflow: config.Env("MINDSTUDIO_INTERVIEW_WORKFLOW", ""),
		SuggestAppID:      config.Env("MINDSTUDIO_SUGGEST_APP_ID", agentID),
		SuggestWorkflow:   config.Env("MINDSTUDIO_SUGGEST_WORKFLOW", ""),
		OpenAIBaseURL:     config.Env("OPENAI_BASE_URL", ""),
		OpenAIModel:       config.Env("OPENAI_MODEL", ""),
		MaxAnswerLength:   config.EnvInt("MAX_ANSWER_LENGTH", 4000),
		GeneratorTimeout:  config.EnvDuration("GENERATOR_TIMEOUT", 25*time.Second),
		TurnLockRedisAddr: config.Env("TURN_LOCK_REDIS_ADDR", ""),
		TurnLockTTL:       config.EnvDuration("TURN_LOCK_TTL", 60*time.Second),

		DocumentBucket:   config.Env("DOCUMENT_BUCKET", ""),
		DocumentQueueURL: config.Env("DOCUMENT_QUEUE_URL", ""),
		UploadURLTTL:     config.EnvDuration("UPLOAD_URL_TTL", 15*time.Minute),
		MaxDocumentBytes: int64(config.EnvInt("MAX_DOCUMENT_BYTES", 25<<20)),

		AWSEndpointURL: config.Env("AWS_ENDPOINT_URL", ""),

		DevAddr:     config.Env("DEV_ADDR", ":8080"),
		CORSOrigins: splitList(config.Env("CORS_ALLOW_ORIGINS", "")),
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	if cfg.StoreDriver == StoreDriverDynamoDB {
		table, err := config.MustEnv("TABLE_NAME")
		if err != nil {
			return cfg, err
		}
		cfg.TableName = table
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres, StoreDriverDynamoDB:
	default:
		return fmt.Errorf("app: unknown STORE_DRIVER %q", c.StoreDriver)
	}
	switch c.GeneratorBackend {
	case BackendMindStudio, BackendOpenAI:
	default:
		return fmt.Errorf("app: unknown GENERATOR_BACKEND %q", c.GeneratorBackend)
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
