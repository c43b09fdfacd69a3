package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, k := range []string{"STORE_DRIVER", "GENERATOR_BACKEND", "MAX_ANSWER_LENGTH", "GENERATOR_TIMEOUT", "JWT_AUDIENCE", "MINDSTUDIO_AGENT_ID", "MINDSTUDIO_INTERVIEW_APP_ID", "CORS_ALLOW_ORIGINS", "UPLOAD_URL_TTL", "MAX_DOCUMENT_BYTES"} {
		t.Setenv(k, "")
	}
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, StoreDriverPostgres, cfg.StoreDriver)
	require.Equal(t, BackendMindStudio, cfg.GeneratorBackend)
	require.Equal(t, 4000, cfg.MaxAnswerLength)
	require.Equal(t, 25*time.Second, cfg.GeneratorTimeout)
	require.Equal(t, 15*time.Minute, cfg.UploadURLTTL)
	require.Equal(t, int64(25<<20), cfg.MaxDocumentBytes)
	require.Equal(t, "authenticated", cfg.JWTAudience)
	require.Empty(t, cfg.CORSOrigins)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "DynamoDB")
	t.Setenv("TABLE_NAME", "claims")
	t.Setenv("GENERATOR_BACKEND", "openai")
	t.Setenv("MINDSTUDIO_AGENT_ID", "agent-1")
	t.Setenv("MINDSTUDIO_INTERVIEW_APP_ID", "")
	t.Setenv("MINDSTUDIO_SUGGEST_APP_ID", "suggest-2")
	t.Setenv("GENERATOR_TIMEOUT", "10s")
	t.Setenv("DB_AUTO_MIGRATE", "TRUE")
	t.Setenv("CORS_ALLOW_ORIGINS", "http://a.test, ,http://b.test")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, StoreDriverDynamoDB, cfg.StoreDriver)
	require.Equal(t, "claims", cfg.TableName)
	require.Equal(t, BackendOpenAI, cfg.GeneratorBackend)
	require.Equal(t, "agent-1", cfg.InterviewAppID)
	require.Equal(t, "suggest-2", cfg.SuggestAppID)
	require.Equal(t, 10*time.Second, cfg.GeneratorTimeout)
	require.True(t, cfg.AutoMigrate)
	require.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
}

func TestLoadConfig_RejectsUnknownValues(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mysql")
	_, err := LoadConfig()
	require.ErrorContains(t, err, "STORE_DRIVER")

	t.Setenv("STORE_DRIVER", "")
	t.Setenv("GENERATOR_BACKEND", "llama")
	_, err = LoadConfig()
	require.ErrorContains(t, err, "GENERATOR_BACKEND")
}

func TestLoadConfig_DynamoDBRequiresTableName(t *testing.T) {
	t.Setenv("STORE_DRIVER", "dynamodb")
	t.Setenv("GENERATOR_BACKEND", "")
	t.Setenv("TABLE_NAME", " ")
	_, err := LoadConfig()
	require.ErrorContains(t, err, "TABLE_NAME")

	t.Setenv("STORE_DRIVER", "postgres")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Empty(t, cfg.TableName)
}
