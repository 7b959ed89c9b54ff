package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// envVars lists the environment variables withCleanEnv saves, unsets and
// restores around each test. Load() also reads variables not listed here.
var envVars = []string{
	"APP_NAME", "APP_ENV", "APP_PORT",
	"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSL_MODE",
	"DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS",
	"REDIS_HOST", "REDIS_PORT",
	"CHAT_API_TOKEN", "CHAT_BASE_IDENTIFIER", "CHAT_ALLOWED_CHAT_IDS",
	"INVENTORY_DEFAULT_APPROVAL_THRESHOLD", "INVENTORY_DEFAULT_IDEMPOTENCY_TTL",
	"INVENTORY_SIMILARITY_MATCH_THRESHOLD",
}

func withCleanEnv(t *testing.T) {
	t.Helper()
	original := make(map[string]string, len(envVars))
	for _, k := range envVars {
		original[k] = os.Getenv(k)
		os.Unsetenv(k)
	}
	t.Cleanup(func() {
		for k, v := range original {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	})
}

func TestLoad_Defaults(t *testing.T) {
	withCleanEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "inventorybot", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "8080", cfg.App.Port)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "postgres", cfg.Database.User)
	assert.Equal(t, "", cfg.Database.Password)
	assert.Equal(t, "inventorybot", cfg.Database.DBName)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, 5, cfg.Database.MaxIdleConns)

	assert.Equal(t, "", cfg.Chat.APIToken)
	assert.Empty(t, cfg.Chat.AllowedChatIDs)

	assert.Equal(t, 100.0, cfg.Inventory.DefaultApprovalThreshold)
	assert.Equal(t, 5*time.Minute, cfg.Inventory.DefaultIdempotencyTTL)
	assert.Equal(t, 0.5, cfg.Inventory.SimilarityMatchThreshold)
}

func TestLoad_FromEnvironment(t *testing.T) {
	withCleanEnv(t)

	os.Setenv("APP_NAME", "test-bot")
	os.Setenv("APP_ENV", "testing")
	os.Setenv("DB_HOST", "testdb.local")
	os.Setenv("DB_PORT", "5433")
	os.Setenv("DB_MAX_OPEN_CONNS", "50")
	os.Setenv("DB_MAX_IDLE_CONNS", "10")
	os.Setenv("CHAT_API_TOKEN", "secret-token")
	os.Setenv("INVENTORY_DEFAULT_APPROVAL_THRESHOLD", "250")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test-bot", cfg.App.Name)
	assert.Equal(t, "testing", cfg.App.Env)
	assert.Equal(t, "testdb.local", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, 50, cfg.Database.MaxOpenConns)
	assert.Equal(t, 10, cfg.Database.MaxIdleConns)
	assert.Equal(t, "secret-token", cfg.Chat.APIToken)
	assert.Equal(t, 250.0, cfg.Inventory.DefaultApprovalThreshold)
}

func TestLoad_ValidatesMaxIdleConns(t *testing.T) {
	withCleanEnv(t)

	os.Setenv("DB_MAX_OPEN_CONNS", "10")
	os.Setenv("DB_MAX_IDLE_CONNS", "20")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_ValidatesSimilarityThreshold(t *testing.T) {
	withCleanEnv(t)

	os.Setenv("INVENTORY_SIMILARITY_MATCH_THRESHOLD", "1.5")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_ProductionRequiresChatToken(t *testing.T) {
	withCleanEnv(t)

	os.Setenv("APP_ENV", "production")
	os.Setenv("DB_PASSWORD", "secret")
	os.Setenv("DB_SSL_MODE", "require")

	_, err := Load()
	assert.ErrorContains(t, err, "chat.api_token")
}

func TestLoad_ProductionRequiresDatabasePassword(t *testing.T) {
	withCleanEnv(t)

	os.Setenv("APP_ENV", "production")
	os.Setenv("CHAT_API_TOKEN", "secret-token")
	os.Setenv("DB_SSL_MODE", "require")

	_, err := Load()
	assert.ErrorContains(t, err, "db.password")
}

func TestLoad_ProductionRejectsDisabledSSL(t *testing.T) {
	withCleanEnv(t)

	os.Setenv("APP_ENV", "production")
	os.Setenv("CHAT_API_TOKEN", "secret-token")
	os.Setenv("DB_PASSWORD", "secret")

	_, err := Load()
	assert.ErrorContains(t, err, "db.ssl_mode")
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := &DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "p@ss/word",
		DBName:   "inventorybot",
		SSLMode:  "disable",
	}

	dsn := d.DSN()
	assert.Contains(t, dsn, "postgres://")
	assert.Contains(t, dsn, "sslmode=disable")
	assert.Contains(t, dsn, "inventorybot")
}
