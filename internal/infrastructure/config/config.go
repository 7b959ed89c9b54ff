package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Chat      ChatConfig
	Log       LogConfig
	Inventory InventoryConfig
	HTTP      HTTPConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// ChatConfig holds the credentials and allowlist for the chat transport.
type ChatConfig struct {
	// APIToken authenticates outbound calls to the messaging provider.
	APIToken string
	// BaseIdentifier is the bot's own phone number / account identifier.
	BaseIdentifier string
	// AllowedChatIDs restricts which chats may issue commands. Empty means unrestricted.
	AllowedChatIDs []string
}

// InventoryConfig holds defaults for the inventory command pipeline.
type InventoryConfig struct {
	// DefaultApprovalThreshold is the base quantity above which an inflow or
	// outflow requires admin approval when an item has no per-item override.
	DefaultApprovalThreshold float64
	// DefaultIdempotencyTTL is how long a submitted command text suppresses
	// duplicate resubmission.
	DefaultIdempotencyTTL time.Duration
	// SimilarityMatchThreshold is the minimum similarity score (§4.1) a
	// candidate item must reach to be considered a match at all.
	SimilarityMatchThreshold float64
	// CatalogueCacheTTL is how long the catalogue snapshot used by the
	// duplicate engine is considered fresh.
	CatalogueCacheTTL time.Duration
	// CatalogueBackend selects the item-catalogue store: "postgres" (default)
	// or "airtable" for the cloud-spreadsheet-style REST backend.
	CatalogueBackend string
	// AirtableAPIToken and AirtableBaseID authenticate the Airtable REST
	// store when CatalogueBackend is "airtable".
	AirtableAPIToken string
	AirtableBaseID   string
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	MaxBodySize       int64 // Maximum request body size in bytes
	RateLimitEnabled  bool
	RateLimitRequests int           // Requests per window
	RateLimitWindow   time.Duration // Window duration
	TrustedProxies    []string
}

// Load loads configuration from environment variables (and an optional config
// file on the search path), applying defaults via viper.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("inventorybot")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/inventorybot")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("db.host"),
			Port:            v.GetInt("db.port"),
			User:            v.GetString("db.user"),
			Password:        v.GetString("db.password"),
			DBName:          v.GetString("db.name"),
			SSLMode:         v.GetString("db.ssl_mode"),
			MaxOpenConns:    v.GetInt("db.max_open_conns"),
			MaxIdleConns:    v.GetInt("db.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("db.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("db.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Chat: ChatConfig{
			APIToken:       v.GetString("chat.api_token"),
			BaseIdentifier: v.GetString("chat.base_identifier"),
			AllowedChatIDs: v.GetStringSlice("chat.allowed_chat_ids"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Inventory: InventoryConfig{
			DefaultApprovalThreshold: v.GetFloat64("inventory.default_approval_threshold"),
			DefaultIdempotencyTTL:    v.GetDuration("inventory.default_idempotency_ttl"),
			SimilarityMatchThreshold: v.GetFloat64("inventory.similarity_match_threshold"),
			CatalogueCacheTTL:        v.GetDuration("inventory.catalogue_cache_ttl"),
			CatalogueBackend:         v.GetString("inventory.catalogue_backend"),
			AirtableAPIToken:         v.GetString("inventory.airtable_api_token"),
			AirtableBaseID:           v.GetString("inventory.airtable_base_id"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:       v.GetDuration("http.read_timeout"),
			WriteTimeout:      v.GetDuration("http.write_timeout"),
			IdleTimeout:       v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:    v.GetInt("http.max_header_bytes"),
			MaxBodySize:       v.GetInt64("http.max_body_size"),
			RateLimitEnabled:  v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests: v.GetInt("http.rate_limit_requests"),
			RateLimitWindow:   v.GetDuration("http.rate_limit_window"),
			TrustedProxies:    v.GetStringSlice("http.trusted_proxies"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "inventorybot")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.name", "inventorybot")
	v.SetDefault("db.ssl_mode", "disable")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", 60)
	v.SetDefault("db.conn_max_idle_time", 30)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("chat.api_token", "")
	v.SetDefault("chat.base_identifier", "")
	v.SetDefault("chat.allowed_chat_ids", []string{})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")

	v.SetDefault("inventory.default_approval_threshold", 100.0)
	v.SetDefault("inventory.default_idempotency_ttl", 5*time.Minute)
	v.SetDefault("inventory.similarity_match_threshold", 0.5)
	v.SetDefault("inventory.catalogue_cache_ttl", 5*time.Minute)
	v.SetDefault("inventory.catalogue_backend", "postgres")
	v.SetDefault("inventory.airtable_api_token", "")
	v.SetDefault("inventory.airtable_base_id", "")

	v.SetDefault("http.read_timeout", 15*time.Second)
	v.SetDefault("http.write_timeout", 15*time.Second)
	v.SetDefault("http.idle_timeout", 60*time.Second)
	v.SetDefault("http.max_header_bytes", 1<<20) // 1MB
	v.SetDefault("http.max_body_size", 10<<20)   // 10MB
	v.SetDefault("http.rate_limit_enabled", true)
	v.SetDefault("http.rate_limit_requests", 100)
	v.SetDefault("http.rate_limit_window", time.Minute)
	v.SetDefault("http.trusted_proxies", []string{})
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("db.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("db.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("db.max_idle_conns (%d) cannot exceed db.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Inventory.SimilarityMatchThreshold < 0 || c.Inventory.SimilarityMatchThreshold > 1 {
		return fmt.Errorf("inventory.similarity_match_threshold must be in [0, 1]")
	}
	if c.Inventory.CatalogueBackend == "airtable" {
		if c.Inventory.AirtableAPIToken == "" || c.Inventory.AirtableBaseID == "" {
			return fmt.Errorf("inventory.airtable_api_token and inventory.airtable_base_id are required when inventory.catalogue_backend is \"airtable\"")
		}
	} else if c.Inventory.CatalogueBackend != "postgres" {
		return fmt.Errorf("inventory.catalogue_backend must be \"postgres\" or \"airtable\"")
	}

	if c.App.Env == "production" {
		if c.Chat.APIToken == "" {
			return fmt.Errorf("chat.api_token is required in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("db.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("db.ssl_mode cannot be 'disable' in production")
		}
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
