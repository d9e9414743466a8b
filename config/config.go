package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// MongoDBConfig holds the document store settings
type MongoDBConfig struct {
	URI string `mapstructure:"uri"`
	// Database overrides the database named in the URI path
	Database       string        `mapstructure:"database"`
	Collection     string        `mapstructure:"collection"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	MaxPoolSize    uint64        `mapstructure:"max_pool_size"`
}

// RedisConfig holds the shared rate limit counter settings
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// RateLimitConfig holds per-client request limits
type RateLimitConfig struct {
	Enabled           bool        `mapstructure:"enabled"`
	RequestsPerSecond float64     `mapstructure:"requests_per_second"`
	Burst             int         `mapstructure:"burst"`
	Redis             RedisConfig `mapstructure:"redis"`
}

// APIConfig holds the HTTP server settings
type APIConfig struct {
	Port                 int             `mapstructure:"port"`
	AllowedOrigins       []string        `mapstructure:"allowed_origins"`
	TrustProxy           bool            `mapstructure:"trust_proxy"`
	TrustedProxyNetworks []string        `mapstructure:"trusted_proxy_networks"`
	JSONBodyLimit        int64           `mapstructure:"json_body_limit"`
	ShutdownTimeout      time.Duration   `mapstructure:"shutdown_timeout"`
	RateLimit            RateLimitConfig `mapstructure:"rate_limit"`
}

// Config holds all configuration for the todo service
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	MongoDB MongoDBConfig `mapstructure:"mongodb"`

	Secrets struct {
		Provider string `mapstructure:"provider"` // env, vault, aws
		Vault    struct {
			Address string `mapstructure:"address"`
			Token   string `mapstructure:"token"`
			Path    string `mapstructure:"path"`
		} `mapstructure:"vault"`
		AWS struct {
			Region    string `mapstructure:"region"`
			SecretID  string `mapstructure:"secret_id"`
			AccessKey string `mapstructure:"access_key"`
			SecretKey string `mapstructure:"secret_key"`
		} `mapstructure:"aws"`
	} `mapstructure:"secrets"`

	Tracing struct {
		Enabled     bool   `mapstructure:"enabled"`
		ServiceName string `mapstructure:"service_name"`
	} `mapstructure:"tracing"`
}

// Addr returns the listen address for the HTTP server
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.API.Port)
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.allowed_origins", []string{})
	v.SetDefault("api.trust_proxy", false)
	v.SetDefault("api.trusted_proxy_networks", []string{})
	v.SetDefault("api.json_body_limit", 1048576) // 1MB
	v.SetDefault("api.shutdown_timeout", 10*time.Second)
	v.SetDefault("api.rate_limit.enabled", false)
	v.SetDefault("api.rate_limit.requests_per_second", 100)
	v.SetDefault("api.rate_limit.burst", 100)
	v.SetDefault("api.rate_limit.redis.enabled", false)
	v.SetDefault("api.rate_limit.redis.addr", "localhost:6379")
	v.SetDefault("api.rate_limit.redis.password", "")
	v.SetDefault("api.rate_limit.redis.db", 0)
	v.SetDefault("api.rate_limit.redis.pool_size", 10)

	v.SetDefault("mongodb.uri", "")
	v.SetDefault("mongodb.database", "") // Empty = database from the URI path
	v.SetDefault("mongodb.collection", "todos")
	v.SetDefault("mongodb.connect_timeout", 10*time.Second)
	v.SetDefault("mongodb.max_pool_size", 100)

	v.SetDefault("secrets.provider", "env")
	v.SetDefault("secrets.vault.address", "")
	v.SetDefault("secrets.vault.token", "")
	v.SetDefault("secrets.vault.path", "secret/todoapi")
	v.SetDefault("secrets.aws.region", "us-east-1")
	v.SetDefault("secrets.aws.secret_id", "todoapi/secrets")
	v.SetDefault("secrets.aws.access_key", "")
	v.SetDefault("secrets.aws.secret_key", "")

	v.SetDefault("tracing.enabled", true)
	v.SetDefault("tracing.service_name", "todoapi")
}

// loadFromEnv sets up environment variable loading
func loadFromEnv(v *viper.Viper) {
	v.SetEnvPrefix("TODOAPI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Short names used by existing deployments
	_ = v.BindEnv("api.port", "TODOAPI_API_PORT", "PORT")
	_ = v.BindEnv("mongodb.uri", "TODOAPI_MONGODB_URI", "MONGO_URL")
}

// LoadConfig loads configuration from config.yaml (optional), the environment,
// and the configured secrets provider, then validates it.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	setDefaults(v)
	loadFromEnv(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := LoadSecrets(&config); err != nil {
		return nil, err
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	if config.MongoDB.URI == "" {
		return fmt.Errorf("MongoDB URI is required (set MONGO_URL)")
	}
	if !strings.HasPrefix(config.MongoDB.URI, "mongodb://") && !strings.HasPrefix(config.MongoDB.URI, "mongodb+srv://") {
		return fmt.Errorf("invalid MongoDB URI: must start with mongodb:// or mongodb+srv://")
	}
	parsed, err := url.Parse(config.MongoDB.URI)
	if err != nil {
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if parsed.Host == "" {
		return fmt.Errorf("invalid MongoDB URI: missing host")
	}
	if config.MongoDB.Collection == "" {
		return fmt.Errorf("MongoDB collection cannot be empty")
	}
	if config.MongoDB.ConnectTimeout <= 0 {
		return fmt.Errorf("MongoDB connect timeout must be positive")
	}

	if config.API.Port < 1 || config.API.Port > 65535 {
		return fmt.Errorf("invalid API port: %d (must be 1-65535)", config.API.Port)
	}
	if config.API.JSONBodyLimit <= 0 {
		return fmt.Errorf("JSON body limit must be positive")
	}

	if config.API.RateLimit.Enabled {
		if config.API.RateLimit.RequestsPerSecond <= 0 {
			return fmt.Errorf("rate limit requests_per_second must be positive")
		}
		if config.API.RateLimit.Burst < 1 {
			return fmt.Errorf("rate limit burst must be at least 1")
		}
		if config.API.RateLimit.Redis.Enabled && config.API.RateLimit.Redis.Addr == "" {
			return fmt.Errorf("rate limit redis address cannot be empty")
		}
	}

	return nil
}
