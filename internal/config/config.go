package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Config holds environment-driven configuration for the whole service.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Session   SessionConfig   `koanf:"session"`
	Redis     RedisConfig     `koanf:"redis"`
	Auth      AuthConfig      `koanf:"auth"`
	OpenAI    OpenAIConfig    `koanf:"openai"`
	Recommend RecommendConfig `koanf:"recommend"`
	Uploads   UploadsConfig   `koanf:"uploads"`
	Logging   LoggingConfig   `koanf:"logging"`
	Dev       DevConfig       `koanf:"dev"`
}

type ServerConfig struct {
	Addr        string `koanf:"addr"`
	CORSOrigins string `koanf:"cors_origins"`
	BodyLimit   int    `koanf:"body_limit"`
}

// DatabaseConfig selects the catalog backend. Driver is one of memory, postgres or mongo.
type DatabaseConfig struct {
	Driver   string `koanf:"driver"`
	URL      string `koanf:"url"`
	MongoURL string `koanf:"mongo_url"`
	MongoDB  string `koanf:"mongo_db"`
}

type SessionConfig struct {
	Store string        `koanf:"store"`
	TTL   time.Duration `koanf:"ttl"`
}

type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
	Prefix   string `koanf:"prefix"`
}

type AuthConfig struct {
	JWTSecret string `koanf:"jwt_secret"`
}

type OpenAIConfig struct {
	APIKey        string        `koanf:"api_key"`
	BaseURL       string        `koanf:"base_url"`
	Model         string        `koanf:"model"`
	VisionModel   string        `koanf:"vision_model"`
	Timeout       time.Duration `koanf:"timeout"`
	MaxTokens     int           `koanf:"max_tokens"`
	RatePerSecond float64       `koanf:"rate_per_second"`
}

// RecommendConfig tunes the recommendation pipeline.
type RecommendConfig struct {
	PageSize       int           `koanf:"page_size"`
	MinResults     int           `koanf:"min_results"`
	CandidateLimit int           `koanf:"candidate_limit"`
	CatalogLimit   int           `koanf:"catalog_limit"`
	FallbackScore  float64       `koanf:"fallback_score"`
	DefaultScore   float64       `koanf:"default_score"`
	Timeout        time.Duration `koanf:"timeout"`
}

type UploadsConfig struct {
	Dir string `koanf:"dir"`
}

type LoggingConfig struct {
	Mode string `koanf:"mode"`
}

type DevConfig struct {
	AllowResetProducts bool `koanf:"allow_reset_products"`
	SeedSampleData     bool `koanf:"seed_sample_data"`
}

// ConfigPathEnvVar overrides the yaml config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

var defaultConfigPaths = []string{"config.yaml", "config.yml"}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:        ":8080",
			CORSOrigins: "*",
			BodyLimit:   10 * 1024 * 1024,
		},
		Database: DatabaseConfig{
			Driver:  "memory",
			MongoDB: "visioneer",
		},
		Session: SessionConfig{
			Store: "memory",
			TTL:   24 * time.Hour,
		},
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			Prefix: "visioneer:",
		},
		OpenAI: OpenAIConfig{
			BaseURL:       "https://api.openai.com/v1",
			Model:         "gpt-4o-mini",
			VisionModel:   "gpt-4o",
			Timeout:       30 * time.Second,
			MaxTokens:     2000,
			RatePerSecond: 5,
		},
		Recommend: RecommendConfig{
			PageSize:       16,
			MinResults:     8,
			CandidateLimit: 50,
			CatalogLimit:   1000,
			FallbackScore:  0.7,
			DefaultScore:   0.8,
			Timeout:        30 * time.Second,
		},
		Uploads: UploadsConfig{Dir: "./uploads"},
		Logging: LoggingConfig{Mode: "development"},
		Dev:     DevConfig{SeedSampleData: true},
	}
}

// envMappings maps environment variable names (lowercased) to config keys.
// Unknown variables are ignored.
var envMappings = map[string]string{
	"visioneer_addr":         "server.addr",
	"port":                   "server.addr",
	"cors_origins":           "server.cors_origins",
	"catalog_driver":         "database.driver",
	"database_url":           "database.url",
	"mongodb_url":            "database.mongo_url",
	"mongodb_db_name":        "database.mongo_db",
	"session_store":          "session.store",
	"session_ttl":            "session.ttl",
	"redis_addr":             "redis.addr",
	"redis_password":         "redis.password",
	"redis_db":               "redis.db",
	"redis_prefix":           "redis.prefix",
	"jwt_secret":             "auth.jwt_secret",
	"openai_api_key":         "openai.api_key",
	"openai_base_url":        "openai.base_url",
	"openai_model":           "openai.model",
	"openai_vision_model":    "openai.vision_model",
	"openai_timeout":         "openai.timeout",
	"openai_max_tokens":      "openai.max_tokens",
	"openai_rate_per_second": "openai.rate_per_second",
	"recommend_page_size":    "recommend.page_size",
	"recommend_min_results":  "recommend.min_results",
	"recommend_timeout":      "recommend.timeout",
	"upload_dir":             "uploads.dir",
	"log_mode":               "logging.mode",
	"allow_reset_products":   "dev.allow_reset_products",
	"seed_sample_data":       "dev.seed_sample_data",
}

// Load builds the configuration from defaults, an optional yaml file and the environment.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func envTransform(key string) string {
	return envMappings[strings.ToLower(key)]
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range defaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// normalize fixes up values that are commonly given in a short form,
// e.g. PORT=3000 instead of :3000.
func (c *Config) normalize() {
	addr := strings.TrimSpace(c.Server.Addr)
	if addr != "" && !strings.Contains(addr, ":") {
		addr = ":" + addr
	}
	c.Server.Addr = addr
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	c.Session.Store = strings.ToLower(strings.TrimSpace(c.Session.Store))
	c.OpenAI.BaseURL = strings.TrimRight(strings.TrimSpace(c.OpenAI.BaseURL), "/")
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var errs []error

	switch c.Database.Driver {
	case "memory":
	case "postgres":
		if c.Database.URL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres catalog"))
		}
	case "mongo":
		if c.Database.MongoURL == "" {
			errs = append(errs, errors.New("MONGODB_URL is required for the mongo catalog"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown catalog driver %q", c.Database.Driver))
	}

	switch c.Session.Store {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("unknown session store %q", c.Session.Store))
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("session ttl must be positive"))
	}

	r := c.Recommend
	if r.PageSize <= 0 {
		errs = append(errs, errors.New("recommend.page_size must be positive"))
	}
	if r.MinResults < 0 || r.MinResults > r.PageSize {
		errs = append(errs, errors.New("recommend.min_results must be between 0 and page_size"))
	}
	if r.CandidateLimit <= 0 || r.CatalogLimit <= 0 {
		errs = append(errs, errors.New("recommend candidate and catalog limits must be positive"))
	}
	if r.FallbackScore < 0 || r.FallbackScore > 1 || r.DefaultScore < 0 || r.DefaultScore > 1 {
		errs = append(errs, errors.New("recommend scores must be within [0,1]"))
	}
	if r.Timeout <= 0 {
		errs = append(errs, errors.New("recommend.timeout must be positive"))
	}

	return errors.Join(errs...)
}
