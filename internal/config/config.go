package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv   = "BYTEREVIEW_CONFIG"
	mongoURLEnv     = "MONGODB_URL"
	databaseDSNEnv  = "DATABASE_DSN"
	storeDriverEnv  = "STORE_DRIVER"
	openAIKeyEnv    = "OPENAI_API_KEY"
	openAIModelEnv  = "OPENAI_MODEL"
	redisURLEnv     = "REDIS_URL"
	logLevelEnv     = "LOG_LEVEL"
	logDirEnv       = "LOG_DIR"
	httpAddrEnv     = "HTTP_ADDR"
	defaultPageSize = 10
	defaultWorkers  = 10
)

// Store drivers.
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Session drivers.
const (
	SessionsMemory = "memory"
	SessionsRedis  = "redis"
)

// Config holds high-level settings required across the application.
type Config struct {
	Store      StoreConfig      `yaml:"store"`
	Mongo      MongoConfig      `yaml:"mongo"`
	Database   DatabaseConfig   `yaml:"database"`
	Review     ReviewConfig     `yaml:"review"`
	Sessions   SessionConfig    `yaml:"sessions"`
	HTTP       HTTPConfig       `yaml:"http"`
	Logging    LoggingConfig    `yaml:"logging"`
	ChatGPT    ChatGPTConfig    `yaml:"chatgpt"`
	Categorize CategorizeConfig `yaml:"categorize"`
}

// StoreConfig selects the document store backend.
type StoreConfig struct {
	Driver string `yaml:"driver"`
}

// MongoConfig locates the byte collection.
type MongoConfig struct {
	URL        string `yaml:"url"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

// DatabaseConfig describes Postgres connection details.
type DatabaseConfig struct {
	DSN   string `yaml:"dsn"`
	Table string `yaml:"table"`
}

// ReviewConfig tunes the browse screen.
type ReviewConfig struct {
	PageSize int `yaml:"pageSize"`
}

// SessionConfig selects where confirmation flows are kept.
type SessionConfig struct {
	Driver   string        `yaml:"driver"`
	RedisURL string        `yaml:"redisUrl"`
	TTL      time.Duration `yaml:"ttl"`
}

// HTTPConfig configures the API listener.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig sets the level and an optional directory for daily log files.
type LoggingConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
}

// ChatGPTConfig defines how to contact the categorization model.
type ChatGPTConfig struct {
	Endpoint     string        `yaml:"endpoint"`
	Model        string        `yaml:"model"`
	APIKey       string        `yaml:"apiKey"`
	SystemPrompt string        `yaml:"systemPrompt"`
	MaxTokens    int           `yaml:"maxTokens"`
	Temperature  float64       `yaml:"temperature"`
	Timeout      time.Duration `yaml:"timeout"`
}

// CategorizeConfig bounds the batch job. RatePerSecond 0 means unlimited.
type CategorizeConfig struct {
	Workers       int     `yaml:"workers"`
	RatePerSecond float64 `yaml:"ratePerSecond"`
	Burst         int     `yaml:"burst"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.normalize()

	return cfg
}

// Validate reports every missing setting required by the selected drivers.
func (c Config) Validate() error {
	var errs []error

	switch c.Store.Driver {
	case DriverMongo:
		if c.Mongo.URL == "" {
			errs = append(errs, fmt.Errorf("%s is required for the mongo store", mongoURLEnv))
		}
		if c.Mongo.Database == "" || c.Mongo.Collection == "" {
			errs = append(errs, errors.New("mongo database and collection are required"))
		}
	case DriverPostgres:
		if c.Database.DSN == "" {
			errs = append(errs, fmt.Errorf("%s is required for the postgres store", databaseDSNEnv))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.Store.Driver))
	}

	switch c.Sessions.Driver {
	case SessionsMemory:
	case SessionsRedis:
		if c.Sessions.RedisURL == "" {
			errs = append(errs, fmt.Errorf("%s is required for redis sessions", redisURLEnv))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown sessions driver %q", c.Sessions.Driver))
	}

	return errors.Join(errs...)
}

// ValidateCategorize adds the model credentials the batch job needs.
func (c Config) ValidateCategorize() error {
	var errs []error
	if err := c.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.ChatGPT.APIKey == "" {
		errs = append(errs, fmt.Errorf("%s is required for categorization", openAIKeyEnv))
	}
	if c.ChatGPT.Endpoint == "" || c.ChatGPT.Model == "" {
		errs = append(errs, errors.New("chatgpt endpoint and model are required"))
	}
	return errors.Join(errs...)
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(mongoURLEnv); v != "" {
		c.Mongo.URL = v
	}

	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(storeDriverEnv); v != "" {
		c.Store.Driver = v
	}

	if v := os.Getenv(openAIKeyEnv); v != "" {
		c.ChatGPT.APIKey = v
	}

	if v := os.Getenv(openAIModelEnv); v != "" {
		c.ChatGPT.Model = v
	}

	if v := os.Getenv(redisURLEnv); v != "" {
		c.Sessions.RedisURL = v
		if c.Sessions.Driver == "" || c.Sessions.Driver == SessionsMemory {
			c.Sessions.Driver = SessionsRedis
		}
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(logDirEnv); v != "" {
		c.Logging.Dir = v
	}

	if v := os.Getenv(httpAddrEnv); v != "" {
		c.HTTP.Addr = v
	}
}

func (c *Config) normalize() {
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	c.Sessions.Driver = strings.ToLower(strings.TrimSpace(c.Sessions.Driver))

	if c.Review.PageSize <= 0 {
		log.Printf("config: page size %d is not positive, using %d", c.Review.PageSize, defaultPageSize)
		c.Review.PageSize = defaultPageSize
	}
	if c.Categorize.Workers <= 0 {
		c.Categorize.Workers = defaultWorkers
	}
}

func mergeConfig(base, override Config) Config {
	if override.Store.Driver != "" {
		base.Store.Driver = override.Store.Driver
	}

	if override.Mongo.URL != "" {
		base.Mongo.URL = override.Mongo.URL
	}
	if override.Mongo.Database != "" {
		base.Mongo.Database = override.Mongo.Database
	}
	if override.Mongo.Collection != "" {
		base.Mongo.Collection = override.Mongo.Collection
	}

	if override.Database.DSN != "" {
		base.Database.DSN = override.Database.DSN
	}
	if override.Database.Table != "" {
		base.Database.Table = override.Database.Table
	}

	if override.Review.PageSize != 0 {
		base.Review.PageSize = override.Review.PageSize
	}

	if override.Sessions.Driver != "" {
		base.Sessions.Driver = override.Sessions.Driver
	}
	if override.Sessions.RedisURL != "" {
		base.Sessions.RedisURL = override.Sessions.RedisURL
	}
	if override.Sessions.TTL != 0 {
		base.Sessions.TTL = override.Sessions.TTL
	}

	if override.HTTP.Addr != "" {
		base.HTTP.Addr = override.HTTP.Addr
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Dir != "" {
		base.Logging.Dir = override.Logging.Dir
	}

	if override.ChatGPT.Endpoint != "" {
		base.ChatGPT.Endpoint = override.ChatGPT.Endpoint
	}
	if override.ChatGPT.Model != "" {
		base.ChatGPT.Model = override.ChatGPT.Model
	}
	if override.ChatGPT.APIKey != "" {
		base.ChatGPT.APIKey = override.ChatGPT.APIKey
	}
	if override.ChatGPT.SystemPrompt != "" {
		base.ChatGPT.SystemPrompt = override.ChatGPT.SystemPrompt
	}
	if override.ChatGPT.MaxTokens != 0 {
		base.ChatGPT.MaxTokens = override.ChatGPT.MaxTokens
	}
	if override.ChatGPT.Temperature != 0 {
		base.ChatGPT.Temperature = override.ChatGPT.Temperature
	}
	if override.ChatGPT.Timeout != 0 {
		base.ChatGPT.Timeout = override.ChatGPT.Timeout
	}

	if override.Categorize.Workers != 0 {
		base.Categorize.Workers = override.Categorize.Workers
	}
	if override.Categorize.RatePerSecond != 0 {
		base.Categorize.RatePerSecond = override.Categorize.RatePerSecond
	}
	if override.Categorize.Burst != 0 {
		base.Categorize.Burst = override.Categorize.Burst
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Store:    StoreConfig{Driver: DriverMongo},
		Mongo:    MongoConfig{Database: "kitab_prod", Collection: "extracted_wisdom_byte"},
		Database: DatabaseConfig{Table: "extracted_wisdom_byte"},
		Review:   ReviewConfig{PageSize: defaultPageSize},
		Sessions: SessionConfig{Driver: SessionsMemory, TTL: 30 * time.Minute},
		HTTP:     HTTPConfig{Addr: ":8080"},
		Logging:  LoggingConfig{Level: "info"},
		ChatGPT: ChatGPTConfig{
			Endpoint:     "https://api.openai.com/v1/chat/completions",
			Model:        "gpt-4o",
			SystemPrompt: "You are a content categorization expert. Return only the category name.",
			MaxTokens:    50,
			Temperature:  0.1,
			Timeout:      30 * time.Second,
		},
		Categorize: CategorizeConfig{Workers: defaultWorkers, Burst: 1},
	}
}
