// Package config loads the application configuration from a YAML file
// overlaid with environment variables. Environment always wins, so
// deployments can keep secrets out of files entirely.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	apperrors "github.com/sovadim/knowledge-engine/pkg/errors"
)

// Config is the root configuration.
type Config struct {
	Environment string          `yaml:"environment" validate:"oneof=development production"`
	Server      ServerConfig    `yaml:"server"`
	Evaluator   EvaluatorConfig `yaml:"evaluator"`
	Session     SessionConfig   `yaml:"session"`
	Graph       GraphConfig     `yaml:"graph"`
	CORS        CORSConfig      `yaml:"cors"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Address returns the listen address.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// EvaluatorConfig configures the oracle boundary. The API key is taken
// from the environment only (DIAL_API_KEY or EVALUATOR_API_KEY), never
// from the file.
type EvaluatorConfig struct {
	Provider    string        `yaml:"provider" validate:"oneof=openai azure stub"`
	APIKey      string        `yaml:"-"`
	BaseURL     string        `yaml:"base_url"`
	APIVersion  string        `yaml:"api_version"`
	Model       string        `yaml:"model"`
	Domain      string        `yaml:"domain"`
	PassScore   int           `yaml:"pass_score" validate:"min=0,max=4"`
	Temperature float32       `yaml:"temperature"`
	MaxAttempts int           `yaml:"max_attempts" validate:"min=1,max=10"`
	BaseDelay   time.Duration `yaml:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay"`
}

// SessionConfig configures the session repository.
type SessionConfig struct {
	Backend string        `yaml:"backend" validate:"oneof=memory redis"`
	TTL     time.Duration `yaml:"ttl"`
	Redis   RedisConfig   `yaml:"redis"`
}

// RedisConfig configures the redis session backend.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"-"`
	DB       int    `yaml:"db"`
}

// GraphConfig configures graph bootstrap.
type GraphConfig struct {
	// SeedFile, when set, is a YAML file of nodes and edges loaded at
	// startup.
	SeedFile string `yaml:"seed_file"`
}

// CORSConfig configures the allowed frontend origins.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Default returns the development defaults.
func Default() Config {
	return Config{
		Environment: "development",
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Evaluator: EvaluatorConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			Domain:      "Java",
			PassScore:   2,
			MaxAttempts: 3,
			BaseDelay:   500 * time.Millisecond,
			MaxDelay:    5 * time.Second,
		},
		Session: SessionConfig{
			Backend: "memory",
			TTL:     24 * time.Hour,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"http://localhost:5173", "http://localhost:3000"},
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path
// (skipped when path is empty or missing), then environment overrides,
// then validation.
func Load(path string) (*Config, error) {
	// Best effort; a missing .env is the normal case.
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// File-less runs are fine; env carries everything needed.
		case err != nil:
			return nil, apperrors.NewInternal(fmt.Sprintf("read config file %s", path), err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, apperrors.NewValidation(fmt.Sprintf("malformed config file %s: %v", path, err))
			}
		}
	}

	cfg.applyEnv()

	if err := validator.New().Struct(cfg); err != nil {
		return nil, apperrors.NewValidation(fmt.Sprintf("invalid configuration: %v", err))
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Environment, "APP_ENV")
	setString(&c.Server.Host, "SERVER_HOST")
	setInt(&c.Server.Port, "SERVER_PORT")

	setString(&c.Evaluator.Provider, "EVALUATOR_PROVIDER")
	setString(&c.Evaluator.APIKey, "DIAL_API_KEY")
	setString(&c.Evaluator.APIKey, "EVALUATOR_API_KEY")
	setString(&c.Evaluator.BaseURL, "AZURE_ENDPOINT")
	setString(&c.Evaluator.BaseURL, "EVALUATOR_BASE_URL")
	setString(&c.Evaluator.Model, "EVALUATOR_MODEL")
	setString(&c.Evaluator.Domain, "EVALUATOR_DOMAIN")
	setInt(&c.Evaluator.PassScore, "EVALUATOR_PASS_SCORE")

	setString(&c.Session.Backend, "SESSION_BACKEND")
	setString(&c.Session.Redis.Addr, "REDIS_ADDR")
	setString(&c.Session.Redis.Password, "REDIS_PASSWORD")
	setInt(&c.Session.Redis.DB, "REDIS_DB")

	setString(&c.Graph.SeedFile, "GRAPH_SEED_FILE")
}

func setString(target *string, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}

func setInt(target *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*target = n
		}
	}
}
