package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the thread service
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Auth     AuthConfig     `yaml:"auth"`
	Services ServicesConfig `yaml:"services"`
	Thread   ThreadConfig   `yaml:"thread"`
}

type ServerConfig struct {
	Port        string `yaml:"port"`
	BasePath    string `yaml:"basePath"`
	Env         string `yaml:"env"`
	LogLevel    string `yaml:"logLevel"`
	CORSOrigins string `yaml:"corsOrigins"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL string `yaml:"url"`
}

type AuthConfig struct {
	ServiceURL string `yaml:"serviceUrl"`
	SecretKey  string `yaml:"secretKey"`
}

type ServicesConfig struct {
	ContentServiceURL string `yaml:"contentServiceUrl"`
}

// ThreadConfig tunes thread listing and retention behavior.
type ThreadConfig struct {
	PageSize         int    `yaml:"pageSize"`
	CleanupSchedule  string `yaml:"cleanupSchedule"`
	RetentionDays    int    `yaml:"retentionDays"`
	MaxContentLength int    `yaml:"maxContentLength"`
}

// Load reads configuration with precedence: defaults, then the optional YAML
// file at path, then environment variables.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:        "8004",
			BasePath:    "/api/threads",
			Env:         "development",
			LogLevel:    "info",
			CORSOrigins: "*",
		},
		Thread: ThreadConfig{
			PageSize:         20,
			CleanupSchedule:  "0 3 * * *",
			RetentionDays:    30,
			MaxContentLength: 1000,
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Server.Port, "PORT")
	setString(&c.Server.BasePath, "SERVER_BASE_PATH")
	setString(&c.Server.Env, "ENV")
	setString(&c.Server.LogLevel, "LOG_LEVEL")
	setString(&c.Server.CORSOrigins, "CORS_ORIGINS")
	setString(&c.Database.URL, "DATABASE_URL")
	setString(&c.Redis.URL, "REDIS_URL")
	setString(&c.Auth.ServiceURL, "AUTH_SERVICE_URL")
	setString(&c.Auth.SecretKey, "SECRET_KEY")
	setString(&c.Services.ContentServiceURL, "CONTENT_SERVICE_URL")
	setInt(&c.Thread.PageSize, "THREAD_PAGE_SIZE")
	setString(&c.Thread.CleanupSchedule, "THREAD_CLEANUP_SCHEDULE")
	setInt(&c.Thread.RetentionDays, "THREAD_RETENTION_DAYS")
	setInt(&c.Thread.MaxContentLength, "THREAD_MAX_CONTENT_LENGTH")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			*dst = n
		}
	}
}

// IsProduction returns true when running with the production profile.
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}
