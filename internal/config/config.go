package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultFile = "stockroom.yaml"

type Config struct {
	AppEnv   string         `yaml:"app_env"`
	Database DatabaseConfig `yaml:"database"`
	Backup   BackupConfig   `yaml:"backup"`
	Server   ServerConfig   `yaml:"server"`
	Logger   LoggerConfig   `yaml:"logger"`
}

type DatabaseConfig struct {
	Path        string `yaml:"path"`
	BusyTimeout int    `yaml:"busy_timeout_ms"`
}

type BackupConfig struct {
	Dir string `yaml:"dir"`
}

type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

type LoggerConfig struct {
	Level             string `yaml:"level"`
	Encoding          string `yaml:"encoding"`
	DisableCaller     bool   `yaml:"disable_caller"`
	DisableStacktrace bool   `yaml:"disable_stacktrace"`
}

// Default returns the configuration used when no file or environment overrides exist.
func Default() *Config {
	return &Config{
		AppEnv: "production",
		Database: DatabaseConfig{
			Path:        "db/database.db",
			BusyTimeout: 10000,
		},
		Backup: BackupConfig{Dir: "backups"},
		Server: ServerConfig{ListenAddr: "127.0.0.1:8765"},
		Logger: LoggerConfig{
			Level:             "info",
			Encoding:          "console",
			DisableStacktrace: true,
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (if it
// exists), a .env file in the working directory, and STOCKROOM_* variables,
// in that order of increasing precedence. An empty path means DefaultFile.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	// .env is optional, but a malformed one is an error
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.AppEnv = getEnv("STOCKROOM_ENV", c.AppEnv)
	c.Database.Path = getEnv("STOCKROOM_DB_PATH", c.Database.Path)
	c.Backup.Dir = getEnv("STOCKROOM_BACKUP_DIR", c.Backup.Dir)
	c.Server.ListenAddr = getEnv("STOCKROOM_LISTEN_ADDR", c.Server.ListenAddr)
	c.Logger.Level = getEnv("STOCKROOM_LOG_LEVEL", c.Logger.Level)
	c.Logger.Encoding = getEnv("STOCKROOM_LOG_ENCODING", c.Logger.Encoding)
}

var validLevels = []string{"debug", "info", "warn", "error"}

// Validate rejects configurations the application cannot start with.
func (c *Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.Database.Path) == "" {
		problems = append(problems, "database.path is required")
	}
	if strings.TrimSpace(c.Backup.Dir) == "" {
		problems = append(problems, "backup.dir is required")
	}
	if !contains(validLevels, strings.ToLower(c.Logger.Level)) {
		problems = append(problems, fmt.Sprintf("logger.level must be one of: %s", strings.Join(validLevels, ", ")))
	}
	if c.Logger.Encoding != "console" && c.Logger.Encoding != "json" {
		problems = append(problems, "logger.encoding must be console or json")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// IsDevelopment reports whether the app runs in a development environment.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "dev" || c.AppEnv == "development"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
