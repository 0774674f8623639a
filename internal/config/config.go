package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	// DefaultStateKey namespaces the persisted state
	DefaultStateKey = "vocab_app_backup_mode_v1"

	defaultSaveDelay  = 120 * time.Millisecond
	defaultSQLitePath = "~/.local/share/vocabdeck/vocabdeck.db"
)

// Config holds all application configuration
type Config struct {
	BotToken   string
	BotOwnerID int64
	Storage    StorageConfig
	Database   DatabaseConfig
	StateKey   string
	SaveDelay  time.Duration
	LogLevel   string
}

// StorageConfig selects where state is persisted
type StorageConfig struct {
	Driver     string
	SQLitePath string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
}

// fileConfig is the on-disk shape, YAML or TOML
type fileConfig struct {
	BotToken   string `yaml:"bot_token" toml:"bot_token"`
	BotOwnerID int64  `yaml:"bot_owner_id" toml:"bot_owner_id"`
	Storage    string `yaml:"storage" toml:"storage"`
	SQLitePath string `yaml:"sqlite_path" toml:"sqlite_path"`
	StateKey   string `yaml:"state_key" toml:"state_key"`
	SaveDelay  string `yaml:"save_delay" toml:"save_delay"`
	LogLevel   string `yaml:"log_level" toml:"log_level"`
	Database   struct {
		Host     string `yaml:"host" toml:"host"`
		Port     string `yaml:"port" toml:"port"`
		Name     string `yaml:"name" toml:"name"`
		User     string `yaml:"user" toml:"user"`
		Password string `yaml:"password" toml:"password"`
		SSLMode  string `yaml:"sslmode" toml:"sslmode"`
	} `yaml:"database" toml:"database"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Driver:     DriverSQLite,
			SQLitePath: defaultSQLitePath,
		},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    "5432",
			Name:    "vocabdeck",
			User:    "vocabdeck",
			SSLMode: "disable",
		},
		StateKey:  DefaultStateKey,
		SaveDelay: defaultSaveDelay,
		LogLevel:  "info",
	}
}

// Load builds the configuration from defaults, an optional config file and
// the environment, in increasing precedence. An empty path falls back to
// VOCAB_CONFIG.
func Load(path string) (*Config, error) {
	// Try to load .env file (ignore error if not exists)
	_ = godotenv.Load()

	cfg := Default()

	if path == "" {
		path = os.Getenv("VOCAB_CONFIG")
	}
	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	expanded, err := expandPath(cfg.Storage.SQLitePath)
	if err != nil {
		return nil, err
	}
	cfg.Storage.SQLitePath = expanded

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	case ".toml":
		err = toml.Unmarshal(data, &fc)
	default:
		return fmt.Errorf("config file %s: unsupported extension, use .yaml or .toml", path)
	}
	if err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.BotToken, fc.BotToken)
	if fc.BotOwnerID != 0 {
		c.BotOwnerID = fc.BotOwnerID
	}
	set(&c.Storage.Driver, fc.Storage)
	set(&c.Storage.SQLitePath, fc.SQLitePath)
	set(&c.StateKey, fc.StateKey)
	set(&c.LogLevel, fc.LogLevel)
	set(&c.Database.Host, fc.Database.Host)
	set(&c.Database.Port, fc.Database.Port)
	set(&c.Database.Name, fc.Database.Name)
	set(&c.Database.User, fc.Database.User)
	set(&c.Database.Password, fc.Database.Password)
	set(&c.Database.SSLMode, fc.Database.SSLMode)
	if fc.SaveDelay != "" {
		d, err := time.ParseDuration(fc.SaveDelay)
		if err != nil {
			return fmt.Errorf("config file %s: save_delay: %w", path, err)
		}
		c.SaveDelay = d
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.BotToken = getEnv("BOT_TOKEN", c.BotToken)
	c.Storage.Driver = getEnv("VOCAB_STORAGE", c.Storage.Driver)
	c.Storage.SQLitePath = getEnv("VOCAB_SQLITE_PATH", c.Storage.SQLitePath)
	c.StateKey = getEnv("VOCAB_STATE_KEY", c.StateKey)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnv("DB_PORT", c.Database.Port)
	c.Database.Name = getEnv("DB_NAME", c.Database.Name)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.SSLMode = getEnv("DB_SSLMODE", c.Database.SSLMode)

	if v := os.Getenv("BOT_OWNER_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("BOT_OWNER_ID must be a Telegram user id: %w", err)
		}
		c.BotOwnerID = id
	}
	if v := os.Getenv("VOCAB_SAVE_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("VOCAB_SAVE_DELAY: %w", err)
		}
		c.SaveDelay = d
	}
	return nil
}

// Validate checks settings every command needs
func (c *Config) Validate() error {
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	switch c.Storage.Driver {
	case DriverSQLite:
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("VOCAB_SQLITE_PATH is required for the sqlite storage")
		}
	case DriverPostgres:
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required for the postgres storage")
		}
	default:
		return fmt.Errorf("unknown storage %q, use %s or %s", c.Storage.Driver, DriverSQLite, DriverPostgres)
	}
	if c.StateKey == "" {
		return fmt.Errorf("VOCAB_STATE_KEY must not be empty")
	}
	if c.SaveDelay < 0 {
		return fmt.Errorf("save delay must not be negative")
	}
	return nil
}

// RequireBot checks the settings the Telegram bot needs
func (c *Config) RequireBot() error {
	if c.BotToken == "" {
		return fmt.Errorf("BOT_TOKEN is required")
	}
	return nil
}

// DSN returns PostgreSQL connection string
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "~" || strings.HasPrefix(pathValue, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		return filepath.Join(home, strings.TrimPrefix(pathValue, "~")), nil
	}
	return pathValue, nil
}
