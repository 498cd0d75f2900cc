package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the project configuration file written by `banklens init`.
const FileName = "banklens.yaml"

// Environment overrides.
const (
	EnvCredentialsPath = "GOOGLE_CLIENT_SECRET_PATH"
	EnvSheetName       = "BANKLENS_SHEET_NAME"
	EnvLogLevel        = "BANKLENS_LOG_LEVEL"
	EnvAddr            = "BANKLENS_ADDR"
	EnvHistory         = "BANKLENS_HISTORY"
)

// Config represents the top-level banklens.yaml configuration.
type Config struct {
	Sheets    SheetsConfig  `yaml:"sheets"`
	Export    ExportConfig  `yaml:"export"`
	RulesPath string        `yaml:"rules_path"`
	Log       LogConfig     `yaml:"log"`
	Server    ServerConfig  `yaml:"server"`
	History   HistoryConfig `yaml:"history"`
}

// SheetsConfig identifies the Google spreadsheet that publish targets.
type SheetsConfig struct {
	Name            string `yaml:"name" validate:"required"`
	CredentialsPath string `yaml:"credentials_path,omitempty"`
}

// ExportConfig controls where CSV and XLSX downloads land.
type ExportConfig struct {
	Dir      string `yaml:"dir" validate:"required"`
	Filename string `yaml:"filename" validate:"required,excludesall=/\\"`
}

// LogConfig sets the logger verbosity.
type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
}

// ServerConfig holds the HTTP listen address for `banklens serve`.
type ServerConfig struct {
	Addr string `yaml:"addr" validate:"required,hostname_port"`
}

// HistoryConfig toggles the activity log under logs/.
type HistoryConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Load reads a banklens.yaml file from disk. Fields absent from the file
// keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault is Load, except a missing file yields Default.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default() *Config {
	return &Config{
		Sheets: SheetsConfig{
			Name: "Bank Transactions",
		},
		Export: ExportConfig{
			Dir:      "exports",
			Filename: "transactions",
		},
		RulesPath: "rules/categorization-rules.yaml",
		Log: LogConfig{
			Level: "info",
		},
		Server: ServerConfig{
			Addr: "localhost:8080",
		},
	}
}

// LoadEnv reads the given dotenv files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overlays environment overrides onto cfg.
func ApplyEnv(cfg *Config) error {
	if v := os.Getenv(EnvCredentialsPath); v != "" {
		cfg.Sheets.CredentialsPath = v
	}
	if v := os.Getenv(EnvSheetName); v != "" {
		cfg.Sheets.Name = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv(EnvAddr); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv(EnvHistory); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvHistory, err)
		}
		cfg.History.Enabled = enabled
	}
	return nil
}

var validate = validator.New()

// Validate checks the config against its field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
