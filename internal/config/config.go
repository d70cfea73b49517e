package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/yishe-labs/relay/internal/utils/headers"
)

// StorageConfig holds the put-object endpoint credentials.
type StorageConfig struct {
	Endpoint  string `json:"endpoint"`
	Bucket    string `json:"bucket"`
	Region    string `json:"region"`
	SecretID  string `json:"secret_id"`
	SecretKey string `json:"secret_key"`
	KeyPrefix string `json:"key_prefix"`
}

// Config holds application configuration values
type Config struct {
	// Logging
	LogLevel string `json:"log_level"`
	JSONLog  bool   `json:"json_log"`

	// HTTP
	HTTPTimeout time.Duration `json:"-"`
	UserAgent   string        `json:"user_agent"`

	// Source listing
	SourceBaseURL string            `json:"source_base_url"`
	ListPath      string            `json:"list_path"`
	RefreshPath   string            `json:"refresh_path"`
	SourceTag     string            `json:"source_tag"`
	ExtraHeaders  map[string]string `json:"extra_headers"`
	PageSize      int               `json:"page_size"`

	// Pacing
	PageDelay           time.Duration `json:"-"`
	AssetRateLimitRPS   float64       `json:"asset_rate_limit_rps"`
	AssetRateLimitBurst int           `json:"asset_rate_limit_burst"`

	// Collaborators
	CatalogURL string        `json:"catalog_url"`
	WebhookURL string        `json:"webhook_url"`
	Storage    StorageConfig `json:"storage"`

	// State files
	CheckpointPath string `json:"checkpoint_path"`
	AuditLogPath   string `json:"audit_log_path"`

	// Raw duration strings from the config file, parsed in Load.
	HTTPTimeoutStr string `json:"http_timeout,omitempty"`
	PageDelayStr   string `json:"page_delay,omitempty"`
}

// Dir returns the state directory, creating it if needed.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, DefaultConfigDir)
	return dir, os.MkdirAll(dir, 0700)
}

// Load builds a Config by combining defaults, an optional JSON config
// file, a .env file, environment variables, and CLI flags, in that
// order of increasing precedence. Caller should pass the root
// *cobra.Command so flags can be read.
func Load(cmd *cobra.Command) (*Config, error) {
	cfg := &Config{
		LogLevel:            DefaultLogLevel,
		JSONLog:             DefaultJSONLog,
		HTTPTimeout:         DefaultHTTPTimeout,
		UserAgent:           DefaultUserAgent,
		ListPath:            DefaultListPath,
		RefreshPath:         DefaultRefreshPath,
		PageSize:            DefaultPageSize,
		PageDelay:           DefaultPageDelay,
		AssetRateLimitRPS:   DefaultAssetRateLimitRPS,
		AssetRateLimitBurst: DefaultAssetRateLimitBurst,
		ExtraHeaders:        map[string]string{},
	}

	// Optional .env next to the working directory; absence is fine.
	_ = godotenv.Load()

	// Config file: --config flag wins, else ~/.relay/config.json.
	path := ""
	if cmd != nil {
		if f := cmd.Flags().Lookup("config"); f != nil {
			path = f.Value.String()
		}
	}
	if path == "" {
		if dir, err := Dir(); err == nil {
			path = filepath.Join(dir, "config.json")
		}
	}
	if path != "" {
		if err := mergeFile(cfg, path); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)

	// Read CLI flags if provided
	if cmd != nil {
		if f := cmd.Flags().Lookup("user-agent"); f != nil {
			if s := f.Value.String(); s != "" {
				cfg.UserAgent = s
			}
		}
		if f := cmd.Flags().Lookup("timeout"); f != nil {
			if s := f.Value.String(); s != "" {
				if d, err := time.ParseDuration(s); err == nil {
					cfg.HTTPTimeout = d
				}
			}
		}
		if f := cmd.Flags().Lookup("json"); f != nil {
			if f.Value.String() == "true" {
				cfg.JSONLog = true
			}
		}
		if f := cmd.Flags().Lookup("verbose"); f != nil {
			if f.Value.String() == "true" {
				cfg.LogLevel = "debug"
			}
		}
		if f := cmd.Flags().Lookup("quiet"); f != nil {
			if f.Value.String() == "true" {
				cfg.LogLevel = "error"
			}
		}
		if raw, err := cmd.Flags().GetStringArray("header"); err == nil && len(raw) > 0 {
			cfg.ExtraHeaders = headers.Merge(cfg.ExtraHeaders, headers.Parse(raw))
		}
	}

	if cfg.CheckpointPath == "" {
		if dir, err := Dir(); err == nil {
			cfg.CheckpointPath = filepath.Join(dir, "progress.json")
		}
	}
	if cfg.AuditLogPath == "" {
		if dir, err := Dir(); err == nil {
			cfg.AuditLogPath = filepath.Join(dir, "outcomes.log")
		}
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// mergeFile overlays values from a JSON config file. A missing file is
// not an error; the defaults stand.
func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	if cfg.HTTPTimeoutStr != "" {
		if d, err := time.ParseDuration(cfg.HTTPTimeoutStr); err == nil {
			cfg.HTTPTimeout = d
		}
	}
	if cfg.PageDelayStr != "" {
		if d, err := time.ParseDuration(cfg.PageDelayStr); err == nil {
			cfg.PageDelay = d
		}
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("RELAY_SOURCE_BASE_URL"); v != "" {
		cfg.SourceBaseURL = v
	}
	if v := os.Getenv("RELAY_CATALOG_URL"); v != "" {
		cfg.CatalogURL = v
	}
	if v := os.Getenv("RELAY_WEBHOOK_URL"); v != "" {
		cfg.WebhookURL = v
	}
	if v := os.Getenv("RELAY_USER_AGENT"); v != "" {
		cfg.UserAgent = v
	}
	if v := os.Getenv("RELAY_SOURCE_TAG"); v != "" {
		cfg.SourceTag = v
	}
	if v := os.Getenv("RELAY_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.PageSize = n
		}
	}
	if v := os.Getenv("RELAY_STORAGE_SECRET_ID"); v != "" {
		cfg.Storage.SecretID = v
	}
	if v := os.Getenv("RELAY_STORAGE_SECRET_KEY"); v != "" {
		cfg.Storage.SecretKey = v
	}
}
