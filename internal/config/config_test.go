package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
)

func isolateHome(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, v := range []string{
		"RELAY_SOURCE_BASE_URL", "RELAY_CATALOG_URL", "RELAY_WEBHOOK_URL",
		"RELAY_USER_AGENT", "RELAY_SOURCE_TAG", "RELAY_PAGE_SIZE",
		"RELAY_STORAGE_SECRET_ID", "RELAY_STORAGE_SECRET_KEY",
	} {
		t.Setenv(v, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	isolateHome(t)

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.PageSize != DefaultPageSize {
		t.Errorf("PageSize = %d, want %d", cfg.PageSize, DefaultPageSize)
	}
	if cfg.PageDelay != DefaultPageDelay {
		t.Errorf("PageDelay = %v, want %v", cfg.PageDelay, DefaultPageDelay)
	}
	if cfg.ListPath != DefaultListPath {
		t.Errorf("ListPath = %q", cfg.ListPath)
	}
	if cfg.CheckpointPath == "" || cfg.AuditLogPath == "" {
		t.Error("state file paths not derived")
	}
}

func TestLoad_ConfigFileOverridesDefaults(t *testing.T) {
	isolateHome(t)

	dir, err := Dir()
	if err != nil {
		t.Fatalf("Dir: %v", err)
	}
	content := `{
		"source_base_url": "https://admin.example.com",
		"source_tag": "hyx",
		"page_size": 50,
		"page_delay": "5s",
		"http_timeout": "10s",
		"extra_headers": {"X-Tenant-Id": "1"}
	}`
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.SourceBaseURL != "https://admin.example.com" {
		t.Errorf("SourceBaseURL = %q", cfg.SourceBaseURL)
	}
	if cfg.PageSize != 50 {
		t.Errorf("PageSize = %d, want 50", cfg.PageSize)
	}
	if cfg.PageDelay != 5*time.Second {
		t.Errorf("PageDelay = %v, want 5s", cfg.PageDelay)
	}
	if cfg.HTTPTimeout != 10*time.Second {
		t.Errorf("HTTPTimeout = %v, want 10s", cfg.HTTPTimeout)
	}
	if cfg.ExtraHeaders["X-Tenant-Id"] != "1" {
		t.Errorf("ExtraHeaders = %v", cfg.ExtraHeaders)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	isolateHome(t)

	dir, err := Dir()
	if err != nil {
		t.Fatalf("Dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.json"),
		[]byte(`{"source_tag":"from-file"}`), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("RELAY_SOURCE_TAG", "from-env")
	t.Setenv("RELAY_PAGE_SIZE", "30")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SourceTag != "from-env" {
		t.Errorf("SourceTag = %q, want from-env", cfg.SourceTag)
	}
	if cfg.PageSize != 30 {
		t.Errorf("PageSize = %d, want 30", cfg.PageSize)
	}
}

func TestLoad_FlagsWin(t *testing.T) {
	isolateHome(t)

	cmd := &cobra.Command{Use: "test"}
	RegisterFlags(cmd)
	if err := cmd.ParseFlags([]string{
		"--verbose",
		"--timeout", "7s",
		"-H", "X-Extra: yes",
		"-H", "X-More: also",
	}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := Load(cmd)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug with --verbose", cfg.LogLevel)
	}
	if cfg.HTTPTimeout != 7*time.Second {
		t.Errorf("HTTPTimeout = %v, want 7s", cfg.HTTPTimeout)
	}
	if cfg.ExtraHeaders["X-Extra"] != "yes" || cfg.ExtraHeaders["X-More"] != "also" {
		t.Errorf("ExtraHeaders = %v", cfg.ExtraHeaders)
	}
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	isolateHome(t)

	dir, err := Dir()
	if err != nil {
		t.Fatalf("Dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.json"),
		[]byte(`{"page_size":0}`), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(nil); err == nil {
		t.Error("Load accepted a zero page size")
	}
}

func TestLoad_MalformedConfigFile(t *testing.T) {
	isolateHome(t)

	dir, err := Dir()
	if err != nil {
		t.Fatalf("Dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.json"),
		[]byte(`{not json`), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(nil); err == nil {
		t.Error("Load accepted a malformed config file")
	}
}
