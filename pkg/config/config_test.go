package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Scrape.TargetCount != 10 {
		t.Errorf("expected target count 10, got %d", cfg.Scrape.TargetCount)
	}
	if cfg.Scrape.SafetyMultiplier != 2 {
		t.Errorf("expected safety multiplier 2, got %d", cfg.Scrape.SafetyMultiplier)
	}
	if cfg.Scrape.MinFileSize != 10000 {
		t.Errorf("expected min file size 10000, got %d", cfg.Scrape.MinFileSize)
	}
	if cfg.Scrape.JPEGQuality != 95 {
		t.Errorf("expected JPEG quality 95, got %d", cfg.Scrape.JPEGQuality)
	}
	if cfg.Providers.Flickr.PerPage != 100 {
		t.Errorf("expected flickr per_page 100, got %d", cfg.Providers.Flickr.PerPage)
	}
	if cfg.Providers.GoogleCSE.MaxStart != 91 {
		t.Errorf("expected CSE max_start 91, got %d", cfg.Providers.GoogleCSE.MaxStart)
	}
	if cfg.Providers.Flickr.QuerySuffix != " Taiwan" {
		t.Errorf("unexpected flickr query suffix %q", cfg.Providers.Flickr.QuerySuffix)
	}
	if cfg.Providers.GoogleCSE.QuerySuffix != "" {
		t.Errorf("CSE query suffix must default to empty, got %q", cfg.Providers.GoogleCSE.QuerySuffix)
	}
	if cfg.Corpus.TrainRatio != 0.9 {
		t.Errorf("expected train ratio 0.9, got %f", cfg.Corpus.TrainRatio)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config must validate: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero target", func(c *Config) { c.Scrape.TargetCount = 0 }, "target count"},
		{"zero multiplier", func(c *Config) { c.Scrape.SafetyMultiplier = 0 }, "safety multiplier"},
		{"bad quality", func(c *Config) { c.Scrape.JPEGQuality = 101 }, "JPEG quality"},
		{"zero workers", func(c *Config) { c.Scrape.Workers = 0 }, "workers"},
		{"too many workers", func(c *Config) { c.Scrape.Workers = 9 }, "workers"},
		{"bad ratio", func(c *Config) { c.Corpus.TrainRatio = 1.0 }, "train ratio"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "log level"},
		{"cse per page too big", func(c *Config) { c.Providers.GoogleCSE.PerPage = 11 }, "per_page"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.want)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	yaml := `
scrape:
  output_root: /data/images
  target_count: 25
providers:
  flickr:
    query_suffix: " Formosa"
logging:
  level: debug
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	if err := cfg.LoadFromFile(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Scrape.OutputRoot != "/data/images" {
		t.Errorf("got output root %q", cfg.Scrape.OutputRoot)
	}
	if cfg.Scrape.TargetCount != 25 {
		t.Errorf("got target count %d", cfg.Scrape.TargetCount)
	}
	if cfg.Providers.Flickr.QuerySuffix != " Formosa" {
		t.Errorf("got query suffix %q", cfg.Providers.Flickr.QuerySuffix)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("got log level %q", cfg.Logging.Level)
	}
	// untouched fields keep defaults
	if cfg.Scrape.JPEGQuality != 95 {
		t.Errorf("default lost on partial file load: %d", cfg.Scrape.JPEGQuality)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TWDATASET_TARGET_COUNT", "42")
	t.Setenv("TWDATASET_OUTPUT_ROOT", "/env/images")
	t.Setenv("TWDATASET_LOG_LEVEL", "warn")

	cfg := DefaultConfig()
	if err := cfg.LoadFromEnv(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Scrape.TargetCount != 42 {
		t.Errorf("got target count %d", cfg.Scrape.TargetCount)
	}
	if cfg.Scrape.OutputRoot != "/env/images" {
		t.Errorf("got output root %q", cfg.Scrape.OutputRoot)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("got log level %q", cfg.Logging.Level)
	}
}

func TestFlagsOverrideEverything(t *testing.T) {
	t.Setenv("TWDATASET_TARGET_COUNT", "42")

	yaml := "scrape:\n  target_count: 17\n"
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path, map[string]interface{}{"target": 99})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Scrape.TargetCount != 99 {
		t.Errorf("flags must win, got %d", cfg.Scrape.TargetCount)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("TWDATASET_TARGET_COUNT", "42")

	yaml := "scrape:\n  target_count: 17\n"
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Scrape.TargetCount != 42 {
		t.Errorf("environment must override the file, got %d", cfg.Scrape.TargetCount)
	}
}

func TestSaveAndReload(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Scrape.TargetCount = 33
	cfg.Scrape.DownloadTimeout = 45 * time.Second

	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	if err := cfg.Save(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reloaded := DefaultConfig()
	if err := reloaded.LoadFromFile(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reloaded.Scrape.TargetCount != 33 {
		t.Errorf("got %d", reloaded.Scrape.TargetCount)
	}
	if reloaded.Scrape.DownloadTimeout != 45*time.Second {
		t.Errorf("got %v", reloaded.Scrape.DownloadTimeout)
	}
}
