package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/treeleaves30760/tw-dataset-generation/pkg/logger"
)

// Config holds all configuration options for the dataset toolchain
type Config struct {
	// Input CSV settings
	Input InputConfig `yaml:"input" json:"input"`

	// Image acquisition settings
	Scrape ScrapeConfig `yaml:"scrape" json:"scrape"`

	// Per-provider settings
	Providers ProvidersConfig `yaml:"providers" json:"providers"`

	// Search-popularity ranking settings
	Ranking RankingConfig `yaml:"ranking" json:"ranking"`

	// Attraction metadata download settings
	Metadata MetadataConfig `yaml:"metadata" json:"metadata"`

	// Corpus normalization settings
	Corpus CorpusConfig `yaml:"corpus" json:"corpus"`

	// Description generation and dataset export settings
	Dataset DatasetConfig `yaml:"dataset" json:"dataset"`

	// Logging configuration
	Logging logger.Config `yaml:"logging" json:"logging"`
}

// InputConfig holds the attraction source settings
type InputConfig struct {
	CSVPath string `yaml:"csv_path" json:"csv_path"`
}

// ScrapeConfig holds image acquisition settings
type ScrapeConfig struct {
	OutputRoot           string        `yaml:"output_root" json:"output_root"`
	TargetCount          int           `yaml:"target_count" json:"target_count"`
	SafetyMultiplier     int           `yaml:"safety_multiplier" json:"safety_multiplier"`
	DownloadTimeout      time.Duration `yaml:"download_timeout" json:"download_timeout"`
	MinFileSize          int64         `yaml:"min_file_size" json:"min_file_size"`
	JPEGQuality          int           `yaml:"jpeg_quality" json:"jpeg_quality"`
	RequestsPerMinute    int           `yaml:"requests_per_minute" json:"requests_per_minute"`
	InterRequestDelay    time.Duration `yaml:"inter_request_delay" json:"inter_request_delay"`
	InterRequestJitter   time.Duration `yaml:"inter_request_jitter" json:"inter_request_jitter"`
	InterAttractionDelay time.Duration `yaml:"inter_attraction_delay" json:"inter_attraction_delay"`
	UserAgent            string        `yaml:"user_agent" json:"user_agent"`

	// Workers enables bounded concurrency across attractions. Each
	// attraction is still processed by exactly one worker so sequence
	// numbering stays contiguous.
	Workers int `yaml:"workers" json:"workers"`
}

// ProvidersConfig groups the per-provider settings
type ProvidersConfig struct {
	Flickr    FlickrConfig    `yaml:"flickr" json:"flickr"`
	GoogleCSE GoogleCSEConfig `yaml:"google_cse" json:"google_cse"`
	Places    PlacesConfig    `yaml:"places" json:"places"`
}

// FlickrConfig holds Flickr search settings
type FlickrConfig struct {
	QuerySuffix string        `yaml:"query_suffix" json:"query_suffix"`
	PerPage     int           `yaml:"per_page" json:"per_page"`
	PageDelay   time.Duration `yaml:"page_delay" json:"page_delay"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
}

// GoogleCSEConfig holds Google Custom Search image settings
type GoogleCSEConfig struct {
	QuerySuffix string        `yaml:"query_suffix" json:"query_suffix"`
	PerPage     int           `yaml:"per_page" json:"per_page"`
	MaxStart    int           `yaml:"max_start" json:"max_start"`
	PageDelay   time.Duration `yaml:"page_delay" json:"page_delay"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
}

// PlacesConfig holds Google Maps Places photo settings
type PlacesConfig struct {
	QuerySuffix string        `yaml:"query_suffix" json:"query_suffix"`
	MaxPhotos   int           `yaml:"max_photos" json:"max_photos"`
	MaxWidth    int           `yaml:"max_width" json:"max_width"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
}

// RankingConfig holds search-count ranking settings
type RankingConfig struct {
	OutputCSV        string        `yaml:"output_csv" json:"output_csv"`
	TopN             int           `yaml:"top_n" json:"top_n"`
	RequestDelay     time.Duration `yaml:"request_delay" json:"request_delay"`
	MaxRetries       int           `yaml:"max_retries" json:"max_retries"`
	ProgressInterval int           `yaml:"progress_interval" json:"progress_interval"`
	Timeout          time.Duration `yaml:"timeout" json:"timeout"`
}

// MetadataConfig holds attraction JSON download settings
type MetadataConfig struct {
	BaseURL      string        `yaml:"base_url" json:"base_url"`
	OutputDir    string        `yaml:"output_dir" json:"output_dir"`
	RequestDelay time.Duration `yaml:"request_delay" json:"request_delay"`
	Timeout      time.Duration `yaml:"timeout" json:"timeout"`
}

// CorpusConfig holds renumber/split settings
type CorpusConfig struct {
	TrainDir   string  `yaml:"train_dir" json:"train_dir"`
	ValDir     string  `yaml:"val_dir" json:"val_dir"`
	TrainRatio float64 `yaml:"train_ratio" json:"train_ratio"`
}

// DatasetConfig holds description generation and export settings
type DatasetConfig struct {
	JSONLPath           string `yaml:"jsonl_path" json:"jsonl_path"`
	ParquetPath         string `yaml:"parquet_path" json:"parquet_path"`
	PromptTemplate      string `yaml:"prompt_template" json:"prompt_template"`
	Model               string `yaml:"model" json:"model"`
	ImagesPerAttraction int    `yaml:"images_per_attraction" json:"images_per_attraction"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Input: InputConfig{
			CSVPath: "attractions.csv",
		},
		Scrape: ScrapeConfig{
			OutputRoot:           "./image_data",
			TargetCount:          10,
			SafetyMultiplier:     2,
			DownloadTimeout:      30 * time.Second,
			MinFileSize:          10000,
			JPEGQuality:          95,
			RequestsPerMinute:    60,
			InterRequestDelay:    500 * time.Millisecond,
			InterRequestJitter:   time.Second,
			InterAttractionDelay: time.Second,
			UserAgent:            "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			Workers:              1,
		},
		Providers: ProvidersConfig{
			Flickr: FlickrConfig{
				QuerySuffix: " Taiwan",
				PerPage:     100,
				PageDelay:   time.Second,
				Timeout:     15 * time.Second,
			},
			GoogleCSE: GoogleCSEConfig{
				QuerySuffix: "",
				PerPage:     10,
				MaxStart:    91,
				PageDelay:   time.Second,
				Timeout:     30 * time.Second,
			},
			Places: PlacesConfig{
				QuerySuffix: " 台灣",
				MaxPhotos:   10,
				MaxWidth:    1600,
				Timeout:     10 * time.Second,
			},
		},
		Ranking: RankingConfig{
			OutputCSV:        "attractions_ranked.csv",
			TopN:             1000,
			RequestDelay:     time.Second,
			MaxRetries:       3,
			ProgressInterval: 100,
			Timeout:          10 * time.Second,
		},
		Metadata: MetadataConfig{
			BaseURL:      "https://media.taiwan.net.tw/zh-tw/portal/travel/json/",
			OutputDir:    "attractions",
			RequestDelay: 500 * time.Millisecond,
			Timeout:      15 * time.Second,
		},
		Corpus: CorpusConfig{
			TrainDir:   "./image_data_train",
			ValDir:     "./image_data_val",
			TrainRatio: 0.9,
		},
		Dataset: DatasetConfig{
			JSONLPath:           "result.jsonl",
			ParquetPath:         "result.parquet",
			PromptTemplate:      "Generate_Description.md",
			Model:               "gemini-2.5-flash-preview-05-20",
			ImagesPerAttraction: 2,
		},
		Logging: logger.Config{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if csvPath := os.Getenv("TWDATASET_INPUT_CSV"); csvPath != "" {
		c.Input.CSVPath = csvPath
	}
	if outputRoot := os.Getenv("TWDATASET_OUTPUT_ROOT"); outputRoot != "" {
		c.Scrape.OutputRoot = outputRoot
	}
	if target := os.Getenv("TWDATASET_TARGET_COUNT"); target != "" {
		var val int
		fmt.Sscanf(target, "%d", &val)
		if val > 0 {
			c.Scrape.TargetCount = val
		}
	}
	if workers := os.Getenv("TWDATASET_WORKERS"); workers != "" {
		var val int
		fmt.Sscanf(workers, "%d", &val)
		if val > 0 {
			c.Scrape.Workers = val
		}
	}
	if logLevel := os.Getenv("TWDATASET_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".twdataset.yaml",
		".twdataset.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "twdataset", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".twdataset.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Input.CSVPath == "" {
		errs = append(errs, errors.New("input CSV path is required"))
	}

	if c.Scrape.OutputRoot == "" {
		errs = append(errs, errors.New("output root is required"))
	}
	if c.Scrape.TargetCount <= 0 {
		errs = append(errs, errors.New("target count must be positive"))
	}
	if c.Scrape.SafetyMultiplier < 1 {
		errs = append(errs, errors.New("safety multiplier must be at least 1"))
	}
	if c.Scrape.DownloadTimeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}
	if c.Scrape.MinFileSize < 0 {
		errs = append(errs, errors.New("minimum file size cannot be negative"))
	}
	if c.Scrape.JPEGQuality < 1 || c.Scrape.JPEGQuality > 100 {
		errs = append(errs, errors.New("JPEG quality must be between 1 and 100"))
	}
	if c.Scrape.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}
	if c.Scrape.Workers <= 0 {
		errs = append(errs, errors.New("workers must be positive"))
	}
	if c.Scrape.Workers > 8 {
		errs = append(errs, errors.New("workers should not exceed 8"))
	}

	if c.Providers.Flickr.PerPage <= 0 || c.Providers.Flickr.PerPage > 500 {
		errs = append(errs, errors.New("flickr per_page must be between 1 and 500"))
	}
	if c.Providers.GoogleCSE.PerPage <= 0 || c.Providers.GoogleCSE.PerPage > 10 {
		errs = append(errs, errors.New("google_cse per_page must be between 1 and 10"))
	}
	if c.Providers.GoogleCSE.MaxStart <= 0 {
		errs = append(errs, errors.New("google_cse max_start must be positive"))
	}
	if c.Providers.Places.MaxPhotos <= 0 {
		errs = append(errs, errors.New("places max_photos must be positive"))
	}

	if c.Ranking.TopN <= 0 {
		errs = append(errs, errors.New("ranking top_n must be positive"))
	}
	if c.Ranking.MaxRetries < 0 {
		errs = append(errs, errors.New("ranking max retries cannot be negative"))
	}

	if c.Corpus.TrainRatio <= 0 || c.Corpus.TrainRatio >= 1 {
		errs = append(errs, errors.New("train ratio must be between 0 and 1 exclusive"))
	}

	if c.Dataset.ImagesPerAttraction <= 0 {
		errs = append(errs, errors.New("images per attraction must be positive"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if csvPath, ok := flags["input"].(string); ok && csvPath != "" {
		c.Input.CSVPath = csvPath
	}
	if outputRoot, ok := flags["output"].(string); ok && outputRoot != "" {
		c.Scrape.OutputRoot = outputRoot
	}
	if target, ok := flags["target"].(int); ok && target > 0 {
		c.Scrape.TargetCount = target
	}
	if workers, ok := flags["workers"].(int); ok && workers > 0 {
		c.Scrape.Workers = workers
	}
	if topN, ok := flags["top"].(int); ok && topN > 0 {
		c.Ranking.TopN = topN
	}
	if ratio, ok := flags["ratio"].(float64); ok && ratio > 0 {
		c.Corpus.TrainRatio = ratio
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".twdataset.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
