package model

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/ppiankov/punctuate/internal/labels"
)

// Config holds the complete punctuate configuration
type Config struct {
	Segmentation SegmentationConfig `yaml:"segmentation" mapstructure:"segmentation"`
	Labels       LabelsConfig       `yaml:"labels" mapstructure:"labels"`
	Oracle       OracleConfig       `yaml:"oracle" mapstructure:"oracle"`
	Batch        BatchConfig        `yaml:"batch" mapstructure:"batch"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitConfig    `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Retry        RetryConfig        `yaml:"retry" mapstructure:"retry"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Logging      LoggingConfig      `yaml:"logging" mapstructure:"logging"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
}

// SegmentationConfig controls how queries are cut into windows.
// MaxSeqLength - 2*Margin must be at least Step so that every word lands in
// the counted core of some window.
type SegmentationConfig struct {
	MaxSeqLength int `yaml:"max_seq_length" mapstructure:"max_seq_length"` // words per window
	Step         int `yaml:"step" mapstructure:"step"`                     // words between window starts
	Margin       int `yaml:"margin" mapstructure:"margin"`                 // discounted words at window borders
}

// LabelsConfig describes the capitalization tag alphabet and what each tag
// does to a word. The first character of Capitalization is the neutral tag.
// Transforms lists one casing transform (keep, title, upper, lower) per tag,
// in the order of Capitalization.
type LabelsConfig struct {
	Capitalization string   `yaml:"capitalization" mapstructure:"capitalization"`
	Transforms     []string `yaml:"transforms" mapstructure:"transforms"`
}

// OracleConfig selects and tunes the labeling oracle
type OracleConfig struct {
	Provider string `yaml:"provider" mapstructure:"provider"` // remote, openai, anthropic, ollama, gemini, neutral
	Model    string `yaml:"model" mapstructure:"model"`
	APIKey   string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL  string `yaml:"base_url,omitempty" mapstructure:"base_url"`

	Timeout          time.Duration `yaml:"timeout" mapstructure:"timeout"`
	ParallelRequests int           `yaml:"parallel_requests" mapstructure:"parallel_requests"` // per-window requests in flight inside one batch (chat providers)

	MaxOutputLength   int     `yaml:"max_output_length" mapstructure:"max_output_length"`
	BeamSize          int     `yaml:"beam_size" mapstructure:"beam_size"`
	LengthPenalty     float64 `yaml:"length_penalty" mapstructure:"length_penalty"`
	MaxDeltaLength    int     `yaml:"max_delta_length" mapstructure:"max_delta_length"`
	AddSourceNumWords bool    `yaml:"add_source_num_words" mapstructure:"add_source_num_words"`

	HTTPProxy  string `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
}

// BatchConfig controls how many windows go to the oracle per call
type BatchConfig struct {
	Size int `yaml:"size" mapstructure:"size"`
}

// ConcurrencyConfig controls parallelism
type ConcurrencyConfig struct {
	Workers        int `yaml:"workers" mapstructure:"workers"`                 // oracle batches in flight
	ResolveWorkers int `yaml:"resolve_workers" mapstructure:"resolve_workers"` // queries reconciled in parallel
}

// RateLimitConfig controls oracle request pacing
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// RetryConfig controls how failed oracle batches are retried
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	Backoff     time.Duration `yaml:"backoff" mapstructure:"backoff"`
}

// CacheConfig controls caching of oracle labels per window
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// LoggingConfig controls structured logging
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json, console
}

// ServerConfig controls the HTTP API
type ServerConfig struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`
	MaxTexts int    `yaml:"max_texts" mapstructure:"max_texts"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Segmentation: SegmentationConfig{
			MaxSeqLength: 64,
			Step:         8,
			Margin:       16,
		},
		Labels: LabelsConfig{
			Capitalization: labels.DefaultCapitalization,
			Transforms:     []string{"keep", "title", "upper"},
		},
		Oracle: OracleConfig{
			Provider:         "remote",
			BaseURL:          "http://localhost:8080",
			Timeout:          60 * time.Second,
			ParallelRequests: 4,
			MaxOutputLength:  512,
			BeamSize:         4,
			LengthPenalty:    0.6,
			MaxDeltaLength:   5,
		},
		Batch: BatchConfig{
			Size: 128,
		},
		Concurrency: ConcurrencyConfig{
			Workers:        2,
			ResolveWorkers: runtime.NumCPU(),
		},
		RateLimiting: RateLimitConfig{
			RequestsPerSecond: 5,
			BurstSize:         5,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			Backoff:     time.Second,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       defaultCacheDir(),
			MemoryTTL: time.Hour,
			DiskTTL:   7 * 24 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Server: ServerConfig{
			Addr:     ":8090",
			MaxTexts: 1000,
		},
	}
}

// Validate rejects configurations the reconciliation algorithm cannot work
// with and fills zero-valued operational settings with defaults.
func (c *Config) Validate() error {
	s := c.Segmentation
	if s.MaxSeqLength <= 0 {
		return fmt.Errorf("%w: segmentation.max_seq_length has to be positive, got %d", ErrInvalidConfig, s.MaxSeqLength)
	}
	if s.Step <= 0 {
		return fmt.Errorf("%w: segmentation.step has to be positive, got %d", ErrInvalidConfig, s.Step)
	}
	if s.Margin < 0 {
		return fmt.Errorf("%w: segmentation.margin must not be negative, got %d", ErrInvalidConfig, s.Margin)
	}
	if s.MaxSeqLength-2*s.Margin < s.Step {
		return fmt.Errorf("%w: max_seq_length, margin and step must satisfy max_seq_length - 2 * margin >= step, got max_seq_length=%d, margin=%d, step=%d",
			ErrInvalidConfig, s.MaxSeqLength, s.Margin, s.Step)
	}
	if c.Batch.Size <= 0 {
		return fmt.Errorf("%w: batch.size has to be positive, got %d", ErrInvalidConfig, c.Batch.Size)
	}

	alphabet, err := labels.NewAlphabet(c.Labels.Capitalization)
	if err != nil {
		return fmt.Errorf("%w: labels.capitalization: %v", ErrInvalidConfig, err)
	}
	if n := len(alphabet.Tags()); len(c.Labels.Transforms) != n {
		return fmt.Errorf("%w: labels.transforms needs one transform per capitalization label of %q, got %d",
			ErrInvalidConfig, alphabet.String(), len(c.Labels.Transforms))
	}
	if c.Labels.Transforms[0] != "keep" {
		return fmt.Errorf("%w: labels.transforms: neutral label %q must use keep, got %q",
			ErrInvalidConfig, alphabet.Neutral(), c.Labels.Transforms[0])
	}

	if c.Concurrency.Workers <= 0 {
		c.Concurrency.Workers = 1
	}
	if c.Concurrency.ResolveWorkers <= 0 {
		c.Concurrency.ResolveWorkers = runtime.NumCPU()
	}
	if c.Oracle.ParallelRequests <= 0 {
		c.Oracle.ParallelRequests = 1
	}
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = 1
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}

	return nil
}

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ".punctuate-cache"
	}
	return filepath.Join(dir, "punctuate")
}
