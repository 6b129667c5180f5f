package oracle

import (
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/punctuate/internal/labels"
	"github.com/ppiankov/punctuate/internal/model"
)

// Config holds oracle provider configuration
type Config struct {
	// Provider name: "remote", "openai", "anthropic", "ollama", "gemini", "neutral"
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic/Gemini
	APIKey string

	// BaseURL for custom endpoints (remote labeler, Ollama, OpenAI-compatible servers)
	BaseURL string

	// Timeout for a single API request
	Timeout time.Duration

	// ParallelRequests bounds per-window requests of chat providers within one batch
	ParallelRequests int

	// Capitalization is the tag alphabet, neutral tag first
	Capitalization string

	// Transforms names the casing (keep, title, upper, lower) of each tag,
	// in the order of Capitalization
	Transforms []string

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:         "remote",
		Timeout:          60 * time.Second,
		ParallelRequests: 4,
		Capitalization:   labels.DefaultCapitalization,
		Transforms:       defaultTransforms(),
	}
}

// ConfigFromModel converts the application configuration to an oracle Config
func ConfigFromModel(cfg *model.Config) Config {
	return Config{
		Provider:         cfg.Oracle.Provider,
		Model:            cfg.Oracle.Model,
		APIKey:           cfg.Oracle.APIKey,
		BaseURL:          cfg.Oracle.BaseURL,
		Timeout:          cfg.Oracle.Timeout,
		ParallelRequests: cfg.Oracle.ParallelRequests,
		Capitalization:   cfg.Labels.Capitalization,
		Transforms:       cfg.Labels.Transforms,
		HTTPProxy:        cfg.Oracle.HTTPProxy,
		HTTPSProxy:       cfg.Oracle.HTTPSProxy,
	}
}

// OptionsFromModel extracts decoding options from the application configuration
func OptionsFromModel(cfg *model.Config) Options {
	return Options{
		MaxOutputLength:   cfg.Oracle.MaxOutputLength,
		BeamSize:          cfg.Oracle.BeamSize,
		LengthPenalty:     cfg.Oracle.LengthPenalty,
		MaxDeltaLength:    cfg.Oracle.MaxDeltaLength,
		AddSourceNumWords: cfg.Oracle.AddSourceNumWords,
	}
}

func (c Config) timeout(fallback time.Duration) time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return fallback
}

func (c Config) alphabet() (labels.Alphabet, error) {
	tags := c.Capitalization
	if tags == "" {
		tags = labels.DefaultCapitalization
	}
	return labels.NewAlphabet(tags)
}

// tagging resolves the alphabet and its transforms. Without transforms the
// default alphabet gets its default casing.
func (c Config) tagging() (Tagging, error) {
	alphabet, err := c.alphabet()
	if err != nil {
		return Tagging{}, err
	}
	transforms := c.Transforms
	if len(transforms) == 0 && alphabet.String() == labels.DefaultCapitalization {
		transforms = defaultTransforms()
	}
	if n := len(alphabet.Tags()); len(transforms) != n {
		return Tagging{}, fmt.Errorf("capitalization labels %q need %d transforms, got %d", alphabet, n, len(transforms))
	}
	return Tagging{Alphabet: alphabet, Transforms: transforms}, nil
}

// labelScope identifies everything besides the window that shapes a label
// string: the tag alphabet and what each tag means.
func (c Config) labelScope() string {
	tags := c.Capitalization
	if tags == "" {
		tags = labels.DefaultCapitalization
	}
	transforms := c.Transforms
	if len(transforms) == 0 && tags == labels.DefaultCapitalization {
		transforms = defaultTransforms()
	}
	return tags + "=" + strings.ToLower(strings.Join(transforms, ","))
}

func defaultTransforms() []string {
	return model.DefaultConfig().Labels.Transforms
}

// maxTokens estimates an output budget for a window when none is configured:
// every word becomes a tag plus room for punctuation.
func maxTokens(opts Options, w Window) int {
	if opts.MaxOutputLength > 0 {
		return opts.MaxOutputLength
	}
	return 3*len(w.Words) + 16
}

func requireKey(c Config, name string) error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%s API key is required", name)
	}
	return nil
}
