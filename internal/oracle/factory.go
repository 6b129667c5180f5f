package oracle

import (
	"context"
	"fmt"
	"strings"
)

// Providers lists the supported provider names
var Providers = []string{"remote", "openai", "anthropic", "ollama", "gemini", "neutral"}

// NewOracle creates a new oracle based on configuration
func NewOracle(ctx context.Context, config Config) (Oracle, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "remote", "":
		return NewRemoteOracle(config)

	case "openai":
		return NewOpenAIOracle(config)

	case "anthropic", "claude":
		return NewAnthropicOracle(config)

	case "ollama":
		return NewOllamaOracle(config)

	case "gemini", "google":
		return NewGeminiOracle(ctx, config)

	case "neutral", "none":
		alphabet, err := config.alphabet()
		if err != nil {
			return nil, err
		}
		return NewNeutralOracle(alphabet), nil

	default:
		return nil, fmt.Errorf("unknown oracle provider: %s (supported: %s)", config.Provider, strings.Join(Providers, ", "))
	}
}
