package oracle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiOracle labels windows with the Gemini API
type GeminiOracle struct {
	client   *genai.Client
	config   Config
	tagging  Tagging
}

// NewGeminiOracle creates a new Gemini oracle
func NewGeminiOracle(ctx context.Context, config Config) (*GeminiOracle, error) {
	if err := requireKey(config, "Gemini"); err != nil {
		return nil, err
	}
	tagging, err := config.tagging()
	if err != nil {
		return nil, err
	}

	clientConfig := &genai.ClientConfig{
		APIKey:     config.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: newHTTPClient(config, 60*time.Second),
	}
	if config.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: config.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}

	return &GeminiOracle{
		client:   client,
		config:   config,
		tagging:  tagging,
	}, nil
}

// Name returns the provider name
func (o *GeminiOracle) Name() string {
	return "gemini"
}

// Label predicts labels for every window of the request
func (o *GeminiOracle) Label(ctx context.Context, req Request) ([]Labeling, error) {
	model := o.config.Model
	if model == "" {
		model = defaultGeminiModel
	}

	return labelEach(ctx, req.Windows, o.config.ParallelRequests, func(ctx context.Context, w Window) (string, error) {
		cfg := &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
			MaxOutputTokens:   int32(maxTokens(req.Options, w)),
			Temperature:       genai.Ptr[float32](0),
		}

		result, err := o.client.Models.GenerateContent(ctx, model, genai.Text(BuildPrompt(o.tagging, w, req.Options)), cfg)
		if err != nil {
			return "", fmt.Errorf("generate content: %w", err)
		}

		if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
			return "", fmt.Errorf("empty response from Gemini")
		}
		var text strings.Builder
		for _, part := range result.Candidates[0].Content.Parts {
			if part.Text != "" {
				text.WriteString(part.Text)
			}
		}
		return cleanLabels(text.String()), nil
	})
}
