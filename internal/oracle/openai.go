package oracle

import (
	"context"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenAIOracle labels windows with OpenAI chat completions, one request per
// window. BaseURL points it at any OpenAI-compatible server.
type OpenAIOracle struct {
	client   *openai.Client
	config   Config
	tagging  Tagging
}

// NewOpenAIOracle creates a new OpenAI oracle
func NewOpenAIOracle(config Config) (*OpenAIOracle, error) {
	if err := requireKey(config, "OpenAI"); err != nil {
		return nil, err
	}
	tagging, err := config.tagging()
	if err != nil {
		return nil, err
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	clientConfig.HTTPClient = newHTTPClient(config, 60*time.Second)

	return &OpenAIOracle{
		client:   openai.NewClientWithConfig(clientConfig),
		config:   config,
		tagging:  tagging,
	}, nil
}

// Name returns the provider name
func (o *OpenAIOracle) Name() string {
	return "openai"
}

// Label predicts labels for every window of the request
func (o *OpenAIOracle) Label(ctx context.Context, req Request) ([]Labeling, error) {
	return labelEach(ctx, req.Windows, o.config.ParallelRequests, func(ctx context.Context, w Window) (string, error) {
		return o.labelWindow(ctx, w, req.Options)
	})
}

func (o *OpenAIOracle) labelWindow(ctx context.Context, w Window, opts Options) (string, error) {
	model := o.config.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	chatReq := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: BuildPrompt(o.tagging, w, opts),
			},
		},
		MaxTokens:   maxTokens(opts, w),
		Temperature: 0,
	}

	resp, err := o.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}

	return cleanLabels(resp.Choices[0].Message.Content), nil
}
