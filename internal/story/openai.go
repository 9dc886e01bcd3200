package story

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

// OpenRouterBaseURL is the OpenAI-compatible endpoint used by default.
const OpenRouterBaseURL = "https://openrouter.ai/api/v1"

// Generator produces a story for a request.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// OpenAIConfig configures an OpenAI-compatible chat backend.
type OpenAIConfig struct {
	Provider   string // name reported in errors and logs
	APIKey     string
	BaseURL    string // default OpenRouterBaseURL
	HTTPClient *http.Client
}

// OpenAIClient generates stories through any OpenAI-compatible chat
// completions endpoint (OpenRouter by default).
type OpenAIClient struct {
	client   *openai.Client
	provider string
	log      logrus.FieldLogger
}

// NewOpenAIClient creates a chat backend
func NewOpenAIClient(config *OpenAIConfig, log logrus.FieldLogger) (*OpenAIClient, error) {
	if config == nil || config.APIKey == "" {
		return nil, fmt.Errorf("story API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	clientConfig.BaseURL = config.BaseURL
	if clientConfig.BaseURL == "" {
		clientConfig.BaseURL = OpenRouterBaseURL
	}
	if config.HTTPClient != nil {
		clientConfig.HTTPClient = config.HTTPClient
	}

	provider := config.Provider
	if provider == "" {
		provider = ProviderOpenRouter
	}

	return &OpenAIClient{
		client:   openai.NewClientWithConfig(clientConfig),
		provider: provider,
		log:      log,
	}, nil
}

// Generate sends one chat completion request and returns the first choice.
func (c *OpenAIClient) Generate(ctx context.Context, req Request) (string, error) {
	log := c.log.WithFields(logrus.Fields{"provider": c.provider, "model": req.Model})
	log.Debug("requesting story")

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: BuildPrompt(req.Topic, req.LanguageLabel),
			},
		},
	})
	if err != nil {
		log.WithError(err).Warn("story request failed")
		return "", newGenerationError(c.provider, req.Model, providerMessage(err), err)
	}

	if len(resp.Choices) == 0 {
		return "", newGenerationError(c.provider, req.Model, "", errors.New("response contained no choices"))
	}

	return resp.Choices[0].Message.Content, nil
}

// providerMessage returns the error.message field of a provider error
// payload, or "" when the failure carried none.
func providerMessage(err error) string {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}
