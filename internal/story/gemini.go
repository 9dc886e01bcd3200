package story

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

// geminiModels is the part of *genai.Models used here.
type geminiModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiClient generates stories with Google Gemini.
type GeminiClient struct {
	models geminiModels
	log    logrus.FieldLogger
}

// NewGeminiClient creates a Gemini backend using the Gemini API.
func NewGeminiClient(ctx context.Context, apiKey string, httpClient *http.Client, log logrus.FieldLogger) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{models: client.Models, log: log}, nil
}

// Generate sends the prompt as one user turn.
func (g *GeminiClient) Generate(ctx context.Context, req Request) (string, error) {
	log := g.log.WithFields(logrus.Fields{"provider": ProviderGemini, "model": req.Model})
	log.Debug("requesting story")

	resp, err := g.models.GenerateContent(ctx, req.Model, genai.Text(BuildPrompt(req.Topic, req.LanguageLabel)), nil)
	if err != nil {
		log.WithError(err).Warn("story request failed")
		return "", newGenerationError(ProviderGemini, req.Model, geminiMessage(err), err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", newGenerationError(ProviderGemini, req.Model, "", errors.New("response contained no candidates"))
	}

	text := resp.Text()
	if text == "" {
		return "", newGenerationError(ProviderGemini, req.Model, "", errors.New("response contained no text"))
	}
	return text, nil
}

func geminiMessage(err error) string {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return apiErrPtr.Message
	}
	return ""
}
