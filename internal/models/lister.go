package models

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/sashabaranov/go-openai"

	"codeberg.org/snonux/storybuddy/internal/story"
)

// Config holds the credentials used for listing. Empty keys skip the
// corresponding remote lookup.
type Config struct {
	OpenRouterKey     string
	OpenRouterBaseURL string // default story.OpenRouterBaseURL
	OpenAIKey         string
	OpenAIBaseURL     string // empty uses the OpenAI default
	HTTPClient        *http.Client
}

// Lister handles listing available models
type Lister struct {
	openrouter *openai.Client
	openai     *openai.Client
	out        io.Writer
}

// NewLister creates a new model lister writing to out
func NewLister(config *Config, out io.Writer) *Lister {
	l := &Lister{out: out}
	if config == nil {
		return l
	}
	if config.OpenRouterKey != "" {
		baseURL := config.OpenRouterBaseURL
		if baseURL == "" {
			baseURL = story.OpenRouterBaseURL
		}
		l.openrouter = newClient(config.OpenRouterKey, baseURL, config.HTTPClient)
	}
	if config.OpenAIKey != "" {
		l.openai = newClient(config.OpenAIKey, config.OpenAIBaseURL, config.HTTPClient)
	}
	return l
}

func newClient(key, baseURL string, httpClient *http.Client) *openai.Client {
	clientConfig := openai.DefaultConfig(key)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}
	if httpClient != nil {
		clientConfig.HTTPClient = httpClient
	}
	return openai.NewClientWithConfig(clientConfig)
}

// ListAvailableModels prints the catalog and, where keys are configured,
// remote availability and speech models.
func (l *Lister) ListAvailableModels(ctx context.Context) error {
	var offered map[string]bool
	if l.openrouter != nil {
		ids, err := listIDs(ctx, l.openrouter)
		if err != nil {
			return fmt.Errorf("failed to list OpenRouter models: %w", err)
		}
		offered = make(map[string]bool, len(ids))
		for _, id := range ids {
			offered[id] = true
		}
	}

	fmt.Fprintln(l.out, "Story Models:")
	for _, m := range story.Catalog {
		marker := " "
		if m.ID == story.DefaultModel {
			marker = "*"
		}
		fmt.Fprintf(l.out, "  %s %-36s %-24s %s%s\n", marker, m.ID, m.Name, m.Provider, availability(m, offered))
	}

	if l.openai == nil {
		fmt.Fprintln(l.out, "\nSet OPENAI_API_KEY to list OpenAI speech models.")
		return nil
	}

	ids, err := listIDs(ctx, l.openai)
	if err != nil {
		return fmt.Errorf("failed to list OpenAI models: %w", err)
	}
	tts, transcription := categorize(ids)

	printGroup(l.out, "Text-to-Speech (TTS) Models:", "No TTS models found", tts)
	printGroup(l.out, "Transcription Models:", "No transcription models found", transcription)
	return nil
}

func listIDs(ctx context.Context, client *openai.Client) ([]string, error) {
	list, err := client.ListModels(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

// availability annotates a catalog entry with the OpenRouter lookup result.
// Gemini entries are never checked there.
func availability(m story.Model, offered map[string]bool) string {
	if offered == nil || m.Provider != story.ProviderOpenRouter {
		return ""
	}
	if offered[m.ID] {
		return "  (available)"
	}
	return "  (not offered)"
}

// categorize picks speech synthesis and transcription models out of ids.
func categorize(ids []string) (tts, transcription []string) {
	for _, id := range ids {
		switch {
		case strings.Contains(id, "whisper") || strings.Contains(id, "transcribe"):
			transcription = append(transcription, id)
		case strings.Contains(id, "tts"):
			tts = append(tts, id)
		}
	}
	sort.Strings(tts)
	sort.Strings(transcription)
	return tts, transcription
}

func printGroup(out io.Writer, title, empty string, ids []string) {
	fmt.Fprintf(out, "\n%s\n", title)
	if len(ids) == 0 {
		fmt.Fprintf(out, "  %s\n", empty)
		return
	}
	for _, id := range ids {
		fmt.Fprintf(out, "  %s\n", id)
	}
}
