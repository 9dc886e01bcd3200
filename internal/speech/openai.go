package speech

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

// openAIInputLimit is the maximum input length of one speech request.
const openAIInputLimit = 4000

// OpenAIConfig configures OpenAI speech synthesis and transcription.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string // empty uses the OpenAI default
	HTTPClient *http.Client

	Model        string            // "tts-1", "tts-1-hd" or "gpt-4o-mini-tts"
	Voices       map[string]string // locale -> voice
	DefaultVoice string
	Speed        float64 // 0.25 to 4.0
	Instruction  string  // voice instructions for gpt-4o-mini-tts

	TranscriptionModel string // default whisper-1
}

// DefaultOpenAIConfig returns narration defaults suited to children's stories.
func DefaultOpenAIConfig() *OpenAIConfig {
	return &OpenAIConfig{
		Model: "gpt-4o-mini-tts",
		Voices: map[string]string{
			"en-US": "nova",
			"hi-IN": "shimmer",
			"te-IN": "shimmer",
		},
		DefaultVoice:       "alloy",
		Speed:              1.0,
		Instruction:        "You are reading a bedtime story to a young child. Speak warmly, gently and a little slowly, in the language of the text.",
		TranscriptionModel: openai.Whisper1,
	}
}

func newOpenAIClient(config *OpenAIConfig) (*openai.Client, error) {
	if config == nil || config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	if config.HTTPClient != nil {
		clientConfig.HTTPClient = config.HTTPClient
	}
	return openai.NewClientWithConfig(clientConfig), nil
}

// OpenAISynthesizer implements Synthesizer with OpenAI TTS
type OpenAISynthesizer struct {
	client *openai.Client
	config *OpenAIConfig
	log    logrus.FieldLogger
}

// NewOpenAISynthesizer creates a new OpenAI TTS engine
func NewOpenAISynthesizer(config *OpenAIConfig, log logrus.FieldLogger) (*OpenAISynthesizer, error) {
	client, err := newOpenAIClient(config)
	if err != nil {
		return nil, err
	}
	return &OpenAISynthesizer{client: client, config: config, log: log}, nil
}

// Name returns the engine name
func (s *OpenAISynthesizer) Name() string {
	return "openai"
}

// Voices lists the configured per-locale voices plus the default voice.
func (s *OpenAISynthesizer) Voices() []Voice {
	locales := make([]string, 0, len(s.config.Voices))
	for locale := range s.config.Voices {
		locales = append(locales, locale)
	}
	sort.Strings(locales)

	voices := make([]Voice, 0, len(locales)+1)
	for _, locale := range locales {
		voices = append(voices, Voice{Name: s.config.Voices[locale], Locale: locale})
	}
	if s.config.DefaultVoice != "" {
		voices = append(voices, Voice{Name: s.config.DefaultVoice, Default: true})
	}
	return voices
}

// Synthesize requests WAV audio, splitting long stories into several
// requests.
func (s *OpenAISynthesizer) Synthesize(ctx context.Context, text string, voice Voice) (*Audio, error) {
	name := voice.Name
	if name == "" {
		name = s.config.DefaultVoice
	}

	chunks := chunkText(text, openAIInputLimit)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("text cannot be empty")
	}

	s.log.WithFields(logrus.Fields{
		"model":  s.config.Model,
		"voice":  name,
		"chunks": len(chunks),
	}).Debug("synthesizing narration")

	clips := make([]*Audio, 0, len(chunks))
	for _, chunk := range chunks {
		clip, err := s.synthesizeChunk(ctx, chunk, name)
		if err != nil {
			return nil, err
		}
		clips = append(clips, clip)
	}
	return concatAudio(clips)
}

func (s *OpenAISynthesizer) synthesizeChunk(ctx context.Context, text, voice string) (*Audio, error) {
	req := openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(s.config.Model),
		Input:          text,
		Voice:          openai.SpeechVoice(voice),
		ResponseFormat: openai.SpeechResponseFormatWav,
		Speed:          s.config.Speed,
	}
	if s.config.Instruction != "" && strings.HasPrefix(s.config.Model, "gpt-4o") {
		req.Instructions = s.config.Instruction
	}

	response, err := s.client.CreateSpeech(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("OpenAI TTS API error: %w", err)
	}
	defer response.Close()

	data, err := io.ReadAll(response)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("no audio data received from OpenAI")
	}

	return DecodeWAV(data)
}

// WhisperTranscriber implements Transcriber with the OpenAI transcription API
type WhisperTranscriber struct {
	client *openai.Client
	model  string
}

// NewWhisperTranscriber creates a transcriber
func NewWhisperTranscriber(config *OpenAIConfig) (*WhisperTranscriber, error) {
	client, err := newOpenAIClient(config)
	if err != nil {
		return nil, err
	}
	model := config.TranscriptionModel
	if model == "" {
		model = openai.Whisper1
	}
	return &WhisperTranscriber{client: client, model: model}, nil
}

// Transcribe returns the single best transcript of a WAV recording.
func (w *WhisperTranscriber) Transcribe(ctx context.Context, wav []byte, locale string) (string, error) {
	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		FilePath: "speech.wav",
		Reader:   bytes.NewReader(wav),
		Language: LanguageCode(locale),
	})
	if err != nil {
		return "", fmt.Errorf("transcription failed: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}
