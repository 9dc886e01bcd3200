package cli

import "codeberg.org/snonux/storybuddy/internal/story"

// Flags holds all command-line flag values
type Flags struct {
	// General flags
	CfgFile     string
	OutputDir   string
	Language    string
	Model       string
	ImageAPI    string
	BatchFile   string
	SaveImages  bool
	NoNarration bool
	ListModels  bool
	Archive     bool
	LogLevel    string
	LogFormat   string

	// Speech flags
	TTS           string
	Voice         string
	ListenSeconds int

	// OpenAI speech flags
	OpenAIModel       string
	OpenAISpeed       float64
	OpenAIInstruction string

	// Server flags
	Addr string
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	return &Flags{
		Language:      "en",
		Model:         story.DefaultModel,
		ImageAPI:      "unsplash",
		LogLevel:      "info",
		LogFormat:     "text",
		TTS:           "openai",
		ListenSeconds: 6,
		OpenAIModel:   "gpt-4o-mini-tts",
		OpenAISpeed:   1.0,
		Addr:          "127.0.0.1:8080",
	}
}
