package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"codeberg.org/snonux/storybuddy/internal"
)

// CreateRootCommand creates and configures the root cobra command
func CreateRootCommand(flags *Flags) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "storybuddy [topic]",
		Short: "Illustrated, narrated children's stories",
		Long: `storybuddy turns a short topic into a children's story.

It writes the story with a text-generation model, illustrates it with
photos found for the topic's keywords and reads it aloud.

Examples:
  storybuddy                                  # Launch interactive GUI (default)
  storybuddy "a tiger who loved books"        # Generate one story via CLI
  storybuddy --language hi "a brave kitten"   # Story and narration in Hindi
  storybuddy --batch topics.txt               # One story per line of a file
  storybuddy --archive                        # Archive earlier stories
  storybuddy serve --addr 127.0.0.1:8080      # JSON control API`,
		Args:    cobra.MaximumNArgs(1),
		Version: internal.Version,

		// main reports errors once through ReportError
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	// Set up flags
	setupFlags(rootCmd, flags)

	return rootCmd
}

// CreateServeCommand creates the serve subcommand. The caller sets RunE.
func CreateServeCommand(flags *Flags) *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the JSON control API",
		Long: `serve exposes the story session over a local HTTP JSON API: state,
model and language selection, generation, listening, playback controls
and story.txt download.`,
		Args: cobra.NoArgs,
	}

	serveCmd.Flags().StringVar(&flags.Addr, "addr", flags.Addr, "Listen address")
	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))

	return serveCmd
}

func setupFlags(cmd *cobra.Command, flags *Flags) {
	// Set default output directory to match GUI mode
	home, _ := os.UserHomeDir()
	defaultOutputDir := filepath.Join(home, ".local", "state", "storybuddy", "stories")

	// Global flags
	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.storybuddy.yaml)")
	pf.StringVarP(&flags.Language, "language", "l", flags.Language, "Story and narration language: en, hi, te")
	pf.StringVarP(&flags.Model, "model", "m", flags.Model, "Story model from the catalog (see --list-models)")
	pf.StringVar(&flags.ImageAPI, "image-api", flags.ImageAPI, "Image source: unsplash or pixabay")
	pf.StringVar(&flags.TTS, "tts", flags.TTS, "Narration engine: openai (falls back to espeak-ng) or espeak")
	pf.StringVar(&flags.Voice, "voice", "", "Voice for the selected language (default: per-language voice)")
	pf.IntVar(&flags.ListenSeconds, "listen-seconds", flags.ListenSeconds, "Maximum length of a spoken topic")
	pf.StringVar(&flags.LogLevel, "log-level", flags.LogLevel, "Log level: trace, debug, info, warn, error")
	pf.StringVar(&flags.LogFormat, "log-format", flags.LogFormat, "Log format: text or json")

	// OpenAI speech flags
	pf.StringVar(&flags.OpenAIModel, "openai-model", flags.OpenAIModel, "OpenAI TTS model: tts-1, tts-1-hd, gpt-4o-mini-tts")
	pf.Float64Var(&flags.OpenAISpeed, "openai-speed", flags.OpenAISpeed, "OpenAI speech speed (0.25 to 4.0, may be ignored by gpt-4o-mini-tts)")
	pf.StringVar(&flags.OpenAIInstruction, "openai-instruction", "", "Voice instructions for gpt-4o-mini-tts (e.g., 'read like a calm grandparent')")

	// Local flags
	cmd.Flags().StringVarP(&flags.OutputDir, "output", "o", defaultOutputDir, "Output directory for story.txt")
	cmd.Flags().StringVar(&flags.BatchFile, "batch", "", "Generate one story per topic in file (one per line)")
	cmd.Flags().BoolVar(&flags.SaveImages, "save-images", false, "Download illustrations next to story.txt")
	cmd.Flags().BoolVar(&flags.NoNarration, "no-narration", false, "Do not read the story aloud")
	cmd.Flags().BoolVar(&flags.ListModels, "list-models", false, "List story models and OpenAI speech models")
	cmd.Flags().BoolVar(&flags.Archive, "archive", false, "Move the output directory into a timestamped archive and exit")

	// Bind flags to viper
	bindFlagsToViper(cmd)
}

func bindFlagsToViper(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	viper.BindPFlag("story.language", pf.Lookup("language"))
	viper.BindPFlag("story.model", pf.Lookup("model"))
	viper.BindPFlag("image.provider", pf.Lookup("image-api"))
	viper.BindPFlag("speech.engine", pf.Lookup("tts"))
	viper.BindPFlag("speech.voice", pf.Lookup("voice"))
	viper.BindPFlag("speech.listen_seconds", pf.Lookup("listen-seconds"))
	viper.BindPFlag("speech.openai_model", pf.Lookup("openai-model"))
	viper.BindPFlag("speech.openai_speed", pf.Lookup("openai-speed"))
	viper.BindPFlag("speech.openai_instruction", pf.Lookup("openai-instruction"))
	viper.BindPFlag("log.level", pf.Lookup("log-level"))
	viper.BindPFlag("log.format", pf.Lookup("log-format"))
	viper.BindPFlag("output.directory", cmd.Flags().Lookup("output"))
}

// InitConfig initializes viper configuration
func InitConfig(cfgFile string) {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
			return
		}

		// Search config in home directory with name ".storybuddy" (without extension)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".storybuddy")
	}

	// Environment variables, e.g. STORYBUDDY_STORY_MODEL for story.model
	viper.SetEnvPrefix("STORYBUDDY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// getKey returns the credential from envVar, else from the config key.
func getKey(envVar, configKey string) string {
	if key := os.Getenv(envVar); key != "" {
		return key
	}
	return viper.GetString(configKey)
}

// GetOpenRouterKey retrieves the OpenRouter API key from environment or config
func GetOpenRouterKey() string {
	return getKey("OPENROUTER_API_KEY", "story.openrouter_key")
}

// GetGeminiKey retrieves the Gemini API key from environment or config
func GetGeminiKey() string {
	return getKey("GEMINI_API_KEY", "story.gemini_key")
}

// GetUnsplashKey retrieves the Unsplash access key from environment or config
func GetUnsplashKey() string {
	return getKey("UNSPLASH_ACCESS_KEY", "image.unsplash_key")
}

// GetPixabayKey retrieves the Pixabay API key from environment or config
func GetPixabayKey() string {
	return getKey("PIXABAY_API_KEY", "image.pixabay_key")
}

// GetOpenAIKey retrieves the OpenAI API key (speech) from environment or config
func GetOpenAIKey() string {
	return getKey("OPENAI_API_KEY", "speech.openai_key")
}
