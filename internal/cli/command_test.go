package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestCreateRootCommand(t *testing.T) {
	resetViper(t)
	flags := NewFlags()
	cmd := CreateRootCommand(flags)

	// Test basic command properties
	if cmd.Use != "storybuddy [topic]" {
		t.Errorf("Expected Use to be 'storybuddy [topic]', got %s", cmd.Use)
	}

	if !strings.Contains(cmd.Short, "children's stories") {
		t.Errorf("Expected Short description to mention children's stories")
	}

	// Test that flags are set up
	flagTests := []struct {
		name       string
		persistent bool
	}{
		{"config", true},
		{"language", true},
		{"model", true},
		{"image-api", true},
		{"tts", true},
		{"voice", true},
		{"listen-seconds", true},
		{"log-level", true},
		{"log-format", true},
		{"openai-model", true},
		{"openai-speed", true},
		{"openai-instruction", true},
		{"output", false},
		{"batch", false},
		{"save-images", false},
		{"no-narration", false},
		{"list-models", false},
		{"archive", false},
	}

	for _, tt := range flagTests {
		t.Run("flag_"+tt.name, func(t *testing.T) {
			var flag *pflag.Flag
			if tt.persistent {
				flag = cmd.PersistentFlags().Lookup(tt.name)
			} else {
				flag = cmd.Flags().Lookup(tt.name)
			}
			if flag == nil {
				t.Errorf("Expected flag %s to exist", tt.name)
			}
		})
	}

	if err := cmd.Args(cmd, []string{"a", "b"}); err == nil {
		t.Error("root command should accept at most one topic")
	}
}

func TestCreateServeCommand(t *testing.T) {
	resetViper(t)
	flags := NewFlags()
	cmd := CreateServeCommand(flags)

	if cmd.Use != "serve" {
		t.Errorf("Use = %q, want serve", cmd.Use)
	}
	if err := cmd.Flags().Set("addr", "0.0.0.0:9000"); err != nil {
		t.Fatal(err)
	}
	if flags.Addr != "0.0.0.0:9000" {
		t.Errorf("Addr = %q", flags.Addr)
	}
	if got := viper.GetString("server.addr"); got != "0.0.0.0:9000" {
		t.Errorf("server.addr = %q", got)
	}
}

func TestSetupFlags(t *testing.T) {
	resetViper(t)
	cmd := &cobra.Command{}
	flags := NewFlags()

	setupFlags(cmd, flags)

	// Test default values
	outputFlag := cmd.Flags().Lookup("output")
	if outputFlag == nil {
		t.Fatal("output flag not found")
	}

	home, _ := os.UserHomeDir()
	expectedDefault := filepath.Join(home, ".local", "state", "storybuddy", "stories")
	if outputFlag.DefValue != expectedDefault {
		t.Errorf("Expected default output dir to be %s, got %s", expectedDefault, outputFlag.DefValue)
	}

	languageFlag := cmd.PersistentFlags().ShorthandLookup("l")
	if languageFlag == nil || languageFlag.DefValue != "en" {
		t.Errorf("language flag = %+v", languageFlag)
	}
}

func TestInitConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "with config file",
			content: `story:
  model: gemini-2.0-flash
  openrouter_key: test-key
image:
  provider: pixabay`,
		},
		{
			name: "without config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Reset viper for each test
			resetViper(t)

			cfgPath := ""
			if tt.content != "" {
				cfgPath = filepath.Join(t.TempDir(), "test-config.yaml")
				if err := os.WriteFile(cfgPath, []byte(tt.content), 0644); err != nil {
					t.Fatalf("Failed to create test config: %v", err)
				}
			}

			InitConfig(cfgPath)

			// Test environment variable prefix
			t.Setenv("STORYBUDDY_TEST_VAR", "test-value")
			if viper.GetString("test_var") != "test-value" {
				t.Error("Environment variable not properly loaded")
			}

			if tt.content != "" {
				if got := viper.GetString("story.model"); got != "gemini-2.0-flash" {
					t.Errorf("story.model = %q", got)
				}
				if got := viper.GetString("image.provider"); got != "pixabay" {
					t.Errorf("image.provider = %q", got)
				}
			}
		})
	}
}

func TestInitConfigNestedEnv(t *testing.T) {
	resetViper(t)
	InitConfig(filepath.Join(t.TempDir(), "missing.yaml"))

	t.Setenv("STORYBUDDY_STORY_LANGUAGE", "te")
	if got := viper.GetString("story.language"); got != "te" {
		t.Errorf("story.language = %q, want te from environment", got)
	}
}

func TestGetKeys(t *testing.T) {
	getters := []struct {
		name      string
		envVar    string
		configKey string
		get       func() string
	}{
		{"openrouter", "OPENROUTER_API_KEY", "story.openrouter_key", GetOpenRouterKey},
		{"gemini", "GEMINI_API_KEY", "story.gemini_key", GetGeminiKey},
		{"unsplash", "UNSPLASH_ACCESS_KEY", "image.unsplash_key", GetUnsplashKey},
		{"pixabay", "PIXABAY_API_KEY", "image.pixabay_key", GetPixabayKey},
		{"openai", "OPENAI_API_KEY", "speech.openai_key", GetOpenAIKey},
	}

	tests := []struct {
		name      string
		envKey    string
		configKey string
		expected  string
	}{
		{"from environment", "env-test-key", "config-test-key", "env-test-key"},
		{"from config when no env", "", "config-test-key", "config-test-key"},
		{"empty when neither set", "", "", ""},
	}

	for _, g := range getters {
		for _, tt := range tests {
			t.Run(g.name+"/"+tt.name, func(t *testing.T) {
				resetViper(t)
				t.Setenv(g.envVar, tt.envKey)

				if tt.configKey != "" {
					viper.Set(g.configKey, tt.configKey)
				}

				if got := g.get(); got != tt.expected {
					t.Errorf("got %q, want %q", got, tt.expected)
				}
			})
		}
	}
}

func TestBindFlagsToViper(t *testing.T) {
	resetViper(t)

	cmd := &cobra.Command{}
	flags := NewFlags()
	setupFlags(cmd, flags)

	// Set some flag values
	cmd.Flags().Set("output", "/test/output")
	cmd.PersistentFlags().Set("language", "hi")
	cmd.PersistentFlags().Set("image-api", "pixabay")
	cmd.PersistentFlags().Set("openai-model", "tts-1-hd")

	// Test that values are bound
	expected := map[string]string{
		"output.directory":      "/test/output",
		"story.language":        "hi",
		"story.model":           flags.Model,
		"image.provider":        "pixabay",
		"speech.engine":         "openai",
		"speech.openai_model":   "tts-1-hd",
		"speech.listen_seconds": "6",
	}
	for key, want := range expected {
		if got := viper.GetString(key); got != want {
			t.Errorf("%s = %q, want %q", key, got, want)
		}
	}
}
