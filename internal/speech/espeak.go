package speech

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// ESpeakConfig holds configuration for espeak-ng narration
type ESpeakConfig struct {
	Speed     int // Speech speed in words per minute (default: 150)
	Pitch     int // Pitch adjustment, 0 to 99 (default: 50)
	Amplitude int // Volume/amplitude, 0 to 200 (default: 100)
	WordGap   int // Gap between words in 10ms units (default: 0)
}

// DefaultESpeakConfig returns a slightly slow storytelling pace
func DefaultESpeakConfig() *ESpeakConfig {
	return &ESpeakConfig{
		Speed:     140,
		Pitch:     50,
		Amplitude: 100,
		WordGap:   0,
	}
}

// espeakVoices maps locales to espeak-ng voice names.
var espeakVoices = []Voice{
	{Name: "en-us", Locale: "en-US"},
	{Name: "hi", Locale: "hi-IN"},
	{Name: "te", Locale: "te-IN"},
	{Name: "en", Default: true},
}

// ESpeakSynthesizer implements Synthesizer on the espeak-ng command line tool
type ESpeakSynthesizer struct {
	config *ESpeakConfig
	binary string
}

// NewESpeakSynthesizer checks that espeak-ng is installed and returns an engine
func NewESpeakSynthesizer(config *ESpeakConfig) (*ESpeakSynthesizer, error) {
	binary, err := exec.LookPath("espeak-ng")
	if err != nil {
		return nil, fmt.Errorf("espeak-ng is not installed or not in PATH: %w", err)
	}
	if config == nil {
		config = DefaultESpeakConfig()
	}
	return &ESpeakSynthesizer{config: clampESpeak(config), binary: binary}, nil
}

// Name returns the engine name
func (e *ESpeakSynthesizer) Name() string {
	return "espeak-ng"
}

// Voices returns the locale voices espeak-ng ships with
func (e *ESpeakSynthesizer) Voices() []Voice {
	return append([]Voice(nil), espeakVoices...)
}

// Synthesize runs espeak-ng and decodes the WAV it writes to stdout
func (e *ESpeakSynthesizer) Synthesize(ctx context.Context, text string, voice Voice) (*Audio, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	cmd := exec.CommandContext(ctx, e.binary, e.args(voice, text)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("espeak-ng failed: %w\nOutput: %s", err, stderr.String())
	}
	return DecodeWAV(out)
}

func (e *ESpeakSynthesizer) args(voice Voice, text string) []string {
	name := voice.Name
	if name == "" {
		name = "en"
	}

	args := []string{
		"-v", name,
		"-s", fmt.Sprintf("%d", e.config.Speed),
		"-p", fmt.Sprintf("%d", e.config.Pitch),
		"-a", fmt.Sprintf("%d", e.config.Amplitude),
	}
	if e.config.WordGap > 0 {
		args = append(args, "-g", fmt.Sprintf("%d", e.config.WordGap))
	}
	// "--" keeps a story starting with "-" from being parsed as a flag
	return append(args, "--stdout", "--", text)
}

func clampESpeak(c *ESpeakConfig) *ESpeakConfig {
	out := *c
	out.Speed = clamp(out.Speed, 80, 450)
	out.Pitch = clamp(out.Pitch, 0, 99)
	out.Amplitude = clamp(out.Amplitude, 0, 200)
	if out.WordGap < 0 {
		out.WordGap = 0
	}
	return &out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
