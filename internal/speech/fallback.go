package speech

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// FallbackSynthesizer tries a primary engine and falls back to a secondary
// one when synthesis fails.
type FallbackSynthesizer struct {
	primary  Synthesizer
	fallback Synthesizer
	log      logrus.FieldLogger
}

// NewFallbackSynthesizer creates a synthesizer that falls back to secondary if primary fails
func NewFallbackSynthesizer(primary, fallback Synthesizer, log logrus.FieldLogger) *FallbackSynthesizer {
	return &FallbackSynthesizer{primary: primary, fallback: fallback, log: log}
}

// Name returns both engine names
func (f *FallbackSynthesizer) Name() string {
	return fmt.Sprintf("%s (fallback: %s)", f.primary.Name(), f.fallback.Name())
}

// Voices returns the primary engine's voices
func (f *FallbackSynthesizer) Voices() []Voice {
	return f.primary.Voices()
}

// Synthesize tries primary first. The fallback picks its own voice for the
// locale of the requested one.
func (f *FallbackSynthesizer) Synthesize(ctx context.Context, text string, voice Voice) (*Audio, error) {
	audio, err := f.primary.Synthesize(ctx, text, voice)
	if err == nil {
		return audio, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}

	f.log.WithError(err).WithFields(logrus.Fields{
		"primary":  f.primary.Name(),
		"fallback": f.fallback.Name(),
	}).Warn("primary speech engine failed, falling back")

	return f.fallback.Synthesize(ctx, text, SelectVoice(f.fallback.Voices(), voice.Locale))
}
