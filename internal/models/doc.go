// Package models prints the story model catalog, checks which catalog
// entries the configured OpenRouter key can reach, and lists the OpenAI
// speech models available for narration and transcription.
package models
