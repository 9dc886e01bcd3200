package story

import (
	"fmt"
	"strings"
)

// AudienceAge is the reader age the prompt writes for.
const AudienceAge = 6

// Request describes one story generation call.
type Request struct {
	Topic         string
	LanguageLabel string // human-readable language name, e.g. "Hindi"
	Model         string // catalog model id
}

// BuildPrompt renders the single user turn sent to the model.
func BuildPrompt(topic, languageLabel string) string {
	if languageLabel == "" {
		languageLabel = "English"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are a creative children's storyteller. Write a short story for a %d-year-old child in %s.\n", AudienceAge, languageLabel)
	fmt.Fprintf(&b, "Topic: %s\n\n", strings.TrimSpace(topic))
	b.WriteString("Guidelines:\n")
	b.WriteString("- Write at least 6 short paragraphs.\n")
	b.WriteString("- Use simple words a young child understands.\n")
	b.WriteString("- Separate paragraphs with a blank line.\n")
	b.WriteString("- Let the characters feel different emotions as the story moves along.\n")
	fmt.Fprintf(&b, "- Write only the story, entirely in %s, without a title or notes.\n", languageLabel)
	return b.String()
}
