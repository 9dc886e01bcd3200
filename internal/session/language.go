package session

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownLanguage is returned for languages outside the supported set.
var ErrUnknownLanguage = errors.New("unknown language")

// Language is a narration and recognition language.
type Language string

const (
	English Language = "en"
	Hindi   Language = "hi"
	Telugu  Language = "te"
)

var languageInfo = map[Language]struct{ label, locale string }{
	English: {"English", "en-US"},
	Hindi:   {"Hindi", "hi-IN"},
	Telugu:  {"Telugu", "te-IN"},
}

// Languages lists the supported languages in selector order.
func Languages() []Language {
	return []Language{English, Hindi, Telugu}
}

// Valid reports whether l is supported.
func (l Language) Valid() bool {
	_, ok := languageInfo[l]
	return ok
}

// Label is the human-readable name used in prompts and selectors.
func (l Language) Label() string {
	return languageInfo[l].label
}

// Locale is the BCP 47 tag used for speech.
func (l Language) Locale() string {
	return languageInfo[l].locale
}

// ParseLanguage accepts a code ("hi"), a label ("Hindi") or a locale
// ("hi-IN"), case-insensitively.
func ParseLanguage(s string) (Language, error) {
	s = strings.TrimSpace(s)
	for _, l := range Languages() {
		info := languageInfo[l]
		if strings.EqualFold(s, string(l)) || strings.EqualFold(s, info.label) || strings.EqualFold(s, info.locale) {
			return l, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLanguage, s)
}
