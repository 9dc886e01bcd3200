package speech

import "strings"

// SelectVoice picks the voice whose locale exactly matches locale, else the
// default voice, else the zero Voice (engine default).
func SelectVoice(voices []Voice, locale string) Voice {
	for _, v := range voices {
		if v.Locale == locale {
			return v
		}
	}
	for _, v := range voices {
		if v.Default {
			return v
		}
	}
	return Voice{}
}

// LanguageCode returns the ISO 639-1 part of a locale ("hi-IN" -> "hi").
func LanguageCode(locale string) string {
	code, _, _ := strings.Cut(locale, "-")
	return strings.ToLower(code)
}
