package session

import (
	"errors"
	"testing"
)

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		in      string
		want    Language
		wantErr bool
	}{
		{"en", English, false},
		{"Hindi", Hindi, false},
		{"te-IN", Telugu, false},
		{" HI ", Hindi, false},
		{"fr", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseLanguage(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLanguage(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if tt.wantErr && !errors.Is(err, ErrUnknownLanguage) {
			t.Errorf("ParseLanguage(%q) error = %v, want ErrUnknownLanguage", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseLanguage(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLanguageInfo(t *testing.T) {
	tests := []struct {
		lang   Language
		label  string
		locale string
	}{
		{English, "English", "en-US"},
		{Hindi, "Hindi", "hi-IN"},
		{Telugu, "Telugu", "te-IN"},
	}

	for _, tt := range tests {
		if tt.lang.Label() != tt.label || tt.lang.Locale() != tt.locale {
			t.Errorf("%s = %s/%s, want %s/%s", tt.lang, tt.lang.Label(), tt.lang.Locale(), tt.label, tt.locale)
		}
	}

	if Language("xx").Valid() {
		t.Error("unknown language reported valid")
	}
	if len(Languages()) != 3 {
		t.Errorf("Languages() = %v", Languages())
	}
}
