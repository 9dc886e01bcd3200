package internal

import (
	"regexp"
	"testing"
)

func TestGenerateRunID(t *testing.T) {
	id := GenerateRunID("A brave little tiger")
	if !regexp.MustCompile(`^\d+_[0-9a-f]{8}$`).MatchString(id) {
		t.Errorf("GenerateRunID() = %q, want epochMillis_hash", id)
	}

	// Same topic, different case, same hash suffix
	a := GenerateRunID("Tiger")
	b := GenerateRunID("  tiger ")
	if a[len(a)-8:] != b[len(b)-8:] {
		t.Errorf("hash suffix differs: %s vs %s", a, b)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"tiger", "tiger"},
		{"big cat", "big_cat"},
		{"a/b\\c", "a_b_c"},
		{"mango-tree_2", "mango-tree_2"},
		{"बाघ", "___"},
	}

	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
