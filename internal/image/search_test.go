package image

import (
	"context"
	"errors"
	"testing"
)

// mockSearcher implements Searcher for testing
type mockSearcher struct {
	name    string
	result  *SearchResult
	err     error
	queries []string
}

func (m *mockSearcher) RandomPhoto(ctx context.Context, opts *SearchOptions) (*SearchResult, error) {
	m.queries = append(m.queries, opts.Query)
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func (m *mockSearcher) Name() string {
	return m.name
}

func TestDefaultSearchOptions(t *testing.T) {
	opts := DefaultSearchOptions("tiger")

	if opts.Query != "tiger" {
		t.Errorf("Expected query 'tiger', got '%s'", opts.Query)
	}
	if opts.Language != "en" {
		t.Errorf("Expected language 'en', got '%s'", opts.Language)
	}
	if !opts.SafeSearch {
		t.Error("Expected SafeSearch to be true")
	}
	if opts.Orientation != "all" {
		t.Errorf("Expected orientation 'all', got '%s'", opts.Orientation)
	}
}

func TestSearchError(t *testing.T) {
	err := &SearchError{
		Provider: "test",
		Code:     "404",
		Message:  "Not found",
	}

	expected := "test: Not found"
	if err.Error() != expected {
		t.Errorf("Expected error '%s', got '%s'", expected, err.Error())
	}
}

func TestRateLimitError(t *testing.T) {
	err := &RateLimitError{
		Provider:     "test",
		RetryAfter:   60,
		LimitPerHour: 100,
	}

	expected := "test: rate limit exceeded"
	if err.Error() != expected {
		t.Errorf("Expected error '%s', got '%s'", expected, err.Error())
	}
}

func TestLookupError(t *testing.T) {
	cause := &SearchError{Provider: "unsplash", Code: "500", Message: "down"}
	err := &LookupError{Keyword: "tiger", Provider: "unsplash", Err: cause}

	expected := `image lookup for "tiger" via unsplash: unsplash: down`
	if err.Error() != expected {
		t.Errorf("Expected error '%s', got '%s'", expected, err.Error())
	}

	var searchErr *SearchError
	if !errors.As(err, &searchErr) {
		t.Error("LookupError should unwrap to SearchError")
	}
}

func TestMapOrientation(t *testing.T) {
	tests := map[string]string{
		"horizontal": "landscape",
		"vertical":   "portrait",
		"all":        "",
		"":           "",
	}
	for in, want := range tests {
		if got := mapOrientation(in); got != want {
			t.Errorf("mapOrientation(%q) = %q, want %q", in, got, want)
		}
	}
}
