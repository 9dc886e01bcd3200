// Package image looks up illustrations for story keywords.
//
// A Searcher talks to one photo provider and returns a single random photo
// for a query. The Illustrator wraps a Searcher for the story workflow: it
// never fails outward and falls back to a fixed placeholder URL.
package image

import (
	"context"
	"fmt"
)

// SearchResult represents a single photo returned by a provider
type SearchResult struct {
	ID           string // Unique identifier
	URL          string // Full-size rendition
	SmallURL     string // Small rendition shown next to a paragraph
	ThumbnailURL string // Thumbnail rendition
	Width        int    // Image width in pixels
	Height       int    // Image height in pixels
	Description  string // Image description or tags
	Attribution  string // Attribution text required by the provider
	Source       string // Source provider (e.g., "pixabay", "unsplash")
}

// SearchOptions configures a photo lookup
type SearchOptions struct {
	Query       string // Search keyword
	Language    string // Query language code (Pixabay only)
	SafeSearch  bool   // Enable safe search filtering
	Orientation string // "horizontal", "vertical" or "all"
}

// DefaultSearchOptions returns child-safe defaults for a keyword lookup
func DefaultSearchOptions(query string) *SearchOptions {
	return &SearchOptions{
		Query:       query,
		Language:    "en",
		SafeSearch:  true,
		Orientation: "all",
	}
}

// Searcher returns one random photo per lookup. Implementations make at
// most one outbound request per call.
type Searcher interface {
	RandomPhoto(ctx context.Context, opts *SearchOptions) (*SearchResult, error)

	// Name returns the name of the search provider
	Name() string
}

// SearchError represents an error from an image search provider
type SearchError struct {
	Provider string
	Code     string
	Message  string
}

func (e *SearchError) Error() string {
	return e.Provider + ": " + e.Message
}

// RateLimitError indicates that the API rate limit has been exceeded
type RateLimitError struct {
	Provider     string
	RetryAfter   int // Seconds to wait before retry
	LimitPerHour int
}

func (e *RateLimitError) Error() string {
	return e.Provider + ": rate limit exceeded"
}

// LookupError records why a keyword fell back to the placeholder image.
type LookupError struct {
	Keyword  string
	Provider string
	Err      error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("image lookup for %q via %s: %v", e.Keyword, e.Provider, e.Err)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}
