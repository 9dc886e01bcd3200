package image

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"time"
)

const (
	pixabayAPIURL  = "https://pixabay.com/api/"
	pixabayTimeout = 30 * time.Second
	pixabayPerPage = 20
)

// PixabayClient implements Searcher for the Pixabay API. Pixabay has no
// random endpoint, so one result page is fetched and a hit picked from it.
type PixabayClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	rateLimit  *rateLimiter
	pick       func(n int) int
}

// pixabayResponse represents the API response structure
type pixabayResponse struct {
	Total     int            `json:"total"`
	TotalHits int            `json:"totalHits"`
	Hits      []pixabayImage `json:"hits"`
}

// pixabayImage represents a single image in the response
type pixabayImage struct {
	ID              int    `json:"id"`
	Tags            string `json:"tags"`
	PreviewURL      string `json:"previewURL"`
	WebformatURL    string `json:"webformatURL"`
	WebformatWidth  int    `json:"webformatWidth"`
	WebformatHeight int    `json:"webformatHeight"`
	LargeImageURL   string `json:"largeImageURL"`
	User            string `json:"user"`
}

// NewPixabayClient creates a new Pixabay API client
func NewPixabayClient(apiKey string, httpClient *http.Client) (*PixabayClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Pixabay API key is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: pixabayTimeout}
	}

	return &PixabayClient{
		apiKey:     apiKey,
		baseURL:    pixabayAPIURL,
		httpClient: httpClient,
		rateLimit:  newRateLimiter(100, time.Minute, 5*time.Second), // 100 requests per minute
		pick:       rand.Intn,
	}, nil
}

// RandomPhoto searches Pixabay and returns one of the hits at random
func (p *PixabayClient) RandomPhoto(ctx context.Context, opts *SearchOptions) (*SearchResult, error) {
	if err := p.rateLimit.wait(ctx, p.Name()); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("key", p.apiKey)
	params.Set("q", opts.Query)
	if opts.Language != "" {
		params.Set("lang", opts.Language)
	}
	params.Set("image_type", "photo")
	params.Set("safesearch", fmt.Sprintf("%t", opts.SafeSearch))
	params.Set("per_page", fmt.Sprintf("%d", pixabayPerPage))
	if opts.Orientation != "all" && opts.Orientation != "" {
		params.Set("orientation", opts.Orientation)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &RateLimitError{
			Provider:     p.Name(),
			RetryAfter:   60,
			LimitPerHour: 6000,
		}
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &SearchError{
			Provider: p.Name(),
			Code:     fmt.Sprintf("%d", resp.StatusCode),
			Message:  string(body),
		}
	}

	var pixResp pixabayResponse
	if err := json.NewDecoder(resp.Body).Decode(&pixResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(pixResp.Hits) == 0 {
		return nil, &SearchError{
			Provider: p.Name(),
			Code:     "empty",
			Message:  fmt.Sprintf("no images found for %q", opts.Query),
		}
	}

	hit := pixResp.Hits[p.pick(len(pixResp.Hits))]
	if hit.WebformatURL == "" {
		return nil, &SearchError{
			Provider: p.Name(),
			Code:     "malformed",
			Message:  "hit has no webformat URL",
		}
	}

	return &SearchResult{
		ID:           fmt.Sprintf("%d", hit.ID),
		URL:          hit.LargeImageURL,
		SmallURL:     hit.WebformatURL,
		ThumbnailURL: hit.PreviewURL,
		Width:        hit.WebformatWidth,
		Height:       hit.WebformatHeight,
		Description:  hit.Tags,
		Attribution:  fmt.Sprintf("Image by %s from Pixabay", hit.User),
		Source:       p.Name(),
	}, nil
}

// Name returns the name of the search provider
func (p *PixabayClient) Name() string {
	return "pixabay"
}
