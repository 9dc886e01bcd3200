package image

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	unsplashAPIURL  = "https://api.unsplash.com"
	unsplashTimeout = 30 * time.Second
)

// UnsplashClient implements Searcher for the Unsplash API
type UnsplashClient struct {
	accessKey  string
	baseURL    string
	httpClient *http.Client
	rateLimit  *rateLimiter
}

// unsplashPhoto represents a photo in the response
type unsplashPhoto struct {
	ID          string             `json:"id"`
	Width       int                `json:"width"`
	Height      int                `json:"height"`
	Description string             `json:"description"`
	AltDesc     string             `json:"alt_description"`
	URLs        unsplashPhotoURLs  `json:"urls"`
	Links       unsplashPhotoLinks `json:"links"`
	User        unsplashUser       `json:"user"`
}

// unsplashPhotoURLs contains various size URLs
type unsplashPhotoURLs struct {
	Raw     string `json:"raw"`
	Full    string `json:"full"`
	Regular string `json:"regular"`
	Small   string `json:"small"`
	Thumb   string `json:"thumb"`
}

// unsplashPhotoLinks contains photo-related links
type unsplashPhotoLinks struct {
	HTML     string `json:"html"`
	Download string `json:"download"`
}

// unsplashUser represents the photo author
type unsplashUser struct {
	Username string `json:"username"`
	Name     string `json:"name"`
}

// unsplashErrors is the error payload of the API
type unsplashErrors struct {
	Errors []string `json:"errors"`
}

// NewUnsplashClient creates a new Unsplash API client. A nil httpClient
// gets a plain client with the default timeout.
func NewUnsplashClient(accessKey string, httpClient *http.Client) (*UnsplashClient, error) {
	if accessKey == "" {
		return nil, fmt.Errorf("Unsplash access key is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: unsplashTimeout}
	}

	return &UnsplashClient{
		accessKey:  accessKey,
		baseURL:    unsplashAPIURL,
		httpClient: httpClient,
		// Demo applications get 50 requests per hour
		rateLimit: newRateLimiter(50, time.Hour, 5*time.Second),
	}, nil
}

// SetHourlyLimit replaces the demo limit, e.g. with the 5000 requests per
// hour of an approved production application. Non-positive values are ignored.
func (u *UnsplashClient) SetHourlyLimit(limit int) {
	if limit > 0 {
		u.rateLimit = newRateLimiter(limit, time.Hour, u.rateLimit.maxWait)
	}
}

// RandomPhoto fetches one random photo matching the query
func (u *UnsplashClient) RandomPhoto(ctx context.Context, opts *SearchOptions) (*SearchResult, error) {
	if err := u.rateLimit.wait(ctx, u.Name()); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("query", opts.Query)
	if opts.SafeSearch {
		params.Set("content_filter", "high")
	}
	if o := mapOrientation(opts.Orientation); o != "" {
		params.Set("orientation", o)
	}

	reqURL := u.baseURL + "/photos/random?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Client-ID "+u.accessKey)
	req.Header.Set("Accept-Version", "v1")

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests ||
		(resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-Ratelimit-Remaining") == "0"):
		return nil, &RateLimitError{
			Provider:     u.Name(),
			RetryAfter:   3600,
			LimitPerHour: 50,
		}
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, &SearchError{
			Provider: u.Name(),
			Code:     "401",
			Message:  "Invalid access key",
		}
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &SearchError{
			Provider: u.Name(),
			Code:     fmt.Sprintf("%d", resp.StatusCode),
			Message:  unsplashErrorMessage(body),
		}
	}

	var photo unsplashPhoto
	if err := json.NewDecoder(resp.Body).Decode(&photo); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if photo.URLs.Small == "" {
		return nil, &SearchError{
			Provider: u.Name(),
			Code:     "malformed",
			Message:  "response has no small image URL",
		}
	}

	description := photo.Description
	if description == "" {
		description = photo.AltDesc
	}

	return &SearchResult{
		ID:           photo.ID,
		URL:          photo.URLs.Regular,
		SmallURL:     photo.URLs.Small,
		ThumbnailURL: photo.URLs.Thumb,
		Width:        photo.Width,
		Height:       photo.Height,
		Description:  description,
		Attribution:  u.formatAttribution(&photo),
		Source:       u.Name(),
	}, nil
}

// Name returns the name of the search provider
func (u *UnsplashClient) Name() string {
	return "unsplash"
}

// formatAttribution creates the proper attribution string as per Unsplash guidelines
func (u *UnsplashClient) formatAttribution(photo *unsplashPhoto) string {
	return fmt.Sprintf("Photo by %s on Unsplash", photo.User.Name)
}

func unsplashErrorMessage(body []byte) string {
	var payload unsplashErrors
	if err := json.Unmarshal(body, &payload); err == nil && len(payload.Errors) > 0 {
		return strings.Join(payload.Errors, "; ")
	}
	return strings.TrimSpace(string(body))
}

// mapOrientation maps our orientation values to Unsplash API values
func mapOrientation(orientation string) string {
	switch orientation {
	case "horizontal":
		return "landscape"
	case "vertical":
		return "portrait"
	default:
		return ""
	}
}
