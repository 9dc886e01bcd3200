package image

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"
)

func newTestUnsplash(t *testing.T, handler http.HandlerFunc) (*UnsplashClient, *int32) {
	t.Helper()

	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	client, err := NewUnsplashClient("test-key", server.Client())
	if err != nil {
		t.Fatalf("NewUnsplashClient() error = %v", err)
	}
	client.baseURL = server.URL
	return client, &calls
}

func TestNewUnsplashClient(t *testing.T) {
	if _, err := NewUnsplashClient("", nil); err == nil {
		t.Error("Expected error for missing access key")
	}

	client, err := NewUnsplashClient("key", nil)
	if err != nil {
		t.Fatalf("NewUnsplashClient() error = %v", err)
	}
	if client.Name() != "unsplash" {
		t.Errorf("Name() = %q", client.Name())
	}
	if client.httpClient.Timeout != unsplashTimeout {
		t.Errorf("Timeout = %v, want %v", client.httpClient.Timeout, unsplashTimeout)
	}
}

func TestUnsplashSetHourlyLimit(t *testing.T) {
	client, err := NewUnsplashClient("key", nil)
	if err != nil {
		t.Fatal(err)
	}
	if client.rateLimit.limit != 50 || client.rateLimit.window != time.Hour {
		t.Fatalf("default limit = %d per %v, want 50 per hour", client.rateLimit.limit, client.rateLimit.window)
	}

	client.SetHourlyLimit(0)
	if client.rateLimit.limit != 50 {
		t.Errorf("zero must keep the default, got %d", client.rateLimit.limit)
	}

	client.SetHourlyLimit(5000)
	if client.rateLimit.limit != 5000 || client.rateLimit.window != time.Hour {
		t.Errorf("limit = %d per %v, want 5000 per hour", client.rateLimit.limit, client.rateLimit.window)
	}
}

func TestUnsplashRandomPhoto(t *testing.T) {
	client, calls := newTestUnsplash(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/photos/random" {
			t.Errorf("path = %s, want /photos/random", r.URL.Path)
		}
		if q := r.URL.Query().Get("query"); q != "tiger" {
			t.Errorf("query = %q, want tiger", q)
		}
		if r.URL.Query().Get("content_filter") != "high" {
			t.Error("safe search not requested")
		}
		if r.Header.Get("Authorization") != "Client-ID test-key" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		if r.Header.Get("Accept-Version") != "v1" {
			t.Errorf("Accept-Version = %q", r.Header.Get("Accept-Version"))
		}
		w.Write([]byte(`{
			"id": "abc",
			"width": 4000, "height": 3000,
			"alt_description": "a tiger resting",
			"urls": {"regular": "https://images.example/abc?w=1080", "small": "https://images.example/abc?w=400", "thumb": "https://images.example/abc?w=200"},
			"user": {"username": "jdoe", "name": "Jane Doe"}
		}`))
	})

	result, err := client.RandomPhoto(context.Background(), DefaultSearchOptions("tiger"))
	if err != nil {
		t.Fatalf("RandomPhoto() error = %v", err)
	}

	if result.SmallURL != "https://images.example/abc?w=400" {
		t.Errorf("SmallURL = %q", result.SmallURL)
	}
	if result.Description != "a tiger resting" {
		t.Errorf("Description = %q", result.Description)
	}
	if result.Attribution != "Photo by Jane Doe on Unsplash" {
		t.Errorf("Attribution = %q", result.Attribution)
	}
	if result.Source != "unsplash" {
		t.Errorf("Source = %q", result.Source)
	}
	if n := atomic.LoadInt32(calls); n != 1 {
		t.Errorf("calls = %d, want 1", n)
	}
}

func TestUnsplashRandomPhotoErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		headers   map[string]string
		body      string
		wantRate  bool
		wantCode  string
		wantMsg   string
	}{
		{
			name:    "unauthorized",
			status:  http.StatusUnauthorized,
			body:    `{"errors":["OAuth error: The access token is invalid"]}`,
			wantCode: "401",
			wantMsg: "Invalid access key",
		},
		{
			name:     "rate limited",
			status:   http.StatusForbidden,
			headers:  map[string]string{"X-Ratelimit-Remaining": "0"},
			body:     "Rate Limit Exceeded",
			wantRate: true,
		},
		{
			name:     "not found",
			status:   http.StatusNotFound,
			body:     `{"errors":["No photos found."]}`,
			wantCode: "404",
			wantMsg:  "No photos found.",
		},
		{
			name:     "missing small url",
			status:   http.StatusOK,
			body:     `{"id":"x","urls":{"regular":"r"}}`,
			wantCode: "malformed",
			wantMsg:  "response has no small image URL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestUnsplash(t, func(w http.ResponseWriter, r *http.Request) {
				for k, v := range tt.headers {
					w.Header().Set(k, v)
				}
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := client.RandomPhoto(context.Background(), DefaultSearchOptions("tiger"))
			if err == nil {
				t.Fatal("expected error")
			}

			if tt.wantRate {
				var rateErr *RateLimitError
				if !errors.As(err, &rateErr) {
					t.Errorf("error = %v, want RateLimitError", err)
				}
				return
			}

			var searchErr *SearchError
			if !errors.As(err, &searchErr) {
				t.Fatalf("error = %v, want SearchError", err)
			}
			if searchErr.Code != tt.wantCode || searchErr.Message != tt.wantMsg {
				t.Errorf("SearchError = %+v, want code %q message %q", searchErr, tt.wantCode, tt.wantMsg)
			}
		})
	}
}

func TestUnsplashMalformedJSON(t *testing.T) {
	client, _ := newTestUnsplash(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	})

	if _, err := client.RandomPhoto(context.Background(), DefaultSearchOptions("tiger")); err == nil {
		t.Error("expected decode error")
	}
}

func TestUnsplashIntegration(t *testing.T) {
	key := os.Getenv("UNSPLASH_ACCESS_KEY")
	if key == "" {
		t.Skip("Skipping integration test: UNSPLASH_ACCESS_KEY not set")
	}

	client, err := NewUnsplashClient(key, nil)
	if err != nil {
		t.Fatal(err)
	}
	result, err := client.RandomPhoto(context.Background(), DefaultSearchOptions("tiger"))
	if err != nil {
		t.Fatalf("RandomPhoto() error = %v", err)
	}
	if result.SmallURL == "" {
		t.Error("empty small URL")
	}
}
