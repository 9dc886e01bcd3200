package image

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDownloaderFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.jpg":
			w.Write([]byte("jpeg-bytes"))
		case "/big.jpg":
			w.Write([]byte(strings.Repeat("x", 64)))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	d := NewDownloader(server.Client(), 32)

	data, err := d.Fetch(context.Background(), server.URL+"/ok.jpg")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(data) != "jpeg-bytes" {
		t.Errorf("Fetch() = %q", data)
	}

	if _, err := d.Fetch(context.Background(), server.URL+"/big.jpg"); err == nil {
		t.Error("expected size limit error")
	}
	if _, err := d.Fetch(context.Background(), server.URL+"/missing.jpg"); err == nil {
		t.Error("expected status error")
	}
}

func TestNewDownloaderDefaults(t *testing.T) {
	d := NewDownloader(nil, 0)
	if d.maxSizeBytes != DefaultMaxSizeBytes {
		t.Errorf("maxSizeBytes = %d, want %d", d.maxSizeBytes, DefaultMaxSizeBytes)
	}
	if d.httpClient == nil {
		t.Error("httpClient is nil")
	}
}

func TestDownloaderSaveAll(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/broken" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("img:" + r.URL.Path))
	}))
	defer server.Close()

	dir := filepath.Join(t.TempDir(), "run")
	d := NewDownloader(server.Client(), 0)

	urls := []string{
		server.URL + "/photo-1?w=400",
		server.URL + "/broken",
		server.URL + "/b.png",
	}
	paths, err := d.SaveAll(context.Background(), dir, []string{"big tiger", "moon", "sun"}, urls)
	if err == nil {
		t.Error("expected error for the broken URL")
	}
	if len(paths) != 2 {
		t.Fatalf("paths = %v, want 2 entries", paths)
	}

	want := []string{"illustration_1_big_tiger.jpg", "illustration_3_sun.png"}
	for i, p := range paths {
		if filepath.Base(p) != want[i] {
			t.Errorf("path[%d] = %s, want %s", i, filepath.Base(p), want[i])
		}
		if _, err := os.Stat(p); err != nil {
			t.Errorf("file not written: %v", err)
		}
	}
}

func TestIllustrationFileName(t *testing.T) {
	tests := []struct {
		index   int
		keyword string
		url     string
		want    string
	}{
		{0, "tiger", "https://images.unsplash.com/photo-1?ixid=x&w=400", "illustration_1_tiger.jpg"},
		{1, "", FallbackURL, "illustration_2.jpg"},
		{4, "owl", "https://pixabay.com/get/abc_640.PNG", "illustration_5_owl.png"},
	}
	for _, tt := range tests {
		if got := illustrationFileName(tt.index, tt.keyword, tt.url); got != tt.want {
			t.Errorf("illustrationFileName(%d, %q, %q) = %q, want %q", tt.index, tt.keyword, tt.url, got, tt.want)
		}
	}
}
