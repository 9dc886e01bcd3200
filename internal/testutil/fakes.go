package testutil

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"

	"codeberg.org/snonux/storybuddy/internal/story"
)

// StoryRecorder is a story.Generator returning fixed text or error and
// recording every request.
type StoryRecorder struct {
	Text string
	Err  error

	mu       sync.Mutex
	requests []story.Request
}

// Generate implements story.Generator
func (r *StoryRecorder) Generate(ctx context.Context, req story.Request) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
	if r.Err != nil {
		return "", r.Err
	}
	return r.Text, nil
}

// Requests returns a copy of the recorded requests
func (r *StoryRecorder) Requests() []story.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]story.Request{}, r.requests...)
}

// URLIllustrator answers every keyword with Base + "/" + keyword + Ext.
type URLIllustrator struct {
	Base string
	Ext  string // default ".jpg"
}

// Lookup implements the session illustrator
func (u URLIllustrator) Lookup(ctx context.Context, keyword string) string {
	ext := u.Ext
	if ext == "" {
		ext = ".jpg"
	}
	return u.Base + "/" + keyword + ext
}

// PNGData returns a valid w x h PNG image.
func PNGData(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 0xff, G: 0xd5, B: 0x4f, A: 0xff})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
