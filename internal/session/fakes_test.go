package session

import (
	"context"
	"sync"

	"codeberg.org/snonux/storybuddy/internal/image"
	"codeberg.org/snonux/storybuddy/internal/story"
)

type fakeStories struct {
	mu      sync.Mutex
	text    string
	err     error
	calls   []story.Request
	started chan struct{} // receives once per call when set
	release chan struct{} // Generate waits for it when set
}

func (f *fakeStories) Generate(ctx context.Context, req story.Request) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	started, release := f.started, f.release
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return "", &story.GenerationError{Message: "cancelled", Err: ctx.Err()}
		}
	}
	return f.text, f.err
}

func (f *fakeStories) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fakeIllustrator returns urls[keyword], or the fallback for unknown
// keywords, mirroring the real illustrator's failure absorption.
type fakeIllustrator struct {
	mu      sync.Mutex
	urls    map[string]string
	queries []string
}

func (f *fakeIllustrator) Lookup(ctx context.Context, keyword string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, keyword)
	if url, ok := f.urls[keyword]; ok {
		return url
	}
	return image.FallbackURL
}

func (f *fakeIllustrator) seen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.queries...)
}

type fakeNarrator struct {
	mu        sync.Mutex
	available bool
	speakErr  error
	listenErr error

	spoken  []string
	locales []string
	onEnd   func()
	playing bool
	paused  bool
	stops   int

	listenLocale string
	onTranscript func(string)
	onDone       func()
	relocales    []string
}

func newFakeNarrator() *fakeNarrator {
	return &fakeNarrator{available: true}
}

func (f *fakeNarrator) Available() bool { return f.available }

func (f *fakeNarrator) StartListening(ctx context.Context, locale string, onTranscript func(string), onDone func()) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listenErr != nil {
		return f.listenErr
	}
	f.listenLocale = locale
	f.onTranscript = onTranscript
	f.onDone = onDone
	return nil
}

func (f *fakeNarrator) StopListening() {
	f.mu.Lock()
	done := f.onDone
	f.onDone = nil
	f.onTranscript = nil
	f.mu.Unlock()
	if done != nil {
		done()
	}
}

// hear simulates a final transcript followed by the end of the session.
func (f *fakeNarrator) hear(text string) {
	f.mu.Lock()
	deliver, done := f.onTranscript, f.onDone
	f.onTranscript, f.onDone = nil, nil
	f.mu.Unlock()
	if deliver != nil {
		deliver(text)
	}
	if done != nil {
		done()
	}
}

func (f *fakeNarrator) Relocale(locale string) {
	f.mu.Lock()
	f.relocales = append(f.relocales, locale)
	f.mu.Unlock()
}

func (f *fakeNarrator) Speak(ctx context.Context, text, locale string, onEnd func()) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.speakErr != nil {
		return f.speakErr
	}
	f.spoken = append(f.spoken, text)
	f.locales = append(f.locales, locale)
	f.onEnd = onEnd
	f.playing = true
	f.paused = false
	return nil
}

// finish simulates narration running out.
func (f *fakeNarrator) finish() {
	f.mu.Lock()
	onEnd := f.onEnd
	f.onEnd = nil
	f.playing, f.paused = false, false
	f.mu.Unlock()
	if onEnd != nil {
		onEnd()
	}
}

func (f *fakeNarrator) Pause() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.playing || f.paused {
		return false
	}
	f.paused = true
	return true
}

func (f *fakeNarrator) Resume() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.paused {
		return false
	}
	f.paused = false
	return true
}

func (f *fakeNarrator) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	f.onEnd = nil
	f.playing, f.paused = false, false
}

func (f *fakeNarrator) isPlaying() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.playing
}

func (f *fakeNarrator) stopCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stops
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (r *recordingNotifier) Notify(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
}

func (r *recordingNotifier) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.messages...)
}
