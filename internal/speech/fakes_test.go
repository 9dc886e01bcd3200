package speech

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeSynth struct {
	mu        sync.Mutex
	voices    []Voice
	gotText   []string
	gotVoices []Voice
	err       error
	block     chan struct{} // when set, Synthesize waits for close or ctx
}

func (f *fakeSynth) Name() string    { return "fake" }
func (f *fakeSynth) Voices() []Voice { return f.voices }

func (f *fakeSynth) Synthesize(ctx context.Context, text string, voice Voice) (*Audio, error) {
	f.mu.Lock()
	f.gotText = append(f.gotText, text)
	f.gotVoices = append(f.gotVoices, voice)
	block := f.block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &Audio{PCM: make([]byte, 3200), SampleRate: 16000, Channels: 1}, nil
}

func (f *fakeSynth) lastVoice() Voice {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.gotVoices) == 0 {
		return Voice{}
	}
	return f.gotVoices[len(f.gotVoices)-1]
}

type fakeDevice struct {
	mu      sync.Mutex
	played  chan *Audio
	onDone  []func()
	pauses  int
	resumes int
	stops   int
	playErr error

	recordPCM   []byte
	recordErr   error
	recordBlock bool
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{played: make(chan *Audio, 4)}
}

func (d *fakeDevice) Play(audio *Audio, onDone func()) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.playErr != nil {
		return d.playErr
	}
	d.onDone = append(d.onDone, onDone)
	d.played <- audio
	return nil
}

// finish simulates the n-th played clip running out.
func (d *fakeDevice) finish(n int) {
	d.mu.Lock()
	cb := d.onDone[n]
	d.mu.Unlock()
	cb()
}

func (d *fakeDevice) Pause() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pauses++
	return nil
}

func (d *fakeDevice) Resume() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resumes++
	return nil
}

func (d *fakeDevice) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stops++
	return nil
}

func (d *fakeDevice) stopCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stops
}

func (d *fakeDevice) Record(ctx context.Context, sampleRate int, max time.Duration) ([]byte, error) {
	if d.recordBlock {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return d.recordPCM, d.recordErr
}

func (d *fakeDevice) Close() error { return nil }

type fakeTranscriber struct {
	mu        sync.Mutex
	text      string
	err       error
	gotLocale string
	gotWAV    []byte
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, wav []byte, locale string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gotLocale = locale
	f.gotWAV = wav
	return f.text, f.err
}

var errFake = errors.New("fake failure")

func waitPlayed(t *testing.T, d *fakeDevice) *Audio {
	t.Helper()
	select {
	case a := <-d.played:
		return a
	case <-time.After(2 * time.Second):
		t.Fatal("audio was never played")
		return nil
	}
}

func waitSignal(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func eventually(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition never met: %s", what)
}
