package gui

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"codeberg.org/snonux/storybuddy/internal/logging"
)

type fakeFetcher struct {
	mu    sync.Mutex
	data  map[string][]byte
	calls []string
	gate  chan struct{} // Fetch waits for it when set
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if data, ok := f.data[url]; ok {
		return data, nil
	}
	return nil, errors.New("not found")
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func collectJobs(q *ImageQueue) <-chan *ImageJob {
	done := make(chan *ImageJob, 16)
	q.SetCallback(func(job *ImageJob) { done <- job })
	return done
}

func waitJob(t *testing.T, done <-chan *ImageJob) *ImageJob {
	t.Helper()
	select {
	case job := <-done:
		return job
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for job")
		return nil
	}
}

func TestImageQueue_LoadsInOrder(t *testing.T) {
	fetcher := &fakeFetcher{data: map[string][]byte{
		"https://img/1": []byte("one"),
		"https://img/2": []byte("two"),
	}}
	q := NewImageQueue(context.Background(), fetcher, logging.Discard())
	defer q.Stop()
	done := collectJobs(q)

	q.Add(0, "https://img/1")
	q.Add(1, "https://img/2")
	q.Add(2, "https://img/missing")

	first := waitJob(t, done)
	if first.Index != 0 || first.Status != StatusLoaded || string(first.Data) != "one" {
		t.Errorf("unexpected first job: %+v", first)
	}
	second := waitJob(t, done)
	if second.Index != 1 || string(second.Data) != "two" {
		t.Errorf("unexpected second job: %+v", second)
	}
	third := waitJob(t, done)
	if third.Status != StatusFailed || third.Error == nil {
		t.Errorf("missing image must fail: %+v", third)
	}
}

func TestImageQueue_CachesByURL(t *testing.T) {
	fetcher := &fakeFetcher{data: map[string][]byte{"https://img/1": []byte("one")}}
	q := NewImageQueue(context.Background(), fetcher, logging.Discard())
	defer q.Stop()
	done := collectJobs(q)

	q.Add(0, "https://img/1")
	waitJob(t, done)
	q.Add(3, "https://img/1")
	job := waitJob(t, done)

	if job.Index != 3 || string(job.Data) != "one" {
		t.Errorf("unexpected cached job: %+v", job)
	}
	if got := fetcher.callCount(); got != 1 {
		t.Errorf("expected 1 download, got %d", got)
	}
}

func TestImageQueue_ResetDropsStaleJobs(t *testing.T) {
	fetcher := &fakeFetcher{
		data: map[string][]byte{"https://img/old": []byte("old"), "https://img/new": []byte("new")},
		gate: make(chan struct{}),
	}
	q := NewImageQueue(context.Background(), fetcher, logging.Discard())
	defer q.Stop()
	done := collectJobs(q)

	q.Add(0, "https://img/old")
	// wait until the old download is in flight
	deadline := time.Now().Add(5 * time.Second)
	for fetcher.callCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	q.Reset()
	q.Add(0, "https://img/new")
	close(fetcher.gate)

	job := waitJob(t, done)
	if job.URL != "https://img/new" {
		t.Errorf("stale job delivered: %+v", job)
	}
	select {
	case extra := <-done:
		t.Errorf("unexpected extra job: %+v", extra)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestLoadStatus_String(t *testing.T) {
	tests := map[LoadStatus]string{
		StatusQueued:  "Queued",
		StatusLoading: "Loading",
		StatusLoaded:  "Loaded",
		StatusFailed:  "Failed",
		LoadStatus(9): "Unknown",
	}
	for status, want := range tests {
		if got := status.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", status, got, want)
		}
	}
}
