package gui

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// Fetcher downloads one illustration. *image.Downloader implements it.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// LoadStatus represents the current state of an illustration load
type LoadStatus int

const (
	StatusQueued LoadStatus = iota
	StatusLoading
	StatusLoaded
	StatusFailed
)

func (s LoadStatus) String() string {
	switch s {
	case StatusQueued:
		return "Queued"
	case StatusLoading:
		return "Loading"
	case StatusLoaded:
		return "Loaded"
	case StatusFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// ImageJob is one illustration to fetch for a story panel
type ImageJob struct {
	Index  int
	URL    string
	Data   []byte
	Status LoadStatus
	Error  error

	generation uint64
}

// ImageQueue fetches illustrations one at a time, in story order, and
// caches them by URL. Reset drops everything queued for the previous story.
type ImageQueue struct {
	fetcher Fetcher
	log     logrus.FieldLogger

	jobs chan *ImageJob

	mu         sync.Mutex
	cache      map[string][]byte
	generation uint64
	onComplete func(job *ImageJob)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewImageQueue creates a queue and starts its worker
func NewImageQueue(ctx context.Context, fetcher Fetcher, log logrus.FieldLogger) *ImageQueue {
	queueCtx, cancel := context.WithCancel(ctx)

	q := &ImageQueue{
		fetcher: fetcher,
		log:     log,
		jobs:    make(chan *ImageJob, 32),
		cache:   make(map[string][]byte),
		ctx:     queueCtx,
		cancel:  cancel,
	}

	q.wg.Add(1)
	go q.worker()

	return q
}

// SetCallback sets the function called when a job finishes. It runs on
// the worker goroutine.
func (q *ImageQueue) SetCallback(onComplete func(job *ImageJob)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.onComplete = onComplete
}

// Add queues the illustration of panel index
func (q *ImageQueue) Add(index int, url string) *ImageJob {
	q.mu.Lock()
	job := &ImageJob{Index: index, URL: url, Status: StatusQueued, generation: q.generation}
	q.mu.Unlock()

	select {
	case q.jobs <- job:
	case <-q.ctx.Done():
		job.Status = StatusFailed
		job.Error = q.ctx.Err()
	}
	return job
}

// Reset discards queued and in-flight jobs of the current story. The
// cache survives.
func (q *ImageQueue) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.generation++
}

// Stop stops the worker and waits for it
func (q *ImageQueue) Stop() {
	q.cancel()
	q.wg.Wait()
}

func (q *ImageQueue) worker() {
	defer q.wg.Done()

	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			q.process(job)
		}
	}
}

func (q *ImageQueue) current(job *ImageJob) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return job.generation == q.generation
}

func (q *ImageQueue) process(job *ImageJob) {
	if !q.current(job) {
		return
	}

	q.mu.Lock()
	data, cached := q.cache[job.URL]
	q.mu.Unlock()

	if cached {
		job.Data = data
		job.Status = StatusLoaded
	} else {
		job.Status = StatusLoading
		data, err := q.fetcher.Fetch(q.ctx, job.URL)
		if err != nil {
			job.Status = StatusFailed
			job.Error = err
			q.log.WithFields(logrus.Fields{"url": job.URL, "panel": job.Index + 1}).WithError(err).Warn("illustration download failed")
		} else {
			job.Data = data
			job.Status = StatusLoaded
			q.mu.Lock()
			q.cache[job.URL] = data
			q.mu.Unlock()
		}
	}

	q.mu.Lock()
	stale := job.generation != q.generation
	onComplete := q.onComplete
	q.mu.Unlock()

	if !stale && onComplete != nil {
		onComplete(job)
	}
}
