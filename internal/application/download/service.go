package download

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	domain "github.com/Godhunder/discord-downloader1/internal/domain/download"
)

// Service owns the download queue. Jobs drain strictly in arrival order with
// at most one extraction running at any instant; a job failure never stalls
// the queue.
type Service struct {
	tool     Tool
	store    Store
	notifier Notifier
	sessions Sessions
	logger   *log.Logger

	baseURL    string
	expiry     time.Duration
	jobTimeout time.Duration // zero means unbounded

	mu        sync.Mutex
	queue     []domain.Job
	busy      bool
	lastStamp int64

	now func() time.Time
}

// NewService creates the queue service with injected ports.
func NewService(tool Tool, store Store, notifier Notifier, sessions Sessions, logger *log.Logger, baseURL string, expiry, jobTimeout time.Duration) *Service {
	return &Service{
		tool:       tool,
		store:      store,
		notifier:   notifier,
		sessions:   sessions,
		logger:     logger,
		baseURL:    baseURL,
		expiry:     expiry,
		jobTimeout: jobTimeout,
		now:        time.Now,
	}
}

// Enqueue appends a fully specified job and returns it together with its
// 1-based position in line. The queue is unbounded; enqueue never fails.
func (s *Service) Enqueue(requester, sourceURL, selector string, mediaType domain.MediaType) (domain.Job, int) {
	job := domain.Job{
		ID:             uuid.NewString(),
		Requester:      requester,
		SourceURL:      sourceURL,
		FormatSelector: selector,
		MediaType:      mediaType,
		EnqueuedAt:     s.now(),
	}

	s.mu.Lock()
	s.queue = append(s.queue, job)
	position := len(s.queue)
	s.mu.Unlock()

	go s.runNext()
	return job, position
}

// Depth reports the number of jobs waiting (excluding any executing job).
func (s *Service) Depth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// runNext claims the queue head unless a job is already executing, runs it,
// and keeps draining whatever queued up in the meantime.
func (s *Service) runNext() {
	for {
		s.mu.Lock()
		if s.busy || len(s.queue) == 0 {
			s.mu.Unlock()
			return
		}
		job := s.queue[0]
		s.queue = s.queue[1:]
		s.busy = true
		s.mu.Unlock()

		s.execute(job)

		s.mu.Lock()
		s.busy = false
		s.mu.Unlock()
	}
}

// claimStamp returns the claim timestamp for the next execution, bumped past
// the previous one so produced file names never collide within a process
// lifetime.
func (s *Service) claimStamp() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	stamp := s.now().UnixMilli()
	if stamp <= s.lastStamp {
		stamp = s.lastStamp + 1
	}
	s.lastStamp = stamp
	return stamp
}

func (s *Service) execute(job domain.Job) {
	name := domain.OutputName(job.MediaType, time.UnixMilli(s.claimStamp()))
	outputPath := s.store.Path(name)

	s.notifier.Notify(job.Requester, fmt.Sprintf("Downloading %s...", job.MediaType))

	ctx := context.Background()
	if s.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.jobTimeout)
		defer cancel()
	}

	err := s.tool.Fetch(ctx, job, outputPath)
	var file domain.File
	if err == nil {
		file, err = s.store.Stat(name)
		if err != nil {
			err = fmt.Errorf("%w: %s", domain.ErrOutputMissing, name)
		}
	}

	if err != nil {
		s.logger.Printf("job %s failed: %v", job.ID, err)
		s.notifier.Notify(job.Requester, fmt.Sprintf("%s download failed", job.MediaType))
	} else {
		link := s.baseURL + "/downloads/" + name
		s.notifier.Notify(job.Requester, fmt.Sprintf("Done (%s), link expires in %s: %s", formatSize(file.Size), s.expiry, link))
	}

	s.sessions.End(job.Requester)
}

func formatSize(bytes int64) string {
	const mb = 1 << 20
	if bytes >= mb {
		return fmt.Sprintf("%.1f MB", float64(bytes)/mb)
	}
	return fmt.Sprintf("%.1f KB", float64(bytes)/(1<<10))
}
