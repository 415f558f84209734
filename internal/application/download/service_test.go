package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"testing"
	"time"

	domain "github.com/Godhunder/discord-downloader1/internal/domain/download"
)

type stubTool struct {
	mu      sync.Mutex
	fetched []domain.Job
	block   chan struct{} // if set, Fetch waits until closed
	errFor  map[string]error
	active  int
	maxSeen int
}

func (t *stubTool) Fetch(_ context.Context, job domain.Job, _ string) error {
	t.mu.Lock()
	t.active++
	if t.active > t.maxSeen {
		t.maxSeen = t.active
	}
	block := t.block
	t.mu.Unlock()

	if block != nil {
		<-block
	}

	t.mu.Lock()
	t.active--
	t.fetched = append(t.fetched, job)
	err := t.errFor[job.SourceURL]
	t.mu.Unlock()
	return err
}

type stubStore struct {
	mu      sync.Mutex
	missing map[string]bool
	size    int64
}

func (s *stubStore) Path(name string) string { return "/tmp/downloads/" + name }

func (s *stubStore) Stat(name string) (domain.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.missing[name] {
		return domain.File{}, errors.New("stat: no such file")
	}
	return domain.File{Name: name, Size: s.size, ModifiedAt: time.Now()}, nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
	done     chan string // receives terminal messages (done/failed)
}

func (n *recordingNotifier) Notify(requester, message string) {
	n.mu.Lock()
	n.messages = append(n.messages, requester+": "+message)
	n.mu.Unlock()
	if n.done != nil && !strings.Contains(message, "Downloading") {
		n.done <- requester + ": " + message
	}
}

type recordingSessions struct {
	mu    sync.Mutex
	ended []string
}

func (s *recordingSessions) End(requester string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ended = append(s.ended, requester)
}

func newTestService(tool *stubTool, store *stubStore, notifier *recordingNotifier, sessions *recordingSessions) *Service {
	logger := log.New(io.Discard, "", 0)
	return NewService(tool, store, notifier, sessions, logger, "https://dl.example.com", 4*time.Hour, 0)
}

func waitTerminal(t *testing.T, done chan string) string {
	t.Helper()
	select {
	case msg := <-done:
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for terminal notification")
		return ""
	}
}

// extractLink pulls the download link out of a success notification.
func extractLink(t *testing.T, msg string) string {
	t.Helper()
	idx := strings.Index(msg, "https://dl.example.com/downloads/")
	if idx < 0 {
		t.Fatalf("no download link in %q", msg)
	}
	return strings.TrimSpace(msg[idx:])
}

func TestEnqueue_AudioJobRunsAndReportsLink(t *testing.T) {
	tool := &stubTool{}
	store := &stubStore{size: 3 << 20}
	notifier := &recordingNotifier{done: make(chan string, 1)}
	sessions := &recordingSessions{}
	svc := newTestService(tool, store, notifier, sessions)

	job, pos := svc.Enqueue("u1", "https://example.com/song", domain.BestAudioSelector, domain.MediaAudio)
	if pos != 1 {
		t.Fatalf("expected position 1, got %d", pos)
	}
	if job.FormatSelector != "bestaudio" || job.MediaType != domain.MediaAudio {
		t.Fatalf("unexpected job: %+v", job)
	}

	msg := waitTerminal(t, notifier.done)
	link := extractLink(t, msg)
	if !strings.HasPrefix(link, "https://dl.example.com/downloads/audio_") || !strings.HasSuffix(link, ".mp3") {
		t.Fatalf("unexpected link %q in %q", link, msg)
	}
	if !strings.Contains(msg, "3.0 MB") {
		t.Fatalf("success message missing size: %q", msg)
	}

	sessions.mu.Lock()
	defer sessions.mu.Unlock()
	if len(sessions.ended) != 1 || sessions.ended[0] != "u1" {
		t.Fatalf("session not cleared: %v", sessions.ended)
	}
}

func TestQueue_DrainsInFIFOOrder(t *testing.T) {
	tool := &stubTool{block: make(chan struct{})}
	store := &stubStore{}
	notifier := &recordingNotifier{done: make(chan string, 4)}
	svc := newTestService(tool, store, notifier, &recordingSessions{})

	var jobs []domain.Job
	for i := 0; i < 4; i++ {
		job, _ := svc.Enqueue(fmt.Sprintf("u%d", i), fmt.Sprintf("https://example.com/%d", i), "137", domain.MediaVideo)
		jobs = append(jobs, job)
	}
	close(tool.block)

	for i := 0; i < 4; i++ {
		waitTerminal(t, notifier.done)
	}

	tool.mu.Lock()
	defer tool.mu.Unlock()
	if len(tool.fetched) != 4 {
		t.Fatalf("expected 4 executions, got %d", len(tool.fetched))
	}
	for i, job := range jobs {
		if tool.fetched[i].ID != job.ID {
			t.Fatalf("execution order mismatch at %d: got %s, want %s", i, tool.fetched[i].ID, job.ID)
		}
	}
}

func TestQueue_SingleFlight(t *testing.T) {
	block := make(chan struct{})
	tool := &stubTool{block: block}
	notifier := &recordingNotifier{done: make(chan string, 8)}
	svc := newTestService(tool, &stubStore{}, notifier, &recordingSessions{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			svc.Enqueue("u", fmt.Sprintf("https://example.com/%d", i), "137", domain.MediaVideo)
		}(i)
	}
	wg.Wait()
	close(block)

	for i := 0; i < 8; i++ {
		waitTerminal(t, notifier.done)
	}

	tool.mu.Lock()
	defer tool.mu.Unlock()
	if tool.maxSeen != 1 {
		t.Fatalf("observed %d concurrent executions, want 1", tool.maxSeen)
	}
}

func TestQueue_FailureDoesNotStallNextJob(t *testing.T) {
	tool := &stubTool{errFor: map[string]error{
		"https://example.com/bad": fmt.Errorf("%w: exit status 1", domain.ErrToolFailed),
	}}
	notifier := &recordingNotifier{done: make(chan string, 2)}
	svc := newTestService(tool, &stubStore{}, notifier, &recordingSessions{})

	svc.Enqueue("u1", "https://example.com/bad", "137", domain.MediaVideo)
	svc.Enqueue("u2", "https://example.com/good", "137", domain.MediaVideo)

	first := waitTerminal(t, notifier.done)
	second := waitTerminal(t, notifier.done)

	if !strings.Contains(first, "u1: video download failed") {
		t.Fatalf("expected generic failure for u1, got %q", first)
	}
	if !strings.Contains(second, "u2: Done") {
		t.Fatalf("expected success for u2 after u1 failure, got %q", second)
	}
	if svc.Depth() != 0 {
		t.Fatalf("queue should be drained, depth=%d", svc.Depth())
	}
}

func TestQueue_MissingOutputIsFailure(t *testing.T) {
	tool := &stubTool{}
	notifier := &recordingNotifier{done: make(chan string, 1)}
	sessions := &recordingSessions{}
	logger := log.New(io.Discard, "", 0)
	svc := NewService(tool, missingStore{}, notifier, sessions, logger, "https://dl.example.com", 4*time.Hour, 0)

	svc.Enqueue("u1", "https://example.com/gone", domain.BestAudioSelector, domain.MediaAudio)

	msg := waitTerminal(t, notifier.done)
	if !strings.Contains(msg, "audio download failed") {
		t.Fatalf("expected failure for missing output, got %q", msg)
	}

	sessions.mu.Lock()
	defer sessions.mu.Unlock()
	if len(sessions.ended) != 1 {
		t.Fatalf("session should be cleared on failure too: %v", sessions.ended)
	}
}

func TestQueue_BackToBackJobsGetDistinctOutputNames(t *testing.T) {
	tool := &stubTool{}
	notifier := &recordingNotifier{done: make(chan string, 2)}
	svc := newTestService(tool, &stubStore{}, notifier, &recordingSessions{})

	// Freeze the clock so both jobs would resolve to the same millisecond.
	frozen := time.UnixMilli(1700000000000)
	svc.now = func() time.Time { return frozen }

	svc.Enqueue("u1", "https://example.com/a", "137", domain.MediaVideo)
	svc.Enqueue("u2", "https://example.com/b", "137", domain.MediaVideo)

	first := extractLink(t, waitTerminal(t, notifier.done))
	second := extractLink(t, waitTerminal(t, notifier.done))

	if first == second {
		t.Fatalf("two jobs produced the same output file %q", first)
	}
}

func TestQueue_DrainsDeepBacklog(t *testing.T) {
	tool := &stubTool{block: make(chan struct{})}
	notifier := &recordingNotifier{done: make(chan string, 50)}
	svc := newTestService(tool, &stubStore{}, notifier, &recordingSessions{})

	for i := 0; i < 50; i++ {
		svc.Enqueue("u", fmt.Sprintf("https://example.com/%d", i), "137", domain.MediaVideo)
	}
	close(tool.block)

	for i := 0; i < 50; i++ {
		waitTerminal(t, notifier.done)
	}
	if svc.Depth() != 0 {
		t.Fatalf("queue not drained, depth=%d", svc.Depth())
	}
}

type missingStore struct{}

func (missingStore) Path(name string) string { return "/tmp/downloads/" + name }

func (missingStore) Stat(string) (domain.File, error) {
	return domain.File{}, errors.New("stat: no such file")
}
