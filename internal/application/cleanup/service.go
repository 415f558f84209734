package cleanup

import (
	"context"
	"log"
	"time"

	domain "github.com/Godhunder/discord-downloader1/internal/domain/download"
)

// Store is the slice of the downloads store the sweeper needs.
type Store interface {
	List() ([]domain.File, error)
	Remove(name string) error
}

// Service deletes produced files once they outlive the expiry threshold.
type Service struct {
	store    Store
	logger   *log.Logger
	expiry   time.Duration
	interval time.Duration
}

// NewService creates the sweeper with the injected store.
func NewService(store Store, logger *log.Logger, expiry, interval time.Duration) *Service {
	return &Service{store: store, logger: logger, expiry: expiry, interval: interval}
}

// Sweep removes every entry older than the expiry threshold. Per-entry
// failures are logged and skipped.
func (s *Service) Sweep(now time.Time) {
	files, err := s.store.List()
	if err != nil {
		s.logger.Printf("sweep: list failed: %v", err)
		return
	}

	for _, f := range files {
		if now.Sub(f.ModifiedAt) <= s.expiry {
			continue
		}
		if err := s.store.Remove(f.Name); err != nil {
			s.logger.Printf("sweep: remove %s failed: %v", f.Name, err)
			continue
		}
		s.logger.Printf("sweep: removed expired file %s", f.Name)
	}
}

// Run sweeps on the configured interval until ctx is cancelled. The first
// sweep happens one full interval after start.
func (s *Service) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(time.Now())
		}
	}
}
