package keepalive

import (
	"context"
	"log"
	"net/http"
	"time"
)

// Pinger periodically requests the public base URL to keep the hosting
// platform from idling the process out.
type Pinger struct {
	url      string
	interval time.Duration
	client   *http.Client
	logger   *log.Logger
}

// NewPinger creates a self-pinger. A zero interval or empty URL disables it.
func NewPinger(url string, interval time.Duration, logger *log.Logger) *Pinger {
	return &Pinger{
		url:      url,
		interval: interval,
		client:   &http.Client{Timeout: 30 * time.Second},
		logger:   logger,
	}
}

// Run pings on the configured interval until ctx is cancelled.
func (p *Pinger) Run(ctx context.Context) {
	if p.interval <= 0 || p.url == "" {
		return
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.ping(ctx)
		}
	}
}

func (p *Pinger) ping(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		p.logger.Printf("self-ping: %v", err)
		return
	}
	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Printf("self-ping failed: %v", err)
		return
	}
	_ = resp.Body.Close()
}
