package http

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Notification is one outbound status message held for a requester.
type Notification struct {
	ID      string    `json:"id"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Feed buffers notifications per requester until the front end polls them.
// It implements the application Notifier port.
type Feed struct {
	mu      sync.Mutex
	pending map[string][]Notification
}

// NewFeed creates an empty notification feed.
func NewFeed() *Feed {
	return &Feed{pending: make(map[string][]Notification)}
}

// Notify appends a message to the requester's feed.
func (f *Feed) Notify(requester, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending[requester] = append(f.pending[requester], Notification{
		ID:      uuid.NewString(),
		Message: message,
		At:      time.Now(),
	})
}

// Drain returns and clears the requester's pending notifications in
// delivery order.
func (f *Feed) Drain(requester string) []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.pending[requester]
	delete(f.pending, requester)
	return out
}
