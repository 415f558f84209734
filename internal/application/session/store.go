package session

import (
	"net/url"
	"sync"

	"github.com/Godhunder/discord-downloader1/internal/domain/download"
)

type state struct {
	sourceURL   string
	pendingType download.MediaType
}

// Store keeps per-requester selection state between URL submission and the
// terminal outcome of the resulting job. At most one session per requester;
// a new submission overwrites the old one.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*state
}

// NewStore creates an empty in-memory session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*state)}
}

// Begin validates the submitted URL and opens (or replaces) the requester's session.
func (s *Store) Begin(requester, rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil || !parsed.IsAbs() || parsed.Host == "" {
		return download.ErrInvalidURL
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return download.ErrInvalidURL
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[requester] = &state{sourceURL: rawURL}
	return nil
}

// RecordChoice stores the chosen media type on an existing session.
func (s *Store) RecordChoice(requester string, t download.MediaType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[requester]
	if !ok {
		return download.ErrNoSession
	}
	sess.pendingType = t
	return nil
}

// PendingChoice returns the media type recorded on the requester's session,
// or the zero value if no choice has been made yet.
func (s *Store) PendingChoice(requester string) (download.MediaType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[requester]
	if !ok {
		return "", download.ErrNoSession
	}
	return sess.pendingType, nil
}

// URL returns the stored source URL for the requester.
func (s *Store) URL(requester string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[requester]
	if !ok {
		return "", download.ErrNoSession
	}
	return sess.sourceURL, nil
}

// End removes the requester's session. Idempotent.
func (s *Store) End(requester string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, requester)
}
