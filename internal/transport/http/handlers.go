package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	downloaddomain "github.com/Godhunder/discord-downloader1/internal/domain/download"
)

type sessionStore interface {
	Begin(requester, url string) error
	RecordChoice(requester string, t downloaddomain.MediaType) error
	PendingChoice(requester string) (downloaddomain.MediaType, error)
	URL(requester string) (string, error)
}

type formatProber interface {
	ProbeQualities(ctx context.Context, url string) ([]downloaddomain.FormatChoice, error)
}

type jobQueue interface {
	Enqueue(requester, sourceURL, selector string, mediaType downloaddomain.MediaType) (downloaddomain.Job, int)
}

// Handler exposes the request/response front end over HTTP.
type Handler struct {
	sessions sessionStore
	prober   formatProber
	queue    jobQueue
	feed     *Feed
	logger   *log.Logger
}

// NewHandler wires HTTP handlers with application use cases.
func NewHandler(sessions sessionStore, prober formatProber, queue jobQueue, feed *Feed, logger *log.Logger) *Handler {
	return &Handler{sessions: sessions, prober: prober, queue: queue, feed: feed, logger: logger}
}

type menu struct {
	ID      string                        `json:"id"`
	Prompt  string                        `json:"prompt"`
	Options []downloaddomain.FormatChoice `json:"options"`
}

// SubmitURL handles POST /api/requests.
func (h *Handler) SubmitURL(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Requester string `json:"requester"`
		URL       string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Requester == "" {
		http.Error(w, "requester and url are required", http.StatusBadRequest)
		return
	}

	if err := h.sessions.Begin(body.Requester, body.URL); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, map[string]any{
		"menu": menu{
			ID:     uuid.NewString(),
			Prompt: "Select download type",
			Options: []downloaddomain.FormatChoice{
				{Label: "Audio", Selector: string(downloaddomain.MediaAudio)},
				{Label: "Video", Selector: string(downloaddomain.MediaVideo)},
			},
		},
	})
}

// ChooseType handles POST /api/requests/{requester}/type.
func (h *Handler) ChooseType(w http.ResponseWriter, r *http.Request) {
	requester := mux.Vars(r)["requester"]

	var body struct {
		Choice string `json:"choice"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	mediaType, err := downloaddomain.ParseMediaType(body.Choice)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	url, err := h.sessions.URL(requester)
	if err != nil {
		writeSessionError(w, err)
		return
	}

	if err := h.sessions.RecordChoice(requester, mediaType); err != nil {
		writeSessionError(w, err)
		return
	}

	if mediaType == downloaddomain.MediaAudio {
		job, pos := h.queue.Enqueue(requester, url, downloaddomain.BestAudioSelector, downloaddomain.MediaAudio)
		writeQueued(w, job, pos)
		return
	}

	choices, err := h.prober.ProbeQualities(r.Context(), url)
	if err != nil {
		h.logger.Printf("probe failed for %s: %v", requester, err)
		http.Error(w, "failed to fetch video formats", http.StatusBadGateway)
		return
	}

	writeJSON(w, map[string]any{
		"menu": menu{
			ID:      uuid.NewString(),
			Prompt:  "Select video quality",
			Options: choices,
		},
	})
}

// ChooseQuality handles POST /api/requests/{requester}/quality.
func (h *Handler) ChooseQuality(w http.ResponseWriter, r *http.Request) {
	requester := mux.Vars(r)["requester"]

	var body struct {
		Selector string `json:"selector"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Selector == "" {
		http.Error(w, "selector is required", http.StatusBadRequest)
		return
	}

	url, err := h.sessions.URL(requester)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	pending, err := h.sessions.PendingChoice(requester)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	if pending != downloaddomain.MediaVideo {
		http.Error(w, "choose a download type first", http.StatusConflict)
		return
	}

	job, pos := h.queue.Enqueue(requester, url, body.Selector, downloaddomain.MediaVideo)
	writeQueued(w, job, pos)
}

// Events handles GET /api/requests/{requester}/events.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	requester := mux.Vars(r)["requester"]
	notifications := h.feed.Drain(requester)
	if notifications == nil {
		notifications = []Notification{}
	}
	writeJSON(w, notifications)
}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func writeQueued(w http.ResponseWriter, job downloaddomain.Job, position int) {
	writeJSON(w, map[string]any{
		"queued":   true,
		"job":      job.ID,
		"type":     job.MediaType,
		"position": position,
	})
}

func writeSessionError(w http.ResponseWriter, err error) {
	if errors.Is(err, downloaddomain.ErrNoSession) {
		http.Error(w, "session expired, submit the URL again", http.StatusGone)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
