package download

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// MediaType describes the delivery format of a download.
type MediaType string

const (
	MediaAudio MediaType = "audio"
	MediaVideo MediaType = "video"
)

// Ext returns the container extension produced for this media type.
func (t MediaType) Ext() string {
	if t == MediaAudio {
		return "mp3"
	}
	return "mp4"
}

// ParseMediaType validates and normalizes an incoming type choice.
func ParseMediaType(raw string) (MediaType, error) {
	switch MediaType(strings.ToLower(strings.TrimSpace(raw))) {
	case MediaAudio:
		return MediaAudio, nil
	case MediaVideo:
		return MediaVideo, nil
	}
	return "", fmt.Errorf("unknown media type %q", raw)
}

// BestAudioSelector is the fixed format selector used for audio downloads.
const BestAudioSelector = "bestaudio"

// Job is a fully specified download task. Immutable once enqueued.
type Job struct {
	ID             string
	Requester      string
	SourceURL      string
	FormatSelector string
	MediaType      MediaType
	EnqueuedAt     time.Time
}

// OutputName derives the produced file name from the moment the job is
// claimed for execution. Single-flight execution keeps claim timestamps
// distinct at millisecond granularity.
func OutputName(t MediaType, claimedAt time.Time) string {
	return fmt.Sprintf("%s_%d.%s", t, claimedAt.UnixMilli(), t.Ext())
}

// FormatChoice is one selectable video quality produced by a probe.
type FormatChoice struct {
	Label    string `json:"label"`
	Selector string `json:"selector"`
}

// File describes a produced file in the downloads directory.
type File struct {
	Name       string
	Size       int64
	ModifiedAt time.Time
}

var (
	// ErrInvalidURL rejects a malformed submission before any session exists.
	ErrInvalidURL = errors.New("invalid source URL")
	// ErrNoSession means a selection arrived for a requester with no stored URL.
	ErrNoSession = errors.New("no active session")
	// ErrProbeFailed means the format listing could not be obtained or was unusable.
	ErrProbeFailed = errors.New("format probe failed")
	// ErrToolFailed means the extraction tool exited with an error.
	ErrToolFailed = errors.New("tool invocation failed")
	// ErrOutputMissing means the tool reported success but produced no file.
	ErrOutputMissing = errors.New("output file missing")
)
