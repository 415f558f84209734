package ytdlp

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	domain "github.com/Godhunder/discord-downloader1/internal/domain/download"
)

// Runner invokes the yt-dlp binary for format probing and extraction.
type Runner struct {
	binPath string
	// execCommand allows injection of command construction for testing.
	execCommand func(ctx context.Context, name string, args ...string) *exec.Cmd
}

// NewRunner creates a yt-dlp adapter. If binPath is empty, "yt-dlp" from
// PATH is used.
func NewRunner(binPath string) *Runner {
	if binPath == "" {
		binPath = "yt-dlp"
	}
	return &Runner{
		binPath:     binPath,
		execCommand: exec.CommandContext,
	}
}

// ListFormats runs the metadata-only format listing and returns its output
// lines.
func (r *Runner) ListFormats(ctx context.Context, url string) ([]string, error) {
	out, err := r.run(ctx, "-F", "--no-warnings", "--no-playlist", url)
	if err != nil {
		return nil, err
	}
	return strings.Split(strings.TrimRight(out, "\n"), "\n"), nil
}

// Fetch downloads the job's media to outputPath. Audio is extracted and
// transcoded to mp3 at a fixed bitrate; video is merged with best audio
// into an mp4 container.
func (r *Runner) Fetch(ctx context.Context, job domain.Job, outputPath string) error {
	args := []string{"--no-warnings", "--no-playlist", "-o", outputPath}

	switch job.MediaType {
	case domain.MediaAudio:
		args = append(args,
			"-f", job.FormatSelector,
			"--extract-audio",
			"--audio-format", "mp3",
			"--audio-quality", "192K",
		)
	case domain.MediaVideo:
		args = append(args,
			"-f", job.FormatSelector+"+bestaudio",
			"--merge-output-format", "mp4",
		)
	}

	args = append(args, job.SourceURL)
	if _, err := r.run(ctx, args...); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrToolFailed, err)
	}
	return nil
}

func (r *Runner) run(ctx context.Context, args ...string) (string, error) {
	cmd := r.execCommand(ctx, r.binPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s failed: %w: %s", r.binPath, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
