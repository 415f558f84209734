package download

import (
	"context"

	domain "github.com/Godhunder/discord-downloader1/internal/domain/download"
)

// Tool is an application port for the external extraction tool.
type Tool interface {
	Fetch(ctx context.Context, job domain.Job, outputPath string) error
}

// Store is an application port for the public downloads directory.
type Store interface {
	Path(name string) string
	Stat(name string) (domain.File, error)
}

// Notifier delivers status messages back to the requester's front end.
type Notifier interface {
	Notify(requester, message string)
}

// Sessions is the slice of the session store the queue needs on job completion.
type Sessions interface {
	End(requester string)
}
