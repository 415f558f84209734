package formats

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Godhunder/discord-downloader1/internal/domain/download"
)

// Lister is an application port for the tool's metadata-only format listing.
type Lister interface {
	ListFormats(ctx context.Context, url string) ([]string, error)
}

// Service turns raw tool format listings into selectable video qualities.
type Service struct {
	tool       Lister
	maxChoices int
}

// NewService creates the prober with the injected tool port.
func NewService(tool Lister, maxChoices int) *Service {
	if maxChoices <= 0 {
		maxChoices = 25
	}
	return &Service{tool: tool, maxChoices: maxChoices}
}

var heightRe = regexp.MustCompile(`\b(\d{3,4})p\b`)

type parsedFormat struct {
	choice download.FormatChoice
	height int
	fps    int
}

// ProbeQualities lists available formats for the URL and returns distinct
// video qualities, best first, capped at the configured maximum.
func (s *Service) ProbeQualities(ctx context.Context, url string) ([]download.FormatChoice, error) {
	lines, err := s.tool.ListFormats(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", download.ErrProbeFailed, err)
	}

	parsed := parseFormatLines(lines)
	if len(parsed) == 0 {
		return nil, fmt.Errorf("%w: no usable video formats", download.ErrProbeFailed)
	}

	// Best quality first; stable so the tool's own ordering breaks ties.
	sort.SliceStable(parsed, func(i, j int) bool {
		if parsed[i].height != parsed[j].height {
			return parsed[i].height > parsed[j].height
		}
		return parsed[i].fps > parsed[j].fps
	})

	seen := make(map[string]struct{}, len(parsed))
	choices := make([]download.FormatChoice, 0, len(parsed))
	for _, p := range parsed {
		if _, dup := seen[p.choice.Label]; dup {
			continue
		}
		seen[p.choice.Label] = struct{}{}
		choices = append(choices, p.choice)
		if len(choices) == s.maxChoices {
			break
		}
	}
	return choices, nil
}

// parseFormatLines extracts a format id and vertical resolution from each
// listing line. Lines without both (headers, separators, audio-only rows)
// are skipped.
func parseFormatLines(lines []string) []parsedFormat {
	out := make([]parsedFormat, 0, len(lines))
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		id := fields[0]
		if !isFormatID(id) {
			continue
		}

		m := heightRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		height, err := strconv.Atoi(m[1])
		if err != nil || height == 0 {
			continue
		}

		fps := 30
		if strings.Contains(line, "60fps") {
			fps = 60
		}

		out = append(out, parsedFormat{
			choice: download.FormatChoice{
				Label:    fmt.Sprintf("%dp %dfps", height, fps),
				Selector: id,
			},
			height: height,
			fps:    fps,
		})
	}
	return out
}

func isFormatID(token string) bool {
	if token == "" || strings.EqualFold(token, "ID") {
		return false
	}
	for _, r := range token {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r == '-' || r == '_':
		default:
			return false
		}
	}
	return true
}
