package summarizer

import (
	"context"
	"errors"
)

var (
	ErrNotConfigured = errors.New("summary service is not configured")
	ErrSummaryFailed = errors.New("summary generation failed")
)

// Summarizer condenses a transcript into a single generated synopsis.
// lines are joined with newlines into one prompt; there is no streaming
// and no multi-turn context.
type Summarizer interface {
	Summarize(ctx context.Context, lines []string) (string, error)
}
