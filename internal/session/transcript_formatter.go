package session

import (
	"fmt"

	"github.com/kotobalab/tsuyaku/internal/repository"
)

// buildTranscriptLines renders one "original → translated" line per
// transcript, in stored order. The same lines feed the summary prompt and
// the end-of-session webhook payload.
func buildTranscriptLines(transcripts []repository.Transcript) []string {
	lines := make([]string, 0, len(transcripts))
	for _, t := range transcripts {
		lines = append(lines, fmt.Sprintf("%s → %s", t.OriginalText, t.TranslatedText))
	}
	return lines
}
