package webhook

import (
	"context"
	"time"
)

// TranscriptPayload is posted to the configured webhook when a session
// completes.
type TranscriptPayload struct {
	SessionID      int64     `json:"sessionId"`
	Title          string    `json:"title"`
	SourceLanguage string    `json:"sourceLanguage"`
	TargetLanguage string    `json:"targetLanguage"`
	Scenario       *string   `json:"scenario,omitempty"`
	StartedAt      time.Time `json:"startedAt"`
	EndedAt        time.Time `json:"endedAt"`
	Lines          []string  `json:"lines"`
}

type Sender interface {
	SendTranscript(ctx context.Context, payload TranscriptPayload) error
}
