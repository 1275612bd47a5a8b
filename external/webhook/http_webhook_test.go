package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kotobalab/tsuyaku/internal/webhook"
)

func samplePayload() webhook.TranscriptPayload {
	return webhook.TranscriptPayload{
		SessionID:      42,
		Title:          "Demo",
		SourceLanguage: "en",
		TargetLanguage: "zh-Hant",
		StartedAt:      time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
		EndedAt:        time.Date(2026, 8, 1, 11, 0, 0, 0, time.UTC),
		Lines:          []string{"Hello → 你好"},
	}
}

func TestSendTranscript_EmptyWebhookURL(t *testing.T) {
	sender := NewHTTPSender("")
	if err := sender.SendTranscript(context.Background(), samplePayload()); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestSendTranscript_Success(t *testing.T) {
	var got webhook.TranscriptPayload

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Fatalf("unexpected content type: %s", r.Header.Get("Content-Type"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("failed to decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sender := NewHTTPSender(server.URL)
	if err := sender.SendTranscript(context.Background(), samplePayload()); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if got.SessionID != 42 {
		t.Fatalf("unexpected session id: %d", got.SessionID)
	}
	if len(got.Lines) != 1 || got.Lines[0] != "Hello → 你好" {
		t.Fatalf("unexpected lines: %v", got.Lines)
	}
}

func TestSendTranscript_Non2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	sender := NewHTTPSender(server.URL)
	if err := sender.SendTranscript(context.Background(), samplePayload()); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}
