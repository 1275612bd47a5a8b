package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kotobalab/tsuyaku/internal/language"
	"github.com/kotobalab/tsuyaku/internal/observability/metrics"
	"github.com/kotobalab/tsuyaku/internal/recognizer"
	"github.com/kotobalab/tsuyaku/internal/repository"
	"github.com/kotobalab/tsuyaku/internal/summarizer"
	"github.com/kotobalab/tsuyaku/internal/translator"
	"github.com/kotobalab/tsuyaku/internal/webhook"
)

var (
	// ErrSessionNotFound covers both a missing session and a session owned
	// by another user. The two cases are deliberately indistinguishable so
	// that probing requests cannot learn whether a session id exists.
	ErrSessionNotFound = errors.New("session not found")

	ErrEmptyTitle          = errors.New("session title must not be empty")
	ErrUnsupportedLanguage = errors.New("unsupported language code")
	ErrUnsupportedScenario = errors.New("unsupported scenario code")
	ErrNoTranscripts       = errors.New("no transcripts found for this session")
)

type Service struct {
	repo       repository.Repository
	translator translator.Gateway
	summarizer summarizer.Summarizer
	webhook    webhook.Sender
	recognizer recognizer.Recognizer
	metrics    *metrics.Metrics

	captures captureRegistry

	now func() time.Time
}

func NewService(
	repo repository.Repository,
	gateway translator.Gateway,
	sum summarizer.Summarizer,
	wh webhook.Sender,
	rec recognizer.Recognizer,
	m *metrics.Metrics,
) *Service {
	return &Service{
		repo:       repo,
		translator: gateway,
		summarizer: sum,
		webhook:    wh,
		recognizer: rec,
		metrics:    m,
		captures:   newCaptureRegistry(),
		now:        time.Now,
	}
}

// ownedSession loads the session and enforces the ownership invariant
// shared by every session-scoped operation.
func (s *Service) ownedSession(ctx context.Context, requesterID, sessionID int64) (*repository.Session, error) {
	sess, err := s.repo.GetSessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil || sess.UserID != requesterID {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (s *Service) CreateSession(ctx context.Context, requesterID int64, title, sourceLang, targetLang string, scenario *string) (*repository.Session, error) {
	if strings.TrimSpace(title) == "" {
		return nil, ErrEmptyTitle
	}
	if !language.IsSupportedLanguage(sourceLang) || !language.IsSupportedLanguage(targetLang) {
		return nil, ErrUnsupportedLanguage
	}
	if scenario != nil && *scenario == "" {
		scenario = nil
	}
	if scenario != nil && !language.IsSupportedScenario(*scenario) {
		return nil, ErrUnsupportedScenario
	}

	created, err := s.repo.CreateSession(ctx, repository.CreateSessionInput{
		UserID:         requesterID,
		Title:          title,
		SourceLanguage: sourceLang,
		TargetLanguage: targetLang,
		Scenario:       scenario,
		StartedAt:      s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	s.metrics.SessionsCreated.Inc()
	slog.Info("session created", "session_id", created.ID, "user_id", requesterID, "source", sourceLang, "target", targetLang)
	return created, nil
}

func (s *Service) GetSession(ctx context.Context, requesterID, sessionID int64) (*repository.Session, error) {
	return s.ownedSession(ctx, requesterID, sessionID)
}

func (s *Service) ListSessions(ctx context.Context, requesterID int64) ([]repository.Session, error) {
	return s.repo.ListSessionsByUserID(ctx, requesterID)
}

func (s *Service) ListTranscripts(ctx context.Context, requesterID, sessionID int64) ([]repository.Transcript, error) {
	if _, err := s.ownedSession(ctx, requesterID, sessionID); err != nil {
		return nil, err
	}
	return s.repo.ListTranscriptsBySessionID(ctx, sessionID)
}

// UtteranceResult is what the caller gets back for one submitted
// utterance. Confidence is the translation provider's estimate; the
// transcript row keeps the speech recognition score instead.
type UtteranceResult struct {
	TranslatedText string
	Confidence     *float64
}

func (s *Service) SubmitUtterance(ctx context.Context, requesterID, sessionID int64, text string, confidence *int) (UtteranceResult, error) {
	sess, err := s.ownedSession(ctx, requesterID, sessionID)
	if err != nil {
		return UtteranceResult{}, err
	}

	s.metrics.TranslationsTotal.Inc()
	result, err := s.translator.Translate(ctx, text, sess.SourceLanguage, sess.TargetLanguage, sess.Scenario)
	if err != nil {
		s.metrics.TranslationsFailed.Inc()
		return UtteranceResult{}, err
	}

	if _, err := s.repo.InsertTranscript(ctx, repository.InsertTranscriptInput{
		SessionID:      sessionID,
		OriginalText:   text,
		TranslatedText: result.TranslatedText,
		Confidence:     confidence,
		SpokenAt:       s.now(),
	}); err != nil {
		return UtteranceResult{}, fmt.Errorf("insert transcript: %w", err)
	}
	return UtteranceResult{TranslatedText: result.TranslatedText, Confidence: result.Confidence}, nil
}

// EndSession transitions the session to completed and stamps ended_at.
// Repeat calls re-stamp the timestamp but never fail; transcript appends
// racing with the transition are not excluded, a completed session is
// soft-closed rather than sealed. The transcript webhook fires only on
// the transition out of active, so repeat calls cause no duplicate
// deliveries.
func (s *Service) EndSession(ctx context.Context, requesterID, sessionID int64) error {
	sess, err := s.ownedSession(ctx, requesterID, sessionID)
	if err != nil {
		return err
	}

	endedAt := s.now()
	if err := s.repo.CompleteSession(ctx, repository.CompleteSessionInput{
		SessionID: sessionID,
		EndedAt:   endedAt,
	}); err != nil {
		return fmt.Errorf("complete session: %w", err)
	}
	s.metrics.SessionsCompleted.Inc()
	slog.Info("session completed", "session_id", sessionID, "user_id", requesterID)

	if sess.Status == repository.SessionStatusActive {
		go s.notifySessionEnded(sess, endedAt)
	}
	return nil
}

func (s *Service) notifySessionEnded(sess *repository.Session, endedAt time.Time) {
	ctx := context.Background()
	transcripts, err := s.repo.ListTranscriptsBySessionID(ctx, sess.ID)
	if err != nil {
		slog.Error("failed to list transcripts for webhook", "error", err, "session_id", sess.ID)
		return
	}
	payload := webhook.TranscriptPayload{
		SessionID:      sess.ID,
		Title:          sess.Title,
		SourceLanguage: sess.SourceLanguage,
		TargetLanguage: sess.TargetLanguage,
		Scenario:       sess.Scenario,
		StartedAt:      sess.StartedAt,
		EndedAt:        endedAt,
		Lines:          buildTranscriptLines(transcripts),
	}
	if err := s.webhook.SendTranscript(ctx, payload); err != nil {
		slog.Error("failed to send transcript webhook", "error", err, "session_id", sess.ID)
	}
}

// GenerateSummary creates the session summary at most once. A summary that
// already exists is returned as-is without another provider call.
func (s *Service) GenerateSummary(ctx context.Context, requesterID, sessionID int64) (*repository.Summary, error) {
	if _, err := s.ownedSession(ctx, requesterID, sessionID); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetSummaryBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	transcripts, err := s.repo.ListTranscriptsBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(transcripts) == 0 {
		return nil, ErrNoTranscripts
	}

	text, err := s.summarizer.Summarize(ctx, buildTranscriptLines(transcripts))
	if err != nil {
		s.metrics.SummariesFailed.Inc()
		return nil, err
	}

	created, err := s.repo.InsertSummary(ctx, repository.InsertSummaryInput{
		SessionID:   sessionID,
		SummaryText: text,
	})
	if err != nil {
		return nil, fmt.Errorf("insert summary: %w", err)
	}
	s.metrics.SummariesGenerated.Inc()
	slog.Info("summary generated", "session_id", sessionID, "transcripts", len(transcripts))
	return created, nil
}

// GetSummary returns nil without error when the owned session has no
// summary yet; that is distinct from the not-found error for a session
// the requester does not own.
func (s *Service) GetSummary(ctx context.Context, requesterID, sessionID int64) (*repository.Summary, error) {
	if _, err := s.ownedSession(ctx, requesterID, sessionID); err != nil {
		return nil, err
	}
	return s.repo.GetSummaryBySessionID(ctx, sessionID)
}
