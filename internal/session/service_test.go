package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kotobalab/tsuyaku/internal/observability/metrics"
	"github.com/kotobalab/tsuyaku/internal/recognizer"
	"github.com/kotobalab/tsuyaku/internal/repository"
	"github.com/kotobalab/tsuyaku/internal/translator"
	"github.com/kotobalab/tsuyaku/internal/webhook"
	"github.com/prometheus/client_golang/prometheus"
)

type mockRepository struct {
	mu          sync.Mutex
	sessions    map[int64]*repository.Session
	transcripts []repository.Transcript
	summaries   map[int64]*repository.Summary
	nextID      int64

	insertedCh       chan repository.InsertTranscriptInput
	completeCalls    []repository.CompleteSessionInput
	getSessionErr    error
	insertSummaryErr error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		sessions:   make(map[int64]*repository.Session),
		summaries:  make(map[int64]*repository.Summary),
		insertedCh: make(chan repository.InsertTranscriptInput, 16),
	}
}

func (m *mockRepository) UpsertUser(_ context.Context, input repository.UpsertUserInput) (*repository.User, error) {
	return &repository.User{ID: 1, OpenID: input.OpenID}, nil
}

func (m *mockRepository) GetUserByOpenID(_ context.Context, openID string) (*repository.User, error) {
	return &repository.User{ID: 1, OpenID: openID}, nil
}

func (m *mockRepository) CreateSession(_ context.Context, input repository.CreateSessionInput) (*repository.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	s := &repository.Session{
		ID:             m.nextID,
		UserID:         input.UserID,
		Title:          input.Title,
		SourceLanguage: input.SourceLanguage,
		TargetLanguage: input.TargetLanguage,
		Scenario:       input.Scenario,
		Status:         repository.SessionStatusActive,
		StartedAt:      input.StartedAt,
	}
	m.sessions[s.ID] = s
	return s, nil
}

func (m *mockRepository) GetSessionByID(_ context.Context, id int64) (*repository.Session, error) {
	if m.getSessionErr != nil {
		return nil, m.getSessionErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	clone := *s
	return &clone, nil
}

func (m *mockRepository) ListSessionsByUserID(_ context.Context, userID int64) ([]repository.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []repository.Session
	for _, s := range m.sessions {
		if s.UserID == userID {
			list = append(list, *s)
		}
	}
	return list, nil
}

func (m *mockRepository) CompleteSession(_ context.Context, input repository.CompleteSessionInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completeCalls = append(m.completeCalls, input)
	if s, ok := m.sessions[input.SessionID]; ok {
		endedAt := input.EndedAt
		s.Status = repository.SessionStatusCompleted
		s.EndedAt = &endedAt
	}
	return nil
}

func (m *mockRepository) InsertTranscript(_ context.Context, input repository.InsertTranscriptInput) (*repository.Transcript, error) {
	m.mu.Lock()
	t := repository.Transcript{
		ID:             int64(len(m.transcripts) + 1),
		SessionID:      input.SessionID,
		OriginalText:   input.OriginalText,
		TranslatedText: input.TranslatedText,
		Confidence:     input.Confidence,
		SpokenAt:       input.SpokenAt,
	}
	m.transcripts = append(m.transcripts, t)
	m.mu.Unlock()
	m.insertedCh <- input
	return &t, nil
}

func (m *mockRepository) ListTranscriptsBySessionID(_ context.Context, sessionID int64) ([]repository.Transcript, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []repository.Transcript
	for _, t := range m.transcripts {
		if t.SessionID == sessionID {
			list = append(list, t)
		}
	}
	return list, nil
}

func (m *mockRepository) InsertSummary(_ context.Context, input repository.InsertSummaryInput) (*repository.Summary, error) {
	if m.insertSummaryErr != nil {
		return nil, m.insertSummaryErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &repository.Summary{
		ID:          int64(len(m.summaries) + 1),
		SessionID:   input.SessionID,
		SummaryText: input.SummaryText,
		CreatedAt:   time.Now(),
	}
	m.summaries[input.SessionID] = s
	return s, nil
}

func (m *mockRepository) GetSummaryBySessionID(_ context.Context, sessionID int64) (*repository.Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.summaries[sessionID]
	if !ok {
		return nil, nil
	}
	clone := *s
	return &clone, nil
}

type mockGateway struct {
	mu         sync.Mutex
	calls      []string
	scenario   *string
	translated string
	confidence *float64
	err        error
}

func (m *mockGateway) Translate(_ context.Context, text, _, _ string, scenario *string) (translator.Result, error) {
	m.mu.Lock()
	m.calls = append(m.calls, text)
	m.scenario = scenario
	m.mu.Unlock()
	if m.err != nil {
		return translator.Result{}, m.err
	}
	return translator.Result{TranslatedText: m.translated, Confidence: m.confidence}, nil
}

func (m *mockGateway) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

type mockSummarizer struct {
	mu    sync.Mutex
	calls int
	text  string
	err   error
}

func (m *mockSummarizer) Summarize(_ context.Context, lines []string) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	return m.text, nil
}

func (m *mockSummarizer) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockWebhookSender struct {
	sent chan webhook.TranscriptPayload
}

func newMockWebhookSender() *mockWebhookSender {
	return &mockWebhookSender{sent: make(chan webhook.TranscriptPayload, 4)}
}

func (m *mockWebhookSender) SendTranscript(_ context.Context, payload webhook.TranscriptPayload) error {
	m.sent <- payload
	return nil
}

type mockStream struct {
	events  chan recognizer.Event
	written [][]byte
	mu      sync.Mutex
	once    sync.Once
}

func newMockStream() *mockStream {
	return &mockStream{events: make(chan recognizer.Event, 16)}
}

func (m *mockStream) Events() <-chan recognizer.Event { return m.events }

func (m *mockStream) Write(pcm []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.written = append(m.written, pcm)
	return nil
}

func (m *mockStream) Stop() error {
	m.once.Do(func() {
		m.events <- recognizer.Event{Kind: recognizer.KindEnded}
		close(m.events)
	})
	return nil
}

type mockRecognizer struct {
	stream   *mockStream
	startErr error
	starts   int
	language string
}

func (m *mockRecognizer) Start(_ context.Context, language string) (recognizer.Stream, error) {
	m.starts++
	m.language = language
	if m.startErr != nil {
		return nil, m.startErr
	}
	return m.stream, nil
}

type testEnv struct {
	service    *Service
	repo       *mockRepository
	gateway    *mockGateway
	summarizer *mockSummarizer
	webhook    *mockWebhookSender
	recognizer *mockRecognizer
}

func newTestEnv() *testEnv {
	repo := newMockRepository()
	gateway := &mockGateway{translated: "你好"}
	sum := &mockSummarizer{text: "重點摘要"}
	wh := newMockWebhookSender()
	rec := &mockRecognizer{stream: newMockStream()}
	m := metrics.New(prometheus.NewRegistry())
	return &testEnv{
		service:    NewService(repo, gateway, sum, wh, rec, m),
		repo:       repo,
		gateway:    gateway,
		summarizer: sum,
		webhook:    wh,
		recognizer: rec,
	}
}

func mustCreateSession(t *testing.T, env *testEnv, userID int64) *repository.Session {
	t.Helper()
	created, err := env.service.CreateSession(context.Background(), userID, "Demo", "en", "zh-Hant", nil)
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	return created
}

func TestCreateSession_EmptyTitle(t *testing.T) {
	env := newTestEnv()
	for _, title := range []string{"", "   ", "\t\n"} {
		_, err := env.service.CreateSession(context.Background(), 1, title, "en", "zh-Hant", nil)
		if !errors.Is(err, ErrEmptyTitle) {
			t.Errorf("title %q: expected ErrEmptyTitle, got %v", title, err)
		}
	}
}

func TestCreateSession_UnsupportedLanguage(t *testing.T) {
	env := newTestEnv()
	_, err := env.service.CreateSession(context.Background(), 1, "Demo", "tlh", "zh-Hant", nil)
	if !errors.Is(err, ErrUnsupportedLanguage) {
		t.Fatalf("expected ErrUnsupportedLanguage, got %v", err)
	}
}

func TestCreateSession_UnsupportedScenario(t *testing.T) {
	env := newTestEnv()
	scenario := "sports"
	_, err := env.service.CreateSession(context.Background(), 1, "Demo", "en", "zh-Hant", &scenario)
	if !errors.Is(err, ErrUnsupportedScenario) {
		t.Fatalf("expected ErrUnsupportedScenario, got %v", err)
	}
}

func TestCreateSession_EmptyScenarioNormalizedToAbsent(t *testing.T) {
	env := newTestEnv()
	scenario := ""
	created, err := env.service.CreateSession(context.Background(), 1, "Demo", "en", "zh-Hant", &scenario)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if created.Scenario != nil {
		t.Fatalf("expected absent scenario, got %q", *created.Scenario)
	}
	if created.Status != repository.SessionStatusActive {
		t.Fatalf("expected active status, got %s", created.Status)
	}
}

func TestOwnershipInvariant(t *testing.T) {
	env := newTestEnv()
	sess := mustCreateSession(t, env, 1)

	const otherUser = int64(2)
	conf := 90

	checks := map[string]func() error{
		"GetSession": func() error {
			_, err := env.service.GetSession(context.Background(), otherUser, sess.ID)
			return err
		},
		"ListTranscripts": func() error {
			_, err := env.service.ListTranscripts(context.Background(), otherUser, sess.ID)
			return err
		},
		"SubmitUtterance": func() error {
			_, err := env.service.SubmitUtterance(context.Background(), otherUser, sess.ID, "Hello", &conf)
			return err
		},
		"EndSession": func() error {
			return env.service.EndSession(context.Background(), otherUser, sess.ID)
		},
		"GenerateSummary": func() error {
			_, err := env.service.GenerateSummary(context.Background(), otherUser, sess.ID)
			return err
		},
		"GetSummary": func() error {
			_, err := env.service.GetSummary(context.Background(), otherUser, sess.ID)
			return err
		},
		"StartCapture": func() error {
			return env.service.StartCapture(context.Background(), otherUser, sess.ID)
		},
	}
	for name, op := range checks {
		if err := op(); !errors.Is(err, ErrSessionNotFound) {
			t.Errorf("%s: expected ErrSessionNotFound for foreign session, got %v", name, err)
		}
	}
}

func TestSubmitUtterance_MissingSession(t *testing.T) {
	env := newTestEnv()
	_, err := env.service.SubmitUtterance(context.Background(), 1, 999, "Hello", nil)
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if env.gateway.callCount() != 0 {
		t.Fatal("expected no translation call for a missing session")
	}
}

func TestSubmitUtterance_StoresSpeechConfidenceNotTranslationConfidence(t *testing.T) {
	env := newTestEnv()
	translationConf := 0.42
	env.gateway.confidence = &translationConf
	sess := mustCreateSession(t, env, 1)

	speechConf := 87
	result, err := env.service.SubmitUtterance(context.Background(), 1, sess.ID, "Hello", &speechConf)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.TranslatedText != "你好" {
		t.Fatalf("unexpected translated text: %s", result.TranslatedText)
	}
	if result.Confidence == nil || *result.Confidence != 0.42 {
		t.Fatalf("expected translation confidence returned to caller, got %v", result.Confidence)
	}

	inserted := <-env.repo.insertedCh
	if inserted.OriginalText != "Hello" || inserted.TranslatedText != "你好" {
		t.Fatalf("unexpected transcript row: %+v", inserted)
	}
	if inserted.Confidence == nil || *inserted.Confidence != 87 {
		t.Fatalf("expected stored confidence to be the speech score 87, got %v", inserted.Confidence)
	}
}

func TestSubmitUtterance_PassesSessionScenario(t *testing.T) {
	env := newTestEnv()
	scenario := "medical"
	created, err := env.service.CreateSession(context.Background(), 1, "Demo", "en", "zh-Hant", &scenario)
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	if _, err := env.service.SubmitUtterance(context.Background(), 1, created.ID, "Hello", nil); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if env.gateway.scenario == nil || *env.gateway.scenario != "medical" {
		t.Fatalf("expected scenario to be forwarded to the gateway, got %v", env.gateway.scenario)
	}
}

func TestSubmitUtterance_TranslationFailurePersistsNothing(t *testing.T) {
	env := newTestEnv()
	env.gateway.err = translator.ErrTranslationFailed
	sess := mustCreateSession(t, env, 1)

	_, err := env.service.SubmitUtterance(context.Background(), 1, sess.ID, "Hello", nil)
	if !errors.Is(err, translator.ErrTranslationFailed) {
		t.Fatalf("expected ErrTranslationFailed, got %v", err)
	}
	select {
	case inserted := <-env.repo.insertedCh:
		t.Fatalf("expected no transcript row, got %+v", inserted)
	default:
	}
}

func TestEndSession_CompletesAndNotifiesWebhook(t *testing.T) {
	env := newTestEnv()
	sess := mustCreateSession(t, env, 1)
	if _, err := env.service.SubmitUtterance(context.Background(), 1, sess.ID, "Hello", nil); err != nil {
		t.Fatalf("failed to submit utterance: %v", err)
	}

	if err := env.service.EndSession(context.Background(), 1, sess.ID); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	updated, err := env.service.GetSession(context.Background(), 1, sess.ID)
	if err != nil {
		t.Fatalf("failed to reload session: %v", err)
	}
	if updated.Status != repository.SessionStatusCompleted {
		t.Fatalf("expected completed status, got %s", updated.Status)
	}
	if updated.EndedAt == nil {
		t.Fatal("expected ended_at to be stamped")
	}
	if !updated.Ended() {
		t.Fatal("expected Ended() to report true for completed session")
	}

	select {
	case payload := <-env.webhook.sent:
		if payload.SessionID != sess.ID {
			t.Fatalf("unexpected webhook session id: %d", payload.SessionID)
		}
		if len(payload.Lines) != 1 || payload.Lines[0] != "Hello → 你好" {
			t.Fatalf("unexpected webhook lines: %v", payload.Lines)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected webhook to be sent after session end")
	}
}

func TestEndSession_RepeatCallsDoNotFail(t *testing.T) {
	env := newTestEnv()
	sess := mustCreateSession(t, env, 1)

	if err := env.service.EndSession(context.Background(), 1, sess.ID); err != nil {
		t.Fatalf("first end failed: %v", err)
	}
	if err := env.service.EndSession(context.Background(), 1, sess.ID); err != nil {
		t.Fatalf("second end failed: %v", err)
	}
	env.repo.mu.Lock()
	calls := len(env.repo.completeCalls)
	env.repo.mu.Unlock()
	if calls != 2 {
		t.Fatalf("expected ended_at to be re-stamped on repeat call, got %d complete calls", calls)
	}
}

func TestEndSession_RepeatCallsSendWebhookOnce(t *testing.T) {
	env := newTestEnv()
	sess := mustCreateSession(t, env, 1)

	if err := env.service.EndSession(context.Background(), 1, sess.ID); err != nil {
		t.Fatalf("first end failed: %v", err)
	}
	select {
	case <-env.webhook.sent:
	case <-time.After(2 * time.Second):
		t.Fatal("expected webhook for the first end call")
	}

	if err := env.service.EndSession(context.Background(), 1, sess.ID); err != nil {
		t.Fatalf("second end failed: %v", err)
	}
	select {
	case payload := <-env.webhook.sent:
		t.Fatalf("unexpected duplicate webhook delivery: %+v", payload)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestGenerateSummary_NoTranscripts(t *testing.T) {
	env := newTestEnv()
	sess := mustCreateSession(t, env, 1)

	_, err := env.service.GenerateSummary(context.Background(), 1, sess.ID)
	if !errors.Is(err, ErrNoTranscripts) {
		t.Fatalf("expected ErrNoTranscripts, got %v", err)
	}
	if env.summarizer.callCount() != 0 {
		t.Fatal("expected no provider call for an empty session")
	}
	if got, _ := env.service.GetSummary(context.Background(), 1, sess.ID); got != nil {
		t.Fatal("expected nothing persisted")
	}
}

func TestGenerateSummary_IdempotentWithSingleProviderCall(t *testing.T) {
	env := newTestEnv()
	sess := mustCreateSession(t, env, 1)
	if _, err := env.service.SubmitUtterance(context.Background(), 1, sess.ID, "Hello", nil); err != nil {
		t.Fatalf("failed to submit utterance: %v", err)
	}

	first, err := env.service.GenerateSummary(context.Background(), 1, sess.ID)
	if err != nil {
		t.Fatalf("first generation failed: %v", err)
	}
	if first.SummaryText == "" {
		t.Fatal("expected non-empty summary text")
	}

	second, err := env.service.GenerateSummary(context.Background(), 1, sess.ID)
	if err != nil {
		t.Fatalf("second generation failed: %v", err)
	}
	if second.SummaryText != first.SummaryText {
		t.Fatalf("expected identical summary texts, got %q and %q", first.SummaryText, second.SummaryText)
	}
	if env.summarizer.callCount() != 1 {
		t.Fatalf("expected exactly one provider call, got %d", env.summarizer.callCount())
	}
}

func TestGetSummary_NilWithoutSummary(t *testing.T) {
	env := newTestEnv()
	sess := mustCreateSession(t, env, 1)

	summary, err := env.service.GetSummary(context.Background(), 1, sess.ID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if summary != nil {
		t.Fatalf("expected nil summary, got %+v", summary)
	}
}

// Full walkthrough: create, submit, end, summarize twice.
func TestSessionLifecycle(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	sess, err := env.service.CreateSession(ctx, 1, "Demo", "en", "zh-Hant", nil)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	result, err := env.service.SubmitUtterance(ctx, 1, sess.ID, "Hello", nil)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if result.TranslatedText != "你好" {
		t.Fatalf("unexpected translation: %s", result.TranslatedText)
	}

	transcripts, err := env.service.ListTranscripts(ctx, 1, sess.ID)
	if err != nil {
		t.Fatalf("list transcripts failed: %v", err)
	}
	if len(transcripts) != 1 || transcripts[0].OriginalText != "Hello" || transcripts[0].TranslatedText != "你好" {
		t.Fatalf("unexpected transcripts: %+v", transcripts)
	}

	if err := env.service.EndSession(ctx, 1, sess.ID); err != nil {
		t.Fatalf("end failed: %v", err)
	}
	ended, _ := env.service.GetSession(ctx, 1, sess.ID)
	if ended.Status != repository.SessionStatusCompleted {
		t.Fatalf("expected completed, got %s", ended.Status)
	}

	first, err := env.service.GenerateSummary(ctx, 1, sess.ID)
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if first.SummaryText == "" {
		t.Fatal("expected non-empty summary")
	}

	second, err := env.service.GenerateSummary(ctx, 1, sess.ID)
	if err != nil {
		t.Fatalf("second summary failed: %v", err)
	}
	if second.SummaryText != first.SummaryText || env.summarizer.callCount() != 1 {
		t.Fatal("expected idempotent summary with a single provider call")
	}
}
