package httpapi

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kotobalab/tsuyaku/internal/language"
	"github.com/kotobalab/tsuyaku/internal/recognizer"
	"github.com/kotobalab/tsuyaku/internal/repository"
	"github.com/kotobalab/tsuyaku/internal/session"
	"github.com/kotobalab/tsuyaku/internal/speechtoken"
	"github.com/kotobalab/tsuyaku/internal/summarizer"
	"github.com/kotobalab/tsuyaku/internal/translator"
)

const maxAudioChunkBytes = 1 << 20

type sessionResponse struct {
	ID             int64      `json:"id"`
	UserID         int64      `json:"userId"`
	Title          string     `json:"title"`
	SourceLanguage string     `json:"sourceLanguage"`
	TargetLanguage string     `json:"targetLanguage"`
	Scenario       *string    `json:"scenario"`
	Status         string     `json:"status"`
	StartedAt      time.Time  `json:"startedAt"`
	EndedAt        *time.Time `json:"endedAt"`
}

func toSessionResponse(s *repository.Session) sessionResponse {
	return sessionResponse{
		ID:             s.ID,
		UserID:         s.UserID,
		Title:          s.Title,
		SourceLanguage: s.SourceLanguage,
		TargetLanguage: s.TargetLanguage,
		Scenario:       s.Scenario,
		Status:         string(s.Status),
		StartedAt:      s.StartedAt,
		EndedAt:        s.EndedAt,
	}
}

type transcriptResponse struct {
	ID             int64     `json:"id"`
	SessionID      int64     `json:"sessionId"`
	OriginalText   string    `json:"originalText"`
	TranslatedText string    `json:"translatedText"`
	Confidence     *int      `json:"confidence"`
	Timestamp      time.Time `json:"timestamp"`
}

type summaryResponse struct {
	ID          int64     `json:"id"`
	SessionID   int64     `json:"sessionId"`
	SummaryText string    `json:"summaryText"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (s *Server) GetLanguages(c *gin.Context) {
	c.JSON(http.StatusOK, language.SupportedLanguages)
}

func (s *Server) GetScenarios(c *gin.Context) {
	c.JSON(http.StatusOK, language.SupportedScenarios)
}

func (s *Server) GetSpeechToken(c *gin.Context) {
	token, err := s.tokens.IssueToken(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, token)
}

func (s *Server) CreateSession(c *gin.Context) {
	var input struct {
		Title          string  `json:"title" binding:"required"`
		SourceLanguage string  `json:"sourceLanguage" binding:"required"`
		TargetLanguage string  `json:"targetLanguage" binding:"required"`
		Scenario       *string `json:"scenario"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := s.service.CreateSession(c.Request.Context(), currentUser(c).ID,
		input.Title, input.SourceLanguage, input.TargetLanguage, input.Scenario)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toSessionResponse(created))
}

func (s *Server) ListSessions(c *gin.Context) {
	sessions, err := s.service.ListSessions(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	list := make([]sessionResponse, 0, len(sessions))
	for i := range sessions {
		list = append(list, toSessionResponse(&sessions[i]))
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) GetSession(c *gin.Context) {
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}
	sess, err := s.service.GetSession(c.Request.Context(), currentUser(c).ID, sessionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSessionResponse(sess))
}

func (s *Server) SubmitUtterance(c *gin.Context) {
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}
	var input struct {
		Text       string `json:"text" binding:"required"`
		Confidence *int   `json:"confidence"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.Confidence != nil && (*input.Confidence < 0 || *input.Confidence > 100) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "confidence must be between 0 and 100"})
		return
	}

	result, err := s.service.SubmitUtterance(c.Request.Context(), currentUser(c).ID, sessionID, input.Text, input.Confidence)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"translatedText": result.TranslatedText,
		"confidence":     result.Confidence,
	})
}

func (s *Server) ListTranscripts(c *gin.Context) {
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}
	transcripts, err := s.service.ListTranscripts(c.Request.Context(), currentUser(c).ID, sessionID)
	if err != nil {
		respondError(c, err)
		return
	}
	list := make([]transcriptResponse, 0, len(transcripts))
	for _, t := range transcripts {
		list = append(list, transcriptResponse{
			ID:             t.ID,
			SessionID:      t.SessionID,
			OriginalText:   t.OriginalText,
			TranslatedText: t.TranslatedText,
			Confidence:     t.Confidence,
			Timestamp:      t.SpokenAt,
		})
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) EndSession(c *gin.Context) {
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}
	if err := s.service.EndSession(c.Request.Context(), currentUser(c).ID, sessionID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) GenerateSummary(c *gin.Context) {
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}
	summary, err := s.service.GenerateSummary(c.Request.Context(), currentUser(c).ID, sessionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summaryResponse{
		ID:          summary.ID,
		SessionID:   summary.SessionID,
		SummaryText: summary.SummaryText,
		CreatedAt:   summary.CreatedAt,
	})
}

// GetSummary responds with a JSON null when the owned session has no
// summary yet, which is distinct from a 404 for a foreign session.
func (s *Server) GetSummary(c *gin.Context) {
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}
	summary, err := s.service.GetSummary(c.Request.Context(), currentUser(c).ID, sessionID)
	if err != nil {
		respondError(c, err)
		return
	}
	if summary == nil {
		c.JSON(http.StatusOK, nil)
		return
	}
	c.JSON(http.StatusOK, summaryResponse{
		ID:          summary.ID,
		SessionID:   summary.SessionID,
		SummaryText: summary.SummaryText,
		CreatedAt:   summary.CreatedAt,
	})
}

func (s *Server) StartCapture(c *gin.Context) {
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}
	if err := s.service.StartCapture(c.Request.Context(), currentUser(c).ID, sessionID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) WriteCaptureAudio(c *gin.Context) {
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}
	pcm, err := io.ReadAll(io.LimitReader(c.Request.Body, maxAudioChunkBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read audio body"})
		return
	}
	if err := s.service.WriteCaptureAudio(currentUser(c).ID, sessionID, pcm); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) StopCapture(c *gin.Context) {
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}
	if err := s.service.StopCapture(currentUser(c).ID, sessionID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func sessionIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return 0, false
	}
	return id, true
}

// respondError maps service errors onto HTTP statuses with short
// user-facing messages. Diagnostic detail stays in the server log.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
	case errors.Is(err, session.ErrEmptyTitle),
		errors.Is(err, session.ErrUnsupportedLanguage),
		errors.Is(err, session.ErrUnsupportedScenario),
		errors.Is(err, session.ErrNoTranscripts):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, session.ErrSessionEnded),
		errors.Is(err, session.ErrCaptureActive):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, session.ErrNoCapture):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, speechtoken.ErrNotConfigured),
		errors.Is(err, translator.ErrNotConfigured),
		errors.Is(err, summarizer.ErrNotConfigured),
		errors.Is(err, recognizer.ErrNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service not configured"})
	case errors.Is(err, repository.ErrStorageUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage unavailable"})
	default:
		slog.Error("request failed", "error", err, "path", c.FullPath())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "operation failed"})
	}
}
