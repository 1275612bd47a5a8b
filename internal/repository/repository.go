package repository

import (
	"context"
	"errors"
	"time"
)

// ErrStorageUnavailable is returned by write operations when no database
// connection can be established. Read operations never return it: they
// degrade to empty results instead, so read-only surfaces keep rendering
// while writes refuse to be dropped silently.
var ErrStorageUnavailable = errors.New("storage unavailable")

type UpsertUserInput struct {
	OpenID       string
	Name         *string
	Email        *string
	LastSignedIn time.Time
}

type CreateSessionInput struct {
	UserID         int64
	Title          string
	SourceLanguage string
	TargetLanguage string
	Scenario       *string
	StartedAt      time.Time
}

type CompleteSessionInput struct {
	SessionID int64
	EndedAt   time.Time
}

type InsertTranscriptInput struct {
	SessionID      int64
	OriginalText   string
	TranslatedText string
	Confidence     *int
	SpokenAt       time.Time
}

type InsertSummaryInput struct {
	SessionID   int64
	SummaryText string
}

type UserRepository interface {
	UpsertUser(ctx context.Context, input UpsertUserInput) (*User, error)
	GetUserByOpenID(ctx context.Context, openID string) (*User, error)
}

type SessionRepository interface {
	CreateSession(ctx context.Context, input CreateSessionInput) (*Session, error)
	GetSessionByID(ctx context.Context, id int64) (*Session, error)
	ListSessionsByUserID(ctx context.Context, userID int64) ([]Session, error)
	CompleteSession(ctx context.Context, input CompleteSessionInput) error
}

type TranscriptRepository interface {
	InsertTranscript(ctx context.Context, input InsertTranscriptInput) (*Transcript, error)
	ListTranscriptsBySessionID(ctx context.Context, sessionID int64) ([]Transcript, error)
}

type SummaryRepository interface {
	InsertSummary(ctx context.Context, input InsertSummaryInput) (*Summary, error)
	GetSummaryBySessionID(ctx context.Context, sessionID int64) (*Summary, error)
}

type Repository interface {
	UserRepository
	SessionRepository
	TranscriptRepository
	SummaryRepository
}
