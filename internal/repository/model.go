package repository

import "time"

type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusArchived  SessionStatus = "archived"
)

type User struct {
	ID           int64
	OpenID       string
	Name         *string
	Email        *string
	Role         UserRole
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastSignedIn time.Time
}

type Session struct {
	ID             int64
	UserID         int64
	Title          string
	SourceLanguage string
	TargetLanguage string
	Scenario       *string
	Status         SessionStatus
	StartedAt      time.Time
	EndedAt        *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Ended reports whether the session has left the active state.
// EndedAt is set if and only if this is true.
func (s *Session) Ended() bool {
	return s.Status == SessionStatusCompleted || s.Status == SessionStatusArchived
}

type Transcript struct {
	ID             int64
	SessionID      int64
	OriginalText   string
	TranslatedText string
	// Confidence is the 0-100 speech recognition score supplied at
	// capture time, not the translation provider's own estimate.
	Confidence *int
	SpokenAt   time.Time
	CreatedAt  time.Time
}

type Summary struct {
	ID          int64
	SessionID   int64
	SummaryText string
	CreatedAt   time.Time
}
