package repository

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kotobalab/tsuyaku/internal/repository"
)

// PostgresRepository connects lazily so the service can come up, and keep
// serving read-only surfaces, while the database is unreachable.
//
// Degradation policy, per operation kind:
//   - reads  -> degrade to empty/absent results, never surface the outage
//   - writes -> fail loudly with repository.ErrStorageUnavailable
type PostgresRepository struct {
	databaseURL string

	mu   sync.Mutex
	pool *pgxpool.Pool
}

func NewPostgresRepository(databaseURL string) repository.Repository {
	return &PostgresRepository{databaseURL: databaseURL}
}

// NewPostgresRepositoryWithPool wires an already-connected pool, mainly for
// integration tests that manage their own database lifecycle.
func NewPostgresRepositoryWithPool(pool *pgxpool.Pool) repository.Repository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) connect(ctx context.Context) (*pgxpool.Pool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pool != nil {
		return r.pool, nil
	}
	p, err := pgxpool.New(ctx, r.databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := RunMigration(ctx, p); err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to run migration: %w", err)
	}
	r.pool = p
	return p, nil
}

// readPool returns the pool or nil when the database is unreachable.
func (r *PostgresRepository) readPool(ctx context.Context) *pgxpool.Pool {
	p, err := r.connect(ctx)
	if err != nil {
		slog.Warn("database unavailable; read degrades to empty result", "error", err)
		return nil
	}
	return p
}

// writePool returns the pool or ErrStorageUnavailable.
func (r *PostgresRepository) writePool(ctx context.Context) (*pgxpool.Pool, error) {
	p, err := r.connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrStorageUnavailable, err)
	}
	return p, nil
}

func (r *PostgresRepository) UpsertUser(ctx context.Context, input repository.UpsertUserInput) (*repository.User, error) {
	p, err := r.writePool(ctx)
	if err != nil {
		return nil, err
	}
	row := p.QueryRow(ctx,
		`INSERT INTO users (open_id, name, email, last_signed_in)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (open_id) DO UPDATE SET
			name = COALESCE(EXCLUDED.name, users.name),
			email = COALESCE(EXCLUDED.email, users.email),
			last_signed_in = EXCLUDED.last_signed_in,
			updated_at = NOW()
		 RETURNING id, open_id, name, email, role, created_at, updated_at, last_signed_in`,
		input.OpenID, input.Name, input.Email, input.LastSignedIn)
	return scanUser(row)
}

func (r *PostgresRepository) GetUserByOpenID(ctx context.Context, openID string) (*repository.User, error) {
	p := r.readPool(ctx)
	if p == nil {
		return nil, nil
	}
	row := p.QueryRow(ctx,
		`SELECT id, open_id, name, email, role, created_at, updated_at, last_signed_in
		 FROM users WHERE open_id = $1`,
		openID)
	u, err := scanUser(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

func (r *PostgresRepository) CreateSession(ctx context.Context, input repository.CreateSessionInput) (*repository.Session, error) {
	p, err := r.writePool(ctx)
	if err != nil {
		return nil, err
	}
	row := p.QueryRow(ctx,
		`INSERT INTO sessions (user_id, title, source_language, target_language, scenario, started_at, status)
		 VALUES ($1, $2, $3, $4, $5, $6, 'active')
		 RETURNING id, user_id, title, source_language, target_language, scenario, status, started_at, ended_at, created_at, updated_at`,
		input.UserID, input.Title, input.SourceLanguage, input.TargetLanguage, input.Scenario, input.StartedAt)
	return scanSession(row)
}

func (r *PostgresRepository) GetSessionByID(ctx context.Context, id int64) (*repository.Session, error) {
	p := r.readPool(ctx)
	if p == nil {
		return nil, nil
	}
	row := p.QueryRow(ctx,
		`SELECT id, user_id, title, source_language, target_language, scenario, status, started_at, ended_at, created_at, updated_at
		 FROM sessions WHERE id = $1`,
		id)
	s, err := scanSession(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

func (r *PostgresRepository) ListSessionsByUserID(ctx context.Context, userID int64) ([]repository.Session, error) {
	p := r.readPool(ctx)
	if p == nil {
		return nil, nil
	}
	rows, err := p.Query(ctx,
		`SELECT id, user_id, title, source_language, target_language, scenario, status, started_at, ended_at, created_at, updated_at
		 FROM sessions WHERE user_id = $1 ORDER BY started_at ASC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []repository.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *s)
	}
	return list, rows.Err()
}

func (r *PostgresRepository) CompleteSession(ctx context.Context, input repository.CompleteSessionInput) error {
	p, err := r.writePool(ctx)
	if err != nil {
		return err
	}
	_, err = p.Exec(ctx,
		`UPDATE sessions SET status = 'completed', ended_at = $2, updated_at = NOW() WHERE id = $1`,
		input.SessionID, input.EndedAt)
	return err
}

func (r *PostgresRepository) InsertTranscript(ctx context.Context, input repository.InsertTranscriptInput) (*repository.Transcript, error) {
	p, err := r.writePool(ctx)
	if err != nil {
		return nil, err
	}
	row := p.QueryRow(ctx,
		`INSERT INTO transcripts (session_id, original_text, translated_text, confidence, spoken_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, session_id, original_text, translated_text, confidence, spoken_at, created_at`,
		input.SessionID, input.OriginalText, input.TranslatedText, input.Confidence, input.SpokenAt)
	var t repository.Transcript
	if err := row.Scan(&t.ID, &t.SessionID, &t.OriginalText, &t.TranslatedText, &t.Confidence, &t.SpokenAt, &t.CreatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *PostgresRepository) ListTranscriptsBySessionID(ctx context.Context, sessionID int64) ([]repository.Transcript, error) {
	p := r.readPool(ctx)
	if p == nil {
		return nil, nil
	}
	rows, err := p.Query(ctx,
		`SELECT id, session_id, original_text, translated_text, confidence, spoken_at, created_at
		 FROM transcripts WHERE session_id = $1 ORDER BY spoken_at ASC`,
		sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []repository.Transcript
	for rows.Next() {
		var t repository.Transcript
		if err := rows.Scan(&t.ID, &t.SessionID, &t.OriginalText, &t.TranslatedText, &t.Confidence, &t.SpokenAt, &t.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

func (r *PostgresRepository) InsertSummary(ctx context.Context, input repository.InsertSummaryInput) (*repository.Summary, error) {
	p, err := r.writePool(ctx)
	if err != nil {
		return nil, err
	}
	row := p.QueryRow(ctx,
		`INSERT INTO summaries (session_id, summary_text)
		 VALUES ($1, $2)
		 RETURNING id, session_id, summary_text, created_at`,
		input.SessionID, input.SummaryText)
	var s repository.Summary
	if err := row.Scan(&s.ID, &s.SessionID, &s.SummaryText, &s.CreatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *PostgresRepository) GetSummaryBySessionID(ctx context.Context, sessionID int64) (*repository.Summary, error) {
	p := r.readPool(ctx)
	if p == nil {
		return nil, nil
	}
	row := p.QueryRow(ctx,
		`SELECT id, session_id, summary_text, created_at
		 FROM summaries WHERE session_id = $1`,
		sessionID)
	var s repository.Summary
	if err := row.Scan(&s.ID, &s.SessionID, &s.SummaryText, &s.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func scanUser(row pgx.Row) (*repository.User, error) {
	var u repository.User
	if err := row.Scan(&u.ID, &u.OpenID, &u.Name, &u.Email, &u.Role, &u.CreatedAt, &u.UpdatedAt, &u.LastSignedIn); err != nil {
		return nil, err
	}
	return &u, nil
}

func scanSession(row pgx.Row) (*repository.Session, error) {
	var s repository.Session
	if err := row.Scan(&s.ID, &s.UserID, &s.Title, &s.SourceLanguage, &s.TargetLanguage, &s.Scenario, &s.Status, &s.StartedAt, &s.EndedAt, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}
