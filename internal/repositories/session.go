package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/songpick/internal/models"
	"github.com/desertthunder/songpick/internal/shared"
	"golang.org/x/oauth2"
)

const sessionColumns = `id, email, access_token, refresh_token, token_type, expiry, status, created_at, updated_at`

// SessionRepository implements [models.Repository] for [models.Session] persistence.
type SessionRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.Session] = (*SessionRepository)(nil)

// NewSessionRepository creates a new [SessionRepository] with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a session, generating an id unless one is already set.
func (r *SessionRepository) Create(ctx context.Context, s *models.Session) error {
	if s.ID() == "" {
		s.SetID(shared.GenerateID())
	}

	if err := s.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	tok := s.Token()
	query := `INSERT INTO sessions (` + sessionColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		s.ID(), s.Email(), tok.AccessToken, tok.RefreshToken, tok.TokenType, nullTime(tok.Expiry),
		string(s.Status()), s.CreatedAt(), s.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	return nil
}

// Get retrieves a session by ID.
func (r *SessionRepository) Get(ctx context.Context, id string) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = ?`

	s, err := scanSession(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}
	return s, nil
}

// Update persists the token and status of an existing session.
func (r *SessionRepository) Update(ctx context.Context, s *models.Session) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	tok := s.Token()
	query := `
		UPDATE sessions
		SET access_token = ?, refresh_token = ?, token_type = ?, expiry = ?, status = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		tok.AccessToken, tok.RefreshToken, tok.TokenType, nullTime(tok.Expiry), string(s.Status()), s.UpdatedAt(), s.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	return requireRow(result, s.ID())
}

// Save inserts s or overwrites the session with the same id.
//
// Used by the CLI, which keeps a single session under a fixed id.
func (r *SessionRepository) Save(ctx context.Context, s *models.Session) error {
	if s.ID() == "" {
		return r.Create(ctx, s)
	}
	if err := s.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	tok := s.Token()
	query := `
		INSERT INTO sessions (` + sessionColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			email = excluded.email,
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			token_type = excluded.token_type,
			expiry = excluded.expiry,
			status = excluded.status,
			updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		s.ID(), s.Email(), tok.AccessToken, tok.RefreshToken, tok.TokenType, nullTime(tok.Expiry),
		string(s.Status()), s.CreatedAt(), s.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Delete removes a session.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return requireRow(result, id)
}

// List returns the sessions for email, most recently updated first.
func (r *SessionRepository) List(ctx context.Context, email string) ([]*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE email = ? ORDER BY updated_at DESC`

	rows, err := r.db.QueryContext(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}

	return sessions, nil
}

func scanSession(row scanner) (*models.Session, error) {
	var (
		id, email, status          string
		access, refresh, tokenType string
		expiry                     sql.NullTime
		createdAt, updatedAt       time.Time
	)

	if err := row.Scan(&id, &email, &access, &refresh, &tokenType, &expiry, &status, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	tok := &oauth2.Token{AccessToken: access, RefreshToken: refresh, TokenType: tokenType}
	if expiry.Valid {
		tok.Expiry = expiry.Time
	}

	s := models.NewSession(email, tok)
	s.SetID(id)
	s.SetStatus(models.SessionStatus(status))
	s.SetCreatedAt(createdAt)
	s.SetUpdatedAt(updatedAt)
	return s, nil
}

func requireRow(result sql.Result, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", shared.ErrSessionNotFound, id)
	}
	return nil
}
