package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/songpick/internal/models"
	"github.com/desertthunder/songpick/internal/shared"
)

// DefaultStateTTL bounds how long a login may take between redirect and callback.
const DefaultStateTTL = 10 * time.Minute

// StateRepository stores OAuth state values until their callback arrives.
type StateRepository struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// NewStateRepository creates a [StateRepository] whose states expire after [DefaultStateTTL].
func NewStateRepository(db *sql.DB) *StateRepository {
	return &StateRepository{db: db, ttl: DefaultStateTTL, now: time.Now}
}

// Issue creates and stores a new random state. redirect is where the browser returns after sign-in.
func (r *StateRepository) Issue(ctx context.Context, redirect string) (*models.OAuthState, error) {
	if redirect == "" {
		redirect = "/"
	}

	st := &models.OAuthState{State: shared.GenerateID(), Redirect: redirect, CreatedAt: r.now().UTC()}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO oauth_states (state, redirect, created_at) VALUES (?, ?, ?)`,
		st.State, st.Redirect, st.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert oauth state: %w", err)
	}
	return st, nil
}

// Consume removes state and returns it. Unknown, reused or expired states return [shared.ErrInvalidState].
func (r *StateRepository) Consume(ctx context.Context, state string) (*models.OAuthState, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	st := &models.OAuthState{State: state}
	err = tx.QueryRowContext(ctx, `SELECT redirect, created_at FROM oauth_states WHERE state = ?`, state).
		Scan(&st.Redirect, &st.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrInvalidState
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query oauth state: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM oauth_states WHERE state = ?`, state); err != nil {
		return nil, fmt.Errorf("failed to delete oauth state: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit oauth state: %w", err)
	}

	if r.now().Sub(st.CreatedAt) > r.ttl {
		return nil, fmt.Errorf("%w: expired", shared.ErrInvalidState)
	}
	return st, nil
}

// Purge deletes states older than the TTL and returns how many were removed.
func (r *StateRepository) Purge(ctx context.Context) (int64, error) {
	cutoff := r.now().UTC().Add(-r.ttl)
	result, err := r.db.ExecContext(ctx, `DELETE FROM oauth_states WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge oauth states: %w", err)
	}
	return result.RowsAffected()
}
