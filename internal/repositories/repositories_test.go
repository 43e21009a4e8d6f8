package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/songpick/internal/models"
	"github.com/desertthunder/songpick/internal/shared"
	"golang.org/x/oauth2"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func testToken() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(time.Hour).UTC().Truncate(time.Second),
	}
}

func TestSessionRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Create and Get", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		session := models.NewSession("kim@example.com", testToken())

		if err := repo.Create(ctx, session); err != nil {
			t.Fatalf("failed to create session: %v", err)
		}
		if session.ID() == "" {
			t.Fatal("session ID should be set after creation")
		}

		got, err := repo.Get(ctx, session.ID())
		if err != nil {
			t.Fatalf("failed to get session: %v", err)
		}
		if got.Email() != "kim@example.com" {
			t.Errorf("expected email kim@example.com, got %s", got.Email())
		}
		if got.Token().RefreshToken != "refresh" || got.Token().AccessToken != "access" {
			t.Errorf("token not round-tripped: %+v", got.Token())
		}
		if !got.Token().Expiry.Equal(session.Token().Expiry) {
			t.Errorf("expiry = %v, want %v", got.Token().Expiry, session.Token().Expiry)
		}
		if got.Status() != models.SessionActive {
			t.Errorf("expected active status, got %s", got.Status())
		}
	})

	t.Run("Create without expiry", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		session := models.NewSession("kim@example.com", &oauth2.Token{AccessToken: "a"})

		if err := repo.Create(ctx, session); err != nil {
			t.Fatal(err)
		}
		got, err := repo.Get(ctx, session.ID())
		if err != nil {
			t.Fatal(err)
		}
		if !got.Token().Expiry.IsZero() {
			t.Errorf("expected zero expiry, got %v", got.Token().Expiry)
		}
	})

	t.Run("Create validation", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		if err := repo.Create(ctx, models.NewSession("", testToken())); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected invalid input, got %v", err)
		}
		if err := repo.Create(ctx, models.NewSession("a@b.c", nil)); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected invalid input, got %v", err)
		}
	})

	t.Run("Get not found", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		if _, err := repo.Get(ctx, "missing"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected not found, got %v", err)
		}
	})

	t.Run("Update marks refresh failure", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		session := models.NewSession("kim@example.com", testToken())
		if err := repo.Create(ctx, session); err != nil {
			t.Fatal(err)
		}

		session.SetStatus(models.SessionRefreshFailed)
		if err := repo.Update(ctx, session); err != nil {
			t.Fatalf("failed to update: %v", err)
		}

		got, err := repo.Get(ctx, session.ID())
		if err != nil {
			t.Fatal(err)
		}
		if !got.Expired() {
			t.Error("expected session to be expired after refresh failure")
		}
	})

	t.Run("Update not found", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		session := models.NewSession("kim@example.com", testToken())
		session.SetID("nope")
		if err := repo.Update(ctx, session); !errors.Is(err, shared.ErrSessionNotFound) {
			t.Errorf("expected session not found, got %v", err)
		}
	})

	t.Run("Save upserts by id", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		session := models.NewSession("kim@example.com", testToken())
		session.SetID("local")

		if err := repo.Save(ctx, session); err != nil {
			t.Fatalf("first save: %v", err)
		}

		session.SetToken(&oauth2.Token{AccessToken: "new", RefreshToken: "refresh"})
		if err := repo.Save(ctx, session); err != nil {
			t.Fatalf("second save: %v", err)
		}

		got, err := repo.Get(ctx, "local")
		if err != nil {
			t.Fatal(err)
		}
		if got.Token().AccessToken != "new" {
			t.Errorf("expected updated access token, got %s", got.Token().AccessToken)
		}
	})

	t.Run("Delete and List", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		first := models.NewSession("kim@example.com", testToken())
		second := models.NewSession("kim@example.com", testToken())
		other := models.NewSession("lee@example.com", testToken())
		for _, s := range []*models.Session{first, second, other} {
			if err := repo.Create(ctx, s); err != nil {
				t.Fatal(err)
			}
		}

		list, err := repo.List(ctx, "kim@example.com")
		if err != nil {
			t.Fatal(err)
		}
		if len(list) != 2 {
			t.Fatalf("expected 2 sessions, got %d", len(list))
		}

		if err := repo.Delete(ctx, first.ID()); err != nil {
			t.Fatalf("failed to delete: %v", err)
		}
		if err := repo.Delete(ctx, first.ID()); !errors.Is(err, shared.ErrSessionNotFound) {
			t.Errorf("second delete should report not found, got %v", err)
		}

		list, _ = repo.List(ctx, "kim@example.com")
		if len(list) != 1 || list[0].ID() != second.ID() {
			t.Errorf("unexpected sessions after delete: %v", list)
		}
	})
}

func TestStateRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Issue and Consume once", func(t *testing.T) {
		repo := NewStateRepository(setupTestDB(t))

		st, err := repo.Issue(ctx, "/leaderboard")
		if err != nil {
			t.Fatalf("failed to issue state: %v", err)
		}
		if st.State == "" {
			t.Fatal("state should not be empty")
		}

		got, err := repo.Consume(ctx, st.State)
		if err != nil {
			t.Fatalf("failed to consume state: %v", err)
		}
		if got.Redirect != "/leaderboard" {
			t.Errorf("expected redirect /leaderboard, got %s", got.Redirect)
		}

		if _, err := repo.Consume(ctx, st.State); !errors.Is(err, shared.ErrInvalidState) {
			t.Errorf("reused state should be rejected, got %v", err)
		}
	})

	t.Run("Default redirect", func(t *testing.T) {
		repo := NewStateRepository(setupTestDB(t))
		st, err := repo.Issue(ctx, "")
		if err != nil {
			t.Fatal(err)
		}
		if st.Redirect != "/" {
			t.Errorf("expected default redirect /, got %s", st.Redirect)
		}
	})

	t.Run("Unknown state", func(t *testing.T) {
		repo := NewStateRepository(setupTestDB(t))
		if _, err := repo.Consume(ctx, "forged"); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected invalid input, got %v", err)
		}
	})

	t.Run("Expired state", func(t *testing.T) {
		repo := NewStateRepository(setupTestDB(t))
		issued := time.Now()
		repo.now = func() time.Time { return issued }

		st, err := repo.Issue(ctx, "/")
		if err != nil {
			t.Fatal(err)
		}

		repo.now = func() time.Time { return issued.Add(DefaultStateTTL + time.Minute) }
		if _, err := repo.Consume(ctx, st.State); !errors.Is(err, shared.ErrInvalidState) {
			t.Errorf("expected expired state to be rejected, got %v", err)
		}
	})

	t.Run("Purge", func(t *testing.T) {
		repo := NewStateRepository(setupTestDB(t))
		issued := time.Now()
		repo.now = func() time.Time { return issued }
		if _, err := repo.Issue(ctx, "/"); err != nil {
			t.Fatal(err)
		}

		repo.now = func() time.Time { return issued.Add(DefaultStateTTL + time.Minute) }
		if _, err := repo.Issue(ctx, "/"); err != nil {
			t.Fatal(err)
		}

		n, err := repo.Purge(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if n != 1 {
			t.Errorf("expected 1 purged state, got %d", n)
		}
	})
}
