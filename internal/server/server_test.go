package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/songpick/internal/models"
	"github.com/desertthunder/songpick/internal/repositories"
	"github.com/desertthunder/songpick/internal/services"
	"github.com/desertthunder/songpick/internal/sheets"
	"github.com/desertthunder/songpick/internal/shared"
	tu "github.com/desertthunder/songpick/internal/testing"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
)

const testEmail = "chulsoo@example.com"

var (
	_ SessionStore = (*repositories.SessionRepository)(nil)
	_ StateStore   = (*repositories.StateRepository)(nil)
)

type testEnv struct {
	srv      *Server
	cfg      *shared.Config
	client   *sheets.MemoryClient
	platform *tu.MockPlatform
	sessions *repositories.SessionRepository
	states   *repositories.StateRepository

	tokenStatus atomic.Int32
	tokenBody   atomic.Value
	tokenHits   atomic.Int32
	lastToken   atomic.Value
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{client: sheets.NewMemoryClient(), platform: tu.NewMockPlatform()}
	env.tokenStatus.Store(http.StatusOK)
	env.tokenBody.Store(`{"access_token":"fresh-access","token_type":"Bearer","expires_in":3600}`)

	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env.tokenHits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(int(env.tokenStatus.Load()))
		io.WriteString(w, env.tokenBody.Load().(string))
	}))
	t.Cleanup(tokenSrv.Close)

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	db.SetMaxOpenConns(1)
	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	env.cfg = shared.DefaultConfig()
	env.cfg.YouTube.PlaylistID = "PL1"
	env.cfg.Identity.Names = map[string]string{testEmail: "철수"}

	oauthCfg := &oauth2.Config{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost:3000/auth/callback",
		Endpoint: oauth2.Endpoint{
			AuthURL:   "https://accounts.example.com/o/oauth2/auth",
			TokenURL:  tokenSrv.URL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	env.sessions = repositories.NewSessionRepository(db)
	env.states = repositories.NewStateRepository(db)
	logger := shared.NewLogger(io.Discard)

	env.srv = New(Deps{
		Config:   env.cfg,
		Tokens:   services.NewTokenManager(oauthCfg, 5*time.Minute, logger),
		Sessions: env.sessions,
		States:   env.states,
		Backends: func(ctx context.Context, ts oauth2.TokenSource) (*services.Backend, error) {
			tok, err := ts.Token()
			if err != nil {
				return nil, err
			}
			env.lastToken.Store(tok.AccessToken)
			return &services.Backend{Sheets: env.client, Platform: env.platform}, nil
		},
		Email: func(ctx context.Context, ts oauth2.TokenSource) (string, error) {
			return testEmail, nil
		},
		Logger: logger,
	})
	return env
}

// signIn stores a session holding tok and returns its cookie.
func (env *testEnv) signIn(t *testing.T, tok *oauth2.Token) (*models.Session, *http.Cookie) {
	t.Helper()
	sess := models.NewSession(testEmail, tok)
	if err := env.sessions.Create(context.Background(), sess); err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	return sess, &http.Cookie{Name: env.cfg.Server.CookieName, Value: sess.ID()}
}

func (env *testEnv) do(method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	env.srv.ServeHTTP(rec, req)
	return rec
}

func freshToken() *oauth2.Token {
	return &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour)}
}

type response struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	PlaylistID string          `json:"playlistId"`
	Error      string          `json:"error"`
	Code       string          `json:"code"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) response {
	t.Helper()
	var resp response
	if err := json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return resp
}

func expectError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if rec.Code != status {
		t.Errorf("expected status %d, got %d: %s", status, rec.Code, rec.Body.String())
	}
	if resp := decode(t, rec); resp.Code != code {
		t.Errorf("expected code %s, got %s", code, resp.Code)
	}
}

func TestServer(t *testing.T) {
	t.Run("Health", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(http.MethodGet, "/health", "", nil)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if resp := decode(t, rec); !resp.Success {
			t.Error("expected success envelope")
		}
	})

	t.Run("Wrong Method", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(http.MethodGet, "/api/save", "", nil)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})

	t.Run("Session Check", func(t *testing.T) {
		t.Run("No Cookie", func(t *testing.T) {
			env := newTestEnv(t)
			expectError(t, env.do(http.MethodGet, "/api/leaderboard", "", nil), http.StatusUnauthorized, "AUTH_REQUIRED")
		})

		t.Run("Unknown Session", func(t *testing.T) {
			env := newTestEnv(t)
			cookie := &http.Cookie{Name: env.cfg.Server.CookieName, Value: "missing"}
			expectError(t, env.do(http.MethodGet, "/api/leaderboard", "", cookie), http.StatusUnauthorized, "AUTH_REQUIRED")
		})

		t.Run("Expired Token Is Refreshed And Persisted", func(t *testing.T) {
			env := newTestEnv(t)
			tok := freshToken()
			tok.Expiry = time.Now().Add(-time.Minute)
			sess, cookie := env.signIn(t, tok)

			rec := env.do(http.MethodGet, "/api/leaderboard", "", cookie)
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
			}
			if env.tokenHits.Load() != 1 {
				t.Errorf("expected one refresh, got %d", env.tokenHits.Load())
			}
			if got := env.lastToken.Load(); got != "fresh-access" {
				t.Errorf("expected clients built with refreshed token, got %v", got)
			}

			stored, err := env.sessions.Get(context.Background(), sess.ID())
			if err != nil {
				t.Fatal(err)
			}
			if stored.Token().AccessToken != "fresh-access" || stored.Token().RefreshToken != "refresh" {
				t.Errorf("expected refreshed token to be stored, got %+v", stored.Token())
			}
		})

		t.Run("Failed Refresh Marks Session", func(t *testing.T) {
			env := newTestEnv(t)
			env.tokenStatus.Store(http.StatusBadRequest)
			env.tokenBody.Store(`{"error":"invalid_grant"}`)
			tok := freshToken()
			tok.Expiry = time.Now().Add(-time.Minute)
			sess, cookie := env.signIn(t, tok)

			expectError(t, env.do(http.MethodGet, "/api/leaderboard", "", cookie), http.StatusUnauthorized, "TOKEN_EXPIRED")

			stored, err := env.sessions.Get(context.Background(), sess.ID())
			if err != nil {
				t.Fatal(err)
			}
			if stored.Status() != models.SessionRefreshFailed {
				t.Errorf("expected refresh_failed, got %s", stored.Status())
			}

			expectError(t, env.do(http.MethodGet, "/api/leaderboard", "", cookie), http.StatusUnauthorized, "TOKEN_EXPIRED")
			if env.tokenHits.Load() != 1 {
				t.Errorf("expected no second refresh attempt, got %d", env.tokenHits.Load())
			}
		})
	})

	t.Run("Parse", func(t *testing.T) {
		t.Run("Resolves Metadata", func(t *testing.T) {
			env := newTestEnv(t)
			env.platform.Videos["aaaaaaaaaaa"] = &models.Video{ID: "aaaaaaaaaaa", Title: "Song", ChannelTitle: "Band"}
			_, cookie := env.signIn(t, freshToken())

			rec := env.do(http.MethodPost, "/api/parse", `{"url":"https://youtu.be/aaaaaaaaaaa"}`, cookie)
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
			}

			var sub models.Submission
			if err := json.Unmarshal(decode(t, rec).Data, &sub); err != nil {
				t.Fatal(err)
			}
			if sub.Artist != "Band" || sub.Title != "Song" || sub.URL != "https://youtu.be/aaaaaaaaaaa" {
				t.Errorf("unexpected submission %+v", sub)
			}
		})

		t.Run("Invalid URL", func(t *testing.T) {
			env := newTestEnv(t)
			_, cookie := env.signIn(t, freshToken())
			expectError(t, env.do(http.MethodPost, "/api/parse", `{"url":"https://example.com"}`, cookie), http.StatusBadRequest, "INVALID_INPUT")
		})

		t.Run("Malformed Body", func(t *testing.T) {
			env := newTestEnv(t)
			_, cookie := env.signIn(t, freshToken())
			expectError(t, env.do(http.MethodPost, "/api/parse", `{"url":`, cookie), http.StatusBadRequest, "INVALID_INPUT")
		})

		t.Run("Upstream Rejection Is Token Expired", func(t *testing.T) {
			env := newTestEnv(t)
			env.platform.VideoErr = &googleapi.Error{Code: http.StatusForbidden}
			_, cookie := env.signIn(t, freshToken())
			expectError(t, env.do(http.MethodPost, "/api/parse", `{"url":"https://youtu.be/aaaaaaaaaaa"}`, cookie), http.StatusUnauthorized, "TOKEN_EXPIRED")
		})
	})

	t.Run("Save", func(t *testing.T) {
		env := newTestEnv(t)
		_, cookie := env.signIn(t, freshToken())

		rec := env.do(http.MethodPost, "/api/save", `{"artist":"Band","title":"Song","url":"https://youtu.be/aaaaaaaaaaa"}`, cookie)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var result models.SaveResult
		if err := json.Unmarshal(decode(t, rec).Data, &result); err != nil {
			t.Fatal(err)
		}
		if result.Row != 4 || result.UserName != "철수" {
			t.Errorf("unexpected result %+v", result)
		}
		if got := env.client.Cell("선곡", 4, 0).Value; got != "철수" {
			t.Errorf("expected submitter display name in A4, got %q", got)
		}
	})

	t.Run("Leaderboard", func(t *testing.T) {
		env := newTestEnv(t)
		_, cookie := env.signIn(t, freshToken())

		rec := env.do(http.MethodGet, "/api/leaderboard", "", cookie)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		resp := decode(t, rec)
		if resp.PlaylistID != "PL1" {
			t.Errorf("expected playlistId PL1, got %q", resp.PlaylistID)
		}
		if string(resp.Data) != "[]" {
			t.Errorf("expected empty list, got %s", resp.Data)
		}
	})

	t.Run("Rate", func(t *testing.T) {
		seed := func(env *testEnv) {
			header := make([]sheets.Cell, 20)
			header = append(header, sheets.Cell{Value: "영희"}, sheets.Cell{Value: "철수"})
			env.client.Seed("선곡", [][]sheets.Cell{header})
		}

		t.Run("Original Row", func(t *testing.T) {
			env := newTestEnv(t)
			seed(env)
			_, cookie := env.signIn(t, freshToken())

			rec := env.do(http.MethodPost, "/api/rate", `{"originalRow":5,"rating":"유잼"}`, cookie)
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
			}
			var result models.RatingResult
			if err := json.Unmarshal(decode(t, rec).Data, &result); err != nil {
				t.Fatal(err)
			}
			if result.Column != "V" || result.OriginalRow != 5 || result.Rating != models.RatingFun {
				t.Errorf("unexpected result %+v", result)
			}
		})

		t.Run("Row Alias", func(t *testing.T) {
			env := newTestEnv(t)
			seed(env)
			_, cookie := env.signIn(t, freshToken())

			rec := env.do(http.MethodPost, "/api/rate", `{"row":6,"rating":""}`, cookie)
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
			}
		})

		t.Run("Invalid Rating Makes No Call", func(t *testing.T) {
			env := newTestEnv(t)
			seed(env)
			_, cookie := env.signIn(t, freshToken())

			expectError(t, env.do(http.MethodPost, "/api/rate", `{"originalRow":5,"rating":"최고"}`, cookie), http.StatusBadRequest, "INVALID_INPUT")
			if len(env.client.Calls) != 0 {
				t.Errorf("expected no sheet calls, got %v", env.client.Calls)
			}
		})

		t.Run("Missing Fields", func(t *testing.T) {
			env := newTestEnv(t)
			_, cookie := env.signIn(t, freshToken())

			expectError(t, env.do(http.MethodPost, "/api/rate", `{"rating":"유잼"}`, cookie), http.StatusBadRequest, "INVALID_INPUT")
			expectError(t, env.do(http.MethodPost, "/api/rate", `{"row":3}`, cookie), http.StatusBadRequest, "INVALID_INPUT")
		})

		t.Run("No Rating Column", func(t *testing.T) {
			env := newTestEnv(t)
			env.client.Seed("선곡", [][]sheets.Cell{{{Value: "x"}}})
			_, cookie := env.signIn(t, freshToken())

			expectError(t, env.do(http.MethodPost, "/api/rate", `{"originalRow":5,"rating":"유잼"}`, cookie), http.StatusNotFound, "NOT_FOUND")
		})
	})

	t.Run("Sync Playlist", func(t *testing.T) {
		env := newTestEnv(t)
		env.client.Seed("선곡", [][]sheets.Cell{
			{},
			{{}, {}, {}, {}, {Value: "https://youtu.be/aaaaaaaaaaa"}},
		})
		_, cookie := env.signIn(t, freshToken())

		rec := env.do(http.MethodPost, "/api/sync-playlist", "", cookie)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var result models.SyncResult
		if err := json.Unmarshal(decode(t, rec).Data, &result); err != nil {
			t.Fatal(err)
		}
		if result.Added != 1 || result.Total != 1 {
			t.Errorf("unexpected result %+v", result)
		}
	})

	t.Run("Sync Without Playlist", func(t *testing.T) {
		env := newTestEnv(t)
		env.cfg.YouTube.PlaylistID = ""
		_, cookie := env.signIn(t, freshToken())

		expectError(t, env.do(http.MethodPost, "/api/sync-playlist", "", cookie), http.StatusInternalServerError, "CONFIGURATION_ERROR")
	})
}

func TestAuthRoutes(t *testing.T) {
	ctx := context.Background()

	t.Run("Login Redirects With Stored State", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(http.MethodGet, "/auth/login?redirect=/leaderboard", "", nil)

		if rec.Code != http.StatusFound {
			t.Fatalf("expected 302, got %d", rec.Code)
		}
		loc, err := url.Parse(rec.Header().Get("Location"))
		if err != nil {
			t.Fatal(err)
		}
		if loc.Host != "accounts.example.com" || loc.Query().Get("access_type") != "offline" {
			t.Errorf("unexpected consent URL %s", loc)
		}

		st, err := env.states.Consume(ctx, loc.Query().Get("state"))
		if err != nil {
			t.Fatalf("expected state to be stored: %v", err)
		}
		if st.Redirect != "/leaderboard" {
			t.Errorf("expected redirect /leaderboard, got %s", st.Redirect)
		}
	})

	t.Run("Callback Creates Session", func(t *testing.T) {
		env := newTestEnv(t)
		env.tokenBody.Store(`{"access_token":"a","refresh_token":"r","token_type":"Bearer","expires_in":3600}`)
		st, err := env.states.Issue(ctx, "/leaderboard")
		if err != nil {
			t.Fatal(err)
		}

		rec := env.do(http.MethodGet, "/auth/callback?code=abc&state="+st.State, "", nil)
		if rec.Code != http.StatusFound {
			t.Fatalf("expected 302, got %d: %s", rec.Code, rec.Body.String())
		}
		if loc := rec.Header().Get("Location"); loc != "/leaderboard" {
			t.Errorf("expected redirect to /leaderboard, got %s", loc)
		}

		var cookie *http.Cookie
		for _, c := range rec.Result().Cookies() {
			if c.Name == env.cfg.Server.CookieName {
				cookie = c
			}
		}
		if cookie == nil || !cookie.HttpOnly {
			t.Fatalf("expected http-only session cookie, got %+v", cookie)
		}

		sess, err := env.sessions.Get(ctx, cookie.Value)
		if err != nil {
			t.Fatalf("expected session to exist: %v", err)
		}
		if sess.Email() != testEmail || sess.Token().RefreshToken != "r" {
			t.Errorf("unexpected session %s %+v", sess.Email(), sess.Token())
		}

		rec = env.do(http.MethodGet, "/auth/session", "", &http.Cookie{Name: cookie.Name, Value: cookie.Value})
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "철수") {
			t.Errorf("expected session info, got %d %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("Callback Rejects Reused State", func(t *testing.T) {
		env := newTestEnv(t)
		st, _ := env.states.Issue(ctx, "/")

		env.do(http.MethodGet, "/auth/callback?code=abc&state="+st.State, "", nil)
		rec := env.do(http.MethodGet, "/auth/callback?code=abc&state="+st.State, "", nil)
		expectError(t, rec, http.StatusBadRequest, "INVALID_INPUT")
	})

	t.Run("Callback Denied", func(t *testing.T) {
		env := newTestEnv(t)
		expectError(t, env.do(http.MethodGet, "/auth/callback?error=access_denied", "", nil), http.StatusUnauthorized, "AUTH_REQUIRED")
	})

	t.Run("Logout", func(t *testing.T) {
		env := newTestEnv(t)
		sess, cookie := env.signIn(t, freshToken())

		rec := env.do(http.MethodPost, "/auth/logout", "", cookie)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if _, err := env.sessions.Get(ctx, sess.ID()); !errors.Is(err, shared.ErrSessionNotFound) {
			t.Errorf("expected session to be deleted, got %v", err)
		}

		rec = env.do(http.MethodPost, "/auth/logout", "", cookie)
		if rec.Code != http.StatusOK {
			t.Errorf("expected repeated logout to succeed, got %d", rec.Code)
		}
	})
}

func TestLocalRedirect(t *testing.T) {
	tests := map[string]string{
		"":                     "/",
		"/leaderboard":         "/leaderboard",
		"//evil.example.com":   "/",
		"https://evil.example": "/",
		"/\\evil.example.com":  "/",
	}
	for in, want := range tests {
		if got := localRedirect(in); got != want {
			t.Errorf("localRedirect(%q) = %q, want %q", in, got, want)
		}
	}
}
