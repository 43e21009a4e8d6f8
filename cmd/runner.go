package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songpick/internal/models"
	"github.com/desertthunder/songpick/internal/repositories"
	"github.com/desertthunder/songpick/internal/services"
	"github.com/desertthunder/songpick/internal/shared"
	"github.com/desertthunder/songpick/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// localSessionID is the session row the CLI signs in to. The HTTP server's sessions use generated ids.
const localSessionID = "local"

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	logger     *log.Logger
	output     io.Writer
	backends   services.BackendFactory
	tokens     *services.TokenManager
	names      *shared.Directory
	db         *sql.DB
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Backends   services.BackendFactory // defaults to the Google APIs
	Tokens     *services.TokenManager  // defaults to the configured OAuth client
	Database   *sql.DB                 // opened from config on first use when nil
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Backends == nil {
		opts.Backends = services.GoogleBackend(opts.Config.Spreadsheet.ID)
	}
	if opts.Tokens == nil {
		opts.Tokens = services.NewTokenManager(
			services.OAuthConfig(opts.Config.Google), opts.Config.Auth.Margin(), shared.WithLogger(opts.Logger, "component", "tokens"),
		)
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		logger:     opts.Logger,
		output:     opts.Output,
		backends:   opts.Backends,
		tokens:     opts.Tokens,
		names:      shared.NewDirectory(opts.Config.Identity.Names),
		db:         opts.Database,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, serveCommand, parseCommand, saveCommand, submitCommand,
		leaderboardCommand, rateCommand, syncCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Close releases the database opened by the runner.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// database opens the configured database on first use.
func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}
	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, err
	}
	r.db = db
	return db, nil
}

func (r *Runner) sessions() (*repositories.SessionRepository, error) {
	db, err := r.database()
	if err != nil {
		return nil, err
	}
	return repositories.NewSessionRepository(db), nil
}

// session loads the CLI session and makes sure its token is usable, persisting a refreshed token.
func (r *Runner) session(ctx context.Context) (*models.Session, error) {
	repo, err := r.sessions()
	if err != nil {
		return nil, err
	}

	sess, err := repo.Get(ctx, localSessionID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("%w: run 'songpick auth login' first", shared.ErrAuthRequired)
	}
	if err != nil {
		return nil, err
	}

	if sess.Expired() {
		return nil, fmt.Errorf("%w: run 'songpick auth login' again", shared.ErrRefreshFailed)
	}

	tok, refreshed, err := r.tokens.Ensure(ctx, sess.Token())
	if err != nil {
		if errors.Is(err, shared.ErrAuthExpired) {
			sess.SetStatus(models.SessionRefreshFailed)
			if serr := repo.Save(ctx, sess); serr != nil {
				r.logger.Warn("failed to mark session", "error", serr)
			}
		}
		return nil, err
	}

	if refreshed {
		sess.SetToken(tok)
		if err := repo.Save(ctx, sess); err != nil {
			r.logger.Warn("failed to persist refreshed token", "error", err)
		}
	}
	return sess, nil
}

// ledger builds a [tasks.Ledger] on the signed-in user's clients.
func (r *Runner) ledger(ctx context.Context) (*tasks.Ledger, *models.Session, error) {
	if r.config.Spreadsheet.ID == "" {
		return nil, nil, shared.ErrMissingSpreadsheetID
	}

	sess, err := r.session(ctx)
	if err != nil {
		return nil, nil, err
	}

	backend, err := r.backends(ctx, oauth2.StaticTokenSource(sess.Token()))
	if err != nil {
		return nil, nil, err
	}
	return tasks.NewLedger(backend, r.config, r.logger), sess, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return err
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
