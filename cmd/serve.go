package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/songpick/internal/repositories"
	"github.com/desertthunder/songpick/internal/server"
	"github.com/desertthunder/songpick/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the HTTP API until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if err := r.config.Validate(); err != nil {
		return err
	}
	if host := cmd.String("host"); host != "" {
		r.config.Server.Host = host
	}
	if port := cmd.Int("port"); port > 0 {
		r.config.Server.Port = port
	}

	db, err := r.database()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(server.Deps{
		Config:   r.config,
		Tokens:   r.tokens,
		Sessions: repositories.NewSessionRepository(db),
		States:   repositories.NewStateRepository(db),
		Backends: r.backends,
		Logger:   shared.WithLogger(r.logger, "component", "http"),
	})

	r.writePlain("→ Serving on http://%s\n", r.config.Server.Addr())
	return srv.ListenAndServe(ctx)
}
