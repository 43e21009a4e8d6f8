// submodule cmd contains command definitions
package main

import (
	"strings"

	"github.com/desertthunder/songpick/internal/formatter"
	"github.com/urfave/cli/v3"
)

// configFlag is registered on the root command; main reads it before the runner is built.
func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func verboseFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "verbose",
		Usage: "Enable debug logging",
	}
}

// setupCommand handles setup operations for the database and configuration file.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "config",
				Usage:  "Write an example config.toml",
				Action: r.SetupConfig,
			},
		},
	}
}

// authCommand handles the CLI's Google sign-in
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the Google sign-in used by the CLI",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in with Google using OAuth2",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the consent URL instead of opening a browser",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Show the signed-in account and token state",
				Action: r.AuthStatus,
			},
			{
				Name:   "logout",
				Usage:  "Forget the stored sign-in",
				Action: r.AuthLogout,
			},
		},
	}
}

// serveCommand runs the HTTP API
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (overrides server.host)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Listen port (overrides server.port)",
			},
		},
		Action: r.Serve,
	}
}

func parseCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "parse",
		Usage: "Look up the artist and title of a YouTube link",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "url"},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Parse,
	}
}

func saveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "save",
		Usage: "Append a submission to the sheet and sync the playlist",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "artist",
				Usage:    "Artist name",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "title",
				Usage:    "Song title",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "url",
				Usage:    "YouTube link",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Save,
	}
}

func submitCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "submit",
		Usage: "Parse a YouTube link and save it in one step",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "url"},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Submit,
	}
}

func leaderboardCommand(r *Runner) *cli.Command {
	names := make([]string, len(formatter.Formats))
	for i, f := range formatter.Formats {
		names[i] = string(f)
	}

	return &cli.Command{
		Name:    "leaderboard",
		Aliases: []string{"lb"},
		Usage:   "Show every leaderboard sheet with your ratings",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: " + strings.Join(names, ", "),
				Value:   string(formatter.FormatTable),
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write to a file instead of stdout",
			},
		},
		Action: r.Leaderboard,
	}
}

func rateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "rate",
		Usage: "Write your rating for a submission row",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:     "row",
				Usage:    "Sheet row of the submission (1-based)",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "rating",
				Usage: "One of 유잼, 가능, 노잼, 불가, 불참, or \"\" to clear",
			},
		},
		Action: r.Rate,
	}
}

func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "sync",
		Usage:  "Rebuild the YouTube playlist from the sheet's links",
		Action: r.Sync,
	}
}
