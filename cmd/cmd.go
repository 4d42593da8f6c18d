// submodule cmd contains command definitions
package main

import (
	"time"

	"github.com/urfave/cli/v3"
)

// setupCommand handles setup operations for configuration and the credential store.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write the default config.toml",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize the credential store and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "status",
				Usage:  "List migrations and whether they are applied",
				Action: r.SetupStatus,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent migration",
				Action: r.SetupRollback,
			},
		},
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage authentication",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in with email and password",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "email",
						Aliases:  []string{"e"},
						Usage:    "Account email",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "password",
						Aliases:  []string{"p"},
						Usage:    "Account password",
						Sources:  cli.EnvVars("RESONANCE_PASSWORD"),
						Required: true,
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "register",
				Usage: "Create an account",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "email",
						Aliases:  []string{"e"},
						Usage:    "Account email",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "username",
						Aliases:  []string{"u"},
						Usage:    "Display name",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "password",
						Aliases:  []string{"p"},
						Usage:    "Account password",
						Sources:  cli.EnvVars("RESONANCE_PASSWORD"),
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "login",
						Usage: "Sign in after registering",
						Value: true,
					},
				},
				Action: r.AuthRegister,
			},
			{
				Name:  "google",
				Usage: "Sign in with Google through the browser",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "How long to wait for the browser callback",
						Value: 5 * time.Minute,
					},
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the sign-in URL instead of opening it",
					},
				},
				Action: r.AuthGoogle,
			},
			{
				Name:  "import",
				Usage: "Import the AUTH_TOKEN cookie from a browser cURL command",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "curl",
						Usage: "cURL command from browser DevTools (Copy as cURL)",
					},
				},
				Action: r.AuthImport,
			},
			{
				Name:   "logout",
				Usage:  "Forget every stored token",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Show whether a session is stored",
				Action: r.AuthStatus,
			},
		},
	}
}

func pageFlags(defaultSize int) []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "page",
			Usage: "Zero-based page number",
		},
		&cli.IntFlag{
			Name:  "size",
			Usage: "Items per page",
			Value: defaultSize,
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
	}
}

// feedCommand prints one page of the discovery feed.
func feedCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "feed",
		Usage:  "Show a page of the discovery feed",
		Flags:  pageFlags(r.config.Feed.PageSize),
		Action: r.Feed,
	}
}

// searchCommand runs one catalogue search.
func searchCommand(r *Runner) *cli.Command {
	flags := append(pageFlags(r.config.Search.PageSize), &cli.StringFlag{
		Name:    "type",
		Aliases: []string{"t"},
		Usage:   "Filter by media type (track, album, artist, all)",
	})
	return &cli.Command{
		Name:  "search",
		Usage: "Search tracks, albums and artists",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "query"},
		},
		Flags:  flags,
		Action: r.Search,
	}
}

// libraryCommand handles the signed-in user's library.
func libraryCommand(r *Runner) *cli.Command {
	listFlags := []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
	}
	return &cli.Command{
		Name:    "library",
		Aliases: []string{"lib"},
		Usage:   "Manage your library",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List library entries",
				Flags:  listFlags,
				Action: r.LibraryList,
			},
			{
				Name:   "favorites",
				Usage:  "List favorite entries",
				Flags:  listFlags,
				Action: r.LibraryFavorites,
			},
			{
				Name:  "add",
				Usage: "Add a media item to the library",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "type",
						Aliases:  []string{"t"},
						Usage:    "Media type (track, album, artist)",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "comment",
						Aliases: []string{"m"},
						Usage:   "Optional note stored with the entry",
					},
				},
				Action: r.LibraryAdd,
			},
			{
				Name:  "favorite",
				Usage: "Mark a media item as a favorite",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.LibraryFavorite,
			},
			{
				Name:  "export",
				Usage: "Export the library to a file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format (csv, markdown, txt, json)",
						Value:   "csv",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output path (directory for markdown)",
					},
					&cli.BoolFlag{
						Name:  "favorites",
						Usage: "Export favorites only",
					},
					&cli.BoolFlag{
						Name:  "cover",
						Usage: "Download the first entry's artwork next to a markdown export",
					},
				},
				Action: r.LibraryExport,
			},
		},
	}
}

// apiCommand handles direct API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to the Resonance API",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET, prints raw JSON",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output compact JSON",
					},
				},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "Direct POST with JSON body",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive discovery feed",
		Action:  r.TUI,
	}
}
