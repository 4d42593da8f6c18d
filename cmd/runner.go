package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/resonance/internal/models"
	"github.com/desertthunder/resonance/internal/repositories"
	"github.com/desertthunder/resonance/internal/services"
	"github.com/desertthunder/resonance/internal/session"
	"github.com/desertthunder/resonance/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	api        *services.APIService
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer

	db      *sql.DB
	session *session.Store
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	API        *services.APIService
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Session    *session.Store
}

// NewRunner creates a new Runner with the provided configuration.
//
// Without an explicit API service one is built from the config's api section.
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
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Config.API.Timeout()}
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		api:        opts.API,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		session:    opts.Session,
	}
	if r.api == nil {
		r.api = r.newAPI()
	}
	return r
}

func (r *Runner) newAPI() *services.APIService {
	return services.NewAPIService(r.config.API.BaseURL, r.httpClient,
		services.WithRateLimit(r.config.API.RateLimit),
		services.WithMinQueryLength(r.config.Search.MinQueryLength),
		services.WithLogger(shared.WithLogger(r.logger, "component", "api")),
	)
}

// SetLogger replaces the logger and rebuilds the API client so request tracing follows it.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
	r.api = r.newAPI()
}

// Session opens the credential store on first use and returns the refreshed session.
func (r *Runner) Session(ctx context.Context) (*session.Store, error) {
	if r.session != nil {
		return r.session, nil
	}

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open credential store: %w", err)
	}
	r.db = db

	repo := repositories.NewCredentialRepository(db)
	r.session = session.NewStore(
		shared.WithLogger(r.logger, "component", "session"),
		session.NewCookieSource(repo),
		session.NewLocalSource(repo),
	)
	if _, err := r.session.Refresh(ctx); err != nil {
		r.logger.Warn("session refresh failed", "error", err)
	}
	return r.session, nil
}

// token returns the current bearer token, or "" for guests.
func (r *Runner) token(ctx context.Context) (string, error) {
	store, err := r.Session(ctx)
	if err != nil {
		return "", err
	}
	return store.Snapshot().Token, nil
}

// requireToken is [Runner.token] for commands that need a signed-in user.
func (r *Runner) requireToken(ctx context.Context) (string, error) {
	token, err := r.token(ctx)
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", fmt.Errorf("%w: run 'resonance auth login' first", shared.ErrNotAuthenticated)
	}
	return token, nil
}

// Close releases the credential store.
func (r *Runner) Close() {
	if r.db == nil {
		return
	}
	if err := r.db.Close(); err != nil {
		r.logger.Warn("failed to close database", "error", err)
	}
	r.db = nil
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, feedCommand, searchCommand, libraryCommand, apiCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
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

// writeMedia prints one numbered catalogue line.
func (r *Runner) writeMedia(n int, item models.MediaItem) error {
	line := fmt.Sprintf("%3d. %s - %s [%s]", n, item.ArtistName, item.Title, item.Type.Label())
	if item.Preview() == "" {
		line += " (no preview)"
	}
	return r.writePlain("%s\n", line)
}

// writeEntry prints one numbered library line.
func (r *Runner) writeEntry(n int, e models.UserLibraryEntry) error {
	var flags []string
	if e.IsFavorite {
		flags = append(flags, "★")
	}
	if e.Rating != nil {
		flags = append(flags, fmt.Sprintf("rated %d", *e.Rating))
	}
	line := fmt.Sprintf("%3d. %s - %s [%s]", n, e.ArtistName, e.MediaTitle, e.MediaType.Label())
	if len(flags) > 0 {
		line += " " + strings.Join(flags, " ")
	}
	if c := e.CommentText(); c != "" {
		line += "\n     > " + c
	}
	return r.writePlain("%s\n", line)
}
