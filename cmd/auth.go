package main

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/resonance/internal/models"
	"github.com/desertthunder/resonance/internal/server"
	"github.com/desertthunder/resonance/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin signs in with email and password and stores the returned token.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	req := models.LoginRequest{
		Email:    strings.TrimSpace(cmd.String("email")),
		Password: cmd.String("password"),
	}
	if req.Email == "" || req.Password == "" {
		return fmt.Errorf("%w: --email and --password are required", shared.ErrMissingArgument)
	}
	return r.login(ctx, req)
}

func (r *Runner) login(ctx context.Context, req models.LoginRequest) error {
	store, err := r.Session(ctx)
	if err != nil {
		return err
	}

	r.logger.Info("signing in", "email", req.Email)
	resp, err := r.api.Login(ctx, req)
	if err != nil {
		if code := shared.StatusCode(err); code == 400 || code == 401 || code == 403 {
			return fmt.Errorf("%w: invalid email or password", shared.ErrAuthFailed)
		}
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	if _, err := store.Login(ctx, string(models.SourceLocal), resp.Token); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return r.writePlain("✓ Signed in as %s\n", req.Email)
}

// AuthRegister creates an account and, unless --login=false, signs in with it.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	req := models.RegisterRequest{
		Email:    strings.TrimSpace(cmd.String("email")),
		Username: strings.TrimSpace(cmd.String("username")),
		Password: cmd.String("password"),
	}
	if req.Email == "" || req.Username == "" || req.Password == "" {
		return fmt.Errorf("%w: --email, --username and --password are required", shared.ErrMissingArgument)
	}

	r.logger.Info("registering", "email", req.Email, "username", req.Username)
	resp, err := r.api.Register(ctx, req)
	if err != nil {
		return fmt.Errorf("%w: registration failed: %v", shared.ErrAPIRequest, err)
	}
	r.writePlain("✓ Registered %s (%s)\n", resp.Username, resp.Email)

	if !cmd.Bool("login") {
		return nil
	}
	return r.login(ctx, models.LoginRequest{Email: req.Email, Password: req.Password})
}

// AuthGoogle runs the browser sign-in: it serves a one-shot callback locally, sends the
// browser to the API's OAuth entry point and stores the token the callback receives.
func (r *Runner) AuthGoogle(ctx context.Context, cmd *cli.Command) error {
	store, err := r.Session(ctx)
	if err != nil {
		return err
	}

	state := shared.GenerateID()
	handler := server.NewTokenCallbackHandler(state)

	addr := net.JoinHostPort(r.config.Auth.CallbackHost, strconv.Itoa(r.config.Auth.CallbackPort))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	target := r.authURL(state)
	r.logger.Info("waiting for sign-in callback", "addr", addr)
	if cmd.Bool("no-browser") {
		r.writePlain("Open this URL to sign in:\n%s\n", target)
	} else if err := shared.OpenBrowser(target); err != nil {
		r.logger.Warn("failed to open browser", "error", err)
		r.writePlain("Open this URL to sign in:\n%s\n", target)
	}

	waitCtx, cancel := context.WithTimeout(ctx, cmd.Duration("timeout"))
	defer cancel()

	token, err := server.AwaitToken(waitCtx, ln, handler, r.logger)
	if err != nil {
		return err
	}

	if _, err := store.Login(ctx, string(models.SourceCookie), token.AccessToken); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return r.writePlain("✓ Signed in with Google\n")
}

// authURL is the API's OAuth entry point with the local callback as redirect target.
func (r *Runner) authURL(state string) string {
	q := url.Values{}
	q.Set("redirect_uri", r.config.Auth.CallbackURL())
	if state != "" {
		q.Set("state", state)
	}
	return strings.TrimRight(r.config.API.BaseURL, "/") + r.config.Auth.OAuthPath + "?" + q.Encode()
}

// AuthImport stores the AUTH_TOKEN cookie of a request copied from the browser.
func (r *Runner) AuthImport(ctx context.Context, cmd *cli.Command) error {
	curlCmd := cmd.String("curl")
	curlFile := cmd.StringArg("path")

	if curlCmd == "" && curlFile == "" {
		return fmt.Errorf("%w: either a file path or --curl must be provided", shared.ErrMissingArgument)
	}
	if curlCmd != "" && curlFile != "" {
		return fmt.Errorf("%w: cannot specify both a file path and --curl", shared.ErrInvalidArgument)
	}

	var (
		req *shared.CurlRequest
		err error
	)
	if curlFile != "" {
		req, err = shared.ParseCurlFile(curlFile)
		if err != nil {
			return fmt.Errorf("failed to parse cURL file: %w", err)
		}
		r.logger.Info("parsed cURL from file", "file", curlFile)
	} else {
		req, err = shared.ParseCurlCommand(curlCmd)
		if err != nil {
			return fmt.Errorf("failed to parse cURL command: %w", err)
		}
		r.logger.Info("parsed cURL command")
	}

	token, err := req.AuthToken()
	if err != nil {
		return err
	}

	store, err := r.Session(ctx)
	if err != nil {
		return err
	}
	if _, err := store.Login(ctx, string(models.SourceCookie), token); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return r.writePlain("✓ Session imported\n")
}

// AuthLogout clears every stored token.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	store, err := r.Session(ctx)
	if err != nil {
		return err
	}
	if err := store.Logout(ctx); err != nil {
		return fmt.Errorf("sign out incomplete: %w", err)
	}
	return r.writePlain("✓ Signed out\n")
}

// AuthStatus reports whether a session is stored and whether the API accepts it.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	token, err := r.token(ctx)
	if err != nil {
		return err
	}
	if token == "" {
		return r.writePlain("Authentication: ✗ Not signed in\n")
	}

	r.writePlain("Authentication: ✓ Token stored\n")
	if _, err := r.api.Favorites(ctx, token); err != nil {
		r.logger.Debug("token check failed", "error", err)
		if code := shared.StatusCode(err); code == 401 || code == 403 {
			return r.writePlain("API: ✗ Token rejected (status %d)\n", code)
		}
		return r.writePlain("API: ? Unreachable (%v)\n", err)
	}
	return r.writePlain("API: ✓ Token accepted\n")
}
