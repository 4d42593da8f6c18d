package main

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/resonance/internal/preview"
	"github.com/desertthunder/resonance/internal/session"
	"github.com/desertthunder/resonance/internal/shared"
	"github.com/desertthunder/resonance/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive discovery feed.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(r.config.Logging.File)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, shared.ParseLogLevel(r.config.Logging.Level))
	r.SetLogger(fileLogger)

	store, err := r.Session(ctx)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	watchDone := make(chan struct{})
	go func() {
		defer close(watchDone)
		if err := store.Watch(ctx, session.NewTicker(r.config.Auth.PollInterval())); err != nil && !errors.Is(err, context.Canceled) {
			r.logger.Warn("session watcher stopped", "error", err)
		}
	}()

	audio := preview.Factory(preview.OptionsFromConfig(r.config.Preview), shared.WithLogger(r.logger, "component", "player"))
	model := ui.NewModel(ctx, ui.Deps{
		API:     r.api,
		Session: store,
		Audio:   audio,
		Config:  r.config,
		Logger:  r.logger,
		OpenURL: shared.OpenBrowser,
	})
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()

	cancel()
	<-watchDone

	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
