package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/resonance/internal/formatter"
	"github.com/desertthunder/resonance/internal/models"
	"github.com/desertthunder/resonance/internal/shared"
	"github.com/urfave/cli/v3"
)

// LibraryList prints every saved entry.
func (r *Runner) LibraryList(ctx context.Context, cmd *cli.Command) error {
	return r.listEntries(ctx, cmd, false)
}

// LibraryFavorites prints the favorite entries.
func (r *Runner) LibraryFavorites(ctx context.Context, cmd *cli.Command) error {
	return r.listEntries(ctx, cmd, true)
}

func (r *Runner) listEntries(ctx context.Context, cmd *cli.Command, favorites bool) error {
	token, err := r.requireToken(ctx)
	if err != nil {
		return err
	}

	entries, title, err := r.fetchEntries(ctx, token, favorites)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		if entries == nil {
			entries = []models.UserLibraryEntry{}
		}
		return r.writeJSON(entries, true)
	}

	r.writePlainHeader(fmt.Sprintf("%s · %d entries", title, len(entries)))
	if len(entries) == 0 {
		return r.writePlain("Nothing saved yet\n")
	}
	for i, e := range entries {
		if err := r.writeEntry(i+1, e); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) fetchEntries(ctx context.Context, token string, favorites bool) ([]models.UserLibraryEntry, string, error) {
	fetch, title := r.api.Library, "Library"
	if favorites {
		fetch, title = r.api.Favorites, "Favorites"
	}

	r.logger.Info("fetching entries", "list", title)
	entries, err := fetch(ctx, token)
	if err != nil {
		return nil, title, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	return entries, title, nil
}

// LibraryAdd saves a media item with an optional comment.
func (r *Runner) LibraryAdd(ctx context.Context, cmd *cli.Command) error {
	id := strings.TrimSpace(cmd.StringArg("id"))
	if id == "" {
		return fmt.Errorf("%w: media id", shared.ErrMissingArgument)
	}
	mediaType, err := models.ParseMediaType(cmd.String("type"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	token, err := r.requireToken(ctx)
	if err != nil {
		return err
	}

	r.logger.Info("adding to library", "id", id, "type", mediaType)
	if err := r.api.AddToLibrary(ctx, token, id, mediaType, cmd.String("comment")); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	return r.writePlain("✓ Added %s %s to your library\n", strings.ToLower(mediaType.Label()), id)
}

// LibraryFavorite marks a media item as a favorite.
func (r *Runner) LibraryFavorite(ctx context.Context, cmd *cli.Command) error {
	id := strings.TrimSpace(cmd.StringArg("id"))
	if id == "" {
		return fmt.Errorf("%w: media id", shared.ErrMissingArgument)
	}

	token, err := r.requireToken(ctx)
	if err != nil {
		return err
	}

	r.logger.Info("adding to favorites", "id", id)
	if err := r.api.AddToFavorites(ctx, token, id); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	return r.writePlain("✓ Added %s to your favorites\n", id)
}

// LibraryExport writes the library or favorites in the requested format.
//
// Markdown exports go to a directory holding README.md and, with --cover, the artwork of the
// first entry that has one.
func (r *Runner) LibraryExport(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	token, err := r.requireToken(ctx)
	if err != nil {
		return err
	}

	entries, title, err := r.fetchEntries(ctx, token, cmd.Bool("favorites"))
	if err != nil {
		return err
	}
	export := formatter.Export{Title: title, Entries: entries}
	output := cmd.String("output")

	if format == formatter.Markdown {
		var coverURL string
		if cmd.Bool("cover") {
			coverURL = firstImage(entries)
		}
		warn := func(err error) { r.logger.Warn("cover download failed", "error", err) }

		result, err := formatter.WriteMarkdownExport(ctx, export, output, coverURL, warn)
		if err != nil {
			return err
		}
		r.logger.Info("markdown export written", "dir", result.Directory, "files", len(result.Files))
		return r.writePlain("✓ Exported %d entries to %s\n", len(entries), result.Directory)
	}

	path, err := formatter.WriteExport(format, export, output)
	if err != nil {
		return err
	}
	r.logger.Info("export written", "path", path, "format", format)
	return r.writePlain("✓ Exported %d entries to %s\n", len(entries), path)
}

func firstImage(entries []models.UserLibraryEntry) string {
	for _, e := range entries {
		if e.ImageURL != nil && *e.ImageURL != "" {
			return *e.ImageURL
		}
	}
	return ""
}
