package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/resonance/internal/models"
	"github.com/desertthunder/resonance/internal/shared"
	"github.com/urfave/cli/v3"
)

// Feed prints one page of the discovery feed. Guests only get the first page.
func (r *Runner) Feed(ctx context.Context, cmd *cli.Command) error {
	page, size := cmd.Int("page"), cmd.Int("size")
	if page < 0 || size <= 0 {
		return fmt.Errorf("%w: --page must be >= 0 and --size > 0", shared.ErrInvalidArgument)
	}

	token, err := r.token(ctx)
	if err != nil {
		return err
	}
	if token == "" && page > 0 {
		return fmt.Errorf("%w: sign in to see more than the first page", shared.ErrNotAuthenticated)
	}

	r.logger.Info("fetching feed", "page", page, "size", size, "guest", token == "")
	result, err := r.api.Feed(ctx, token, page, size)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, true)
	}
	return r.writePage(fmt.Sprintf("Discover · page %d", result.Page), result, token == "")
}

// Search runs one catalogue query.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}

	filter, err := models.ParseTypeFilter(cmd.String("type"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	page, size := cmd.Int("page"), cmd.Int("size")
	if page < 0 || size <= 0 {
		return fmt.Errorf("%w: --page must be >= 0 and --size > 0", shared.ErrInvalidArgument)
	}

	token, err := r.token(ctx)
	if err != nil {
		return err
	}

	r.logger.Info("searching", "query", query, "type", filter.Label(), "page", page)
	result, err := r.api.Search(ctx, token, query, filter, page, size)
	if errors.Is(err, shared.ErrInvalidInput) {
		return err
	} else if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, true)
	}
	title := fmt.Sprintf("Search %q · %s · %d results", query, filter.Label(), result.TotalElements)
	return r.writePage(title, result, false)
}

func (r *Runner) writePage(title string, page *models.FeedPage, guest bool) error {
	r.writePlainHeader(title)
	if len(page.Content) == 0 {
		return r.writePlain("No results\n")
	}

	offset := page.Page * page.Size
	for i, item := range page.Content {
		if err := r.writeMedia(offset+i+1, item); err != nil {
			return err
		}
	}

	switch {
	case guest:
		return r.writePlainln("Sign in to keep exploring: resonance auth login")
	case !page.Last:
		return r.writePlainln("More with --page %d", page.Page+1)
	}
	return nil
}
