// package formatter exports library entries to various formats (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/resonance/internal/models"
	"github.com/desertthunder/resonance/internal/shared"
)

// Format is an export format.
type Format string

const (
	CSV      Format = "csv"
	Markdown Format = "markdown"
	Text     Format = "txt"
	JSON     Format = "json"
)

// Formats lists every supported format.
var Formats = []Format{CSV, Markdown, Text, JSON}

// ParseFormat resolves a format name. "md" and "text" are accepted aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return CSV, nil
	case "markdown", "md":
		return Markdown, nil
	case "txt", "text":
		return Text, nil
	case "json":
		return JSON, nil
	}
	return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, s)
}

// Ext is the file extension written for f.
func (f Format) Ext() string {
	if f == Markdown {
		return ".md"
	}
	return "." + string(f)
}

// Export is a titled set of library entries.
type Export struct {
	Title   string                    `json:"title"`
	Entries []models.UserLibraryEntry `json:"entries"`
}

// Render encodes export in format f.
func Render(f Format, export Export) ([]byte, error) {
	switch f {
	case CSV:
		return ExportToCSV(export.Entries)
	case Markdown:
		return ExportToMarkdown(export, "")
	case Text:
		return ExportToText(export)
	case JSON:
		return ExportToJSON(export)
	}
	return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, f)
}

// ExportToCSV converts entries to CSV with columns: ID, Media ID, Type, Title, Artist, Favorite, Rating, Comment, Added
func ExportToCSV(entries []models.UserLibraryEntry) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Media ID", "Type", "Title", "Artist", "Favorite", "Rating", "Comment", "Added"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, e := range entries {
		record := []string{
			e.ID,
			e.MediaID,
			string(e.MediaType),
			e.MediaTitle,
			e.ArtistName,
			strconv.FormatBool(e.IsFavorite),
			rating(e),
			e.CommentText(),
			e.AddedAt.Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts an export to Markdown with an optional cover image
func ExportToMarkdown(export Export, imageFilename string) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", export.Title)

	if imageFilename != "" {
		fmt.Fprintf(&buf, "![Cover](%s)\n\n", imageFilename)
	}

	fmt.Fprintf(&buf, "**Entries**: %d\n", len(export.Entries))
	fmt.Fprintf(&buf, "**Favorites**: %d\n\n", favorites(export.Entries))

	buf.WriteString("## Entries\n\n")
	for i, e := range export.Entries {
		star := ""
		if e.IsFavorite {
			star = " ★"
		}
		fmt.Fprintf(&buf, "%d. %s - %s (%s)%s\n", i+1, e.ArtistName, e.MediaTitle, e.MediaType.Label(), star)
		if c := e.CommentText(); c != "" {
			fmt.Fprintf(&buf, "   > %s\n", c)
		}
	}

	return buf.Bytes(), nil
}

// ExportToText converts an export to plain text
func ExportToText(export Export) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%s\n", export.Title)
	fmt.Fprintf(&buf, "Entries: %d\n\n", len(export.Entries))

	for i, e := range export.Entries {
		fmt.Fprintf(&buf, "%d. %s - %s [%s]\n", i+1, e.ArtistName, e.MediaTitle, e.MediaType)
	}

	return buf.Bytes(), nil
}

// ExportToJSON encodes the export as indented JSON
func ExportToJSON(export Export) ([]byte, error) {
	if export.Entries == nil {
		export.Entries = []models.UserLibraryEntry{}
	}
	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: empty URL provided", shared.ErrInvalidArgument)
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &shared.NetworkError{Op: "download image", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &shared.ServerError{Status: resp.StatusCode, Message: "failed to download image"}
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// WriteExport renders export in format f and writes it to path, creating parent directories.
//
// An empty path defaults to {slug(title)}{ext}.
func WriteExport(f Format, export Export, path string) (string, error) {
	if path == "" {
		path = Slug(export.Title) + f.Ext()
	}

	data, err := Render(f, export)
	if err != nil {
		return "", err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory  string
	Files      []string
	CoverImage string
}

// WriteMarkdownExport exports entries to Markdown in a dedicated directory.
//
// When coverURL is set the image is downloaded to {dir}/cover.jpg; a failed download is
// reported through warn and the export continues without it.
// Creates {dir}/README.md and optionally {dir}/cover.jpg
func WriteMarkdownExport(ctx context.Context, export Export, outputDir, coverURL string, warn func(error)) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = Slug(export.Title)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{Directory: outputDir, Files: []string{}}

	var coverImageFilename string
	if coverURL != "" {
		if err := saveCover(ctx, coverURL, outputDir); err != nil {
			if warn != nil {
				warn(err)
			}
		} else {
			coverImageFilename = "cover.jpg"
			result.CoverImage = filepath.Join(outputDir, coverImageFilename)
			result.Files = append(result.Files, result.CoverImage)
		}
	}

	mdData, err := ExportToMarkdown(export, coverImageFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	result.Files = append(result.Files, mdFile)
	return result, nil
}

func saveCover(ctx context.Context, url, dir string) error {
	data, err := DownloadImage(ctx, nil, url)
	if err != nil {
		return fmt.Errorf("failed to download cover image: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "cover.jpg"), data, 0644); err != nil {
		return fmt.Errorf("failed to save cover image: %w", err)
	}
	return nil
}

// Slug lowercases title and replaces runs of non-alphanumerics with a dash.
func Slug(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	s := strings.TrimSuffix(b.String(), "-")
	if s == "" {
		return "library"
	}
	return s
}

func rating(e models.UserLibraryEntry) string {
	if e.Rating == nil {
		return ""
	}
	return strconv.Itoa(*e.Rating)
}

func favorites(entries []models.UserLibraryEntry) int {
	n := 0
	for _, e := range entries {
		if e.IsFavorite {
			n++
		}
	}
	return n
}
