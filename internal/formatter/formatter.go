// package formatter renders track lists as terminal tables, CSV, Markdown, plain text and JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/desertthunder/music-playlists/internal/models"
	"github.com/desertthunder/music-playlists/internal/shared"
)

// Format is an output format for a track list.
type Format string

const (
	FormatTable    Format = "table"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "txt"
	FormatJSON     Format = "json"
)

// Formats lists the accepted format names.
var Formats = []Format{FormatTable, FormatCSV, FormatMarkdown, FormatText, FormatJSON}

// ParseFormat accepts a format name, with "md" and "text" as aliases.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "table":
		return FormatTable, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: format %q", shared.ErrInvalidFlag, name)
}

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4")).Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
)

// TrackRecord is the flat, serialisable form of a track.
type TrackRecord struct {
	Position int      `json:"position"`
	Origin   string   `json:"origin"`
	TrackID  string   `json:"track_id,omitempty"`
	Title    string   `json:"title"`
	Artists  []string `json:"artists"`
}

// TrackListRecord is the serialisable form of a track list.
type TrackListRecord struct {
	Title  string        `json:"title"`
	Type   string        `json:"type"`
	Tracks []TrackRecord `json:"tracks"`
}

// Records flattens a track list.
func Records(list *models.TrackList) TrackListRecord {
	out := TrackListRecord{Title: list.Title, Type: list.Type.String(), Tracks: []TrackRecord{}}
	for i, t := range list.Tracks {
		out.Tracks = append(out.Tracks, TrackRecord{
			Position: i + 1,
			Origin:   t.OriginCode(),
			TrackID:  t.TrackID(),
			Title:    t.Title(),
			Artists:  t.Artists(),
		})
	}
	return out
}

// Render converts a track list to the requested format.
func Render(list *models.TrackList, format Format) ([]byte, error) {
	switch format {
	case FormatTable:
		return []byte(RenderTable(list) + "\n"), nil
	case FormatCSV:
		return ExportToCSV(list)
	case FormatMarkdown:
		return ExportToMarkdown(list)
	case FormatText:
		return ExportToText(list)
	case FormatJSON:
		return shared.MarshalJSON(Records(list), true)
	}
	return nil, fmt.Errorf("%w: format %q", shared.ErrInvalidFlag, format)
}

// RenderTable draws a track list as a bordered terminal table.
func RenderTable(list *models.TrackList) string {
	rows := make([][]string, 0, len(list.Tracks))
	for i, t := range list.Tracks {
		rows = append(rows, []string{strconv.Itoa(i + 1), t.Title(), strings.Join(t.Artists(), ", "), t.TrackID()})
	}
	return RenderRows([]string{"#", "Title", "Artists", "ID"}, rows)
}

// RenderRows draws any rows as a bordered terminal table.
func RenderRows(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...)
	return t.Render()
}

// ExportToCSV converts a track list to CSV format with columns: Position, Title, Artists, Track ID, Origin
func ExportToCSV(list *models.TrackList) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "Title", "Artists", "Track ID", "Origin"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, track := range list.Tracks {
		record := []string{
			strconv.Itoa(i + 1),
			track.Title(),
			strings.Join(track.Artists(), "; "),
			track.TrackID(),
			track.OriginCode(),
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

// ExportToMarkdown converts a track list to a Markdown document
func ExportToMarkdown(list *models.TrackList) ([]byte, error) {
	var buf bytes.Buffer

	title := list.Title
	if title == "" {
		title = "Tracks"
	}
	fmt.Fprintf(&buf, "# %s\n\n", title)
	fmt.Fprintf(&buf, "**Type**: %s\n", list.Type)
	fmt.Fprintf(&buf, "**Tracks**: %d\n\n", len(list.Tracks))

	buf.WriteString("## Tracks\n\n")
	for i, track := range list.Tracks {
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, strings.Join(track.Artists(), ", "), track.Title())
	}

	return buf.Bytes(), nil
}

// ExportToText converts a track list to plain text format
func ExportToText(list *models.TrackList) ([]byte, error) {
	var buf bytes.Buffer

	if list.Title != "" {
		fmt.Fprintf(&buf, "Playlist: %s\n", list.Title)
	}
	fmt.Fprintf(&buf, "Tracks: %d\n\n", len(list.Tracks))

	for i, track := range list.Tracks {
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, strings.Join(track.Artists(), ", "), track.Title())
	}

	return buf.Bytes(), nil
}

// WriteExport renders a track list and writes it to path.
func WriteExport(list *models.TrackList, format Format, path string) error {
	data, err := Render(list, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s file: %w", format, err)
	}
	return nil
}
