// Package cli provides output helpers for the rofi-zotero commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/hyperjump/rofi-zotero/internal/models"
)

// OutputFormat is the format for listing output.
type OutputFormat string

const (
	// OutputPlain is one display string per line, ready to pipe into dmenu or rofi -dmenu (default for list).
	OutputPlain OutputFormat = "plain"
	// OutputText is human-readable text (default for search).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat returns the OutputFormat for name, falling back to def when name is empty.
func ParseOutputFormat(name string, def OutputFormat) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(name))); f {
	case "":
		return def, nil
	case OutputPlain, OutputText, OutputJSON:
		return f, nil
	default:
		return "", fmt.Errorf("invalid output format %q; use plain, text, or json", name)
	}
}

// WriteEntries writes a listing to w in the given format.
func WriteEntries(w io.Writer, response *models.ListResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, response)
	case OutputText:
		writeEntriesText(w, response)
		return nil
	default:
		for _, r := range response.Results {
			if _, err := fmt.Fprintln(w, r.Display); err != nil {
				return err
			}
		}
		return nil
	}
}

func writeEntriesText(w io.Writer, response *models.ListResponse) {
	if response.Query != "" {
		fmt.Fprintf(w, "\nFound %d entries for %q in %dms\n\n", response.Total, response.Query, response.QueryTime)
	} else {
		fmt.Fprintf(w, "\n%d entries in %dms\n\n", response.Total, response.QueryTime)
	}
	for _, result := range response.Results {
		writeOneEntry(w, result)
	}
}

func writeOneEntry(w io.Writer, result *models.ListResult) {
	e := result.Entry
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "Rank: %d | Year: %s\n", result.Rank, e.Year)
	fmt.Fprintf(w, "Title: %s\n", Truncate(e.Title, 200))
	if e.Authors != "" {
		fmt.Fprintf(w, "Authors: %s\n", TruncateWords(e.Authors, 24))
	}
	fmt.Fprintf(w, "Path: %s\n", e.RelativePath)
	fmt.Fprintln(w)
}

// Status summarizes the library and history for the status command.
type Status struct {
	LibraryRoot    string `json:"library_root"`
	DatabasePath   string `json:"database_path"`
	DatabaseExists bool   `json:"database_exists"`
	Entries        int    `json:"entries"`
	HistoryBackend string `json:"history_backend"`
	HistoryPath    string `json:"history_path"`
	HistoryEntries int    `json:"history_entries"`
	HistoryError   string `json:"history_error,omitempty"`
	// HistorySelections is the total selection count; only the sqlite backend keeps one.
	HistorySelections int64 `json:"history_selections,omitempty"`

	DatabaseBytes int64 `json:"database_bytes"`
	WALBytes      int64 `json:"wal_bytes"`
	JournalBytes  int64 `json:"journal_bytes"`
	HistoryBytes  int64 `json:"history_bytes"`
}

// WriteStatus writes status to w as text or JSON.
func WriteStatus(w io.Writer, status *Status, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, status)
	}
	exists := "missing"
	if status.DatabaseExists {
		exists = "present"
	}
	fmt.Fprintf(w, "Library:  %s\n", status.LibraryRoot)
	fmt.Fprintf(w, "Database: %s (%s)\n", status.DatabasePath, exists)
	fmt.Fprintf(w, "Entries:  %d\n", status.Entries)
	fmt.Fprintf(w, "History:  %s, %s (%d entries)\n", status.HistoryBackend, status.HistoryPath, status.HistoryEntries)
	if status.HistorySelections > 0 {
		fmt.Fprintf(w, "          %d selections\n", status.HistorySelections)
	}
	if status.HistoryError != "" {
		fmt.Fprintf(w, "          %s\n", status.HistoryError)
	}
	total := status.DatabaseBytes + status.WALBytes + status.JournalBytes + status.HistoryBytes
	fmt.Fprintf(w, "Disk:     %s (database %s, wal %s, journal %s, history %s)\n",
		FormatBytes(total), FormatBytes(status.DatabaseBytes), FormatBytes(status.WALBytes),
		FormatBytes(status.JournalBytes), FormatBytes(status.HistoryBytes))
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// FormatBytes renders n with a binary unit suffix.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// Truncate truncates s to maxLen and appends "..." if truncated.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
