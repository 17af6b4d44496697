// Package storage persists the launcher's selection history.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrHistoryUnavailable means the history store could not be opened or read.
var ErrHistoryUnavailable = errors.New("selection history unavailable")

const (
	// BackendSQLite keeps history in a small SQLite database.
	BackendSQLite = "sqlite"
	// BackendFile keeps history in a plain text file, one path per line.
	BackendFile = "file"
)

// DefaultMaxEntries matches rofi's default history size.
const DefaultMaxEntries = 25

// History is an ordered list of selected relative paths, most recent last.
type History interface {
	// OrderedList returns the tracked paths, oldest first.
	OrderedList(ctx context.Context) ([]string, error)
	// RecordSelection moves path to the most recent position.
	RecordSelection(ctx context.Context, path string) error

	Close() error
}

// SelectionCounter is implemented by stores that count how often each path was chosen.
type SelectionCounter interface {
	Selections(ctx context.Context, path string) (int64, error)
}

// Open opens the history store for backend at path, keeping at most maxEntries paths.
// Errors wrap ErrHistoryUnavailable.
func Open(backend, path string, maxEntries int) (History, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendSQLite:
		h, err := NewSQLiteHistory(path, maxEntries)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrHistoryUnavailable, err)
		}
		return h, nil
	case BackendFile:
		return NewFileHistory(path, maxEntries), nil
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", ErrHistoryUnavailable, backend)
	}
}

func validatePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("history path cannot be empty")
	}
	if strings.ContainsAny(path, "\n\r") {
		return fmt.Errorf("history path cannot contain line breaks: %q", path)
	}
	return nil
}
