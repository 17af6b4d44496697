package storage

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileHistory implements History as a text file with one path per line,
// most recent last.
type FileHistory struct {
	path       string
	maxEntries int
}

// NewFileHistory returns a history backed by the file at path. The file is
// created on the first recorded selection.
func NewFileHistory(path string, maxEntries int) *FileHistory {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &FileHistory{path: path, maxEntries: maxEntries}
}

// OrderedList returns the paths in the file, oldest first. A missing file is an empty history.
func (f *FileHistory) OrderedList(ctx context.Context) ([]string, error) {
	paths, err := f.read()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHistoryUnavailable, err)
	}
	return paths, nil
}

// RecordSelection moves path to the end of the file and rewrites it atomically.
func (f *FileHistory) RecordSelection(ctx context.Context, path string) error {
	if err := validatePath(path); err != nil {
		return err
	}
	paths, err := f.read()
	if err != nil {
		return err
	}
	kept := make([]string, 0, len(paths)+1)
	for _, p := range paths {
		if p != path {
			kept = append(kept, p)
		}
	}
	kept = append(kept, path)
	return f.write(trimOldest(kept, f.maxEntries))
}

// Close is a no-op; the file is only open during reads and writes.
func (f *FileHistory) Close() error {
	return nil
}

func (f *FileHistory) read() ([]string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}
	lines := make([]string, 0)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return trimOldest(dedupeKeepLast(lines), f.maxEntries), nil
}

func (f *FileHistory) write(paths []string) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".history-*")
	if err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	for _, p := range paths {
		w.WriteString(p)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to replace history: %w", err)
	}
	return nil
}

// dedupeKeepLast drops earlier occurrences of a path, keeping its latest position.
func dedupeKeepLast(paths []string) []string {
	last := make(map[string]int, len(paths))
	for i, p := range paths {
		last[p] = i
	}
	out := make([]string, 0, len(last))
	for i, p := range paths {
		if last[p] == i {
			out = append(out, p)
		}
	}
	return out
}

func trimOldest(paths []string, max int) []string {
	if max > 0 && len(paths) > max {
		return paths[len(paths)-max:]
	}
	return paths
}
