package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		backend string
		wantErr bool
	}{
		{"default is sqlite", "", false},
		{"sqlite", "sqlite", false},
		{"file", "file", false},
		{"case insensitive", "SQLite", false},
		{"unknown backend", "redis", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := Open(tt.backend, filepath.Join(dir, tt.name, "history"), 0)
			if tt.wantErr {
				if !errors.Is(err, ErrHistoryUnavailable) {
					t.Fatalf("expected ErrHistoryUnavailable, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			defer h.Close()
			if err := h.RecordSelection(context.Background(), "storage/K/f.pdf"); err != nil {
				t.Fatal(err)
			}
			list, err := h.OrderedList(context.Background())
			if err != nil {
				t.Fatal(err)
			}
			if len(list) != 1 {
				t.Errorf("expected 1 path, got %v", list)
			}
		})
	}
}
