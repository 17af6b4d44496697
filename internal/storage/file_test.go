package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestFileHistory_MissingFileIsEmpty(t *testing.T) {
	h := NewFileHistory(filepath.Join(t.TempDir(), "none", "history"), 5)
	list, err := h.OrderedList(context.Background())
	if err != nil {
		t.Fatalf("missing file should not be an error: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("expected empty list, got %v", list)
	}
}

func TestFileHistory_RecordMovesToEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache", "history")
	h := NewFileHistory(path, 3)
	ctx := context.Background()
	for _, p := range []string{"a", "b", "c", "a", "d"} {
		if err := h.RecordSelection(ctx, p); err != nil {
			t.Fatal(err)
		}
	}
	list, err := h.OrderedList(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(list, []string{"c", "a", "d"}) {
		t.Errorf("OrderedList() = %v, want [c a d]", list)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "c\na\nd\n" {
		t.Errorf("file content = %q", data)
	}
}

func TestFileHistory_ReadsHandWrittenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history")
	content := "x\n\n  y  \nx\nz\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	list, err := NewFileHistory(path, 10).OrderedList(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(list, []string{"y", "x", "z"}) {
		t.Errorf("OrderedList() = %v, want [y x z]", list)
	}
}

func TestFileHistory_UnreadableIsUnavailable(t *testing.T) {
	dir := t.TempDir()
	// A directory where the file should be cannot be read as history.
	_, err := NewFileHistory(dir, 5).OrderedList(context.Background())
	if !errors.Is(err, ErrHistoryUnavailable) {
		t.Errorf("expected ErrHistoryUnavailable, got %v", err)
	}
}

func TestFileHistory_RejectsLineBreaks(t *testing.T) {
	h := NewFileHistory(filepath.Join(t.TempDir(), "history"), 5)
	if err := h.RecordSelection(context.Background(), "a\nb"); err == nil {
		t.Error("expected error for path with newline")
	}
}
