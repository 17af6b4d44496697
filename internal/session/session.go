// Package session ties the loader, history, and ranker together for one launcher invocation.
//
// A Session is what the host talks to: it owns the ranked entry list and
// answers count, display, match, and selection requests. Opening a session
// never fails; load and history errors are logged and leave fewer entries.
package session

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/rofi-zotero/internal/library"
	"github.com/hyperjump/rofi-zotero/internal/matcher"
	"github.com/hyperjump/rofi-zotero/internal/models"
	"github.com/hyperjump/rofi-zotero/internal/opener"
	"github.com/hyperjump/rofi-zotero/internal/ranking"
	"github.com/hyperjump/rofi-zotero/internal/storage"
)

var (
	// ErrNoEntry means an index is outside the session's entry list.
	ErrNoEntry = errors.New("no such entry")
	// ErrNoCopier means the session was opened without a clipboard.
	ErrNoCopier = errors.New("clipboard not configured")
)

// Options are the collaborators of a session. Loader is required; a nil
// History ranks in load order, a nil Ranker uses ranking.NewRanker().
type Options struct {
	Loader  *library.Loader
	History storage.History
	Opener  opener.Opener
	Copier  opener.Copier
	Ranker  *ranking.Ranker
	Logger  *zap.Logger
}

// Session is the per-invocation state: the ranked entries and the handles
// needed to act on a selection.
type Session struct {
	id      string
	root    string
	entries []*models.Entry
	history storage.History
	opener  opener.Opener
	copier  opener.Copier
	logger  *zap.Logger
}

// Open loads the library, reads the history, and ranks the entries.
// It always returns a usable Session.
func Open(ctx context.Context, opts Options) *Session {
	id := uuid.New().String()
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("session", id))

	s := &Session{
		id:      id,
		history: opts.History,
		opener:  opts.Opener,
		copier:  opts.Copier,
		logger:  logger,
	}
	if opts.Loader == nil {
		logger.Debug("session opened without a library")
		return s
	}
	s.root = opts.Loader.Root()

	entries, err := opts.Loader.Load(ctx)
	if err != nil {
		logger.Warn("library load failed",
			zap.String("path", opts.Loader.DatabasePath()),
			zap.Int("entries", len(entries)),
			zap.Error(err))
	}

	var history []string
	if s.history != nil {
		history, err = s.history.OrderedList(ctx)
		if err != nil {
			logger.Debug("history unavailable, using load order", zap.Error(err))
			history = nil
		}
	}

	ranker := opts.Ranker
	if ranker == nil {
		ranker = ranking.NewRanker()
	}
	s.entries = ranker.Rank(entries, history)
	logger.Debug("session ready", zap.Int("entries", len(s.entries)), zap.Int("history", len(history)))
	return s
}

// ID returns the session's unique identifier.
func (s *Session) ID() string {
	return s.id
}

// Root returns the library root the entries were loaded from.
func (s *Session) Root() string {
	return s.root
}

// NumEntries returns the number of ranked entries.
func (s *Session) NumEntries() int {
	return len(s.entries)
}

// Entries returns the ranked entries. Callers must not modify them.
func (s *Session) Entries() []*models.Entry {
	return s.entries
}

// Entry returns the entry at i.
func (s *Session) Entry(i int) (*models.Entry, bool) {
	if i < 0 || i >= len(s.entries) {
		return nil, false
	}
	return s.entries[i], true
}

// DisplayValue returns the display string of entry i.
func (s *Session) DisplayValue(i int) (string, bool) {
	e, ok := s.Entry(i)
	if !ok {
		return "", false
	}
	return e.DisplayString(), true
}

// TokenMatch reports whether entry i's display string satisfies m.
func (s *Session) TokenMatch(m *matcher.Matcher, i int) bool {
	e, ok := s.Entry(i)
	if !ok {
		return false
	}
	return m.Match(e.DisplayString())
}

// Path returns the absolute path of entry i's attachment.
func (s *Session) Path(i int) (string, bool) {
	e, ok := s.Entry(i)
	if !ok {
		return "", false
	}
	return filepath.Join(s.root, e.RelativePath), true
}

// Lookup returns the index of the entry with the given relative path.
func (s *Session) Lookup(relativePath string) (int, bool) {
	for i, e := range s.entries {
		if e.RelativePath == relativePath {
			return i, true
		}
	}
	return -1, false
}

// LookupDisplay returns the index of the first entry whose display string is display.
func (s *Session) LookupDisplay(display string) (int, bool) {
	for i, e := range s.entries {
		if e.DisplayString() == display {
			return i, true
		}
	}
	return -1, false
}

// Result opens entry i with the opener and records it in the history.
// A history write failure is logged, not returned.
func (s *Session) Result(ctx context.Context, i int) error {
	e, ok := s.Entry(i)
	if !ok {
		return fmt.Errorf("%w: index %d of %d", ErrNoEntry, i, len(s.entries))
	}
	path := filepath.Join(s.root, e.RelativePath)
	if s.opener != nil {
		if err := s.opener.Open(ctx, path); err != nil {
			s.logger.Debug("open failed", zap.String("path", path), zap.Error(err))
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
	}
	if s.history != nil {
		if err := s.history.RecordSelection(ctx, e.RelativePath); err != nil {
			s.logger.Debug("history write failed", zap.String("relative_path", e.RelativePath), zap.Error(err))
		}
	}
	s.logger.Debug("entry selected", zap.String("path", path))
	return nil
}

// Copy writes the absolute path of entry i to the clipboard.
func (s *Session) Copy(i int) error {
	path, ok := s.Path(i)
	if !ok {
		return fmt.Errorf("%w: index %d of %d", ErrNoEntry, i, len(s.entries))
	}
	if s.copier == nil {
		return ErrNoCopier
	}
	if err := s.copier.Copy(path); err != nil {
		return fmt.Errorf("failed to copy %s: %w", path, err)
	}
	return nil
}

// Close releases the history store.
func (s *Session) Close() error {
	if s.history == nil {
		return nil
	}
	return s.history.Close()
}
