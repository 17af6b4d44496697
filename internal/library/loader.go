// Package library reads attachment entries out of a Zotero library database.
package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/hyperjump/rofi-zotero/internal/models"
)

// DatabaseFile is the name of the Zotero database inside the library root.
const DatabaseFile = "zotero.sqlite"

var (
	// ErrLibraryNotFound means the library root holds no zotero.sqlite.
	ErrLibraryNotFound = errors.New("zotero database not found")
	// ErrDatabaseOpen means the database exists but could not be opened.
	ErrDatabaseOpen = errors.New("failed to open zotero database")
	// ErrQuery means the attachment query failed, usually after a schema change.
	ErrQuery = errors.New("zotero attachment query failed")
)

// Loader materializes library entries from zotero.sqlite.
type Loader struct {
	root           string
	busyTimeout    time.Duration
	excludeTrashed bool
	logger         *zap.Logger // optional; when set, logs debug events
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLogger sets a logger for debug output (missing library, row counts, etc.).
func WithLogger(l *zap.Logger) LoaderOption {
	return func(ld *Loader) { ld.logger = l }
}

// WithBusyTimeout makes reads wait up to d for a lock held by a running Zotero.
func WithBusyTimeout(d time.Duration) LoaderOption {
	return func(ld *Loader) { ld.busyTimeout = d }
}

// WithExcludeTrashed skips items that are in the Zotero trash.
func WithExcludeTrashed(exclude bool) LoaderOption {
	return func(ld *Loader) { ld.excludeTrashed = exclude }
}

// NewLoader creates a loader for the library rooted at root (e.g. ~/Zotero).
func NewLoader(root string, opts ...LoaderOption) *Loader {
	l := &Loader{root: root}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Root returns the library root directory.
func (l *Loader) Root() string {
	return l.root
}

// DatabasePath returns <root>/zotero.sqlite.
func (l *Loader) DatabasePath() string {
	return filepath.Join(l.root, DatabaseFile)
}

// Load returns the library's PDF/DJVU attachments in database order, with
// RankKey set to the 0-based load index.
// A missing database is not an error: Load returns no entries and nil.
// On open or query failure the error wraps ErrDatabaseOpen or ErrQuery and the
// entries materialized so far are still returned.
func (l *Loader) Load(ctx context.Context) ([]*models.Entry, error) {
	db, err := l.open(ctx)
	if errors.Is(err, ErrLibraryNotFound) {
		if l.logger != nil {
			l.logger.Debug("zotero database does not exist", zap.String("path", l.DatabasePath()))
		}
		return []*models.Entry{}, nil
	}
	if err != nil {
		if l.logger != nil {
			l.logger.Warn("zotero database open failed", zap.String("path", l.DatabasePath()), zap.Error(err))
		}
		return []*models.Entry{}, err
	}
	defer db.Close()

	entries, err := l.query(ctx, db)
	if l.logger != nil {
		if err != nil {
			l.logger.Warn("zotero query failed",
				zap.String("path", l.DatabasePath()),
				zap.Int("entries", len(entries)),
				zap.Error(err))
		} else {
			l.logger.Debug("zotero entries loaded",
				zap.String("path", l.DatabasePath()),
				zap.Int("entries", len(entries)))
		}
	}
	return entries, err
}

// open opens the database read-only. mode=ro keeps the driver from creating
// the file and _query_only rejects writes on the connection.
func (l *Loader) open(ctx context.Context) (*sql.DB, error) {
	path := l.DatabasePath()
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrLibraryNotFound, path)
		}
		return nil, fmt.Errorf("%w: %v", ErrDatabaseOpen, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrDatabaseOpen, path)
	}

	db, err := sql.Open("sqlite3", readOnlyDSN(path, l.busyTimeout))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseOpen, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", ErrDatabaseOpen, err)
	}
	return db, nil
}

func readOnlyDSN(path string, busyTimeout time.Duration) string {
	params := url.Values{}
	params.Set("mode", "ro")
	params.Set("_query_only", "true")
	if busyTimeout > 0 {
		params.Set("_busy_timeout", strconv.FormatInt(busyTimeout.Milliseconds(), 10))
	}
	escaped := strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23").Replace(path)
	return "file:" + escaped + "?" + params.Encode()
}

// creatorSlot identifies one creator position of one parent item, so a paper
// with several PDFs does not list its authors twice.
type creatorSlot struct {
	parentID   int64
	orderIndex int
}

func (l *Loader) query(ctx context.Context, db *sql.DB) ([]*models.Entry, error) {
	filter := ""
	if l.excludeTrashed {
		filter = excludeTrashedFilter
	}
	rows, err := db.QueryContext(ctx, fmt.Sprintf(attachmentQuery, filter))
	if err != nil {
		return []*models.Entry{}, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	defer rows.Close()

	entries := make([]*models.Entry, 0)
	byTitle := make(map[string]*models.Entry)
	seen := make(map[string]map[creatorSlot]struct{})
	for rows.Next() {
		var (
			parentID    int64
			title, path string
			last, first string
			date        string
			orderIndex  int
		)
		if err := rows.Scan(&parentID, &title, &path, &last, &first, &date, &orderIndex); err != nil {
			return entries, fmt.Errorf("%w: %v", ErrQuery, err)
		}
		author := formatCreator(last, first)

		entry, ok := byTitle[title]
		if !ok {
			entry = &models.Entry{
				Title:        title,
				RelativePath: path,
				Year:         models.YearFromDate(date),
				RankKey:      len(entries),
			}
			byTitle[title] = entry
			seen[title] = make(map[creatorSlot]struct{})
			entries = append(entries, entry)
		}
		slot := creatorSlot{parentID: parentID, orderIndex: orderIndex}
		if _, dup := seen[title][slot]; dup {
			continue
		}
		seen[title][slot] = struct{}{}
		if entry.Authors == "" {
			entry.Authors = author
		} else {
			entry.Authors += "; " + author
		}
	}
	if err := rows.Err(); err != nil {
		return entries, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	return entries, nil
}

// formatCreator renders "Last, First". Single-field creators (institutions)
// have no first name and render as the last name alone.
func formatCreator(last, first string) string {
	if first == "" {
		return last
	}
	return last + ", " + first
}
