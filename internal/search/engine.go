// Package search filters a session's ranked entries with a token matcher.
// Word queries are answered by an in-memory keyword index built on first use.
package search

import (
	"context"
	"sync"
	"time"

	"github.com/hyperjump/rofi-zotero/internal/matcher"
	"github.com/hyperjump/rofi-zotero/internal/models"
	"github.com/hyperjump/rofi-zotero/internal/session"
)

// Engine runs queries over one session. Results keep the ranked order.
type Engine struct {
	session *session.Session
	opts    matcher.Options

	mu       sync.Mutex
	keywords *keywordIndex
}

// NewEngine creates a search engine over sess using opts as the default matching options.
func NewEngine(sess *session.Session, opts matcher.Options) *Engine {
	return &Engine{session: sess, opts: opts}
}

// Search returns the entries matching query, paged by query.Offset and query.Limit.
func (e *Engine) Search(ctx context.Context, query *models.SearchQuery) (*models.ListResponse, error) {
	startTime := time.Now()
	m, err := ProcessQuery(query, e.opts)
	if err != nil {
		return nil, err
	}
	matched, err := e.filter(ctx, m)
	if err != nil {
		return nil, err
	}

	start := query.Offset
	end := query.Offset + query.Limit
	if start > len(matched) {
		start = len(matched)
	}
	if end > len(matched) {
		end = len(matched)
	}

	response := e.response(matched[start:end], len(matched), startTime)
	response.Query = query.Query
	return response, nil
}

// List returns every entry whose display string matches filter; an empty
// filter returns the whole session.
func (e *Engine) List(ctx context.Context, filter, method string) (*models.ListResponse, error) {
	startTime := time.Now()
	m, err := compile(filter, method, e.opts)
	if err != nil {
		return nil, err
	}
	matched, err := e.filter(ctx, m)
	if err != nil {
		return nil, err
	}
	response := e.response(matched, len(matched), startTime)
	response.Query = filter
	return response, nil
}

// Close releases the keyword index, if one was built.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.keywords == nil {
		return nil
	}
	err := e.keywords.Close()
	e.keywords = nil
	return err
}

func (e *Engine) index() (*keywordIndex, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.keywords == nil {
		k, err := newKeywordIndex(e.session)
		if err != nil {
			return nil, err
		}
		e.keywords = k
	}
	return e.keywords, nil
}

// filter walks the session in ranked order. Indexable queries are narrowed
// by the keyword index first; the matcher still decides every entry.
func (e *Engine) filter(ctx context.Context, m *matcher.Matcher) ([]*models.ListResult, error) {
	n := e.session.NumEntries()
	results := make([]*models.ListResult, 0, n)

	var hits map[int]struct{}
	if !m.Empty() && n > 0 && indexable(m) {
		k, err := e.index()
		if err != nil {
			return nil, err
		}
		if hits, err = k.candidates(m, n); err != nil {
			return nil, err
		}
	}

	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			break
		}
		if hits != nil {
			if _, ok := hits[i]; !ok {
				continue
			}
		}
		if !m.Empty() && !e.session.TokenMatch(m, i) {
			continue
		}
		entry, _ := e.session.Entry(i)
		results = append(results, &models.ListResult{
			Entry:   entry,
			Display: entry.DisplayString(),
			Rank:    i + 1,
		})
	}
	return results, nil
}

func (e *Engine) response(results []*models.ListResult, total int, startTime time.Time) *models.ListResponse {
	return &models.ListResponse{
		Results:     results,
		Total:       total,
		QueryTime:   time.Since(startTime).Milliseconds(),
		LibraryRoot: e.session.Root(),
	}
}
