// Package ranking orders library entries so recently opened attachments come first.
package ranking

import (
	"sort"

	"go.uber.org/zap"

	"github.com/hyperjump/rofi-zotero/internal/models"
)

// Ranker biases entries toward the selection history.
type Ranker struct {
	logger *zap.Logger // optional; when set, logs debug events
}

// RankerOption configures a Ranker.
type RankerOption func(*Ranker)

// WithLogger sets a logger for debug output (history hits).
func WithLogger(l *zap.Logger) RankerOption {
	return func(r *Ranker) { r.logger = l }
}

// NewRanker creates a Ranker.
func NewRanker(opts ...RankerOption) *Ranker {
	r := &Ranker{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rank assigns RankKeys from history and returns the entries stably sorted by
// RankKey. history is ordered oldest first (most recent last). Every history
// hit gets a negative key, the most recent one the lowest, so history hits
// surface first with the latest selection on top.
//
// Entries not in history keep their load-order RankKey (>= 0) and their
// relative order. A nil or empty history returns the load order unchanged.
// The input slice is not reordered.
func (r *Ranker) Rank(entries []*models.Entry, history []string) []*models.Entry {
	ranked := make([]*models.Entry, len(entries))
	copy(ranked, entries)
	if len(history) == 0 || len(entries) == 0 {
		return ranked
	}

	byPath := make(map[string][]*models.Entry, len(entries))
	for _, e := range entries {
		byPath[e.RelativePath] = append(byPath[e.RelativePath], e)
	}

	hits := 0
	n := len(history)
	for i, path := range history {
		matches := byPath[path]
		for _, e := range matches {
			e.RankKey = KeyForPosition(i)
		}
		hits += len(matches)
	}
	if r.logger != nil {
		r.logger.Debug("history applied", zap.Int("history", n), zap.Int("hits", hits))
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].RankKey < ranked[j].RankKey
	})
	return ranked
}

// KeyForPosition returns the RankKey for history position i (0-based, oldest
// first): -1 for the oldest path down to -N for the most recent one.
func KeyForPosition(i int) int {
	return -(i + 1)
}
