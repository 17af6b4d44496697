package models

import (
	"fmt"
	"strings"
)

// SearchQuery is a filter over the ranked entries of a session.
type SearchQuery struct {
	Query  string `json:"query"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
	// Method overrides the configured matching method when non-empty.
	Method string `json:"method,omitempty"`
}

// Validate ensures the search query has valid fields and sets defaults.
// Returns an error if the query is blank or the offset negative.
func (q *SearchQuery) Validate() error {
	q.Query = strings.TrimSpace(q.Query)
	if q.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	if q.Offset < 0 {
		return fmt.Errorf("offset cannot be negative")
	}
	if q.Limit <= 0 {
		q.Limit = 50
	}
	if q.Limit > 1000 {
		q.Limit = 1000
	}
	return nil
}
