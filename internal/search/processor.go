package search

import (
	"github.com/hyperjump/rofi-zotero/internal/matcher"
	"github.com/hyperjump/rofi-zotero/internal/models"
)

// ProcessQuery validates the query and compiles its matcher. A non-empty
// query.Method overrides the method in base.
func ProcessQuery(query *models.SearchQuery, base matcher.Options) (*matcher.Matcher, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	return compile(query.Query, query.Method, base)
}

func compile(q, method string, base matcher.Options) (*matcher.Matcher, error) {
	opts := base
	if method != "" {
		m, err := matcher.ParseMethod(method)
		if err != nil {
			return nil, err
		}
		opts.Method = m
	}
	return matcher.New(q, opts)
}
