// Package models defines core data structures for library entries, queries, and listings.
package models

import "strings"

// Entry is one attachment of the Zotero library, as shown to the launcher.
type Entry struct {
	Title        string `json:"title"`
	RelativePath string `json:"relative_path"`
	Authors      string `json:"authors"`
	Year         string `json:"year"`
	// RankKey orders entries: load index before ranking, negative for history hits after.
	RankKey int `json:"rank_key"`
}

// DisplayString returns the launcher row, "[<year>] <title> - <authors>".
// An unknown year keeps the empty brackets.
func (e *Entry) DisplayString() string {
	var b strings.Builder
	b.Grow(len(e.Year) + len(e.Title) + len(e.Authors) + 6)
	b.WriteByte('[')
	b.WriteString(e.Year)
	b.WriteString("] ")
	b.WriteString(e.Title)
	b.WriteString(" - ")
	b.WriteString(e.Authors)
	return b.String()
}

// YearFromDate returns the first dash-delimited component of a Zotero date value
// ("2019-03-00 2019-03" -> "2019"). Empty input yields "".
func YearFromDate(date string) string {
	if i := strings.IndexByte(date, '-'); i >= 0 {
		return date[:i]
	}
	return date
}
