package models

// ListResult is one ranked row of a listing.
type ListResult struct {
	Entry   *Entry `json:"entry"`
	Display string `json:"display"`
	// Rank is the 1-based position in the ranked session order.
	Rank int `json:"rank"`
}

// ListResponse is the response for a list or search request.
type ListResponse struct {
	Results     []*ListResult `json:"results"`
	Total       int           `json:"total"`
	QueryTime   int64         `json:"query_time_ms"`
	Query       string        `json:"query,omitempty"`
	LibraryRoot string        `json:"library_root"`
}
