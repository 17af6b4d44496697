package models

import (
	"testing"
)

func TestSearchQuery_Validate(t *testing.T) {
	tests := []struct {
		name      string
		query     *SearchQuery
		wantErr   bool
		wantLimit int
	}{
		{"empty query", &SearchQuery{Query: ""}, true, 0},
		{"blank query", &SearchQuery{Query: "   "}, true, 0},
		{"negative offset", &SearchQuery{Query: "x", Offset: -1}, true, 0},
		{"sets default limit", &SearchQuery{Query: "x"}, false, 50},
		{"keeps explicit limit", &SearchQuery{Query: "x", Limit: 7}, false, 7},
		{"caps limit at 1000", &SearchQuery{Query: "x", Limit: 5000}, false, 1000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && tt.query.Limit != tt.wantLimit {
				t.Errorf("Limit = %d, want %d", tt.query.Limit, tt.wantLimit)
			}
		})
	}
}

func TestSearchQuery_ValidateTrims(t *testing.T) {
	q := &SearchQuery{Query: "  neural nets "}
	if err := q.Validate(); err != nil {
		t.Fatal(err)
	}
	if q.Query != "neural nets" {
		t.Errorf("Query = %q, want trimmed", q.Query)
	}
}
