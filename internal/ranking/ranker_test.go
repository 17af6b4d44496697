package ranking

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/hyperjump/rofi-zotero/internal/models"
)

func makeEntries(paths ...string) []*models.Entry {
	entries := make([]*models.Entry, len(paths))
	for i, p := range paths {
		entries[i] = &models.Entry{Title: "T " + p, RelativePath: p, RankKey: i}
	}
	return entries
}

func paths(entries []*models.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.RelativePath
	}
	return out
}

func TestNewRanker(t *testing.T) {
	if NewRanker() == nil {
		t.Fatal("Expected non-nil ranker")
	}
}

func TestRanker_Rank(t *testing.T) {
	tests := []struct {
		name    string
		entries []string
		history []string
		want    []string
	}{
		{
			name:    "nil history keeps load order",
			entries: []string{"a", "b", "c"},
			history: nil,
			want:    []string{"a", "b", "c"},
		},
		{
			name:    "empty history keeps load order",
			entries: []string{"a", "b", "c"},
			history: []string{},
			want:    []string{"a", "b", "c"},
		},
		{
			name:    "single history hit moves to front",
			entries: []string{"a", "b", "c"},
			history: []string{"c"},
			want:    []string{"c", "a", "b"},
		},
		{
			name:    "most recent first among history hits",
			entries: []string{"a", "b", "c", "d"},
			history: []string{"b", "d", "a"},
			want:    []string{"a", "d", "b", "c"},
		},
		{
			name:    "unknown history paths are ignored",
			entries: []string{"a", "b"},
			history: []string{"gone", "b", "missing"},
			want:    []string{"b", "a"},
		},
		{
			name:    "non-history entries keep relative order",
			entries: []string{"e", "d", "c", "b", "a"},
			history: []string{"c"},
			want:    []string{"c", "e", "d", "b", "a"},
		},
		{
			name:    "repeated history path takes latest position",
			entries: []string{"a", "b", "c"},
			history: []string{"a", "b", "a"},
			want:    []string{"a", "b", "c"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewRanker().Rank(makeEntries(tt.entries...), tt.history)
			if !reflect.DeepEqual(paths(got), tt.want) {
				t.Errorf("Rank() = %v, want %v", paths(got), tt.want)
			}
		})
	}
}

func TestRanker_RankKeys(t *testing.T) {
	entries := makeEntries("a", "b", "c", "d")
	NewRanker().Rank(entries, []string{"c", "a"})
	want := map[string]int{"a": -2, "b": 1, "c": -1, "d": 3}
	for _, e := range entries {
		if e.RankKey != want[e.RelativePath] {
			t.Errorf("%s RankKey = %d, want %d", e.RelativePath, e.RankKey, want[e.RelativePath])
		}
	}
}

func TestRanker_DoesNotReorderInput(t *testing.T) {
	entries := makeEntries("a", "b", "c")
	_ = NewRanker().Rank(entries, []string{"c"})
	if !reflect.DeepEqual(paths(entries), []string{"a", "b", "c"}) {
		t.Errorf("input reordered: %v", paths(entries))
	}
}

func TestRanker_TiesAreStable(t *testing.T) {
	entries := []*models.Entry{
		{Title: "first", RelativePath: "same", RankKey: 0},
		{Title: "other", RelativePath: "x", RankKey: 1},
		{Title: "second", RelativePath: "same", RankKey: 2},
	}
	got := NewRanker().Rank(entries, []string{"same"})
	if got[0].Title != "first" || got[1].Title != "second" || got[2].Title != "other" {
		t.Errorf("tie order: %s, %s, %s", got[0].Title, got[1].Title, got[2].Title)
	}
}

// History hits sort strictly before non-hits, and a later history position
// sorts before an earlier one, for every history of a 10-entry library.
func TestRanker_Laws(t *testing.T) {
	all := make([]string, 10)
	for i := range all {
		all[i] = fmt.Sprintf("storage/K%d/f.pdf", i)
	}
	histories := [][]string{
		{all[3]},
		{all[9], all[0]},
		{all[1], all[5], all[7], all[2]},
		{all[4], "not-in-library", all[8]},
	}
	for _, history := range histories {
		got := NewRanker().Rank(makeEntries(all...), history)
		pos := make(map[string]int, len(got))
		for i, e := range got {
			pos[e.RelativePath] = i
		}
		inHistory := make(map[string]bool)
		for _, h := range history {
			inHistory[h] = true
		}
		lastHit := -1
		firstMiss := len(got)
		for i, e := range got {
			if inHistory[e.RelativePath] {
				lastHit = i
			} else if i < firstMiss {
				firstMiss = i
			}
		}
		if lastHit > firstMiss {
			t.Errorf("history %v: hit at %d after miss at %d", history, lastHit, firstMiss)
		}
		for i := 0; i < len(history); i++ {
			for j := i + 1; j < len(history); j++ {
				pi, okI := pos[history[i]]
				pj, okJ := pos[history[j]]
				if okI && okJ && pj > pi {
					t.Errorf("history %v: %s (pos %d) should precede %s (pos %d)", history, history[j], pj, history[i], pi)
				}
			}
		}
	}
}

func TestKeyForPosition(t *testing.T) {
	if KeyForPosition(0) != -1 {
		t.Errorf("oldest key = %d, want -1", KeyForPosition(0))
	}
	if KeyForPosition(4) != -5 {
		t.Errorf("fifth key = %d, want -5", KeyForPosition(4))
	}
}
