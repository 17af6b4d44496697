package search

import (
	"fmt"
	"strconv"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/regexp"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/hyperjump/rofi-zotero/internal/matcher"
	"github.com/hyperjump/rofi-zotero/internal/session"
)

const (
	displayField   = "display"
	entryAnalyzer  = "entry"
	entryTokenizer = "entry_words"
	// maxFuzziness is the largest edit distance bleve's fuzzy query accepts.
	maxFuzziness = 2
)

// keywordIndex is an in-memory bleve index over a session's display strings.
// Document IDs are session positions.
type keywordIndex struct {
	index bleve.Index
}

func newKeywordIndex(sess *session.Session) (*keywordIndex, error) {
	im := bleve.NewIndexMapping()
	// Words are runs of letters and digits, lowercased, no stop words or stemming,
	// so index terms line up with the matcher's word split.
	if err := im.AddCustomTokenizer(entryTokenizer, map[string]interface{}{
		"type":   regexp.Name,
		"regexp": `[\p{L}\p{N}]+`,
	}); err != nil {
		return nil, fmt.Errorf("failed to register tokenizer: %w", err)
	}
	if err := im.AddCustomAnalyzer(entryAnalyzer, map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     entryTokenizer,
		"token_filters": []interface{}{lowercase.Name},
	}); err != nil {
		return nil, fmt.Errorf("failed to register analyzer: %w", err)
	}

	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = entryAnalyzer
	textFieldMapping.Store = false
	docMapping.AddFieldMappingsAt(displayField, textFieldMapping)
	im.DefaultMapping = docMapping
	im.DefaultAnalyzer = entryAnalyzer

	index, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, fmt.Errorf("failed to create keyword index: %w", err)
	}

	batch := index.NewBatch()
	for i := 0; i < sess.NumEntries(); i++ {
		display, _ := sess.DisplayValue(i)
		if err := batch.Index(strconv.Itoa(i), map[string]interface{}{displayField: display}); err != nil {
			_ = index.Close()
			return nil, fmt.Errorf("failed to index entry %d: %w", i, err)
		}
	}
	if err := index.Batch(batch); err != nil {
		_ = index.Close()
		return nil, fmt.Errorf("failed to index entries: %w", err)
	}
	return &keywordIndex{index: index}, nil
}

// indexable reports whether the index can answer m exactly: every term must
// be a plain word, and the method must compare words, not the whole line.
func indexable(m *matcher.Matcher) bool {
	opts := m.Options()
	if opts.CaseSensitive {
		return false
	}
	switch opts.Method {
	case matcher.MethodNormal, matcher.MethodPrefix:
	case matcher.MethodTypo:
		if opts.MaxTypos > maxFuzziness {
			return false
		}
	default:
		return false
	}
	for _, term := range m.Terms() {
		if !matcher.IsWord(term.Text) {
			return false
		}
	}
	return true
}

// candidates returns the session positions that satisfy m.
func (k *keywordIndex) candidates(m *matcher.Matcher, size int) (map[int]struct{}, error) {
	opts := m.Options()
	q := bleve.NewBooleanQuery()
	positive := 0
	for _, term := range m.Terms() {
		tq := termQuery(term.Text, opts)
		if term.Negate {
			q.AddMustNot(tq)
			continue
		}
		q.AddMust(tq)
		positive++
	}
	if positive == 0 {
		q.AddMust(bleve.NewMatchAllQuery())
	}

	req := bleve.NewSearchRequest(q)
	req.Size = size
	results, err := k.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("keyword search failed: %w", err)
	}
	hits := make(map[int]struct{}, len(results.Hits))
	for _, hit := range results.Hits {
		i, err := strconv.Atoi(hit.ID)
		if err != nil {
			continue
		}
		hits[i] = struct{}{}
	}
	return hits, nil
}

func termQuery(text string, opts matcher.Options) blevequery.Query {
	switch opts.Method {
	case matcher.MethodPrefix:
		pq := bleve.NewPrefixQuery(text)
		pq.SetField(displayField)
		return pq
	case matcher.MethodTypo:
		fq := bleve.NewFuzzyQuery(text)
		fq.SetFuzziness(opts.MaxTypos)
		fq.SetField(displayField)
		return bleve.NewDisjunctionQuery(fq, containsQuery(text))
	default:
		return containsQuery(text)
	}
}

// containsQuery matches terms holding text anywhere. text is a plain word,
// so it carries no wildcard characters.
func containsQuery(text string) blevequery.Query {
	wq := bleve.NewWildcardQuery("*" + text + "*")
	wq.SetField(displayField)
	return wq
}

func (k *keywordIndex) Close() error {
	return k.index.Close()
}
