// Package matcher implements launcher-style token matching over display strings.
//
// A query is split on whitespace into tokens. A line matches when every token
// matches it; a token starting with the negate character must not match.
package matcher

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// Method selects how a single token is compared with a line.
type Method string

const (
	// MethodNormal matches a token anywhere in the line.
	MethodNormal Method = "normal"
	// MethodPrefix matches a token at the start of a word.
	MethodPrefix Method = "prefix"
	// MethodFuzzy matches the token's characters in order, gaps allowed.
	MethodFuzzy Method = "fuzzy"
	// MethodTypo matches a word within a small edit distance of the token.
	MethodTypo Method = "typo"
	// MethodRegex treats each token as a regular expression.
	MethodRegex Method = "regex"
)

// ParseMethod returns the Method for name; empty selects MethodNormal.
func ParseMethod(name string) (Method, error) {
	switch m := Method(strings.ToLower(strings.TrimSpace(name))); m {
	case "":
		return MethodNormal, nil
	case MethodNormal, MethodPrefix, MethodFuzzy, MethodTypo, MethodRegex:
		return m, nil
	default:
		return "", fmt.Errorf("unknown matching method %q; use normal, prefix, fuzzy, typo, or regex", name)
	}
}

// Options configures a Matcher.
type Options struct {
	Method        Method
	CaseSensitive bool
	// NegateChar marks a token that must not match; 0 disables negation.
	NegateChar rune
	// MaxTypos bounds the edit distance for MethodTypo; <= 0 means 1.
	MaxTypos int
}

type token struct {
	text   string
	negate bool
	re     *regexp.Regexp
}

// Matcher is a compiled query.
type Matcher struct {
	opts   Options
	tokens []token
}

// New compiles query. Invalid regular expressions are reported for MethodRegex.
func New(query string, opts Options) (*Matcher, error) {
	if opts.Method == "" {
		opts.Method = MethodNormal
	}
	if opts.MaxTypos <= 0 {
		opts.MaxTypos = 1
	}
	m := &Matcher{opts: opts}
	for _, field := range strings.Fields(query) {
		tok := token{text: field}
		if opts.NegateChar != 0 && strings.HasPrefix(field, string(opts.NegateChar)) {
			tok.negate = true
			tok.text = strings.TrimPrefix(field, string(opts.NegateChar))
			if tok.text == "" {
				continue
			}
		}
		if opts.Method == MethodRegex {
			expr := tok.text
			if !opts.CaseSensitive {
				expr = "(?i)" + expr
			}
			re, err := regexp.Compile(expr)
			if err != nil {
				return nil, fmt.Errorf("invalid pattern %q: %w", tok.text, err)
			}
			tok.re = re
		} else if !opts.CaseSensitive {
			tok.text = strings.ToLower(tok.text)
		}
		m.tokens = append(m.tokens, tok)
	}
	return m, nil
}

// Empty reports whether the query has no tokens; an empty matcher matches everything.
func (m *Matcher) Empty() bool {
	return len(m.tokens) == 0
}

// Match reports whether line satisfies every token.
func (m *Matcher) Match(line string) bool {
	if len(m.tokens) == 0 {
		return true
	}
	folded := line
	if !m.opts.CaseSensitive && m.opts.Method != MethodRegex {
		folded = strings.ToLower(line)
	}
	var words []string
	for _, tok := range m.tokens {
		var ok bool
		switch m.opts.Method {
		case MethodPrefix:
			if words == nil {
				words = splitWords(folded)
			}
			ok = anyWord(words, func(w string) bool { return strings.HasPrefix(w, tok.text) })
		case MethodFuzzy:
			ok = subsequence(tok.text, folded)
		case MethodTypo:
			if words == nil {
				words = splitWords(folded)
			}
			ok = strings.Contains(folded, tok.text) ||
				anyWord(words, func(w string) bool { return withinDistance(tok.text, w, m.opts.MaxTypos) })
		case MethodRegex:
			ok = tok.re.MatchString(folded)
		default:
			ok = strings.Contains(folded, tok.text)
		}
		if ok == tok.negate {
			return false
		}
	}
	return true
}

func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func anyWord(words []string, pred func(string) bool) bool {
	for _, w := range words {
		if pred(w) {
			return true
		}
	}
	return false
}

// subsequence reports whether the runes of needle appear in order in haystack.
func subsequence(needle, haystack string) bool {
	rest := []rune(needle)
	if len(rest) == 0 {
		return true
	}
	for _, r := range haystack {
		if r == rest[0] {
			rest = rest[1:]
			if len(rest) == 0 {
				return true
			}
		}
	}
	return false
}

// Term is one compiled token as the index sees it.
type Term struct {
	Text   string
	Negate bool
}

// Terms returns the compiled tokens in query order.
func (m *Matcher) Terms() []Term {
	out := make([]Term, len(m.tokens))
	for i, tok := range m.tokens {
		out[i] = Term{Text: tok.text, Negate: tok.negate}
	}
	return out
}

// Options returns the options the matcher was compiled with, defaults applied.
func (m *Matcher) Options() Options {
	return m.opts
}

// IsWord reports whether s is made only of letters and digits, the same
// runes splitWords keeps.
func IsWord(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
