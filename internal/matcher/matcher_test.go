package matcher

import "testing"

const line = "[2017] Attention Is All You Need - Vaswani, Ashish; Shazeer, Noam"

func TestMatcher_Match(t *testing.T) {
	tests := []struct {
		name  string
		query string
		opts  Options
		want  bool
	}{
		{"empty query matches", "", Options{}, true},
		{"substring", "attent", Options{}, true},
		{"case insensitive by default", "VASWANI", Options{}, true},
		{"case sensitive miss", "vaswani", Options{CaseSensitive: true}, false},
		{"case sensitive hit", "Vaswani", Options{CaseSensitive: true}, true},
		{"all tokens required", "attention bert", Options{}, false},
		{"tokens in any order", "shazeer 2017 need", Options{}, true},
		{"year brackets", "[2017]", Options{}, true},
		{"negated token excludes", "attention -vaswani", Options{NegateChar: '-'}, false},
		{"negated token passes", "attention -bert", Options{NegateChar: '-'}, true},
		{"dash without negation is literal", "-", Options{}, true},
		{"lone negate char ignored", "attention -", Options{NegateChar: '-'}, true},
		{"prefix hit", "atten shaz", Options{Method: MethodPrefix}, true},
		{"prefix miss inside word", "ention", Options{Method: MethodPrefix}, false},
		{"fuzzy subsequence", "atnnd", Options{Method: MethodFuzzy}, true},
		{"fuzzy order matters", "dnta", Options{Method: MethodFuzzy}, false},
		{"typo tolerated", "vaswami", Options{Method: MethodTypo}, true},
		{"typo too far", "vwsmami", Options{Method: MethodTypo}, false},
		{"typo budget", "atentoin", Options{Method: MethodTypo, MaxTypos: 3}, true},
		{"regex", "^\\[2017\\]", Options{Method: MethodRegex}, true},
		{"regex case insensitive", "ATTENTION.*NEED", Options{Method: MethodRegex}, true},
		{"regex negated", "-noam$", Options{Method: MethodRegex, NegateChar: '-'}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := New(tt.query, tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			if got := m.Match(line); got != tt.want {
				t.Errorf("Match(%q) with %+v = %v, want %v", tt.query, tt.opts, got, tt.want)
			}
		})
	}
}

func TestNew_InvalidRegex(t *testing.T) {
	if _, err := New("([", Options{Method: MethodRegex}); err == nil {
		t.Error("expected error for invalid regex")
	}
}

func TestMatcher_Empty(t *testing.T) {
	m, _ := New("   ", Options{})
	if !m.Empty() {
		t.Error("blank query should be empty")
	}
	m, _ = New("x", Options{})
	if m.Empty() {
		t.Error("non-blank query should not be empty")
	}
}

func TestParseMethod(t *testing.T) {
	tests := []struct {
		in      string
		want    Method
		wantErr bool
	}{
		{"", MethodNormal, false},
		{"normal", MethodNormal, false},
		{"Fuzzy", MethodFuzzy, false},
		{" typo ", MethodTypo, false},
		{"regex", MethodRegex, false},
		{"prefix", MethodPrefix, false},
		{"glob", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMethod(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMethod(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMethod(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMatcher_Terms(t *testing.T) {
	m, err := New("Deep -Net", Options{NegateChar: '-', MaxTypos: 0})
	if err != nil {
		t.Fatal(err)
	}
	terms := m.Terms()
	if len(terms) != 2 {
		t.Fatalf("Terms() = %+v", terms)
	}
	if terms[0] != (Term{Text: "deep"}) || terms[1] != (Term{Text: "net", Negate: true}) {
		t.Errorf("Terms() = %+v", terms)
	}
	if opts := m.Options(); opts.Method != MethodNormal || opts.MaxTypos != 1 {
		t.Errorf("Options() = %+v, want defaults applied", opts)
	}
}

func TestIsWord(t *testing.T) {
	tests := map[string]bool{
		"learning": true,
		"2016":     true,
		"größe":    true,
		"":         false,
		"o'brien":  false,
		"a.b":      false,
	}
	for in, want := range tests {
		if got := IsWord(in); got != want {
			t.Errorf("IsWord(%q) = %v, want %v", in, got, want)
		}
	}
}
