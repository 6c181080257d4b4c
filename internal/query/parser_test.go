package query

import (
	"reflect"
	"testing"
	"time"

	"fedsearch/internal/errors"
)

// fixedNow pins the reference instant: Thursday, 5 March 2020.
func fixedNow() time.Time {
	return time.Date(2020, time.March, 5, 12, 0, 0, 0, time.UTC)
}

func testParser(t *testing.T, opts Options) *Parser {
	t.Helper()
	if opts.Now == nil {
		opts.Now = fixedNow
	}
	return New(opts)
}

func mustParse(t *testing.T, p *Parser, input string) Query {
	t.Helper()
	q, err := p.Parse(input)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", input, err)
	}
	return q
}

func TestParseImplicitAnd(t *testing.T) {
	p := testParser(t, Options{})

	got := mustParse(t, p, "subject:foo bar")
	want := Query{
		&KeyValue{Key: "subject", Value: "foo"},
		Literal{Text: "bar"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Parse = %#v, want %#v", got, want)
	}
}

func TestParseLiteralOrderPreserved(t *testing.T) {
	p := testParser(t, Options{})

	got := mustParse(t, p, "alpha beta gamma")
	want := Query{Literal{Text: "alpha"}, Literal{Text: "beta"}, Literal{Text: "gamma"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Parse = %#v, want %#v", got, want)
	}
}

func TestParseExplicitAndKeepsMarker(t *testing.T) {
	p := testParser(t, Options{})

	got := mustParse(t, p, "alpha and beta")
	want := Query{Literal{Text: "alpha"}, And{}, Literal{Text: "beta"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Parse = %#v, want %#v", got, want)
	}
}

func TestParseOrRightAssociative(t *testing.T) {
	p := testParser(t, Options{})

	got := mustParse(t, p, "a or b or c")
	want := Query{
		&Or{
			Left: Literal{Text: "a"},
			Right: &Or{
				Left:  Literal{Text: "b"},
				Right: Literal{Text: "c"},
			},
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Parse = %#v, want %#v", got, want)
	}
}

func TestParseNegation(t *testing.T) {
	p := testParser(t, Options{})

	for _, input := range []string{"-mark:f", "not mark:f"} {
		got := mustParse(t, p, input)
		want := Query{&Not{Expr: &KeyValue{Key: "mark", Value: "flagged"}}}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Parse(%q) = %#v, want %#v", input, got, want)
		}
	}
}

func TestParseNear(t *testing.T) {
	p := testParser(t, Options{})

	t.Run("two plain strings", func(t *testing.T) {
		got := mustParse(t, p, "loom near weave")
		want := Query{&Near{Left: Literal{Text: "loom"}, Right: Literal{Text: "weave"}}}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Parse = %#v, want %#v", got, want)
		}
	})

	t.Run("rejects key:value operand", func(t *testing.T) {
		for _, input := range []string{
			"subject:a near b",
			"a near subject:b",
			"a near (b c)",
		} {
			_, err := p.Parse(input)
			if errors.CodeOf(err) != errors.ParseMalformedNear {
				t.Errorf("Parse(%q) error = %v, want ParseMalformedNear", input, err)
			}
		}
	})
}

func TestParseGroups(t *testing.T) {
	p := testParser(t, Options{})

	got := mustParse(t, p, "(a or b) c")
	want := Query{
		&Group{Nodes: Query{
			&Or{Left: Literal{Text: "a"}, Right: Literal{Text: "b"}},
		}},
		Literal{Text: "c"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Parse = %#v, want %#v", got, want)
	}
}

func TestParseGroupValue(t *testing.T) {
	p := testParser(t, Options{})

	got := mustParse(t, p, "from:(alice or bob)")
	want := Query{
		&KeyValue{Key: "from", Value: Query{
			&Or{Left: Literal{Text: "alice"}, Right: Literal{Text: "bob"}},
		}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Parse = %#v, want %#v", got, want)
	}
}

func TestParseQuotedStrings(t *testing.T) {
	p := testParser(t, Options{})

	tests := []struct {
		input string
		want  Query
	}{
		{`"foo bar"`, Query{Literal{Text: "foo bar"}}},
		{`subject:"hello there"`, Query{&KeyValue{Key: "subject", Value: "hello there"}}},
		{`"say \"hi\""`, Query{Literal{Text: `say "hi"`}}},
	}
	for _, tt := range tests {
		got := mustParse(t, p, tt.input)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Parse(%q) = %#v, want %#v", tt.input, got, tt.want)
		}
	}
}

func TestParseErrors(t *testing.T) {
	p := testParser(t, Options{})

	tests := []struct {
		input string
		code  errors.ErrorCode
	}{
		{`"unterminated`, errors.ParseUnterminatedString},
		{`subject:"unterminated`, errors.ParseUnterminatedString},
		{"(a b", errors.ParseUnmatchedDelimiter},
		{") a", errors.ParseUnmatchedDelimiter},
		{"a not", errors.ParseUnmatchedDelimiter},
		{"s:x", errors.ParseAmbiguousKeyword},
	}
	for _, tt := range tests {
		_, err := p.Parse(tt.input)
		if errors.CodeOf(err) != tt.code {
			t.Errorf("Parse(%q) error = %v, want code %s", tt.input, err, tt.code)
		}
	}
}

func TestParsePermissiveContent(t *testing.T) {
	p := testParser(t, Options{})

	// Unclassifiable bare content passes through as literals instead of
	// erroring.
	got := mustParse(t, p, "x??!")
	want := Query{Literal{Text: "x??!"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Parse = %#v, want %#v", got, want)
	}
}

func TestReduceAddress(t *testing.T) {
	p := testParser(t, Options{})

	got := mustParse(t, p, "address:alice@example.org")
	want := Query{
		&Or{
			Left:  &KeyValue{Key: "sender", Value: "alice@example.org"},
			Right: &KeyValue{Key: "recipient", Value: "alice@example.org"},
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Parse = %#v, want %#v", got, want)
	}
}

func TestReduceDateKeys(t *testing.T) {
	p := testParser(t, Options{})

	t.Run("absolute date", func(t *testing.T) {
		got := mustParse(t, p, "since:2020-03-01")
		want := Query{&KeyValue{Key: "since", Value: Date{Day: 1, Month: 3, Year: 2020}}}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Parse = %#v, want %#v", got, want)
		}
	})

	t.Run("after canonicalizes to since", func(t *testing.T) {
		got := mustParse(t, p, "after:1d")
		want := Query{&KeyValue{Key: "since", Value: Date{Day: 4, Month: 3, Year: 2020}}}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Parse = %#v, want %#v", got, want)
		}
	})

	t.Run("unparseable value passes through", func(t *testing.T) {
		got := mustParse(t, p, "before:xyzzy")
		want := Query{&KeyValue{Key: "before", Value: "xyzzy"}}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Parse = %#v, want %#v", got, want)
		}
	})
}

func TestReduceMark(t *testing.T) {
	p := testParser(t, Options{})

	tests := []struct {
		input string
		value string
	}{
		{"mark:f", "flagged"},
		{"mark:r", "read"},
		{"mark:a", "replied"},
		{"mark:n", "recent"},
		{"mark:seen", "seen"}, // already a name, unchanged
	}
	for _, tt := range tests {
		got := mustParse(t, p, tt.input)
		want := Query{&KeyValue{Key: "mark", Value: tt.value}}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Parse(%q) = %#v, want %#v", tt.input, got, want)
		}
	}
}

func TestParseKeywordAbbreviations(t *testing.T) {
	p := testParser(t, Options{})

	got := mustParse(t, p, "subj:hello fr:alice")
	want := Query{
		&KeyValue{Key: "subject", Value: "hello"},
		&KeyValue{Key: "from", Value: "alice"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Parse = %#v, want %#v", got, want)
	}
}

func TestParseMessageIDValue(t *testing.T) {
	p := testParser(t, Options{})

	// Colons inside the value stay part of the value.
	got := mustParse(t, p, "id:87abc:xyz@example.org")
	want := Query{&KeyValue{Key: "id", Value: "87abc:xyz@example.org"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Parse = %#v, want %#v", got, want)
	}
}

func TestParserReentrant(t *testing.T) {
	p := testParser(t, Options{})

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 50; j++ {
				if _, err := p.Parse("subject:foo or -bar baz"); err != nil {
					t.Errorf("Parse failed: %v", err)
					return
				}
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}
