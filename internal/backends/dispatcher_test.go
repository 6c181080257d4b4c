package backends

import (
	"context"
	"testing"
	"time"

	"fedsearch/internal/config"
	"fedsearch/internal/errors"
	"fedsearch/internal/logging"
	"fedsearch/internal/query"
)

// fakeRunner plays back canned output and records the rendered query it was
// handed.
type fakeRunner struct {
	lines   []string
	err     error
	queries []string
}

func (f *fakeRunner) Run(ctx context.Context, renderedQuery string, collections []string) ([]string, error) {
	f.queries = append(f.queries, renderedQuery)
	if f.err != nil {
		return nil, f.err
	}
	return f.lines, nil
}

func testDispatcher(t *testing.T, cfg *config.Config, runners map[string]*fakeRunner) *Dispatcher {
	t.Helper()
	return NewDispatcher(DispatcherOptions{
		Config: cfg,
		Parser: query.New(query.Options{Now: func() time.Time { return refDate }}),
		Logger: logging.NewNop(),
		NewRunner: func(d *Descriptor) Runner {
			return runners[d.Server]
		},
		Now: func() time.Time { return refDate },
	})
}

func swishServers(names ...string) map[string]config.ServerConfig {
	servers := make(map[string]config.ServerConfig, len(names))
	for _, name := range names {
		servers[name] = config.ServerConfig{Engine: "swish++", RemovePrefix: "/mail"}
	}
	return servers
}

func TestSearchMergesByScore(t *testing.T) {
	cfg := &config.Config{Servers: swishServers("alpha", "beta")}
	runners := map[string]*fakeRunner{
		"alpha": {lines: []string{
			"3 /mail/inbox/1",
			"1 /mail/inbox/2",
			"2 /mail/inbox/3",
		}},
		"beta": {lines: []string{"5 /mail/work/9"}},
	}
	d := testDispatcher(t, cfg, runners)

	resp, err := d.Search(context.Background(), Request{
		Query:  "subject:budget",
		Groups: map[string][]string{"alpha": nil, "beta": nil},
	})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	var scores []float64
	for _, m := range resp.Matches {
		scores = append(scores, m.Score)
	}
	want := []float64{5, 3, 2, 1}
	if len(scores) != len(want) {
		t.Fatalf("got %d matches, want %d", len(scores), len(want))
	}
	for i := range want {
		if scores[i] != want[i] {
			t.Errorf("score[%d] = %v, want %v", i, scores[i], want[i])
		}
	}
	if len(resp.Failures) != 0 {
		t.Errorf("unexpected failures: %v", resp.Failures)
	}
	if resp.ID == "" {
		t.Error("response has no id")
	}
}

func TestSearchScoreTiesKeepEncounterOrder(t *testing.T) {
	// Backends run in sorted server order; within one backend, output line
	// order. The merge is a stable sort, so equal scores keep that order.
	cfg := &config.Config{Servers: swishServers("alpha", "beta")}
	runners := map[string]*fakeRunner{
		"alpha": {lines: []string{
			"5 /mail/a/1",
			"9 /mail/a/2",
			"5 /mail/a/3",
		}},
		"beta": {lines: []string{"5 /mail/b/4"}},
	}
	d := testDispatcher(t, cfg, runners)

	resp, err := d.Search(context.Background(), Request{
		Query:  "budget",
		Groups: map[string][]string{"alpha": nil, "beta": nil},
	})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	want := []Match{
		{Collection: "a", Article: 2, Score: 9},
		{Collection: "a", Article: 1, Score: 5},
		{Collection: "a", Article: 3, Score: 5},
		{Collection: "b", Article: 4, Score: 5},
	}
	if len(resp.Matches) != len(want) {
		t.Fatalf("got %d matches, want %d", len(resp.Matches), len(want))
	}
	for i, m := range resp.Matches {
		if m != want[i] {
			t.Errorf("match[%d] = %+v, want %+v", i, m, want[i])
		}
	}
}

func TestSearchTransformsPerEngine(t *testing.T) {
	cfg := &config.Config{Servers: map[string]config.ServerConfig{
		"nm": {Engine: "notmuch"},
		"im": {Engine: "imap"},
	}}
	runners := map[string]*fakeRunner{"nm": {}, "im": {}}
	d := testDispatcher(t, cfg, runners)

	_, err := d.Search(context.Background(), Request{
		Query:  "subj:budget",
		Groups: map[string][]string{"nm": nil, "im": nil},
	})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if got := runners["nm"].queries; len(got) != 1 || got[0] != "subject:budget" {
		t.Errorf("notmuch saw %v, want [subject:budget]", got)
	}
	if got := runners["im"].queries; len(got) != 1 || got[0] != `SUBJECT "budget"` {
		t.Errorf("imap saw %v, want [SUBJECT \"budget\"]", got)
	}
}

func TestSearchRawBypass(t *testing.T) {
	t.Run("per-server flag", func(t *testing.T) {
		cfg := &config.Config{Servers: map[string]config.ServerConfig{
			"cooked": {Engine: "notmuch"},
			"raw":    {Engine: "notmuch", RawQueries: true},
		}}
		runners := map[string]*fakeRunner{"cooked": {}, "raw": {}}
		d := testDispatcher(t, cfg, runners)

		_, err := d.Search(context.Background(), Request{
			Query:  "subj:budget",
			Groups: map[string][]string{"cooked": nil, "raw": nil},
		})
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if got := runners["raw"].queries[0]; got != "subj:budget" {
			t.Errorf("raw server saw %q, want the verbatim query", got)
		}
		if got := runners["cooked"].queries[0]; got != "subject:budget" {
			t.Errorf("cooked server saw %q, want the transformed query", got)
		}
	})

	t.Run("raw meta prefix", func(t *testing.T) {
		cfg := &config.Config{Servers: map[string]config.ServerConfig{
			"nm": {Engine: "notmuch"},
		}}
		runners := map[string]*fakeRunner{"nm": {}}
		d := testDispatcher(t, cfg, runners)

		resp, err := d.Search(context.Background(), Request{
			Query:  "raw:t tag:inbox and not tag:spam",
			Groups: map[string][]string{"nm": nil},
		})
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if !resp.Meta.Raw {
			t.Error("Meta.Raw = false, want true")
		}
		if got := runners["nm"].queries[0]; got != "tag:inbox and not tag:spam" {
			t.Errorf("backend saw %q, want the meta-stripped query verbatim", got)
		}
	})
}

func TestSearchParseErrorIsFatal(t *testing.T) {
	cfg := &config.Config{Servers: swishServers("alpha")}
	runners := map[string]*fakeRunner{"alpha": {}}
	d := testDispatcher(t, cfg, runners)

	_, err := d.Search(context.Background(), Request{
		Query:  "(unclosed",
		Groups: map[string][]string{"alpha": nil},
	})
	if errors.CodeOf(err) != errors.ParseUnmatchedDelimiter {
		t.Errorf("Search error = %v, want ParseUnmatchedDelimiter", err)
	}
}

func TestSearchBackendFailureDegrades(t *testing.T) {
	cfg := &config.Config{Servers: swishServers("good", "bad")}
	runners := map[string]*fakeRunner{
		"good": {lines: []string{"7 /mail/inbox/1"}},
		"bad":  {err: errors.Newf(errors.BackendFailed, "index is locked")},
	}
	d := testDispatcher(t, cfg, runners)

	resp, err := d.Search(context.Background(), Request{
		Query:  "budget",
		Groups: map[string][]string{"good": nil, "bad": nil},
	})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(resp.Matches) != 1 {
		t.Errorf("got %d matches, want the healthy backend's one", len(resp.Matches))
	}
	if len(resp.Failures) != 1 || resp.Failures[0].Server != "bad" {
		t.Errorf("Failures = %v, want one entry for %q", resp.Failures, "bad")
	}
}

func TestSearchUnknownServerIsNonFatal(t *testing.T) {
	cfg := &config.Config{Servers: swishServers("alpha")}
	runners := map[string]*fakeRunner{"alpha": {lines: []string{"7 /mail/inbox/1"}}}
	d := testDispatcher(t, cfg, runners)

	resp, err := d.Search(context.Background(), Request{
		Query:  "budget",
		Groups: map[string][]string{"alpha": nil, "ghost": nil},
	})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(resp.Matches) != 1 {
		t.Errorf("got %d matches, want 1", len(resp.Matches))
	}
	if len(resp.Failures) != 1 || resp.Failures[0].Server != "ghost" {
		t.Errorf("Failures = %v, want one entry for %q", resp.Failures, "ghost")
	}
}

func TestSearchLimit(t *testing.T) {
	cfg := &config.Config{Servers: swishServers("alpha")}
	runners := map[string]*fakeRunner{
		"alpha": {lines: []string{
			"9 /mail/inbox/1",
			"8 /mail/inbox/2",
			"7 /mail/inbox/3",
		}},
	}
	d := testDispatcher(t, cfg, runners)

	resp, err := d.Search(context.Background(), Request{
		Query:  "limit:2 budget",
		Groups: map[string][]string{"alpha": nil},
	})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(resp.Matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(resp.Matches))
	}
	if resp.Matches[0].Score != 9 || resp.Matches[1].Score != 8 {
		t.Errorf("kept scores %v and %v, want the best two",
			resp.Matches[0].Score, resp.Matches[1].Score)
	}
}

func TestSearchDefaultCollections(t *testing.T) {
	cfg := &config.Config{Servers: map[string]config.ServerConfig{
		"alpha": {Engine: "swish++", Collections: []string{"inbox", "work"}},
	}}
	var seen []string
	runner := &fakeRunner{}
	d := NewDispatcher(DispatcherOptions{
		Config: cfg,
		Parser: query.New(query.Options{}),
		Logger: logging.NewNop(),
		NewRunner: func(desc *Descriptor) Runner {
			return runnerFunc(func(ctx context.Context, q string, collections []string) ([]string, error) {
				seen = collections
				return runner.Run(ctx, q, collections)
			})
		},
	})

	_, err := d.Search(context.Background(), Request{
		Query:  "budget",
		Groups: map[string][]string{"alpha": nil},
	})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(seen) != 2 || seen[0] != "inbox" || seen[1] != "work" {
		t.Errorf("backend searched %v, want the configured default collections", seen)
	}
}

type runnerFunc func(ctx context.Context, renderedQuery string, collections []string) ([]string, error)

func (f runnerFunc) Run(ctx context.Context, renderedQuery string, collections []string) ([]string, error) {
	return f(ctx, renderedQuery, collections)
}

func TestResolveDescriptor(t *testing.T) {
	cfg := &config.Config{
		Servers: map[string]config.ServerConfig{
			"explicit": {Engine: "mu"},
			"typed":    {Type: "maildir"},
			"tuned":    {Engine: "notmuch", Program: "/opt/notmuch", Args: []string{"search"}},
			"broken":   {Engine: "grepmail"},
			"untyped":  {},
		},
		Engines: map[string]config.EngineDefaults{
			"mu": {Program: "/usr/local/bin/mu"},
		},
		DefaultEngines: map[string]string{"maildir": "notmuch"},
	}

	t.Run("explicit engine with engine defaults", func(t *testing.T) {
		d, err := ResolveDescriptor(cfg, "explicit")
		if err != nil {
			t.Fatalf("ResolveDescriptor failed: %v", err)
		}
		if d.Engine != EngineMu || d.Program != "/usr/local/bin/mu" {
			t.Errorf("got engine %q program %q", d.Engine, d.Program)
		}
	})

	t.Run("type falls back to the default engine", func(t *testing.T) {
		d, err := ResolveDescriptor(cfg, "typed")
		if err != nil {
			t.Fatalf("ResolveDescriptor failed: %v", err)
		}
		if d.Engine != EngineNotmuch || d.Program != "notmuch" {
			t.Errorf("got engine %q program %q", d.Engine, d.Program)
		}
	})

	t.Run("server overrides win", func(t *testing.T) {
		d, err := ResolveDescriptor(cfg, "tuned")
		if err != nil {
			t.Fatalf("ResolveDescriptor failed: %v", err)
		}
		if d.Program != "/opt/notmuch" || len(d.Args) != 1 || d.Args[0] != "search" {
			t.Errorf("got program %q args %v", d.Program, d.Args)
		}
	})

	t.Run("unknown engine", func(t *testing.T) {
		_, err := ResolveDescriptor(cfg, "broken")
		if errors.CodeOf(err) != errors.EngineUnknown {
			t.Errorf("error = %v, want EngineUnknown", err)
		}
	})

	t.Run("no engine and no default", func(t *testing.T) {
		_, err := ResolveDescriptor(cfg, "untyped")
		if errors.CodeOf(err) != errors.EngineUnknown {
			t.Errorf("error = %v, want EngineUnknown", err)
		}
	})

	t.Run("unknown server", func(t *testing.T) {
		_, err := ResolveDescriptor(cfg, "missing")
		if errors.CodeOf(err) != errors.ConfigInvalid {
			t.Errorf("error = %v, want ConfigInvalid", err)
		}
	})
}
