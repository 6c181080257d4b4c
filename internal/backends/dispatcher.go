package backends

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"fedsearch/internal/config"
	"fedsearch/internal/history"
	"fedsearch/internal/logging"
	"fedsearch/internal/query"
)

// Engine is one resolved backend: its descriptor, its invocation
// collaborator, and the engine type's dialect and massaging.
type Engine struct {
	Descriptor *Descriptor
	Runner     Runner
	spec       engineSpec
}

// Request asks for one federated search: a raw query string and the
// collections to search, grouped by server. A server never sees another
// server's collections.
type Request struct {
	Query string

	// Groups maps server name to collections. An empty list falls back to
	// the server's configured default collections.
	Groups map[string][]string
}

// Response is the merged outcome of a dispatch.
type Response struct {
	ID         string     `json:"id"`
	Query      string     `json:"query"`
	Meta       query.Meta `json:"meta"`
	Matches    []Match    `json:"matches"`
	Failures   []Failure  `json:"failures,omitempty"`
	DurationMs int64      `json:"durationMs"`
}

// DispatcherOptions configures a Dispatcher.
type DispatcherOptions struct {
	Config *config.Config
	Parser *query.Parser
	Logger *logging.Logger

	// History records completed dispatches when set.
	History *history.Store

	// NewRunner builds the invocation collaborator for a resolved
	// descriptor. Defaults to subprocess execution; tests inject fakes.
	NewRunner func(*Descriptor) Runner

	// Now supplies the reference instant for date resolution. Defaults to
	// time.Now.
	Now func() time.Time
}

// Dispatcher fans a search out across servers and merges the results.
// Backends run sequentially, one collection group at a time: the protocol
// sessions behind some engines share connection state that concurrent
// searches would clobber.
type Dispatcher struct {
	cfg       *config.Config
	parser    *query.Parser
	logger    *logging.Logger
	history   *history.Store
	newRunner func(*Descriptor) Runner
	now       func() time.Time

	// engines is the lazily built server name -> resolved engine table.
	mu      sync.Mutex
	engines map[string]*Engine
}

// NewDispatcher creates a Dispatcher, filling in defaults for unset
// options.
func NewDispatcher(opts DispatcherOptions) *Dispatcher {
	if opts.NewRunner == nil {
		opts.NewRunner = func(d *Descriptor) Runner {
			return &ExecRunner{Program: d.Program, Args: d.Args}
		}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Dispatcher{
		cfg:       opts.Config,
		parser:    opts.Parser,
		logger:    opts.Logger,
		history:   opts.History,
		newRunner: opts.NewRunner,
		now:       opts.Now,
		engines:   make(map[string]*Engine),
	}
}

// Search runs one federated search. Parse errors are fatal to the request;
// a failing backend is reported in the response and the other backends
// still contribute.
func (d *Dispatcher) Search(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp := &Response{
		ID:    uuid.NewString(),
		Query: req.Query,
	}

	meta, rest := query.StripMeta(req.Query)
	resp.Meta = meta

	servers := make([]string, 0, len(req.Groups))
	for name := range req.Groups {
		servers = append(servers, name)
	}
	sort.Strings(servers)

	// The shared tree is parsed once, and only if some backend needs it.
	var ast query.Query
	parsed := false

	for _, name := range servers {
		eng, err := d.engine(name)
		if err != nil {
			d.reportFailure(resp, name, err)
			continue
		}

		collections := req.Groups[name]
		if len(collections) == 0 {
			collections = eng.Descriptor.Collections
		}

		rendered := rest
		if !meta.Raw && !eng.Descriptor.RawQueries {
			if !parsed {
				ast, err = d.parser.Parse(rest)
				if err != nil {
					return nil, err
				}
				parsed = true
			}
			rendered = Transform(eng.Descriptor.Engine, ast, d.now())
		}

		d.logger.Debug("Dispatching to backend", map[string]interface{}{
			"server":      name,
			"engine":      eng.Descriptor.Engine,
			"query":       rendered,
			"collections": len(collections),
		})

		lines, err := eng.Runner.Run(ctx, rendered, collections)
		if err != nil {
			d.reportFailure(resp, name, err)
			continue
		}
		resp.Matches = append(resp.Matches, eng.spec.massage(lines, eng.Descriptor, collections)...)
	}

	// Stable sort: score ties keep encounter order.
	sort.SliceStable(resp.Matches, func(i, j int) bool {
		return resp.Matches[i].Score > resp.Matches[j].Score
	})
	if meta.Limit > 0 && len(resp.Matches) > meta.Limit {
		resp.Matches = resp.Matches[:meta.Limit]
	}

	resp.DurationMs = time.Since(start).Milliseconds()
	d.record(resp, len(servers), start)

	d.logger.Info("Search completed", map[string]interface{}{
		"id":         resp.ID,
		"matches":    len(resp.Matches),
		"failures":   len(resp.Failures),
		"durationMs": resp.DurationMs,
	})
	return resp, nil
}

// engine resolves a server's descriptor once and caches it. The table is
// read-mostly after warm-up; the lock only matters on first use.
func (d *Dispatcher) engine(server string) (*Engine, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if eng, ok := d.engines[server]; ok {
		return eng, nil
	}
	desc, err := ResolveDescriptor(d.cfg, server)
	if err != nil {
		return nil, err
	}
	eng := &Engine{
		Descriptor: desc,
		Runner:     d.newRunner(desc),
		spec:       engineSpecs[desc.Engine],
	}
	d.engines[server] = eng
	return eng, nil
}

func (d *Dispatcher) reportFailure(resp *Response, server string, err error) {
	d.logger.Warn("Backend failed, skipping its collections", map[string]interface{}{
		"server": server,
		"error":  err.Error(),
	})
	resp.Failures = append(resp.Failures, Failure{Server: server, Message: err.Error()})
}

func (d *Dispatcher) record(resp *Response, servers int, start time.Time) {
	if d.history == nil {
		return
	}
	d.history.Record(history.Entry{
		ID:         resp.ID,
		Query:      resp.Query,
		Servers:    servers,
		Matches:    len(resp.Matches),
		Failures:   len(resp.Failures),
		DurationMs: resp.DurationMs,
		CreatedAt:  start,
	})
}
