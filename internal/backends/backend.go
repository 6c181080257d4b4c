package backends

import (
	"fedsearch/internal/config"
	"fedsearch/internal/errors"
)

// EngineID uniquely identifies a search engine type
type EngineID string

const (
	// EngineIMAP represents an IMAP-protocol session search
	EngineIMAP EngineID = "imap"
	// EngineNotmuch represents the notmuch mail indexer
	EngineNotmuch EngineID = "notmuch"
	// EngineMu represents the mu mail indexer
	EngineMu EngineID = "mu"
	// EngineMairix represents the mairix mail indexer
	EngineMairix EngineID = "mairix"
	// EngineNamazu represents the namazu text indexer
	EngineNamazu EngineID = "namazu"
	// EngineSwishPP represents the swish++ text indexer
	EngineSwishPP EngineID = "swish++"
)

// engineSpec bundles everything that varies per engine type: its transform
// dialect, its output massaging, and the default invocation.
type engineSpec struct {
	dialect        dialect
	massage        massageFunc
	defaultProgram string
	defaultArgs    []string
}

// engineSpecs is the registry of supported engine types. Adding an engine
// means adding a dialect, a massage function, and an entry here.
var engineSpecs = map[EngineID]engineSpec{
	EngineIMAP:    {dialect: imapDialect, massage: massageIMAP},
	EngineNotmuch: {dialect: notmuchDialect, massage: massageFileList, defaultProgram: "notmuch", defaultArgs: []string{"search", "--output=files"}},
	EngineMu:      {dialect: muDialect, massage: massageFileList, defaultProgram: "mu", defaultArgs: []string{"find", "--fields", "l"}},
	EngineMairix:  {dialect: mairixDialect, massage: massageFileList, defaultProgram: "mairix", defaultArgs: []string{"-r"}},
	EngineNamazu:  {dialect: namazuDialect, massage: massageNamazu, defaultProgram: "namazu", defaultArgs: []string{"-q"}},
	EngineSwishPP: {dialect: swishppDialect, massage: massageSwishPP, defaultProgram: "search++"},
}

// Descriptor identifies an engine variant plus its resolved configuration.
// It is built once per dispatch by merging global engine defaults with the
// per-server overrides; per-server values win.
type Descriptor struct {
	Server       string
	Engine       EngineID
	Program      string
	Args         []string
	RemovePrefix string
	RawQueries   bool
	Collections  []string
}

// ResolveDescriptor merges the global defaults for a server's engine with
// its own configuration. The server's explicit engine wins; otherwise the
// default engine for its declared type applies.
func ResolveDescriptor(cfg *config.Config, server string) (*Descriptor, error) {
	sc, ok := cfg.Servers[server]
	if !ok {
		return nil, errors.Newf(errors.ConfigInvalid, "unknown server %q", server)
	}

	engine := sc.Engine
	if engine == "" {
		engine = cfg.DefaultEngines[sc.Type]
	}
	spec, ok := engineSpecs[EngineID(engine)]
	if !ok {
		return nil, errors.Newf(errors.EngineUnknown,
			"server %q: unknown engine %q", server, engine)
	}

	d := &Descriptor{
		Server:       server,
		Engine:       EngineID(engine),
		Program:      spec.defaultProgram,
		Args:         spec.defaultArgs,
		RemovePrefix: sc.RemovePrefix,
		RawQueries:   sc.RawQueries,
		Collections:  sc.Collections,
	}
	if ed, ok := cfg.Engines[engine]; ok {
		if ed.Program != "" {
			d.Program = ed.Program
		}
		if len(ed.Args) > 0 {
			d.Args = ed.Args
		}
		if ed.RemovePrefix != "" && d.RemovePrefix == "" {
			d.RemovePrefix = ed.RemovePrefix
		}
	}
	if sc.Program != "" {
		d.Program = sc.Program
	}
	if len(sc.Args) > 0 {
		d.Args = sc.Args
	}
	return d, nil
}
