package query

import (
	"strings"
	"time"

	"fedsearch/internal/errors"
)

// Options configures a Parser. Zero values fall back to the package
// defaults; Contacts stays empty unless the caller injects sources.
type Options struct {
	// Keywords is the vocabulary abbreviated keys are expanded against.
	Keywords []string

	// DateKeys lists the keys whose values are date expressions.
	DateKeys []string

	// Contacts are the lookup sources for contact searches, in priority
	// order.
	Contacts []ContactSource

	// Now supplies the reference instant for relative dates. Defaults to
	// time.Now; tests pin it.
	Now func() time.Time
}

// Parser turns a raw query string into an expression tree. Parsers are
// stateless after construction and safe for concurrent use, provided the
// injected contact sources are.
type Parser struct {
	opts Options
}

// New creates a Parser, filling in defaults for unset options.
func New(opts Options) *Parser {
	if opts.Keywords == nil {
		opts.Keywords = DefaultKeywords
	}
	if opts.DateKeys == nil {
		opts.DateKeys = DefaultDateKeys
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Parser{opts: opts}
}

// Parse parses a raw query string into a flat, implicitly AND-ed sequence
// of expressions. Malformed queries return a ParseError; unclassifiable
// bare strings pass through as literals.
func (p *Parser) Parse(input string) (Query, error) {
	return p.parseString(input)
}

func (p *Parser) parseString(input string) (Query, error) {
	toks, err := p.tokenize(input)
	if err != nil {
		return nil, err
	}
	return p.parseTokens(&tokenStream{toks: toks})
}

// tokenStream is a cursor over a tokenized query or group.
type tokenStream struct {
	toks []token
	pos  int
}

func (ts *tokenStream) next() token {
	if ts.pos >= len(ts.toks) {
		return token{kind: tokEOF}
	}
	tok := ts.toks[ts.pos]
	ts.pos++
	return tok
}

func (ts *tokenStream) peek() token {
	if ts.pos >= len(ts.toks) {
		return token{kind: tokEOF}
	}
	return ts.toks[ts.pos]
}

func (p *Parser) parseTokens(ts *tokenStream) (Query, error) {
	var q Query
	for ts.peek().kind != tokEOF {
		expr, err := p.parseExpr(ts)
		if err != nil {
			return nil, err
		}
		q = append(q, expr)
	}
	return q, nil
}

// parseExpr implements `expr := term (OR expr | NEAR expr)?`. `or` binds
// the current term against the recursively parsed remainder, so chains are
// right-associative.
func (p *Parser) parseExpr(ts *tokenStream) (Node, error) {
	term, err := p.parseTerm(ts)
	if err != nil {
		return nil, err
	}

	switch ts.peek().kind {
	case tokOr:
		ts.next()
		right, err := p.parseExpr(ts)
		if err != nil {
			return nil, err
		}
		return &Or{Left: term, Right: right}, nil
	case tokNear:
		ts.next()
		right, err := p.parseExpr(ts)
		if err != nil {
			return nil, err
		}
		left, lok := term.(Literal)
		rlit, rok := right.(Literal)
		if !lok || !rok {
			return nil, errors.Newf(errors.ParseMalformedNear,
				"near requires plain strings on both sides")
		}
		return &Near{Left: left, Right: rlit}, nil
	}
	return term, nil
}

// parseTerm implements `term := NOT expr | symbol`.
func (p *Parser) parseTerm(ts *tokenStream) (Node, error) {
	tok := ts.next()
	switch tok.kind {
	case tokNot:
		expr, err := p.parseExpr(ts)
		if err != nil {
			return nil, err
		}
		return &Not{Expr: expr}, nil
	case tokAnd:
		return And{}, nil
	case tokString:
		return Literal{Text: tok.text}, nil
	case tokNode:
		return tok.node, nil
	case tokGroup:
		sub, err := p.parseTokens(&tokenStream{toks: tok.sub})
		if err != nil {
			return nil, err
		}
		return &Group{Nodes: sub}, nil
	case tokEOF:
		return nil, errors.Newf(errors.ParseUnmatchedDelimiter,
			"query ends where an expression was expected")
	default:
		return nil, errors.Newf(errors.InternalError,
			"unhandled token kind %d", tok.kind)
	}
}

// reduce builds the AST node for a key:value pair: the key is expanded,
// then routed through the date, contact, address, or mark handling.
func (p *Parser) reduce(key string, value interface{}) (Node, error) {
	key, err := ExpandKeyword(key, p.opts.Keywords)
	if err != nil {
		return nil, err
	}

	switch {
	case p.isDateKey(key):
		if s, ok := value.(string); ok {
			value = NormalizeDate(s, p.opts.Now())
		}
		if key == "after" {
			key = "since"
		}
	case strings.Contains(key, "contact"):
		s, ok := value.(string)
		if !ok {
			return nil, errors.Newf(errors.ParseInvalidValue,
				"contact search takes a plain name, not a sub-query")
		}
		return p.normalizeContact(key, s)
	case key == "address":
		return &Or{
			Left:  &KeyValue{Key: "sender", Value: value},
			Right: &KeyValue{Key: "recipient", Value: value},
		}, nil
	case key == "mark":
		if s, ok := value.(string); ok {
			value = NormalizeMark(s)
		}
	}
	return &KeyValue{Key: key, Value: value}, nil
}

func (p *Parser) isDateKey(key string) bool {
	for _, k := range p.opts.DateKeys {
		if k == key {
			return true
		}
	}
	return false
}
