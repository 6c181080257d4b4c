package query

import (
	"regexp"
	"strings"
	"unicode"

	"fedsearch/internal/errors"
)

// tokenKind identifies a lexical token produced by the scanner.
type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNot
	tokAnd
	tokOr
	tokNear
	tokString
	tokGroup
	tokNode // a key:value pair, already reduced to an AST node
)

// token is the transient unit passed from the scanner to the parser.
type token struct {
	kind tokenKind
	text string  // tokString
	sub  []token // tokGroup
	node Node    // tokNode
}

var keywordPattern = regexp.MustCompile(`^(?i:(and|or|not|near))\b`)

// scanner walks an immutable input string with an explicit cursor.
type scanner struct {
	parser *Parser
	input  string
	pos    int
}

// tokenize scans the whole input into a flat token slice, recursing into
// parenthesized groups.
func (p *Parser) tokenize(input string) ([]token, error) {
	s := &scanner{parser: p, input: input}
	var toks []token
	for {
		tok, err := s.next()
		if err != nil {
			return nil, err
		}
		if tok.kind == tokEOF {
			return toks, nil
		}
		toks = append(toks, tok)
	}
}

// next returns the next token and advances the cursor. End-of-input is
// signaled with a tokEOF token after skipping trailing whitespace.
func (s *scanner) next() (token, error) {
	s.skipSpace()
	if s.pos >= len(s.input) {
		return token{kind: tokEOF}, nil
	}

	switch s.input[s.pos] {
	case '-':
		s.pos++
		return token{kind: tokNot}, nil
	case '(':
		inner, err := s.readGroup()
		if err != nil {
			return token{}, err
		}
		sub, err := s.parser.tokenize(inner)
		if err != nil {
			return token{}, err
		}
		return token{kind: tokGroup, sub: sub}, nil
	case ')':
		return token{}, errors.Newf(errors.ParseUnmatchedDelimiter,
			"unexpected %q in query at position %d", ')', s.pos)
	}

	if m := keywordPattern.FindString(s.input[s.pos:]); m != "" {
		// A trailing colon means this is really a key, not an operator.
		end := s.pos + len(m)
		if end >= len(s.input) || s.input[end] != ':' {
			s.pos = end
			switch strings.ToLower(m) {
			case "and":
				return token{kind: tokAnd}, nil
			case "or":
				return token{kind: tokOr}, nil
			case "not":
				return token{kind: tokNot}, nil
			case "near":
				return token{kind: tokNear}, nil
			}
		}
	}

	if s.input[s.pos] == '"' {
		text, err := s.readQuoted()
		if err != nil {
			return token{}, err
		}
		return token{kind: tokString, text: text}, nil
	}

	word, isKV := s.readWord()
	if !isKV {
		return token{kind: tokString, text: word}, nil
	}

	value, err := s.readValue()
	if err != nil {
		return token{}, err
	}
	node, err := s.parser.reduce(word, value)
	if err != nil {
		return token{}, err
	}
	return token{kind: tokNode, node: node}, nil
}

func (s *scanner) skipSpace() {
	for s.pos < len(s.input) && unicode.IsSpace(rune(s.input[s.pos])) {
		s.pos++
	}
}

// readGroup consumes a balanced parenthesized group, honoring quoted
// strings, and returns the inner text.
func (s *scanner) readGroup() (string, error) {
	start := s.pos
	depth := 0
	inQuote := false
	for i := s.pos; i < len(s.input); i++ {
		c := s.input[i]
		switch {
		case c == '\\' && i+1 < len(s.input):
			i++
		case c == '"':
			inQuote = !inQuote
		case inQuote:
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				s.pos = i + 1
				return s.input[start+1 : i], nil
			}
		}
	}
	return "", errors.Newf(errors.ParseUnmatchedDelimiter,
		"missing closing paren for group opened at position %d", start)
}

// readQuoted consumes a double-quoted string starting at the cursor,
// honoring backslash escapes for the quote character.
func (s *scanner) readQuoted() (string, error) {
	start := s.pos
	var b strings.Builder
	for i := s.pos + 1; i < len(s.input); i++ {
		c := s.input[i]
		switch c {
		case '\\':
			if i+1 < len(s.input) && s.input[i+1] == '"' {
				b.WriteByte('"')
				i++
				continue
			}
			b.WriteByte(c)
		case '"':
			s.pos = i + 1
			return b.String(), nil
		default:
			b.WriteByte(c)
		}
	}
	return "", errors.Newf(errors.ParseUnterminatedString,
		"unterminated quoted string at position %d", start)
}

// readWord consumes a run of non-whitespace characters. If the run is cut
// by an unescaped colon, the text before the colon is returned as a key and
// isKV is true, with the cursor left just past the colon.
func (s *scanner) readWord() (word string, isKV bool) {
	var b strings.Builder
	i := s.pos
	for ; i < len(s.input); i++ {
		c := s.input[i]
		if c == '\\' && i+1 < len(s.input) && s.input[i+1] == ':' {
			b.WriteByte(':')
			i++
			continue
		}
		if c == ':' {
			s.pos = i + 1
			return b.String(), true
		}
		if unicode.IsSpace(rune(c)) || c == '(' || c == ')' {
			break
		}
		b.WriteByte(c)
	}
	s.pos = i
	return b.String(), false
}

// readValue consumes the value half of a key:value pair: a quoted string, a
// parenthesized sub-query, or a bare run to the next whitespace.
func (s *scanner) readValue() (interface{}, error) {
	if s.pos < len(s.input) {
		switch s.input[s.pos] {
		case '"':
			return s.readQuoted()
		case '(':
			inner, err := s.readGroup()
			if err != nil {
				return nil, err
			}
			return s.parser.parseString(inner)
		}
	}
	word, isKV := s.readWord()
	if isKV {
		// A second colon inside the value is just text (e.g. message IDs).
		rest, _ := s.readWord()
		return word + ":" + rest, nil
	}
	return word, nil
}
