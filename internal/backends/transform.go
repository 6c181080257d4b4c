package backends

import (
	"fmt"
	"strings"
	"time"

	"fedsearch/internal/query"
)

// nodeKind tags the expression node kinds the transform protocol dispatches
// on.
type nodeKind int

const (
	kindLiteral nodeKind = iota
	kindKeyValue
	kindAnd
	kindOr
	kindNot
	kindNear
	kindGroup
)

// renderFunc produces an engine's native fragment for one node. ok=false
// means the engine cannot express the node; the fragment is dropped and the
// rest of the query still runs.
type renderFunc func(r *renderer, n query.Node) (string, bool)

// dialect is an engine's override table. Node kinds absent from the dialect
// fall back to the shared defaults, so an engine only defines what differs.
type dialect map[nodeKind]renderFunc

// renderer carries the per-transform state: which dialect is active and the
// reference instant for resolving partial dates.
type renderer struct {
	engine    EngineID
	overrides dialect
	ref       time.Time
}

// Transform renders an expression tree into the engine's native query
// syntax. It never fails: sub-expressions the engine cannot express are
// silently dropped.
func Transform(engine EngineID, q query.Query, ref time.Time) string {
	r := &renderer{engine: engine, ref: ref}
	if spec, ok := engineSpecs[engine]; ok {
		r.overrides = spec.dialect
	}
	return r.renderAll(q)
}

// renderAll renders a sequence of expressions, dropping the ones that
// render to nothing and joining the survivors with a single space. The
// join itself is the implicit AND.
func (r *renderer) renderAll(nodes query.Query) string {
	fragments := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if frag, ok := r.render(n); ok && frag != "" {
			fragments = append(fragments, frag)
		}
	}
	return strings.Join(fragments, " ")
}

// render dispatches one node through the (engine, node-kind) table, falling
// back to the shared default for kinds the dialect leaves alone.
func (r *renderer) render(n query.Node) (string, bool) {
	kind := kindOf(n)
	if f, ok := r.overrides[kind]; ok {
		return f(r, n)
	}
	return defaultRenders[kind](r, n)
}

func kindOf(n query.Node) nodeKind {
	switch n.(type) {
	case query.Literal:
		return kindLiteral
	case *query.KeyValue:
		return kindKeyValue
	case query.And:
		return kindAnd
	case *query.Or:
		return kindOr
	case *query.Not:
		return kindNot
	case *query.Near:
		return kindNear
	case *query.Group:
		return kindGroup
	}
	return kindLiteral
}

// defaultRenders is the fallback table shared by every engine. It is
// populated in init: the render functions recurse back through the table, so
// a composite literal here would be an initialization cycle.
var defaultRenders map[nodeKind]renderFunc

func init() {
	defaultRenders = map[nodeKind]renderFunc{
		kindLiteral:  renderLiteralDefault,
		kindKeyValue: renderKeyValueDefault,
		kindAnd:      renderAndDefault,
		kindOr:       renderOrDefault,
		kindNot:      renderNotDefault,
		kindNear:     renderNearDefault,
		kindGroup:    renderGroupDefault,
	}
}

func renderLiteralDefault(r *renderer, n query.Node) (string, bool) {
	return quoteIfNeeded(n.(query.Literal).Text), true
}

func renderKeyValueDefault(r *renderer, n query.Node) (string, bool) {
	kv := n.(*query.KeyValue)
	value, ok := r.renderValue(kv.Value, formatDateISO)
	if !ok {
		return "", false
	}
	return kv.Key + ":" + value, true
}

// renderAndDefault renders to nothing: adjacency in the joined output
// already expresses conjunction.
func renderAndDefault(r *renderer, n query.Node) (string, bool) {
	return "", false
}

// renderOrDefault degrades permissively: when one side cannot be expressed
// the other side passes through alone.
func renderOrDefault(r *renderer, n query.Node) (string, bool) {
	or := n.(*query.Or)
	left, lok := r.render(or.Left)
	right, rok := r.render(or.Right)
	switch {
	case lok && rok:
		return left + " or " + right, true
	case lok:
		return left, true
	case rok:
		return right, true
	}
	return "", false
}

func renderNotDefault(r *renderer, n query.Node) (string, bool) {
	inner, ok := r.render(n.(*query.Not).Expr)
	if !ok {
		return "", false
	}
	return "not " + inner, true
}

// renderNearDefault keeps `near` as a literal token between the two terms,
// which is what the plain index tools expect.
func renderNearDefault(r *renderer, n query.Node) (string, bool) {
	near := n.(*query.Near)
	return quoteIfNeeded(near.Left.Text) + " near " + quoteIfNeeded(near.Right.Text), true
}

func renderGroupDefault(r *renderer, n query.Node) (string, bool) {
	inner := r.renderAll(n.(*query.Group).Nodes)
	if inner == "" {
		return "", false
	}
	return "(" + inner + ")", true
}

// renderValue renders a KeyValue's value: a plain string, a date triple
// (formatted per engine), or a nested sub-query.
func (r *renderer) renderValue(v interface{}, dateFmt func(query.Date) string) (string, bool) {
	switch val := v.(type) {
	case string:
		return quoteIfNeeded(val), true
	case query.Date:
		return dateFmt(resolveDate(val, r.ref)), true
	case query.Query:
		inner := r.renderAll(val)
		if inner == "" {
			return "", false
		}
		return "(" + inner + ")", true
	}
	return fmt.Sprintf("%v", v), true
}

// quoteIfNeeded wraps a fragment in double quotes only when it contains
// whitespace.
func quoteIfNeeded(s string) string {
	if strings.ContainsAny(s, " \t\n") {
		return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
	}
	return s
}

// resolveDate fills the unspecified components of a partial date: first of
// the month, current month, current year. If the filled-in date lands after
// the reference instant, the components that were guessed are walked
// backward until it no longer does, so "march" in January means last March.
func resolveDate(d query.Date, ref time.Time) query.Date {
	hadDay, hadMonth, hadYear := d.Day != 0, d.Month != 0, d.Year != 0
	if !hadDay {
		d.Day = 1
	}
	if !hadMonth {
		d.Month = int(ref.Month())
	}
	if !hadYear {
		d.Year = ref.Year()
	}

	for asTime(d).After(ref) {
		switch {
		case !hadYear && hadMonth:
			d.Year--
		case !hadMonth:
			d.Month--
			if d.Month < 1 {
				d.Month = 12
				d.Year--
			}
		default:
			return d
		}
	}
	return d
}

func asTime(d query.Date) time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
}

// formatDateISO renders a resolved date as YYYY-MM-DD.
func formatDateISO(d query.Date) string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// formatDateCompact renders a resolved date as YYYYMMDD.
func formatDateCompact(d query.Date) string {
	return fmt.Sprintf("%04d%02d%02d", d.Year, d.Month, d.Day)
}
