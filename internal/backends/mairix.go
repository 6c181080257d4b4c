package backends

import (
	"strings"

	"fedsearch/internal/query"
)

// mairixDialect renders mairix's single-letter key syntax. mairix has no
// general disjunction or negation; same-key alternatives fold into its
// comma form, anything else degrades.
var mairixDialect = dialect{
	kindKeyValue: mairixKeyValue,
	kindOr:       mairixOr,
	kindNot:      mairixNot,
	kindNear:     notmuchNear,
	kindLiteral:  mairixLiteral,
}

var mairixKeys = map[string]string{
	"from":      "f",
	"sender":    "f",
	"to":        "t",
	"cc":        "c",
	"recipient": "tc",
	"subject":   "s",
	"body":      "b",
	"id":        "m",
}

func mairixLiteral(r *renderer, n query.Node) (string, bool) {
	// Whole-message word search; mairix word patterns take no spaces.
	return "bs:" + mairixWord(n.(query.Literal).Text), true
}

func mairixKeyValue(r *renderer, n query.Node) (string, bool) {
	kv := n.(*query.KeyValue)

	if d, ok := kv.Value.(query.Date); ok {
		compact := formatDateCompact(resolveDate(d, r.ref))
		switch kv.Key {
		case "since", "sentsince":
			return "d:" + compact + "-", true
		case "before", "sentbefore":
			return "d:-" + compact, true
		case "on", "date", "senton":
			return "d:" + compact, true
		}
		return "", false
	}

	if s, ok := kv.Value.(string); ok {
		switch kv.Key {
		case "larger":
			return "z:" + s + "-", true
		case "smaller":
			return "z:-" + s, true
		}
	}

	key, ok := mairixKeys[kv.Key]
	if !ok {
		return "", false
	}
	s, ok := kv.Value.(string)
	if !ok {
		return "", false
	}
	return key + ":" + mairixWord(s), true
}

// mairixOr folds same-key disjunctions into mairix's comma form
// (`f:alice,bob`); otherwise it keeps whichever side it can express.
func mairixOr(r *renderer, n query.Node) (string, bool) {
	or := n.(*query.Or)
	left, lok := r.render(or.Left)
	right, rok := r.render(or.Right)
	switch {
	case lok && rok:
		lkey, lval, lcut := strings.Cut(left, ":")
		rkey, rval, rcut := strings.Cut(right, ":")
		if lcut && rcut && lkey == rkey {
			return lkey + ":" + lval + "," + rval, true
		}
		// No general OR; keep the left alternative.
		return left, true
	case lok:
		return left, true
	case rok:
		return right, true
	}
	return "", false
}

// mairixNot cannot be expressed and drops.
func mairixNot(r *renderer, n query.Node) (string, bool) {
	return "", false
}

// mairixWord collapses whitespace to mairix's comma form, since its word
// patterns cannot contain spaces.
func mairixWord(s string) string {
	return strings.Join(strings.Fields(s), ",")
}
