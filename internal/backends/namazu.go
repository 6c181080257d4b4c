package backends

import (
	"fedsearch/internal/query"
)

// namazuDialect renders namazu's `+field:value` prefix notation. Booleans
// keep the default and/or/not words and parenthesized grouping.
var namazuDialect = dialect{
	kindKeyValue: namazuKeyValue,
}

var namazuKeys = map[string]string{
	"subject": "subject",
	"from":    "from",
	"sender":  "from",
	"to":      "to",
	"body":    "body",
	"id":      "message-id",
}

func namazuKeyValue(r *renderer, n query.Node) (string, bool) {
	kv := n.(*query.KeyValue)

	if d, ok := kv.Value.(query.Date); ok {
		switch kv.Key {
		case "since", "before", "on", "date":
			return "+date:" + formatDateISO(resolveDate(d, r.ref)), true
		}
		return "", false
	}

	key, ok := namazuKeys[kv.Key]
	if !ok {
		return "", false
	}
	value, ok := r.renderValue(kv.Value, formatDateISO)
	if !ok {
		return "", false
	}
	return "+" + key + ":" + value, true
}
