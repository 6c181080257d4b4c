package backends

import (
	"fedsearch/internal/query"
)

// swishppDialect renders swish++'s `meta = value` syntax. `near` is a
// native operator there, so the default literal-token rendering stands.
var swishppDialect = dialect{
	kindKeyValue: swishppKeyValue,
}

var swishppKeys = map[string]string{
	"subject": "subject",
	"from":    "from",
	"sender":  "from",
	"to":      "to",
	"cc":      "cc",
	"bcc":     "bcc",
	"body":    "body",
}

func swishppKeyValue(r *renderer, n query.Node) (string, bool) {
	kv := n.(*query.KeyValue)
	key, ok := swishppKeys[kv.Key]
	if !ok {
		return "", false
	}
	s, ok := kv.Value.(string)
	if !ok {
		// No date or sub-query metas in a swish++ index.
		return "", false
	}
	return key + " = " + quoteIfNeeded(s), true
}
