package backends

import (
	"fedsearch/internal/query"
)

// notmuchDialect renders notmuch's `term:value` syntax. Booleans keep the
// default and/or/not words, which notmuch understands natively.
var notmuchDialect = dialect{
	kindKeyValue: notmuchKeyValue,
	kindNear:     notmuchNear,
}

var notmuchKeys = map[string]string{
	"from":       "from",
	"sender":     "from",
	"to":         "to",
	"recipient":  "to",
	"cc":         "to",
	"bcc":        "to",
	"subject":    "subject",
	"body":       "body",
	"id":         "id",
	"thread":     "thread",
	"mark":       "tag",
	"keyword":    "tag",
	"attachment": "attachment",
}

func notmuchKeyValue(r *renderer, n query.Node) (string, bool) {
	kv := n.(*query.KeyValue)

	// Date keys become one-sided ranges.
	if d, ok := kv.Value.(query.Date); ok {
		iso := formatDateISO(resolveDate(d, r.ref))
		switch kv.Key {
		case "since", "sentsince":
			return "date:" + iso + "..", true
		case "before", "sentbefore":
			return "date:.." + iso, true
		case "on", "date", "senton":
			return "date:" + iso, true
		}
		return "", false
	}

	key, ok := notmuchKeys[kv.Key]
	if !ok {
		return "", false
	}
	value, ok := r.renderValue(kv.Value, formatDateISO)
	if !ok {
		return "", false
	}
	return key + ":" + value, true
}

// notmuchNear degrades proximity to plain conjunction.
func notmuchNear(r *renderer, n query.Node) (string, bool) {
	near := n.(*query.Near)
	return quoteIfNeeded(near.Left.Text) + " " + quoteIfNeeded(near.Right.Text), true
}
