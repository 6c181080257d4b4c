package backends

import (
	"fedsearch/internal/query"
)

// muDialect renders mu's `field:value` syntax with compact date ranges.
var muDialect = dialect{
	kindKeyValue: muKeyValue,
	kindNear:     notmuchNear, // mu has no proximity operator either
}

var muKeys = map[string]string{
	"from":       "from",
	"sender":     "from",
	"to":         "to",
	"recipient":  "to",
	"cc":         "cc",
	"bcc":        "bcc",
	"subject":    "subject",
	"body":       "body",
	"id":         "msgid",
	"attachment": "file",
}

// muFlags maps canonical mark names to mu message flags.
var muFlags = map[string]string{
	"flagged": "flagged",
	"read":    "seen",
	"seen":    "seen",
	"replied": "replied",
	"recent":  "new",
	"draft":   "draft",
}

func muKeyValue(r *renderer, n query.Node) (string, bool) {
	kv := n.(*query.KeyValue)

	if d, ok := kv.Value.(query.Date); ok {
		compact := formatDateCompact(resolveDate(d, r.ref))
		switch kv.Key {
		case "since", "sentsince":
			return "date:" + compact + "..", true
		case "before", "sentbefore":
			return "date:.." + compact, true
		case "on", "date", "senton":
			return "date:" + compact, true
		}
		return "", false
	}

	if kv.Key == "mark" {
		if s, ok := kv.Value.(string); ok {
			if flag, ok := muFlags[s]; ok {
				return "flag:" + flag, true
			}
		}
		return "", false
	}

	if s, ok := kv.Value.(string); ok {
		switch kv.Key {
		case "larger":
			return "size:" + s + "..", true
		case "smaller":
			return "size:.." + s, true
		}
	}

	key, ok := muKeys[kv.Key]
	if !ok {
		return "", false
	}
	value, ok := r.renderValue(kv.Value, formatDateCompact)
	if !ok {
		return "", false
	}
	return key + ":" + value, true
}
