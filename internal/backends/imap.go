package backends

import (
	"fmt"
	"strconv"
	"strings"

	"fedsearch/internal/query"
)

// imapDialect renders the tree as IMAP SEARCH program text: prefix OR/NOT,
// upper-case search keys, and fully resolved dd-Mon-yyyy dates.
var imapDialect = dialect{
	kindLiteral:  imapLiteral,
	kindKeyValue: imapKeyValue,
	kindOr:       imapOr,
	kindNot:      imapNot,
	kindNear:     imapNear,
	kindGroup:    imapGroup,
}

// imapKeys maps generic search keys to IMAP SEARCH keys. Keys that IMAP
// cannot express are absent and render to nothing.
var imapKeys = map[string]string{
	"from":       "FROM",
	"sender":     "FROM",
	"to":         "TO",
	"cc":         "CC",
	"bcc":        "BCC",
	"subject":    "SUBJECT",
	"body":       "BODY",
	"text":       "TEXT",
	"keyword":    "KEYWORD",
	"since":      "SINCE",
	"before":     "BEFORE",
	"on":         "ON",
	"date":       "ON",
	"sentsince":  "SENTSINCE",
	"sentbefore": "SENTBEFORE",
	"senton":     "SENTON",
	"larger":     "LARGER",
	"smaller":    "SMALLER",
}

// imapFlags maps canonical mark names to IMAP system flags.
var imapFlags = map[string]string{
	"flagged": "FLAGGED",
	"read":    "SEEN",
	"seen":    "SEEN",
	"replied": "ANSWERED",
	"recent":  "RECENT",
	"deleted": "DELETED",
	"draft":   "DRAFT",
	"unseen":  "UNSEEN",
	"unread":  "UNSEEN",
}

func imapLiteral(r *renderer, n query.Node) (string, bool) {
	return "TEXT " + imapQuote(n.(query.Literal).Text), true
}

func imapKeyValue(r *renderer, n query.Node) (string, bool) {
	kv := n.(*query.KeyValue)

	switch kv.Key {
	case "mark":
		if s, ok := kv.Value.(string); ok {
			if flag, ok := imapFlags[s]; ok {
				return flag, true
			}
			return "KEYWORD " + imapQuote(s), true
		}
		return "", false
	case "id":
		if s, ok := kv.Value.(string); ok {
			return "HEADER Message-Id " + imapQuote(s), true
		}
		return "", false
	case "recipient":
		// Any of the addressee headers.
		if s, ok := kv.Value.(string); ok {
			q := imapQuote(s)
			return fmt.Sprintf("OR TO %s OR CC %s BCC %s", q, q, q), true
		}
		return "", false
	case "attachment":
		if s, ok := kv.Value.(string); ok {
			return "BODY " + imapQuote(s), true
		}
		return "", false
	}

	key, ok := imapKeys[kv.Key]
	if !ok {
		return "", false
	}

	switch val := kv.Value.(type) {
	case query.Date:
		return key + " " + imapDate(resolveDate(val, r.ref)), true
	case string:
		if key == "LARGER" || key == "SMALLER" {
			if _, err := strconv.Atoi(val); err != nil {
				return "", false
			}
			return key + " " + val, true
		}
		return key + " " + imapQuote(val), true
	case query.Query:
		inner := r.renderAll(val)
		if inner == "" {
			return "", false
		}
		return "(" + inner + ")", true
	}
	return "", false
}

func imapOr(r *renderer, n query.Node) (string, bool) {
	or := n.(*query.Or)
	left, lok := r.render(or.Left)
	right, rok := r.render(or.Right)
	switch {
	case lok && rok:
		return fmt.Sprintf("OR %s %s", left, right), true
	case lok:
		return left, true
	case rok:
		return right, true
	}
	return "", false
}

// imapNot prefers the UN-flag forms over NOT when negating a system flag.
func imapNot(r *renderer, n query.Node) (string, bool) {
	inner, ok := r.render(n.(*query.Not).Expr)
	if !ok {
		return "", false
	}
	switch inner {
	case "SEEN", "FLAGGED", "ANSWERED", "DELETED", "DRAFT":
		return "UN" + inner, true
	case "RECENT":
		return "OLD", true
	}
	return "NOT " + inner, true
}

// imapNear rewrites proximity as disjunction on a private copy; the
// protocol has no proximity operator.
func imapNear(r *renderer, n query.Node) (string, bool) {
	near := n.(*query.Near)
	rewritten := &query.Or{Left: near.Left, Right: near.Right}
	return r.render(rewritten)
}

func imapGroup(r *renderer, n query.Node) (string, bool) {
	inner := r.renderAll(n.(*query.Group).Nodes)
	if inner == "" {
		return "", false
	}
	return "(" + inner + ")", true
}

// imapQuote quotes per RFC 3501: always quoted, with quote and backslash
// escaped.
func imapQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

// imapDate renders dd-Mon-yyyy, the protocol's date-text form.
func imapDate(d query.Date) string {
	return fmt.Sprintf("%d-%s-%d", d.Day, monthAbbrev[d.Month], d.Year)
}

var monthAbbrev = [...]string{"", "Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// massageIMAP parses the session collaborator's output. The collaborator
// emits, per searched collection, a `MAILBOX <name>` line followed by the
// protocol's untagged `* SEARCH <uid>...` responses for that mailbox.
func massageIMAP(lines []string, d *Descriptor, collections []string) []Match {
	var matches []Match
	collection := ""
	if len(collections) == 1 {
		collection = normalizeCollection(collections[0], d.RemovePrefix)
	}

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, "MAILBOX "); ok {
			collection = normalizeCollection(rest, d.RemovePrefix)
			continue
		}
		rest, ok := strings.CutPrefix(line, "* SEARCH")
		if !ok || collection == "" {
			continue
		}
		for _, field := range strings.Fields(rest) {
			uid, err := strconv.Atoi(field)
			if err != nil || uid < 0 {
				continue
			}
			matches = append(matches, Match{
				Collection: collection,
				Article:    uid,
				Score:      defaultScore,
			})
		}
	}
	return matches
}
