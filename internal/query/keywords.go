package query

import (
	"strings"

	"fedsearch/internal/errors"
)

// DefaultKeywords is the vocabulary search keys are completed against.
// Keys absent from the vocabulary pass through unexpanded.
var DefaultKeywords = []string{
	"address",
	"after",
	"attachment",
	"bcc",
	"before",
	"body",
	"cc",
	"contact",
	"contact-from",
	"contact-to",
	"date",
	"from",
	"id",
	"keyword",
	"larger",
	"mark",
	"on",
	"recipient",
	"sender",
	"since",
	"smaller",
	"subject",
	"text",
	"thread",
	"to",
}

// ExpandKeyword expands an abbreviated search key against the vocabulary.
// Hyphen-separated keys are completed jointly against the hyphenated
// vocabulary entries, segment by segment (so "c-t" completes to
// "contact-to"). An exact vocabulary entry always wins; multiple completions
// with no exact match are an error; a key matching nothing is returned
// unchanged.
func ExpandKeyword(key string, vocabulary []string) (string, error) {
	// Whole-key exact and prefix matches take precedence over segment-wise
	// expansion, so partially typed hyphenated entries stay reachable.
	if expanded, ok, err := completeKey(key, vocabulary); err != nil {
		return "", err
	} else if ok {
		return expanded, nil
	}

	segments := strings.Split(key, "-")
	if len(segments) == 1 {
		return key, nil
	}
	return expandSegments(key, segments, vocabulary)
}

// expandSegments completes a hyphenated key against vocabulary entries with
// the same segment count. A candidate matches when every query segment is a
// prefix of the candidate's segment at the same position.
func expandSegments(key string, segments []string, vocabulary []string) (string, error) {
	lower := make([]string, len(segments))
	for i, seg := range segments {
		lower[i] = strings.ToLower(seg)
	}

	var matches []string
	for _, entry := range vocabulary {
		parts := strings.Split(entry, "-")
		if len(parts) != len(lower) {
			continue
		}
		matched := true
		for i, seg := range lower {
			if !strings.HasPrefix(parts[i], seg) {
				matched = false
				break
			}
		}
		if matched {
			matches = append(matches, entry)
		}
	}

	switch len(matches) {
	case 0:
		return key, nil
	case 1:
		return matches[0], nil
	}

	// Multiple candidates are still unambiguous when the shortest one
	// prefixes every other at each position.
	shortest := matches[0]
	for _, m := range matches[1:] {
		if len(m) < len(shortest) {
			shortest = m
		}
	}
	short := strings.Split(shortest, "-")
	for _, m := range matches {
		parts := strings.Split(m, "-")
		for i, seg := range short {
			if !strings.HasPrefix(parts[i], seg) {
				return "", errors.Newf(errors.ParseAmbiguousKeyword,
					"ambiguous keyword %q: could be any of %s", key, strings.Join(matches, ", "))
			}
		}
	}
	return shortest, nil
}

// completeKey completes a whole key against the vocabulary. ok is false when
// the key matches no entry at all.
func completeKey(seg string, vocabulary []string) (string, bool, error) {
	lower := strings.ToLower(seg)
	var matches []string
	for _, entry := range vocabulary {
		if entry == lower {
			// Expansion is idempotent for full keywords.
			return entry, true, nil
		}
		if strings.HasPrefix(entry, lower) {
			matches = append(matches, entry)
		}
	}
	switch len(matches) {
	case 0:
		return seg, false, nil
	case 1:
		return matches[0], true, nil
	default:
		// Multiple completions are still unambiguous when the shortest one
		// is a prefix of every other (e.g. "con" means "contact" even though
		// "contact-to" also matches).
		shortest := matches[0]
		for _, m := range matches[1:] {
			if len(m) < len(shortest) {
				shortest = m
			}
		}
		for _, m := range matches {
			if !strings.HasPrefix(m, shortest) {
				return "", false, errors.Newf(errors.ParseAmbiguousKeyword,
					"ambiguous keyword %q: could be any of %s", seg, strings.Join(matches, ", "))
			}
		}
		return shortest, true, nil
	}
}
