package query

import (
	"regexp"
	"strconv"
)

// Meta carries the reserved meta-prefixes recognized ahead of the query
// proper. They never reach the parser or any backend.
type Meta struct {
	// Thread asks for whole threads around each hit.
	Thread bool

	// Limit caps the number of returned matches; zero means no cap.
	Limit int

	// Raw skips parsing and transformation for the whole request,
	// forwarding the query string verbatim to every backend.
	Raw bool

	// Count asks for match counts only.
	Count bool
}

var metaPattern = regexp.MustCompile(`^(thread|limit|raw|no-parse|count):([^\s]+)\s*`)

// StripMeta peels reserved `key:value` meta-prefixes off the front of a
// query string, returning the collected flags and the remaining query.
func StripMeta(input string) (Meta, string) {
	var meta Meta
	rest := input
	for {
		m := metaPattern.FindStringSubmatch(rest)
		if m == nil {
			return meta, rest
		}
		switch m[1] {
		case "thread":
			meta.Thread = truthy(m[2])
		case "limit":
			if n, err := strconv.Atoi(m[2]); err == nil && n > 0 {
				meta.Limit = n
			}
		case "raw", "no-parse":
			meta.Raw = truthy(m[2])
		case "count":
			meta.Count = truthy(m[2])
		}
		rest = rest[len(m[0]):]
	}
}

// truthy accepts the conventional `t` marker or any positive number.
func truthy(v string) bool {
	if v == "t" || v == "true" {
		return true
	}
	n, err := strconv.Atoi(v)
	return err == nil && n > 0
}
