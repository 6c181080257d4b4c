package backends

import (
	"regexp"
	"strconv"
	"strings"
)

// massageFunc normalizes one backend's raw output lines into Matches.
type massageFunc func(lines []string, d *Descriptor, collections []string) []Match

// massageFileList handles the indexers that report one matching file path
// per line (notmuch, mu, mairix). Relevance is not reported, so every hit
// gets the default score.
func massageFileList(lines []string, d *Descriptor, collections []string) []Match {
	var matches []Match
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m, ok := pathToMatch(line, d.RemovePrefix, defaultScore); ok {
			matches = append(matches, m)
		}
	}
	return matches
}

// namazuResult matches namazu's default listing: a numbered summary line
// carrying the score, with the hit's path on the following line.
var namazuResult = regexp.MustCompile(`^[0-9,]+\.\s.*\(score: ([0-9]+)\)`)

func massageNamazu(lines []string, d *Descriptor, collections []string) []Match {
	var matches []Match
	score := float64(defaultScore)
	pending := false
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if m := namazuResult.FindStringSubmatch(line); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				score = float64(n)
				pending = true
			}
			continue
		}
		if pending && strings.HasPrefix(line, "/") {
			if m, ok := pathToMatch(line, d.RemovePrefix, score); ok {
				matches = append(matches, m)
			}
			pending = false
		}
	}
	return matches
}

// massageSwishPP handles swish++'s `rank path size title` result lines.
func massageSwishPP(lines []string, d *Descriptor, collections []string) []Match {
	var matches []Match
	for _, line := range lines {
		fields := strings.Fields(strings.TrimSpace(line))
		if len(fields) < 2 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		rank, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		if m, ok := pathToMatch(fields[1], d.RemovePrefix, float64(rank)); ok {
			matches = append(matches, m)
		}
	}
	return matches
}

// normalizeCollection maps a backend's mailbox or directory name to the
// canonical dot-separated collection name.
func normalizeCollection(name, prefix string) string {
	name = strings.TrimPrefix(name, prefix)
	name = strings.Trim(name, "/")
	return strings.ReplaceAll(name, "/", ".")
}

// pathToMatch maps a hit's file path to a canonical collection name and
// article number: the configured prefix is stripped, slashes become dots,
// trailing maildir item containers (cur/new/tmp) are dropped, and the
// article number is the leading digit run of the file name.
func pathToMatch(path, prefix string, score float64) (Match, bool) {
	path = strings.TrimPrefix(path, prefix)
	path = strings.Trim(path, "/")

	segments := strings.Split(path, "/")
	if len(segments) < 2 {
		return Match{}, false
	}
	file := segments[len(segments)-1]
	dirs := segments[:len(segments)-1]

	last := dirs[len(dirs)-1]
	if last == "cur" || last == "new" || last == "tmp" {
		dirs = dirs[:len(dirs)-1]
	}
	if len(dirs) == 0 {
		return Match{}, false
	}

	article := leadingNumber(file)
	if article < 0 {
		return Match{}, false
	}
	return Match{
		Collection: strings.Join(dirs, "."),
		Article:    article,
		Score:      score,
	}, true
}

// leadingNumber parses the leading digit run of a file name, the article
// number in maildir and nnml layouts. Returns -1 when there is none.
func leadingNumber(name string) int {
	end := 0
	for end < len(name) && name[end] >= '0' && name[end] <= '9' {
		end++
	}
	if end == 0 {
		return -1
	}
	n, err := strconv.Atoi(name[:end])
	if err != nil {
		return -1
	}
	return n
}
