package query

// markNames maps single-character mark abbreviations to canonical names.
// Anything longer than one character is already a name and passes through.
var markNames = map[string]string{
	"f": "flagged",
	"r": "read",
	"a": "replied",
	"n": "recent",
}

// NormalizeMark canonicalizes a mark value. Unknown values are returned
// unchanged; backends decide what they can express.
func NormalizeMark(value string) string {
	if name, ok := markNames[value]; ok {
		return name
	}
	return value
}
