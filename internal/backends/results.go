package backends

// defaultScore is assigned when a backend reports hits without relevance
// information.
const defaultScore = 100

// Match is one normalized hit: a fully-qualified collection name, the item
// number within it, and a relevance score where larger means more relevant.
type Match struct {
	// Collection is the dot-separated collection name, prefix stripped.
	Collection string `json:"collection"`

	// Article is the item identifier within the collection.
	Article int `json:"article"`

	// Score is the backend-reported relevance, defaultScore when the
	// backend has none.
	Score float64 `json:"score"`
}

// Failure records one backend that could not contribute to a dispatch.
// Its collections contribute zero matches; the rest of the request still
// runs.
type Failure struct {
	Server  string `json:"server"`
	Message string `json:"message"`
}
