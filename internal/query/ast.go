package query

// Node is one element of a parsed query expression tree.
// The tree is immutable once produced by the parser; backends read it but
// never mutate shared structure.
type Node interface {
	node()
}

// Query is the flat, ordered sequence of expressions a parsed query reduces
// to. Sequence members are implicitly AND-ed; nested groups follow the same
// convention recursively.
type Query []Node

// Literal is a bare search string with no operator or key attached.
type Literal struct {
	Text string
}

// KeyValue is a `key:value` pair. Value is one of:
//   - string: a plain value
//   - Date: a normalized date triple
//   - Query: a nested expression (parenthesized value group)
type KeyValue struct {
	Key   string
	Value interface{}
}

// And marks an explicit `and` keyword between two terms. Adjacency already
// expresses conjunction, so backends render it to nothing.
type And struct{}

// Or is a boolean disjunction of two expressions.
type Or struct {
	Left  Node
	Right Node
}

// Not negates a single expression.
type Not struct {
	Expr Node
}

// Near requires two plain string terms to occur close together. The parser
// rejects any `near` whose operands are not bare literals.
type Near struct {
	Left  Literal
	Right Literal
}

// Group is a parenthesized sub-query.
type Group struct {
	Nodes Query
}

// Date is a normalized (day, month, year) triple. A zero component means
// the input did not specify it.
type Date struct {
	Day   int
	Month int
	Year  int
}

// Partial reports whether any component of the date is unspecified.
func (d Date) Partial() bool {
	return d.Day == 0 || d.Month == 0 || d.Year == 0
}

func (Literal) node()   {}
func (*KeyValue) node() {}
func (And) node()       {}
func (*Or) node()       {}
func (*Not) node()      {}
func (*Near) node()     {}
func (*Group) node()    {}
