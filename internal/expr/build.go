package expr

// Pair is a key-value pair for Object construction.
type Pair struct {
	Key   string
	Value Expr
}

// O is a shorthand for Pair.
// Example: Obj(O("lhs", Number(4)), O("rhs", Number(2)))
func O(key string, value Expr) Pair {
	return Pair{Key: key, Value: value}
}

// Obj builds an Object from pairs.
func Obj(pairs ...Pair) Object {
	obj := make(Object, len(pairs))
	for _, p := range pairs {
		obj[p.Key] = p.Value
	}
	return obj
}

// Op builds the operator node {name: payload}.
func Op(name string, payload Expr) Object {
	return Object{name: payload}
}

// Get builds {"get": goalID}.
func Get(goalID string) Object {
	return Op("get", String(goalID))
}

// Reduce builds a list-payload operator such as {"+": [a, b, c]}.
func Reduce(name string, operands ...Expr) Object {
	list := make(List, len(operands))
	copy(list, operands)
	return Op(name, list)
}

// Compare builds {name: {"lhs": lhs, "rhs": rhs}}.
func Compare(name string, lhs, rhs Expr) Object {
	return Op(name, Obj(O("lhs", lhs), O("rhs", rhs)))
}
