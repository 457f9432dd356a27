package resolve

// Lookup is one named source in a Chain.
type Lookup[T any] struct {
	Name string
	Find func(node uint64) (T, bool)
}

// Chain is an ordered list of lookups. The first lookup that knows a node
// answers for it.
type Chain[T any] []Lookup[T]

// Resolve returns the first value found for node and the name of the
// lookup that served it.
func (c Chain[T]) Resolve(node uint64) (T, string, bool) {
	for _, l := range c {
		if v, ok := l.Find(node); ok {
			return v, l.Name, true
		}
	}
	var zero T
	return zero, "", false
}
