package counter

import "weak"

// Ref is a read-only, non-owning reference to a Counter.
type Ref struct {
	p weak.Pointer[Counter]
}

// NewRef creates a reference to c. The reference does not keep c alive.
func NewRef(c *Counter) Ref {
	return Ref{p: weak.Make(c)}
}

// Value returns the referenced counter's value. The second result is false
// once the counter has been garbage collected.
func (r Ref) Value() (uint64, bool) {
	c := r.p.Value()
	if c == nil {
		return 0, false
	}
	return c.Value(), true
}

// Linked is a counter tied to an origin counter. It starts at the origin's
// value and is advanced explicitly by whoever consumes the origin, so the
// difference between the two is what has not been consumed yet.
type Linked struct {
	Counter
	origin Ref
}

// NewLinked creates a counter linked to origin, starting at origin's
// current value.
func NewLinked(origin *Counter) *Linked {
	l := &Linked{origin: NewRef(origin)}
	l.v.Store(origin.Value())
	return l
}

// Original returns the reference to the origin counter.
func (l *Linked) Original() Ref {
	return l.origin
}

// Pending returns how far the origin is ahead of this counter. The second
// result is false if the origin is gone.
func (l *Linked) Pending() (uint64, bool) {
	orig, ok := l.origin.Value()
	if !ok {
		return 0, false
	}
	own := l.Value()
	if orig <= own {
		return 0, true
	}
	return orig - own, true
}
