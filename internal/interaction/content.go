package interaction

type contentKind uint8

const (
	contentUnset contentKind = iota
	contentLiteral
	contentComputed
)

// Content is a field that is either a literal value or computed from the
// derived state of the frame being evaluated. The zero Content is unset and
// resolves to the zero value of T.
type Content[T any] struct {
	kind  contentKind
	value T
	fn    func(DerivedState) T
}

// Literal returns content that always resolves to v.
func Literal[T any](v T) Content[T] {
	return Content[T]{kind: contentLiteral, value: v}
}

// Computed returns content resolved by calling fn on every evaluation.
// fn must be free of side effects. A nil fn yields unset content.
func Computed[T any](fn func(DerivedState) T) Content[T] {
	if fn == nil {
		return Content[T]{}
	}
	return Content[T]{kind: contentComputed, fn: fn}
}

// Text is shorthand for Literal on strings.
func Text(s string) Content[string] {
	return Literal(s)
}

// IsSet reports whether c holds a literal or a computation.
func (c Content[T]) IsSet() bool {
	return c.kind != contentUnset
}

// IsComputed reports whether c depends on the derived state.
func (c Content[T]) IsComputed() bool {
	return c.kind == contentComputed
}

// Resolve returns the value of c for d.
func (c Content[T]) Resolve(d DerivedState) T {
	switch c.kind {
	case contentLiteral:
		return c.value
	case contentComputed:
		return c.fn(d)
	default:
		var zero T
		return zero
	}
}
