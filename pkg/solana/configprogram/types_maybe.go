package configprogram

// Maybe is a per-field update value: either Keep the stored value or SetTo a
// new one
type Maybe[T any] struct {
	value T
	set   bool
}

func Keep[T any]() Maybe[T] {
	return Maybe[T]{}
}

func SetTo[T any](v T) Maybe[T] {
	return Maybe[T]{value: v, set: true}
}

// Get returns the new value and whether one was supplied
func (m Maybe[T]) Get() (T, bool) {
	return m.value, m.set
}

func (m Maybe[T]) IsSet() bool {
	return m.set
}
