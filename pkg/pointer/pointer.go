// Package pointer builds optional values from flags and records.
package pointer

// To returns a pointer to a copy of value
func To[T any](value T) *T {
	return &value
}

// IfValid returns a pointer to a copy of value when valid is true, otherwise
// nil
func IfValid[T any](valid bool, value T) *T {
	if !valid {
		return nil
	}
	return &value
}

// ValueOr dereferences p, or returns fallback when p is nil
func ValueOr[T any](p *T, fallback T) T {
	if p == nil {
		return fallback
	}
	return *p
}
