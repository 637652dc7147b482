// Package functional holds generic slice helpers used when mapping rows to
// domain models and domain models to responses.
package functional

// Map converts every element. A nil slice maps to an empty one so JSON
// responses render [] instead of null.
func Map[T any, U any](items []T, fn func(T) U) []U {
	result := make([]U, len(items))
	for i, item := range items {
		result[i] = fn(item)
	}
	return result
}

// Filter keeps the elements matching keep, preserving order.
func Filter[T any](items []T, keep func(T) bool) []T {
	result := make([]T, 0, len(items))
	for _, item := range items {
		if keep(item) {
			result = append(result, item)
		}
	}
	return result
}
