package textutil

// Ternary returns a when cond holds and b otherwise. It keeps two-way
// choices, like decision strings in log attributes, on one line.
func Ternary[T any](cond bool, a, b T) T {
	if cond {
		return a
	}
	return b
}
