package sliceutils

import "slices"

func Contains[T comparable](s []T, v T) bool {
	return slices.Contains(s, v)
}

// AppendIfNotContains appends v unless it is already present in s.
func AppendIfNotContains[T comparable](s []T, v T) []T {
	if Contains(s, v) {
		return s
	}
	return append(s, v)
}
