package common

import "golang.org/x/exp/constraints"

// Clamp limits v to the closed range [lo, hi].
func Clamp[T constraints.Integer](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Abs returns the absolute value of v.
func Abs[T constraints.Signed](v T) T {
	if v < 0 {
		return -v
	}
	return v
}

// DivCeil returns a/b rounded up. b must be positive.
func DivCeil[T constraints.Integer](a, b T) T {
	return (a + b - 1) / b
}

// ClampByte clamps v to [0,255] and converts it to a byte.
func ClampByte(v int32) byte {
	return byte(Clamp(v, 0, 255))
}
