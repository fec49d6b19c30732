// Package checked implements the integer arithmetic used for
// instruction offsets and gas accounting. Each function reports
// ok=false instead of wrapping around.
package checked

import "math"

// AddInt64 returns a + b.
func AddInt64(a, b int64) (sum int64, ok bool) {
	sum = a + b
	if (sum > a) != (b > 0) {
		return 0, false
	}
	return sum, true
}

// MulInt64 returns a * b.
func MulInt64(a, b int64) (product int64, ok bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, false
	}
	product = a * b
	if product/b != a {
		return 0, false
	}
	return product, true
}

// Offset returns the script position base + delta. Positions
// are non-negative and fit in an int32.
func Offset(base int, delta int32) (pos int, ok bool) {
	if base < 0 || base > math.MaxInt32 {
		return 0, false
	}
	p := int64(base) + int64(delta)
	if p < 0 || p > math.MaxInt32 {
		return 0, false
	}
	return int(p), true
}
