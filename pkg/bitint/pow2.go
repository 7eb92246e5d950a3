// SPDX-License-Identifier: MIT
/*
Package bitint provides power-of-2 bit manipulation helpers used for FFT
transform sizing and analysis window clamping.

All operations are O(1), allocation-free, and safe in real-time paths.
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the next power of 2 >= size.
// Powers of 2 are returned unchanged; zero and negative inputs return 1.
//
// The size-1 subtraction is what keeps exact powers of 2 from doubling:
// bits.Len64(7) == 3 so 8 maps to 1<<3 == 8, while bits.Len64(8) == 4
// would map 8 to 16.
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return int(1 << bits.Len64(uint64(size-1)))
}

// IsPowerOfTwo reports whether n is a positive power of 2.
// Powers of 2 have exactly one bit set, so n&(n-1) clears to zero only
// for them.
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}
