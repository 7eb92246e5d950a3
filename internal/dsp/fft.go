// SPDX-License-Identifier: MIT
package dsp

import (
	"math"

	"chromascope/pkg/bitint"
)

// RealFFT computes magnitude spectra of real-valued frames using an
// in-place iterative radix-2 Cooley-Tukey transform with a precomputed
// bit-reversal table. All buffers are allocated once per transform size
// and reused; Transform is allocation-free while the padded size is
// stable.
type RealFFT struct {
	n   int       // current transform length (power of 2)
	rev []int     // bit-reversal permutation table
	re  []float64 // real part, transformed in place
	im  []float64 // imaginary part, transformed in place
	mag []float64 // first n/2 magnitudes, borrowed by callers
}

// NewRealFFT creates an FFT engine with no buffers allocated; the first
// Transform call sizes it.
func NewRealFFT() *RealFFT {
	return &RealFFT{}
}

// Size returns the current transform length, or 0 before the first
// Transform call.
func (f *RealFFT) Size() int {
	return f.n
}

// Transform computes the magnitude spectrum of frame. The frame is
// zero-padded up to the next power of two; a padding change reallocates
// the internal buffers and recomputes the bit-reversal table.
//
// The returned slice is a borrowed view into the internal magnitude
// buffer holding the first n/2 bins (the conjugate-symmetric upper half
// is discarded). It is valid only until the next Transform call.
// An empty frame is a programming-contract violation.
func (f *RealFFT) Transform(frame []float64) []float64 {
	if len(frame) == 0 {
		panic("dsp: transform of empty frame")
	}

	n := bitint.NextPowerOfTwo(len(frame))
	if n < 2 {
		n = 2
	}
	if n != f.n {
		f.resize(n)
	}

	copy(f.re, frame)
	for i := len(frame); i < n; i++ {
		f.re[i] = 0
	}
	for i := range f.im {
		f.im[i] = 0
	}

	// Bit-reversal permutation. The imaginary buffer is all zero at
	// this point, so only the real part needs swapping.
	for i, j := range f.rev {
		if j > i {
			f.re[i], f.re[j] = f.re[j], f.re[i]
		}
	}

	// Iterative butterflies for stage sizes 2, 4, 8, ..., n. The
	// twiddle factor is rotated incrementally per butterfly instead of
	// recomputing trig for every sample.
	for size := 2; size <= n; size <<= 1 {
		half := size >> 1
		ang := -2 * math.Pi / float64(size)
		stepRe, stepIm := math.Cos(ang), math.Sin(ang)

		for start := 0; start < n; start += size {
			wRe, wIm := 1.0, 0.0
			for k := 0; k < half; k++ {
				i, j := start+k, start+k+half
				tRe := wRe*f.re[j] - wIm*f.im[j]
				tIm := wRe*f.im[j] + wIm*f.re[j]
				f.re[j] = f.re[i] - tRe
				f.im[j] = f.im[i] - tIm
				f.re[i] += tRe
				f.im[i] += tIm
				wRe, wIm = wRe*stepRe-wIm*stepIm, wRe*stepIm+wIm*stepRe
			}
		}
	}

	for i := range f.mag {
		f.mag[i] = math.Sqrt(f.re[i]*f.re[i] + f.im[i]*f.im[i])
	}

	return f.mag
}

// resize reallocates all internal buffers for transform length n and
// rebuilds the bit-reversal table.
func (f *RealFFT) resize(n int) {
	f.n = n
	f.re = make([]float64, n)
	f.im = make([]float64, n)
	f.mag = make([]float64, n/2)

	f.rev = make([]int, n)
	for i := 1; i < n; i++ {
		f.rev[i] = f.rev[i>>1] >> 1
		if i&1 == 1 {
			f.rev[i] |= n >> 1
		}
	}
}
