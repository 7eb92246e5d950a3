// SPDX-License-Identifier: MIT
/*
Package dsp implements the per-hop analysis primitives: window tables,
a real-input FFT engine, pitch-class aggregation, and primary-pitch
estimation. All components own their scratch state so that multiple
independent analyzers can coexist.
*/
package dsp

import (
	"gonum.org/v1/gonum/dsp/window"
)

// Cache produces and caches Hann window coefficient tables keyed by
// length. A table is computed once and shared by reference for the
// remainder of the process (or until Clear). Tables must not be mutated
// by callers.
type Cache struct {
	tables map[int][]float64
}

// NewCache creates an empty window table cache.
func NewCache() *Cache {
	return &Cache{tables: make(map[int][]float64)}
}

// Get returns the Hann coefficient table for the given length,
// computing it on first use. Lengths below 2 are a programming error.
func (c *Cache) Get(length int) []float64 {
	if length < 2 {
		panic("dsp: window length must be >= 2")
	}
	if coeffs, ok := c.tables[length]; ok {
		return coeffs
	}

	// gonum's window functions multiply in place, so seed with ones to
	// extract the raw coefficients.
	coeffs := make([]float64, length)
	for i := range coeffs {
		coeffs[i] = 1.0
	}
	window.Hann(coeffs)

	c.tables[length] = coeffs
	return coeffs
}

// Clear drops all cached tables.
func (c *Cache) Clear() {
	c.tables = make(map[int][]float64)
}
