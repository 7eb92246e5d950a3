// SPDX-License-Identifier: MIT
package dsp

import "math"

// PCDOptions controls pitch-class aggregation for one compute call.
type PCDOptions struct {
	MinHz     float64 // Lower bound of the aggregated band
	MaxHz     float64 // Upper bound of the aggregated band
	Threshold float64 // Bin magnitudes at or below this are ignored
	Exponent  float64 // Power applied to each accumulated class energy
	RefPitch  float64 // A4 reference frequency in Hz
}

// PCDMapper aggregates a magnitude spectrum into a 12-bin pitch-class
// distribution. The bin-to-class lookup table is rebuilt only when the
// spectrum length, sample rate, or reference pitch changes; otherwise
// it is reused across hops.
type PCDMapper struct {
	classes []int8 // pitch class per spectrum bin

	// Cache key the lookup was built for.
	keyLen  int
	keyRate float64
	keyRef  float64
}

// NewPCDMapper creates a mapper with an empty lookup cache.
func NewPCDMapper() *PCDMapper {
	return &PCDMapper{}
}

// Compute aggregates squared magnitudes into a normalized pitch-class
// distribution. The result sums to 1 when any energy was accumulated
// and is all zero otherwise.
func (m *PCDMapper) Compute(mags []float64, sampleRate float64, opt PCDOptions) [12]float64 {
	var pcd [12]float64
	if len(mags) == 0 || sampleRate <= 0 {
		return pcd
	}

	m.ensureLookup(len(mags), sampleRate, opt.RefPitch)

	binHz := sampleRate / (2 * float64(len(mags)))
	lo := int(math.Floor(opt.MinHz / binHz))
	if lo < 1 {
		lo = 1 // skip the DC bin
	}
	hi := int(math.Floor(opt.MaxHz / binHz))
	if hi > len(mags)-1 {
		hi = len(mags) - 1
	}

	for k := lo; k <= hi; k++ {
		if mags[k] > opt.Threshold {
			pcd[m.classes[k]] += mags[k] * mags[k]
		}
	}

	if opt.Exponent != 1 {
		for i := range pcd {
			pcd[i] = math.Pow(pcd[i], opt.Exponent)
		}
	}

	sum := 0.0
	for _, v := range pcd {
		sum += v
	}
	if sum > 0 {
		inv := 1 / sum
		for i := range pcd {
			pcd[i] *= inv
		}
	}

	return pcd
}

// Zero returns an all-zero distribution. Fast path for frames the
// caller has already gated on RMS; skips aggregation entirely.
func (m *PCDMapper) Zero() [12]float64 {
	return [12]float64{}
}

// ensureLookup rebuilds the bin-to-class table if the cache key changed.
func (m *PCDMapper) ensureLookup(length int, sampleRate, refPitch float64) {
	if length == m.keyLen && sampleRate == m.keyRate && refPitch == m.keyRef {
		return
	}

	if cap(m.classes) < length {
		m.classes = make([]int8, length)
	}
	m.classes = m.classes[:length]

	binHz := sampleRate / (2 * float64(length))
	for k := 1; k < length; k++ {
		freq := float64(k) * binHz
		midi := 69 + 12*math.Log2(freq/refPitch)
		pc := int(math.Round(midi)) % 12
		if pc < 0 {
			pc += 12
		}
		m.classes[k] = int8(pc)
	}
	m.classes[0] = 0 // DC, excluded from aggregation

	m.keyLen = length
	m.keyRate = sampleRate
	m.keyRef = refPitch
}
