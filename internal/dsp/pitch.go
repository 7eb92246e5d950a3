// SPDX-License-Identifier: MIT
package dsp

import (
	"fmt"
	"math"
)

const (
	// peakFloor is the absolute magnitude below which the dominant bin
	// is treated as "no signal".
	peakFloor = 1e-6

	// epsilon guards log and division against exact zero.
	epsilon = 1e-12

	// prominenceRadius and prominenceStride define the neighbor
	// sampling pattern for the local noise floor estimate: every
	// second bin within +/-10 bins of the peak, peak excluded. This
	// sparse sampling is deliberate; it is not a textbook median.
	prominenceRadius = 10
	prominenceStride = 2
)

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// PeakEstimate describes the dominant spectral peak of one frame.
type PeakEstimate struct {
	Frequency    float64 // Sub-bin refined frequency in Hz
	Bin          int     // Index of the peak magnitude bin
	ProminenceDB float64 // Peak level over the local neighborhood average
}

// EstimatePeak finds the dominant spectral peak between minHz and maxHz
// and refines its frequency with parabolic interpolation. Returns false
// when the band is empty or the strongest bin is below the absolute
// floor; that is an expected quiet-frame outcome, not an error.
func EstimatePeak(mags []float64, sampleRate, minHz, maxHz float64) (PeakEstimate, bool) {
	n := len(mags)
	if n == 0 || sampleRate <= 0 {
		return PeakEstimate{}, false
	}

	binHz := sampleRate / (2 * float64(n))

	// Keep one interpolation neighbor plus slack on each side.
	lo := int(math.Floor(minHz / binHz))
	if lo < 2 {
		lo = 2
	}
	hi := int(math.Floor(maxHz / binHz))
	if hi > n-3 {
		hi = n - 3
	}
	if lo > hi {
		return PeakEstimate{}, false
	}

	peakBin := lo
	peakMag := mags[lo]
	for k := lo + 1; k <= hi; k++ {
		if mags[k] > peakMag {
			peakMag = mags[k]
			peakBin = k
		}
	}
	if peakMag < peakFloor {
		return PeakEstimate{}, false
	}

	// Local noise floor from the sparse neighborhood.
	sum := 0.0
	count := 0
	for off := -prominenceRadius; off <= prominenceRadius; off += prominenceStride {
		if off == 0 {
			continue
		}
		idx := peakBin + off
		if idx < 0 || idx >= n {
			continue
		}
		sum += mags[idx]
		count++
	}
	prominence := 0.0
	if count > 0 {
		avg := sum / float64(count)
		prominence = 20 * math.Log10((peakMag+epsilon)/(avg+epsilon))
	}

	// Parabolic interpolation over the peak and its neighbors.
	a, b, c := mags[peakBin-1], peakMag, mags[peakBin+1]
	den := a - 2*b + c
	if den == 0 {
		den = epsilon
	}
	delta := 0.5 * (a - c) / den
	if delta > 1 {
		delta = 1
	}
	if delta < -1 {
		delta = -1
	}

	return PeakEstimate{
		Frequency:    (float64(peakBin) + delta) * binHz,
		Bin:          peakBin,
		ProminenceDB: prominence,
	}, true
}

// FreqToMIDI converts a frequency to a real-valued MIDI note number
// relative to the given A4 reference.
func FreqToMIDI(freq, refPitch float64) float64 {
	return 69 + 12*math.Log2(freq/refPitch)
}

// MIDIToFreq converts a MIDI note number to frequency relative to the
// given A4 reference.
func MIDIToFreq(midi, refPitch float64) float64 {
	return refPitch * math.Pow(2, (midi-69)/12)
}

// PitchClass maps a MIDI note number to its pitch class in [0,11].
func PitchClass(midi int) int {
	pc := midi % 12
	if pc < 0 {
		pc += 12
	}
	return pc
}

// NoteName returns the scientific pitch name for a MIDI note number,
// e.g. 69 -> "A4", 60 -> "C4".
func NoteName(midi int) string {
	return fmt.Sprintf("%s%d", noteNames[PitchClass(midi)], midi/12-1)
}
