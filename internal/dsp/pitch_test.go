// SPDX-License-Identifier: MIT
package dsp

import (
	"math"
	"testing"
)

func TestEstimatePeak440(t *testing.T) {
	// 440Hz at 48kHz over a 16384-sample window must land within 1Hz
	// with prominence well above 20dB.
	const size = 16384
	frame := sineFrame(size, testSampleRate, 440)
	coeffs := NewCache().Get(size)
	for i := range frame {
		frame[i] *= coeffs[i]
	}
	mags := NewRealFFT().Transform(frame)

	est, ok := EstimatePeak(mags, testSampleRate, 50, 2000)
	if !ok {
		t.Fatal("expected a peak estimate")
	}
	if math.Abs(est.Frequency-440) > 1.0 {
		t.Errorf("frequency = %.3f, want within 1Hz of 440", est.Frequency)
	}
	if est.ProminenceDB <= 20 {
		t.Errorf("prominence = %.1fdB, want > 20", est.ProminenceDB)
	}
}

func TestEstimatePeakSubBinAccuracy(t *testing.T) {
	// A frequency deliberately between bin centers still refines to
	// within a fraction of the ~2.9Hz bin width.
	const size = 16384
	const target = 261.63 // C4
	frame := sineFrame(size, testSampleRate, target)
	coeffs := NewCache().Get(size)
	for i := range frame {
		frame[i] *= coeffs[i]
	}
	mags := NewRealFFT().Transform(frame)

	est, ok := EstimatePeak(mags, testSampleRate, 50, 2000)
	if !ok {
		t.Fatal("expected a peak estimate")
	}
	if math.Abs(est.Frequency-target) > 1.0 {
		t.Errorf("frequency = %.3f, want within 1Hz of %.2f", est.Frequency, target)
	}
}

func TestEstimatePeakSilence(t *testing.T) {
	mags := make([]float64, 8192)
	if _, ok := EstimatePeak(mags, testSampleRate, 50, 2000); ok {
		t.Error("expected no estimate for a silent spectrum")
	}
}

func TestEstimatePeakEmptyBand(t *testing.T) {
	mags := make([]float64, 8192)
	mags[100] = 1.0
	// Band entirely below the first searchable bin.
	if _, ok := EstimatePeak(mags, testSampleRate, 0, 1); ok {
		t.Error("expected no estimate for an empty search band")
	}
}

func TestEstimatePeakBandClamping(t *testing.T) {
	mags := make([]float64, 8192)
	mags[40] = 1.0  // ~117Hz, outside requested band
	mags[150] = 0.5 // ~440Hz, inside

	est, ok := EstimatePeak(mags, testSampleRate, 300, 600)
	if !ok {
		t.Fatal("expected a peak estimate")
	}
	if est.Bin != 150 {
		t.Errorf("peak bin = %d, want 150 (out-of-band bins must be ignored)", est.Bin)
	}
}

func TestEstimatePeakFlatTop(t *testing.T) {
	// Equal neighbors make the parabola degenerate; the guarded
	// denominator must keep delta finite and clamped.
	mags := make([]float64, 1024)
	mags[99] = 1.0
	mags[100] = 1.0
	mags[101] = 1.0

	est, ok := EstimatePeak(mags, testSampleRate, 500, 5000)
	if !ok {
		t.Fatal("expected a peak estimate")
	}
	if math.IsNaN(est.Frequency) || math.IsInf(est.Frequency, 0) {
		t.Fatalf("frequency = %v, want finite", est.Frequency)
	}
	binHz := testSampleRate / (2 * 1024.0)
	if math.Abs(est.Frequency-float64(est.Bin)*binHz) > binHz {
		t.Errorf("refined frequency %.2f strayed more than one bin from bin %d", est.Frequency, est.Bin)
	}
}

func TestFreqToMIDI(t *testing.T) {
	tests := []struct {
		freq float64
		ref  float64
		midi float64
	}{
		{440, 440, 69},
		{880, 440, 81},
		{220, 440, 57},
		{261.626, 440, 60},
		{432, 432, 69},
	}

	for _, tt := range tests {
		if got := FreqToMIDI(tt.freq, tt.ref); math.Abs(got-tt.midi) > 0.001 {
			t.Errorf("FreqToMIDI(%.3f, %.0f) = %.4f, want %.1f", tt.freq, tt.ref, got, tt.midi)
		}
	}
}

func TestMIDIToFreqRoundTrip(t *testing.T) {
	for midi := 21.0; midi <= 108; midi++ {
		freq := MIDIToFreq(midi, 440)
		if got := FreqToMIDI(freq, 440); math.Abs(got-midi) > 1e-9 {
			t.Fatalf("round trip midi %v -> %v", midi, got)
		}
	}
}

func TestNoteName(t *testing.T) {
	tests := []struct {
		midi int
		name string
	}{
		{69, "A4"},
		{60, "C4"},
		{61, "C#4"},
		{59, "B3"},
		{21, "A0"},
		{108, "C8"},
	}

	for _, tt := range tests {
		if got := NoteName(tt.midi); got != tt.name {
			t.Errorf("NoteName(%d) = %q, want %q", tt.midi, got, tt.name)
		}
	}
}

func TestPitchClass(t *testing.T) {
	if got := PitchClass(69); got != 9 {
		t.Errorf("PitchClass(69) = %d, want 9", got)
	}
	if got := PitchClass(60); got != 0 {
		t.Errorf("PitchClass(60) = %d, want 0", got)
	}
	if got := PitchClass(-1); got != 11 {
		t.Errorf("PitchClass(-1) = %d, want 11", got)
	}
}
