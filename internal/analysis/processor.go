// SPDX-License-Identifier: MIT
/*
Package analysis implements the streaming orchestrator: it owns the
circular sample buffer, hop counting, the per-hop pipeline (linearize ->
window -> FFT -> pitch-class aggregation -> smoothing -> pitch
estimation), and event delivery to a single subscriber.

Concurrency model: one producer (the capture callback) feeds chunks,
configuration updates may arrive from other goroutines. A single mutex
serializes both against the hop pipeline, so a hop always runs to
completion before the next chunk mutates the buffer. All scratch state
(analysis frame, FFT buffers, lookup tables) is reused and non-reentrant.
*/
package analysis

import (
	"fmt"
	"math"
	"sync"

	"chromascope/internal/config"
	"chromascope/internal/dsp"
)

// Processor is the stream orchestrator. Create with New, attach a sink,
// then feed chunks between Start and Stop.
type Processor struct {
	mu         sync.Mutex
	cfg        config.Analysis
	tuner      config.Tuner
	state      State
	sink       Sink
	sampleRate float64

	// Circular sample buffer of window length.
	ring     []float64
	writePos int // next write index; oldest sample once filled
	filled   int // samples written, saturates at len(ring)
	hopFill  int // samples accumulated toward the next hop

	// Scratch frame, overwritten each hop.
	frame []float64

	windows *dsp.Cache
	fft     *dsp.RealFFT
	mapper  *dsp.PCDMapper

	// Smoothing state, lives across hops until Stop/Start.
	smoothed [12]float64
	emaFreq  float64
	emaValid bool
}

// New creates a processor with the given (clamped) configuration. The
// processor starts Idle with a discarding sink attached.
func New(cfg config.Analysis, tuner config.Tuner) *Processor {
	cfg.Clamp()
	tuner.Clamp()

	p := &Processor{
		cfg:     cfg,
		tuner:   tuner,
		state:   Idle,
		sink:    nopSink{},
		windows: dsp.NewCache(),
		fft:     dsp.NewRealFFT(),
		mapper:  dsp.NewPCDMapper(),
	}
	p.allocBuffers()
	return p
}

// SetSink attaches the single subscriber receiving analysis, state, and
// error events.
func (p *Processor) SetSink(sink Sink) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if sink == nil {
		sink = nopSink{}
	}
	p.sink = sink
}

// State returns the current lifecycle state.
func (p *Processor) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Config returns the authoritative analysis configuration.
func (p *Processor) Config() config.Analysis {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cfg
}

// SetConfig merges a new analysis configuration, clamping it to valid
// ranges, and returns the values actually applied. A window length
// change reallocates the buffers and discards the in-flight hop's
// accumulated samples.
func (p *Processor) SetConfig(cfg config.Analysis) config.Analysis {
	cfg.Clamp()

	p.mu.Lock()
	defer p.mu.Unlock()

	windowChanged := cfg.WindowSize != p.cfg.WindowSize
	p.cfg = cfg
	if windowChanged {
		p.allocBuffers()
	}
	if p.hopFill >= p.cfg.HopSize {
		// A shrunken hop must not fire mid-chunk with stale fill.
		p.hopFill = 0
	}
	return p.cfg
}

// TunerConfig returns the authoritative tuner configuration.
func (p *Processor) TunerConfig() config.Tuner {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tuner
}

// SetTunerConfig merges a new tuner configuration, clamping it to valid
// ranges, and returns the values actually applied.
func (p *Processor) SetTunerConfig(tuner config.Tuner) config.Tuner {
	tuner.Clamp()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.tuner = tuner
	if !tuner.Enabled {
		p.emaValid = false
	}
	return p.tuner
}

// Start transitions Idle -> Running for a session at the given sample
// rate. All accumulated buffer and smoothing state is reset. The caller
// must have acquired capture resources first; a capture failure after
// Start should be followed by Stop.
func (p *Processor) Start(sampleRate float64) error {
	if sampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %f", sampleRate)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == Running {
		return fmt.Errorf("processor already running")
	}

	p.sampleRate = sampleRate
	p.reset()
	p.state = Running
	p.sink.OnState(Running)
	return nil
}

// Stop transitions to Idle and zeroes all buffer and smoothing state.
// Safe to call from any state, including a partially-started session.
func (p *Processor) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == Idle {
		return
	}
	p.reset()
	p.state = Idle
	p.sink.OnState(Idle)
}

// EmitError forwards a failure from a collaborator (e.g. the capture
// engine) to the subscriber's error channel.
func (p *Processor) EmitError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sink.OnError(err)
}

// ProcessChunk accumulates a chunk of mono samples and runs the hop
// pipeline once per completed hop. Chunks are dropped while Idle.
// Callers must deliver chunks in arrival order.
func (p *Processor) ProcessChunk(samples []float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != Running {
		return
	}

	for _, s := range samples {
		p.ring[p.writePos] = s
		p.writePos++
		if p.writePos == len(p.ring) {
			p.writePos = 0
		}
		if p.filled < len(p.ring) {
			p.filled++
		}
		p.hopFill++
		if p.hopFill >= p.cfg.HopSize {
			p.hopFill = 0
			p.runHop()
		}
	}
}

// runHop executes one full analysis pass and emits exactly one event.
// A panic inside the pipeline is surfaced as an error event and the
// session keeps running; the hop is simply skipped.
func (p *Processor) runHop() {
	defer func() {
		if r := recover(); r != nil {
			p.sink.OnError(fmt.Errorf("analysis hop failed: %v", r))
		}
	}()

	n := len(p.ring)

	// Linearize the circular buffer starting at the oldest sample.
	// Unfilled positions are zero, so a warming-up buffer reads as
	// leading silence.
	head := copy(p.frame, p.ring[p.writePos:])
	copy(p.frame[head:], p.ring[:p.writePos])

	sumSq := 0.0
	for _, s := range p.frame {
		sumSq += s * s
	}
	rms := math.Sqrt(sumSq / float64(n))

	coeffs := p.windows.Get(n)
	for i := range p.frame {
		p.frame[i] *= coeffs[i]
	}

	mags := p.fft.Transform(p.frame)

	var raw [12]float64
	if rms >= p.cfg.PCDMinRMS {
		raw = p.mapper.Compute(mags, p.sampleRate, dsp.PCDOptions{
			MinHz:     p.cfg.MinHz,
			MaxHz:     p.cfg.MaxHz,
			Threshold: p.cfg.PCDThreshold,
			Exponent:  p.cfg.PCDExponent,
			RefPitch:  p.cfg.RefPitch,
		})
	} else {
		raw = p.mapper.Zero()
	}

	// EMA runs unconditionally so gated frames decay toward zero.
	s := p.cfg.Smoothing
	for i := range p.smoothed {
		p.smoothed[i] = s*p.smoothed[i] + (1-s)*raw[i]
	}

	p.sink.OnAnalysis(Analysis{
		PCD:        p.smoothed,
		RawPCD:     raw,
		RMS:        rms,
		SampleRate: p.sampleRate,
		Pitch:      p.estimatePitch(mags, rms),
	})
}

// estimatePitch runs the tuner stage for one hop, returning nil when
// the tuner is disabled, the frame is too quiet, or no peak clears the
// prominence threshold.
func (p *Processor) estimatePitch(mags []float64, rms float64) *PitchEstimate {
	if !p.tuner.Enabled || rms < p.tuner.MinRMS {
		p.emaValid = false
		return nil
	}

	est, ok := dsp.EstimatePeak(mags, p.sampleRate, p.tuner.MinHz, p.tuner.MaxHz)
	if !ok || est.ProminenceDB < p.tuner.MinProminenceDB {
		p.emaValid = false
		return nil
	}

	freq := est.Frequency
	if p.emaValid {
		freq = p.emaFreq + p.tuner.Reactivity*(freq-p.emaFreq)
	}
	p.emaFreq = freq
	p.emaValid = true

	realMidi := dsp.FreqToMIDI(freq, p.cfg.RefPitch)
	nearest := int(math.Round(realMidi))

	return &PitchEstimate{
		Frequency:    freq,
		ProminenceDB: est.ProminenceDB,
		PitchClass:   dsp.PitchClass(nearest),
		MIDINote:     nearest,
		Note:         dsp.NoteName(nearest),
		Cents:        (realMidi - float64(nearest)) * 100,
	}
}

// allocBuffers sizes the circular buffer and scratch frame to the
// current window length and hard-resets the fill and write counters.
func (p *Processor) allocBuffers() {
	p.ring = make([]float64, p.cfg.WindowSize)
	p.frame = make([]float64, p.cfg.WindowSize)
	p.writePos = 0
	p.filled = 0
	p.hopFill = 0
}

// reset zeroes all accumulated state for a fresh session.
func (p *Processor) reset() {
	for i := range p.ring {
		p.ring[i] = 0
	}
	p.writePos = 0
	p.filled = 0
	p.hopFill = 0
	p.smoothed = [12]float64{}
	p.emaFreq = 0
	p.emaValid = false
}
