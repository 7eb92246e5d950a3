// SPDX-License-Identifier: MIT
package analysis

// State identifies the lifecycle state of the processor.
type State int

// Processor lifecycle states.
const (
	Idle State = iota
	Running
)

// String returns the string representation of the State.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	default:
		return "unknown"
	}
}

// PitchEstimate is the primary-pitch result for one hop.
type PitchEstimate struct {
	Frequency    float64 `json:"frequency"`     // Estimated frequency in Hz (reactivity-smoothed)
	ProminenceDB float64 `json:"prominence_db"` // Peak level over the local neighborhood average
	PitchClass   int     `json:"pitch_class"`   // 0=C ... 11=B
	MIDINote     int     `json:"midi_note"`     // Nearest equal-tempered note
	Note         string  `json:"note"`          // Scientific pitch name, e.g. "A4"
	Cents        float64 `json:"cents"`         // Signed deviation from the nearest note
}

// Analysis carries the result of one hop. The PCD arrays are plain
// values, so every event holds its own copy and may be retained freely.
type Analysis struct {
	PCD        [12]float64    `json:"pcd"`             // Smoothed pitch-class distribution
	RawPCD     [12]float64    `json:"raw_pcd"`         // This hop's unsmoothed distribution
	RMS        float64        `json:"rms"`             // Frame RMS level
	SampleRate float64        `json:"sample_rate"`     // Session sample rate in Hz
	Pitch      *PitchEstimate `json:"pitch,omitempty"` // Absent when no qualifying peak exists
}

// Sink receives processor events. Exactly one sink is attached at a
// time. Methods are invoked from the processing goroutine while the
// processor lock is held: they must not block and must not call back
// into the processor.
type Sink interface {
	OnAnalysis(Analysis)
	OnState(State)
	OnError(error)
}

// SinkFuncs adapts plain functions to the Sink interface. Nil functions
// ignore their events.
type SinkFuncs struct {
	Analysis func(Analysis)
	State    func(State)
	Error    func(error)
}

func (s SinkFuncs) OnAnalysis(a Analysis) {
	if s.Analysis != nil {
		s.Analysis(a)
	}
}

func (s SinkFuncs) OnState(state State) {
	if s.State != nil {
		s.State(state)
	}
}

func (s SinkFuncs) OnError(err error) {
	if s.Error != nil {
		s.Error(err)
	}
}

// nopSink discards all events; the processor's default before SetSink.
type nopSink struct{}

func (nopSink) OnAnalysis(Analysis) {}
func (nopSink) OnState(State)       {}
func (nopSink) OnError(error)       {}
