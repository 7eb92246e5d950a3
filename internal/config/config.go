// SPDX-License-Identifier: MIT
package config

import "chromascope/pkg/bitint"

// Core configuration constants that define the boundaries and defaults
// for the analysis engine.
const (
	// Default values for the capture layer
	DefaultDeviceID        = MinDeviceID // System default input device
	DefaultSampleRate      = 48000       // Matches most capture hardware
	DefaultFramesPerBuffer = 1024        // Capture chunk size (samples)
	DefaultLowLatency      = false       // Standard latency mode

	// Default values for the analysis pipeline
	DefaultWindowSize  = 16384 // ~341ms at 48kHz, ~2.9Hz bin resolution
	DefaultHopSize     = 4096  // ~12 updates/second at 48kHz
	DefaultMinHz       = 60.0
	DefaultMaxHz       = 5000.0
	DefaultSmoothing   = 0.8
	DefaultPCDMinRMS   = 1e-4
	DefaultPCDMagFloor = 1e-4
	DefaultPCDExponent = 1.0
	DefaultRefPitch    = 440.0 // A4

	// Default values for the tuner
	DefaultTunerMinHz        = 50.0
	DefaultTunerMaxHz        = 2000.0
	DefaultTunerProminenceDB = 12.0
	DefaultTunerMinRMS       = 1e-3
	DefaultTunerReactivity   = 0.35

	// Hardware and processing limits
	MinDeviceID   = -1     // -1 represents system default device
	MinSampleRate = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate = 192000 // Maximum supported sample rate (Hz)
	MinWindowSize = 32     // Smallest analysis window (power of 2)
	MaxWindowSize = 65536  // Largest analysis window (power of 2)

	// Clamp bounds for tunable parameters
	MinSmoothing     = 0.0
	MaxSmoothing     = 0.999
	MinReactivity    = 0.05
	MaxReactivity    = 1.0
	MinRefPitch      = 400.0 // Baroque pitch and below is out of scope
	MaxRefPitch      = 480.0
	DefaultBandSplit = 1.0 // Minimum MaxHz-MinHz separation (Hz)
)

// Analysis holds the per-hop analysis parameters. Values are normalized
// by Clamp rather than rejected; callers read the struct back after a
// merge-update to observe the authoritative values.
type Analysis struct {
	WindowSize   int     `yaml:"window_size"`   // Analysis window length in samples (power of 2)
	HopSize      int     `yaml:"hop_size"`      // New samples between analysis passes
	MinHz        float64 `yaml:"min_hz"`        // Lower bound of the analysis band
	MaxHz        float64 `yaml:"max_hz"`        // Upper bound of the analysis band
	Smoothing    float64 `yaml:"smoothing"`     // PCD EMA factor; closer to 1 = slower response
	PCDMinRMS    float64 `yaml:"pcd_min_rms"`   // Frames quieter than this yield a zero raw PCD
	PCDThreshold float64 `yaml:"pcd_threshold"` // Bin magnitudes at or below this are ignored
	PCDExponent  float64 `yaml:"pcd_exponent"`  // Power applied to accumulated class energy
	RefPitch     float64 `yaml:"ref_pitch"`     // A4 reference frequency in Hz
}

// DefaultAnalysis returns the analysis parameters used when no overrides
// are supplied.
func DefaultAnalysis() Analysis {
	return Analysis{
		WindowSize:   DefaultWindowSize,
		HopSize:      DefaultHopSize,
		MinHz:        DefaultMinHz,
		MaxHz:        DefaultMaxHz,
		Smoothing:    DefaultSmoothing,
		PCDMinRMS:    DefaultPCDMinRMS,
		PCDThreshold: DefaultPCDMagFloor,
		PCDExponent:  DefaultPCDExponent,
		RefPitch:     DefaultRefPitch,
	}
}

// Clamp normalizes the parameters in place. The window length is forced
// to a power of 2 in [MinWindowSize, MaxWindowSize], the hop length to
// [1, WindowSize], and the frequency band to MaxHz > MinHz >= 0.
func (c *Analysis) Clamp() {
	c.WindowSize = bitint.NextPowerOfTwo(c.WindowSize)
	if c.WindowSize < MinWindowSize {
		c.WindowSize = MinWindowSize
	}
	if c.WindowSize > MaxWindowSize {
		c.WindowSize = MaxWindowSize
	}

	if c.HopSize < 1 {
		c.HopSize = 1
	}
	if c.HopSize > c.WindowSize {
		c.HopSize = c.WindowSize
	}

	if c.MinHz < 0 {
		c.MinHz = 0
	}
	if c.MaxHz <= c.MinHz {
		c.MaxHz = c.MinHz + DefaultBandSplit
	}

	if c.Smoothing < MinSmoothing {
		c.Smoothing = MinSmoothing
	}
	if c.Smoothing > MaxSmoothing {
		c.Smoothing = MaxSmoothing
	}

	if c.PCDMinRMS < 0 {
		c.PCDMinRMS = 0
	}
	if c.PCDThreshold < 0 {
		c.PCDThreshold = 0
	}
	if c.PCDExponent <= 0 {
		c.PCDExponent = DefaultPCDExponent
	}

	if c.RefPitch < MinRefPitch || c.RefPitch > MaxRefPitch {
		c.RefPitch = DefaultRefPitch
	}
}

// Tuner holds the primary-pitch estimation parameters.
type Tuner struct {
	Enabled         bool    `yaml:"enabled"`           // Attempt pitch estimation each hop
	MinHz           float64 `yaml:"min_hz"`            // Lower bound of the search band
	MaxHz           float64 `yaml:"max_hz"`            // Upper bound of the search band
	MinProminenceDB float64 `yaml:"min_prominence_db"` // Peaks below this prominence are rejected
	MinRMS          float64 `yaml:"min_rms"`           // Frames quieter than this skip estimation
	Reactivity      float64 `yaml:"reactivity"`        // EMA step for the reported frequency
}

// DefaultTuner returns the tuner parameters used when no overrides are
// supplied.
func DefaultTuner() Tuner {
	return Tuner{
		Enabled:         true,
		MinHz:           DefaultTunerMinHz,
		MaxHz:           DefaultTunerMaxHz,
		MinProminenceDB: DefaultTunerProminenceDB,
		MinRMS:          DefaultTunerMinRMS,
		Reactivity:      DefaultTunerReactivity,
	}
}

// Clamp normalizes the tuner parameters in place.
func (c *Tuner) Clamp() {
	if c.MinHz < 0 {
		c.MinHz = 0
	}
	if c.MaxHz <= c.MinHz {
		c.MaxHz = c.MinHz + DefaultBandSplit
	}
	if c.MinProminenceDB < 0 {
		c.MinProminenceDB = 0
	}
	if c.MinRMS < 0 {
		c.MinRMS = 0
	}
	if c.Reactivity < MinReactivity {
		c.Reactivity = MinReactivity
	}
	if c.Reactivity > MaxReactivity {
		c.Reactivity = MaxReactivity
	}
}

// AudioConfig holds settings for the capture layer.
type AudioConfig struct {
	InputDevice     int     `yaml:"input_device"`      // PortAudio device index (-1 for default)
	SampleRate      float64 `yaml:"sample_rate"`       // Capture sample rate in Hz
	FramesPerBuffer int     `yaml:"frames_per_buffer"` // Samples per capture chunk
	LowLatency      bool    `yaml:"low_latency"`       // Request low latency from the device
}

// RecordingConfig holds settings for raw input recording.
type RecordingConfig struct {
	Enabled    bool   `yaml:"enabled"`     // Record captured audio to a WAV file
	OutputFile string `yaml:"output_file"` // Destination path ("" = auto-generated)
}

// TransportConfig holds settings for delivering analysis events to the
// visualization layer.
type TransportConfig struct {
	WebSocketEnabled bool   `yaml:"websocket_enabled"` // Serve analysis events over WebSocket
	WebSocketPort    string `yaml:"websocket_port"`    // Port for the WebSocket server
	UDPEnabled       bool   `yaml:"udp_enabled"`       // Publish binary frames over UDP
	UDPTarget        string `yaml:"udp_target"`        // Target address, e.g. "127.0.0.1:9090"
	UDPIntervalMs    int    `yaml:"udp_interval_ms"`   // Interval between UDP frames
}

// Config is the top-level application configuration, loaded from YAML
// and/or command line flags.
type Config struct {
	Debug     bool            `yaml:"debug"`
	LogLevel  string          `yaml:"log_level"`
	Command   string          `yaml:"-"` // One-off command ("list", "devices")
	RunEngine bool            `yaml:"-"` // Run the analysis engine (root command)
	Audio     AudioConfig     `yaml:"audio"`
	Analysis  Analysis        `yaml:"analysis"`
	Tuner     Tuner           `yaml:"tuner"`
	Recording RecordingConfig `yaml:"recording"`
	Transport TransportConfig `yaml:"transport"`
}

// NewConfig creates a Config populated with defaults. This is the base
// configuration before YAML or flag overrides are applied.
func NewConfig() *Config {
	return &Config{
		LogLevel: "info",
		Audio: AudioConfig{
			InputDevice:     DefaultDeviceID,
			SampleRate:      DefaultSampleRate,
			FramesPerBuffer: DefaultFramesPerBuffer,
			LowLatency:      DefaultLowLatency,
		},
		Analysis: DefaultAnalysis(),
		Tuner:    DefaultTuner(),
		Transport: TransportConfig{
			WebSocketEnabled: true,
			WebSocketPort:    "8080",
			UDPEnabled:       false,
			UDPTarget:        "127.0.0.1:9090",
			UDPIntervalMs:    33, // ~30Hz
		},
	}
}

// Normalize clamps every tunable section in place.
func (c *Config) Normalize() {
	if c.Audio.SampleRate < MinSampleRate {
		c.Audio.SampleRate = MinSampleRate
	}
	if c.Audio.SampleRate > MaxSampleRate {
		c.Audio.SampleRate = MaxSampleRate
	}
	if c.Audio.FramesPerBuffer < 1 {
		c.Audio.FramesPerBuffer = DefaultFramesPerBuffer
	}
	c.Analysis.Clamp()
	c.Tuner.Clamp()
}
