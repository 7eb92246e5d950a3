// SPDX-License-Identifier: MIT
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAnalysisClampWindow(t *testing.T) {
	tests := []struct {
		name       string
		window     int
		hop        int
		wantWindow int
		wantHop    int
	}{
		{"Zero window", 0, 512, MinWindowSize, MinWindowSize},
		{"Tiny window", 8, 4, MinWindowSize, 4},
		{"Non-power-of-two", 5000, 1000, 8192, 1000},
		{"Exact power preserved", 16384, 4096, 16384, 4096},
		{"Hop above window", 1024, 4096, 1024, 1024},
		{"Hop below one", 1024, 0, 1024, 1},
		{"Oversized window", 1 << 20, 4096, MaxWindowSize, 4096},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultAnalysis()
			c.WindowSize = tt.window
			c.HopSize = tt.hop
			c.Clamp()
			if c.WindowSize != tt.wantWindow {
				t.Errorf("WindowSize = %d, want %d", c.WindowSize, tt.wantWindow)
			}
			if c.HopSize != tt.wantHop {
				t.Errorf("HopSize = %d, want %d", c.HopSize, tt.wantHop)
			}
		})
	}
}

func TestAnalysisClampBand(t *testing.T) {
	c := DefaultAnalysis()
	c.MinHz = -10
	c.MaxHz = -20
	c.Clamp()
	if c.MinHz != 0 {
		t.Errorf("MinHz = %f, want 0", c.MinHz)
	}
	if c.MaxHz <= c.MinHz {
		t.Errorf("MaxHz = %f, want > MinHz (%f)", c.MaxHz, c.MinHz)
	}
}

func TestAnalysisClampScalars(t *testing.T) {
	c := DefaultAnalysis()
	c.Smoothing = 1.5
	c.PCDExponent = -2
	c.RefPitch = 10
	c.Clamp()
	if c.Smoothing != MaxSmoothing {
		t.Errorf("Smoothing = %f, want %f", c.Smoothing, MaxSmoothing)
	}
	if c.PCDExponent != DefaultPCDExponent {
		t.Errorf("PCDExponent = %f, want %f", c.PCDExponent, DefaultPCDExponent)
	}
	if c.RefPitch != DefaultRefPitch {
		t.Errorf("RefPitch = %f, want %f", c.RefPitch, DefaultRefPitch)
	}
}

func TestTunerClamp(t *testing.T) {
	c := DefaultTuner()
	c.Reactivity = 0.001
	c.MinHz = 100
	c.MaxHz = 50
	c.Clamp()
	if c.Reactivity != MinReactivity {
		t.Errorf("Reactivity = %f, want %f", c.Reactivity, MinReactivity)
	}
	if c.MaxHz <= c.MinHz {
		t.Errorf("MaxHz = %f, want > MinHz (%f)", c.MaxHz, c.MinHz)
	}

	c.Reactivity = 2.0
	c.Clamp()
	if c.Reactivity != MaxReactivity {
		t.Errorf("Reactivity = %f, want %f", c.Reactivity, MaxReactivity)
	}
}

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
	if cfg == nil {
		t.Fatal("expected default config, got nil")
	}
	if cfg.Analysis.WindowSize != DefaultWindowSize {
		t.Errorf("WindowSize = %d, want %d", cfg.Analysis.WindowSize, DefaultWindowSize)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("nonexistent.yaml")
	if err == nil {
		t.Error("expected error for missing file, got nil")
	}
	if cfg != nil {
		t.Errorf("expected nil config on error, got %+v", cfg)
	}
}

func TestLoadConfig_UnmarshalError(t *testing.T) {
	path := writeTempConfig(t, ":\n:bad")
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "failed to parse config file") {
		t.Error("expected unmarshal error, got nil or wrong error")
	}
}

func TestLoadConfig_ClampsValues(t *testing.T) {
	path := writeTempConfig(t, `
analysis:
  window_size: 5000
  hop_size: 99999
  smoothing: 3.0
tuner:
  reactivity: 0.0
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.Analysis.WindowSize != 8192 {
		t.Errorf("WindowSize = %d, want 8192", cfg.Analysis.WindowSize)
	}
	if cfg.Analysis.HopSize != cfg.Analysis.WindowSize {
		t.Errorf("HopSize = %d, want %d", cfg.Analysis.HopSize, cfg.Analysis.WindowSize)
	}
	if cfg.Analysis.Smoothing != MaxSmoothing {
		t.Errorf("Smoothing = %f, want %f", cfg.Analysis.Smoothing, MaxSmoothing)
	}
	if cfg.Tuner.Reactivity != MinReactivity {
		t.Errorf("Reactivity = %f, want %f", cfg.Tuner.Reactivity, MinReactivity)
	}
}
