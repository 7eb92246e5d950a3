// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file specified by path. If
// path is empty, it searches default locations ("config.yaml"). If no
// file is found, built-in defaults are used. Environment variable
// overrides are applied after loading, and the final configuration is
// normalized (clamped), never rejected for out-of-range analysis values.
func LoadConfig(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		candidates := []string{"config.yaml"}
		found := false
		for _, candidate := range candidates {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				found = true
				break
			}
		}
		if !found {
			cfg.applyEnvOverrides()
			cfg.Normalize()
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvOverrides()
	cfg.Normalize()

	return cfg, nil
}

// applyEnvOverrides applies CHROMASCOPE_* environment variables on top
// of the loaded configuration.
func (cfg *Config) applyEnvOverrides() {
	if val, ok := os.LookupEnv("CHROMASCOPE_DEBUG"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Debug = bVal
		}
	}
	if val, ok := os.LookupEnv("CHROMASCOPE_LOG_LEVEL"); ok {
		cfg.LogLevel = val
	}
	if val, ok := os.LookupEnv("CHROMASCOPE_WS_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Transport.WebSocketEnabled = bVal
		}
	}
	if val, ok := os.LookupEnv("CHROMASCOPE_WS_PORT"); ok {
		cfg.Transport.WebSocketPort = val
	}
	if val, ok := os.LookupEnv("CHROMASCOPE_UDP_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Transport.UDPEnabled = bVal
		}
	}
	if val, ok := os.LookupEnv("CHROMASCOPE_UDP_TARGET"); ok {
		cfg.Transport.UDPTarget = val
	}
}
