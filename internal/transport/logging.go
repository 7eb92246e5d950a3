// SPDX-License-Identifier: MIT
package transport

import (
	"chromascope/internal/analysis"
	applog "chromascope/internal/log"
)

// LoggingTransport implements the Transport interface by logging
// analysis events at debug level. Useful for headless runs.
type LoggingTransport struct{}

// NewLoggingTransport creates a new LoggingTransport instance.
func NewLoggingTransport() *LoggingTransport {
	applog.Infof("Transport: Using LoggingTransport")
	return &LoggingTransport{}
}

// Send logs the received event to the application logger.
func (lt *LoggingTransport) Send(data any) error {
	switch v := data.(type) {
	case analysis.Analysis:
		if v.Pitch != nil {
			applog.Debugf("analysis: rms=%.5f note=%s cents=%+.1f", v.RMS, v.Pitch.Note, v.Pitch.Cents)
		} else {
			applog.Debugf("analysis: rms=%.5f (no pitch)", v.RMS)
		}
	default:
		applog.Debugf("event: %+v", data)
	}
	return nil
}

// Close is a no-op for LoggingTransport.
func (lt *LoggingTransport) Close() error {
	return nil
}

var _ Transport = (*LoggingTransport)(nil)
