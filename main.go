// SPDX-License-Identifier: MIT
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chromascope/cmd"
	"chromascope/internal/analysis"
	"chromascope/internal/audio"
	"chromascope/internal/build"
	applog "chromascope/internal/log"
	"chromascope/internal/transport"
	"chromascope/internal/transport/udp"
	"chromascope/internal/tui"
)

// main is the entry point. The program flow is divided into three
// distinct phases:
//
// 1. Startup Phase (Cold Path):
//   - Initialize build information
//   - Initialize PortAudio
//   - Parse command line arguments and configuration
//   - Execute one-off commands if requested
//
// 2. Concurrent Phase (Hot Path):
//   - Start the analysis processor and capture engine
//   - Begin recording if enabled
//   - Start transports delivering events to subscribers
//
// 3. Shutdown Phase (Cold Path):
//   - Handle termination signals
//   - Stop recording if active
//   - Clean up resources
func main() {
	// ==================== STARTUP PHASE (Cold Path) ====================

	build.Initialize()

	cfg, err := cmd.ParseArgs()
	if err != nil {
		applog.Fatalf("%v", err)
	}

	if cfg.Debug {
		applog.SetLevel(applog.LevelDebug)
	} else if level, ok := applog.ParseLevel(cfg.LogLevel); ok {
		applog.SetLevel(level)
	}

	if err := audio.Initialize(); err != nil {
		applog.Fatalf("%v", err)
	}
	defer audio.Terminate()

	// One-off commands run without the capture engine.
	if cfg.Command != "" {
		if err := executeCommand(cfg.Command); err != nil {
			applog.Fatalf("%v", err)
		}
		return
	}

	if !cfg.RunEngine {
		return
	}

	// ==================== CONCURRENT PHASE (Hot Path) ====================

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	processor := analysis.New(cfg.Analysis, cfg.Tuner)

	logTransport := transport.NewLoggingTransport()
	sinks := []analysis.Sink{analysis.SinkFuncs{
		Analysis: func(a analysis.Analysis) { _ = logTransport.Send(a) },
		State:    func(s analysis.State) { applog.Infof("Session state: %s", s) },
		Error:    func(err error) { applog.Errorf("Pipeline error: %v", err) },
	}}

	var wsTransport *transport.WebSocketTransport
	if cfg.Transport.WebSocketEnabled {
		wsTransport = transport.NewWebSocketTransport(cfg.Transport.WebSocketPort, 0)
		sinks = append(sinks, analysis.SinkFuncs{
			Analysis: func(a analysis.Analysis) { _ = wsTransport.Send(a) },
		})
	}

	var udpPublisher *udp.Publisher
	if cfg.Transport.UDPEnabled {
		sender, err := udp.NewSender(cfg.Transport.UDPTarget)
		if err != nil {
			applog.Fatalf("%v", err)
		}
		interval := time.Duration(cfg.Transport.UDPIntervalMs) * time.Millisecond
		udpPublisher, err = udp.NewPublisher(interval, sender)
		if err != nil {
			applog.Fatalf("%v", err)
		}
		sinks = append(sinks, analysis.SinkFuncs{
			Analysis: func(a analysis.Analysis) { udpPublisher.Publish(a) },
		})
		udpPublisher.Start()
	}

	processor.SetSink(multiSink(sinks))

	engine, err := audio.NewEngine(cfg, processor)
	if err != nil {
		applog.Fatalf("%v", err)
	}

	// CRITICAL: the first callback after Start marks the start of the
	// hot path.
	if err := engine.Start(); err != nil {
		applog.Fatalf("%v", err)
	}

	if cfg.Recording.Enabled {
		if err := engine.StartRecording(cfg.Recording.OutputFile); err != nil {
			applog.Fatalf("%v", err)
		}
	}

	fmt.Printf("%s running. Press Ctrl+C to stop.\n", build.GetBuildFlags().Name)

	// Block until a termination signal is received.
	<-done

	// ==================== SHUTDOWN PHASE (Cold Path) ====================

	if cfg.Recording.Enabled {
		if err := engine.StopRecording(); err != nil {
			applog.Errorf("Error stopping recording: %v", err)
		} else {
			fmt.Printf("\nRecording saved to: %s\n", cfg.Recording.OutputFile)
		}
	}

	if err := engine.Close(); err != nil {
		applog.Errorf("Error closing audio engine: %v", err)
	}

	if udpPublisher != nil {
		if err := udpPublisher.Close(); err != nil {
			applog.Errorf("Error closing UDP publisher: %v", err)
		}
	}
	if wsTransport != nil {
		if err := wsTransport.Close(); err != nil {
			applog.Errorf("Error closing WebSocket transport: %v", err)
		}
	}
}

// executeCommand handles one-off commands that don't require the
// capture engine.
func executeCommand(command string) error {
	switch command {
	case "list":
		return audio.ListDevices()
	case "devices":
		return tui.StartDeviceListUI()
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

// multiSink fans processor events out to every attached sink.
type multiSink []analysis.Sink

func (m multiSink) OnAnalysis(a analysis.Analysis) {
	for _, s := range m {
		s.OnAnalysis(a)
	}
}

func (m multiSink) OnState(state analysis.State) {
	for _, s := range m {
		s.OnState(state)
	}
}

func (m multiSink) OnError(err error) {
	for _, s := range m {
		s.OnError(err)
	}
}
