// SPDX-License-Identifier: MIT
/*
Package audio implements the capture layer on top of PortAudio:
- Device enumeration and input device selection
- A mono float32 input stream feeding the analysis processor
- WAV recording of the raw input with atomic state management

Thread Safety:
- The stream callback runs on a dedicated OS thread
- Conversion buffers are pre-allocated to avoid GC in the hot path
- Recording state uses atomic operations
*/
package audio

import (
	"fmt"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/gordonklaus/portaudio"

	"chromascope/internal/analysis"
	"chromascope/internal/config"
	applog "chromascope/internal/log"
)

// Engine owns the PortAudio input stream and forwards captured samples
// to the analysis processor.
type Engine struct {
	config    *config.Config
	processor *analysis.Processor

	// Audio input handling.
	inputDevice  *portaudio.DeviceInfo
	inputLatency time.Duration
	inputStream  *portaudio.Stream

	// Pre-allocated float64 view of the capture buffer.
	monoBuffer []float64

	// Recording state and buffers.
	isRecording int32 // Atomic flag for thread-safe state
	outputFile  *os.File
	wavEncoder  *wav.Encoder
	sampleBuf   *goaudio.IntBuffer // Reusable buffer for format conversion
}

// NewEngine resolves the configured input device and prepares the
// capture buffers. The stream is not opened until Start.
func NewEngine(cfg *config.Config, processor *analysis.Processor) (*Engine, error) {
	inputDevice, err := InputDevice(cfg.Audio.InputDevice)
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:      cfg,
		processor:   processor,
		inputDevice: inputDevice,
		monoBuffer:  make([]float64, cfg.Audio.FramesPerBuffer),
	}

	if cfg.Audio.LowLatency {
		engine.inputLatency = inputDevice.DefaultLowInputLatency
	} else {
		engine.inputLatency = inputDevice.DefaultHighInputLatency
	}

	return engine, nil
}

// Start opens and starts the input stream, then transitions the
// processor to Running. Capture must be fully acquired before the
// session starts; any failure leaves the processor Idle and is also
// surfaced on the subscriber's error channel.
func (e *Engine) Start() error {
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: 1,
			Device:   e.inputDevice,
			Latency:  e.inputLatency,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: 0, // No output device
			Device:   nil,
		},
		FramesPerBuffer: e.config.Audio.FramesPerBuffer,
		SampleRate:      e.config.Audio.SampleRate,
	}

	stream, err := portaudio.OpenStream(params, e.processInputStream)
	if err != nil {
		err = fmt.Errorf("failed to open input stream: %w", err)
		e.processor.EmitError(err)
		return err
	}
	e.inputStream = stream

	if err := e.inputStream.Start(); err != nil {
		e.inputStream.Close()
		e.inputStream = nil
		err = fmt.Errorf("failed to start input stream: %w", err)
		e.processor.EmitError(err)
		return err
	}

	if err := e.processor.Start(e.config.Audio.SampleRate); err != nil {
		e.StopInputStream()
		e.processor.EmitError(err)
		return err
	}

	return nil
}

// Stop ends the session: capture is torn down first, then the
// processor transitions to Idle.
func (e *Engine) Stop() error {
	err := e.StopInputStream()
	e.processor.Stop()
	return err
}

// StopInputStream stops and closes the input stream if one is open.
func (e *Engine) StopInputStream() error {
	if e.inputStream != nil {
		if err := e.inputStream.Stop(); err != nil {
			return err
		}

		if err := e.inputStream.Close(); err != nil {
			return err
		}

		e.inputStream = nil
	}

	return nil
}

// Close releases all engine resources, stopping any active recording
// and the input stream.
func (e *Engine) Close() error {
	if atomic.LoadInt32(&e.isRecording) == 1 {
		if err := e.StopRecording(); err != nil {
			return err
		}
	}

	return e.Stop()
}

// processInputStream is the capture callback.
// Performance Critical:
// - Runs in a dedicated OS thread (LockOSThread)
// - Uses pre-allocated buffers only
// - No dynamic allocations in the hot path
func (e *Engine) processInputStream(in []float32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	n := len(in)
	if n > len(e.monoBuffer) {
		n = len(e.monoBuffer)
	}
	for i := 0; i < n; i++ {
		e.monoBuffer[i] = float64(in[i])
	}

	e.processor.ProcessChunk(e.monoBuffer[:n])

	// Write to WAV file if recording.
	if atomic.LoadInt32(&e.isRecording) == 1 && e.wavEncoder != nil {
		for i := 0; i < n; i++ {
			e.sampleBuf.Data[i] = int(in[i] * 32767)
		}
		e.sampleBuf.Data = e.sampleBuf.Data[:n]

		if err := e.wavEncoder.Write(e.sampleBuf); err != nil {
			applog.Errorf("Error writing to WAV file: %v", err)
		}
	}
}
