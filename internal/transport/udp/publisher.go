// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"chromascope/internal/analysis"
	applog "chromascope/internal/log"
)

// FrameMagic identifies a pitch-class frame packet ("CPCD").
const FrameMagic uint32 = 0x43504344

// Publisher sends the most recent analysis snapshot over UDP at a fixed
// interval, packed into a compact binary frame. It runs in a goroutine
// managed by Start and Stop. Snapshots arrive via Publish; ticks with no
// snapshot yet are skipped.
type Publisher struct {
	sender   *Sender
	interval time.Duration

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex // Protects ticker/doneChan during Start/Stop

	snapMu   sync.Mutex
	snapshot analysis.Analysis
	hasSnap  bool

	sequenceNum uint32

	// Reusable buffer for constructing the binary packet.
	packetBuffer *bytes.Buffer
}

// NewPublisher creates a Publisher sending through the given Sender.
// An interval <= 0 defaults to 16ms (~60Hz).
func NewPublisher(interval time.Duration, sender *Sender) (*Publisher, error) {
	if sender == nil {
		return nil, fmt.Errorf("UDP publisher: sender cannot be nil")
	}

	if interval <= 0 {
		interval = 16 * time.Millisecond
		applog.Warnf("UDP publisher: invalid interval provided, defaulting to %s", interval)
	}

	return &Publisher{
		sender:       sender,
		interval:     interval,
		packetBuffer: new(bytes.Buffer),
	}, nil
}

// Publish records the latest analysis snapshot for the next tick.
// Called from the event pipeline; must not block.
func (p *Publisher) Publish(a analysis.Analysis) {
	p.snapMu.Lock()
	p.snapshot = a
	p.hasSnap = true
	p.snapMu.Unlock()
}

// Start launches the publishing goroutine. Safe to call multiple times;
// subsequent calls are no-ops while running.
func (p *Publisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		applog.Warnf("UDP publisher: Start called but already running")
		return
	}

	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{}

	// Capture locals so the goroutine never races Start/Stop.
	ticker := p.ticker
	doneChan := p.doneChan

	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		applog.Infof("UDP publisher: started (interval: %s)", p.interval)
		for {
			select {
			case <-ticker.C:
				p.buildAndSendPacket()
			case <-doneChan:
				return
			}
		}
	}()
}

// Stop signals the publishing goroutine to terminate and waits for it
// to exit. Safe to call multiple times.
func (p *Publisher) Stop() error {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		return nil
	}

	p.stopOnce.Do(func() {
		close(p.doneChan)
		p.ticker.Stop()
		p.ticker = nil
	})

	p.mu.Unlock()

	p.wg.Wait()
	return nil
}

/*
Frame layout (BigEndian):

	| Field       | Type        | Size | Description                      |
	|-------------|-------------|------|----------------------------------|
	| Magic       | uint32      | 4    | FrameMagic ("CPCD")              |
	| Sequence    | uint32      | 4    | Monotonically increasing         |
	| Timestamp   | int64       | 8    | Nanoseconds since epoch          |
	| RMS         | float32     | 4    | Frame RMS level                  |
	| PCD         | [12]float32 | 48   | Smoothed pitch-class weights     |
	| Pitch flag  | uint8       | 1    | 1 when a pitch estimate follows  |
	| Frequency   | float32     | 4    | Present when flag is 1           |
	| MIDI note   | int16       | 2    | Present when flag is 1           |
	| Cents       | float32     | 4    | Present when flag is 1           |
*/
func (p *Publisher) buildAndSendPacket() {
	p.snapMu.Lock()
	snap := p.snapshot
	ok := p.hasSnap
	p.snapMu.Unlock()
	if !ok {
		return
	}

	p.sequenceNum++

	var pcd [12]float32
	for i, v := range snap.PCD {
		pcd[i] = float32(v)
	}

	p.packetBuffer.Reset()

	err := binary.Write(p.packetBuffer, binary.BigEndian, FrameMagic)
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, p.sequenceNum)
	}
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, time.Now().UnixNano())
	}
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, float32(snap.RMS))
	}
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, pcd)
	}
	if err == nil {
		if snap.Pitch != nil {
			err = binary.Write(p.packetBuffer, binary.BigEndian, uint8(1))
			if err == nil {
				err = binary.Write(p.packetBuffer, binary.BigEndian, float32(snap.Pitch.Frequency))
			}
			if err == nil {
				err = binary.Write(p.packetBuffer, binary.BigEndian, int16(snap.Pitch.MIDINote))
			}
			if err == nil {
				err = binary.Write(p.packetBuffer, binary.BigEndian, float32(snap.Pitch.Cents))
			}
		} else {
			err = binary.Write(p.packetBuffer, binary.BigEndian, uint8(0))
		}
	}

	if err != nil {
		applog.Errorf("UDP publisher: error packing frame: %v", err)
		return
	}

	if err := p.sender.Send(p.packetBuffer.Bytes()); err == nil {
		applog.Debugf("UDP publisher: sent frame %d (%d bytes)", p.sequenceNum, p.packetBuffer.Len())
	}
}

// Close implements io.Closer by stopping the publishing goroutine.
func (p *Publisher) Close() error {
	return p.Stop()
}

var _ interface{ Close() error } = (*Publisher)(nil)
