// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"net"
	"testing"
	"time"

	"chromascope/internal/analysis"
)

// frameHeader mirrors the fixed part of the binary frame layout.
type frameHeader struct {
	Magic     uint32
	Sequence  uint32
	Timestamp int64
	RMS       float32
	PCD       [12]float32
	PitchFlag uint8
}

func newTestListener(t *testing.T) *net.UDPConn {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("failed to open test listener: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *net.UDPConn) []byte {
	t.Helper()
	buf := make([]byte, 512)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, _, err := conn.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("failed to read frame: %v", err)
	}
	return buf[:n]
}

func TestPublisherSendsFrames(t *testing.T) {
	listener := newTestListener(t)

	sender, err := NewSender(listener.LocalAddr().String())
	if err != nil {
		t.Fatalf("NewSender error: %v", err)
	}
	defer sender.Close()

	pub, err := NewPublisher(5*time.Millisecond, sender)
	if err != nil {
		t.Fatalf("NewPublisher error: %v", err)
	}

	snap := analysis.Analysis{
		PCD: [12]float64{0.5, 0, 0, 0, 0, 0, 0, 0.5, 0, 0, 0, 0},
		RMS: 0.25,
		Pitch: &analysis.PitchEstimate{
			Frequency: 261.63,
			MIDINote:  60,
			Cents:     -3.5,
		},
	}
	pub.Publish(snap)
	pub.Start()
	defer pub.Stop()

	frame := readFrame(t, listener)

	var hdr frameHeader
	r := bytes.NewReader(frame)
	if err := binary.Read(r, binary.BigEndian, &hdr); err != nil {
		t.Fatalf("failed to decode frame header: %v", err)
	}

	if hdr.Magic != FrameMagic {
		t.Errorf("magic = %#x, want %#x", hdr.Magic, FrameMagic)
	}
	if hdr.Sequence == 0 {
		t.Error("sequence should start at 1")
	}
	if hdr.RMS != 0.25 {
		t.Errorf("rms = %f, want 0.25", hdr.RMS)
	}
	if hdr.PCD[0] != 0.5 || hdr.PCD[7] != 0.5 {
		t.Errorf("pcd = %v, want weight at classes 0 and 7", hdr.PCD)
	}
	if hdr.PitchFlag != 1 {
		t.Fatalf("pitch flag = %d, want 1", hdr.PitchFlag)
	}

	var freq float32
	var midi int16
	var cents float32
	if err := binary.Read(r, binary.BigEndian, &freq); err != nil {
		t.Fatalf("failed to decode frequency: %v", err)
	}
	if err := binary.Read(r, binary.BigEndian, &midi); err != nil {
		t.Fatalf("failed to decode midi note: %v", err)
	}
	if err := binary.Read(r, binary.BigEndian, &cents); err != nil {
		t.Fatalf("failed to decode cents: %v", err)
	}
	if midi != 60 {
		t.Errorf("midi = %d, want 60", midi)
	}
	if freq < 261 || freq > 262 {
		t.Errorf("frequency = %f, want ~261.63", freq)
	}
	if cents != -3.5 {
		t.Errorf("cents = %f, want -3.5", cents)
	}
}

func TestPublisherNoPitchFrame(t *testing.T) {
	listener := newTestListener(t)

	sender, err := NewSender(listener.LocalAddr().String())
	if err != nil {
		t.Fatalf("NewSender error: %v", err)
	}
	defer sender.Close()

	pub, err := NewPublisher(5*time.Millisecond, sender)
	if err != nil {
		t.Fatalf("NewPublisher error: %v", err)
	}

	pub.Publish(analysis.Analysis{RMS: 0.01})
	pub.Start()
	defer pub.Stop()

	frame := readFrame(t, listener)

	var hdr frameHeader
	if err := binary.Read(bytes.NewReader(frame), binary.BigEndian, &hdr); err != nil {
		t.Fatalf("failed to decode frame header: %v", err)
	}
	if hdr.PitchFlag != 0 {
		t.Errorf("pitch flag = %d, want 0", hdr.PitchFlag)
	}
	if len(frame) != 69 {
		t.Errorf("frame length = %d, want 69 (header only)", len(frame))
	}
}

func TestPublisherSkipsBeforeFirstSnapshot(t *testing.T) {
	listener := newTestListener(t)

	sender, err := NewSender(listener.LocalAddr().String())
	if err != nil {
		t.Fatalf("NewSender error: %v", err)
	}
	defer sender.Close()

	pub, err := NewPublisher(5*time.Millisecond, sender)
	if err != nil {
		t.Fatalf("NewPublisher error: %v", err)
	}
	pub.Start()
	defer pub.Stop()

	buf := make([]byte, 512)
	listener.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
	if _, _, err := listener.ReadFromUDP(buf); err == nil {
		t.Error("expected no frames before the first snapshot")
	}
}

func TestPublisherStartStopIdempotent(t *testing.T) {
	listener := newTestListener(t)

	sender, err := NewSender(listener.LocalAddr().String())
	if err != nil {
		t.Fatalf("NewSender error: %v", err)
	}
	defer sender.Close()

	pub, err := NewPublisher(time.Millisecond, sender)
	if err != nil {
		t.Fatalf("NewPublisher error: %v", err)
	}

	pub.Start()
	pub.Start() // No-op while running
	if err := pub.Stop(); err != nil {
		t.Errorf("Stop error: %v", err)
	}
	if err := pub.Stop(); err != nil {
		t.Errorf("second Stop error: %v", err)
	}
}

func TestNewPublisherNilSender(t *testing.T) {
	if _, err := NewPublisher(time.Second, nil); err == nil {
		t.Error("expected error for nil sender")
	}
}

func TestSenderClosed(t *testing.T) {
	listener := newTestListener(t)

	sender, err := NewSender(listener.LocalAddr().String())
	if err != nil {
		t.Fatalf("NewSender error: %v", err)
	}

	if err := sender.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if err := sender.Close(); err != nil {
		t.Errorf("second Close error: %v", err)
	}
	if err := sender.Send([]byte{1, 2, 3}); err == nil {
		t.Error("expected error sending on a closed sender")
	}
}

func TestNewSenderBadAddress(t *testing.T) {
	if _, err := NewSender("not-an-address"); err == nil {
		t.Error("expected error for an unresolvable address")
	}
}
