// SPDX-License-Identifier: MIT
package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"chromascope/internal/audio"
)

func testDevices() []audio.Device {
	return []audio.Device{
		{ID: 0, Name: "Built-in Microphone", MaxInputChannels: 2, DefaultSampleRate: 48000},
		{ID: 1, Name: "Built-in Output", MaxOutputChannels: 2, DefaultSampleRate: 44100},
		{ID: 2, Name: "USB Interface", MaxInputChannels: 2, MaxOutputChannels: 2, DefaultSampleRate: 96000},
	}
}

func updatedModel(t *testing.T, m tea.Model, msg tea.Msg) DeviceListModel {
	t.Helper()
	next, _ := m.Update(msg)
	dm, ok := next.(DeviceListModel)
	if !ok {
		t.Fatalf("unexpected model type %T", next)
	}
	return dm
}

func TestDeviceListViewBeforeResize(t *testing.T) {
	m := NewDeviceListModel()
	if got := m.View(); !strings.Contains(got, "Initializing") {
		t.Errorf("pre-resize view = %q, want initializing notice", got)
	}
}

func TestDeviceListRendersDevices(t *testing.T) {
	m := NewDeviceListModel()
	m = updatedModel(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	m = updatedModel(t, m, devicesMsg{devices: testDevices()})

	view := m.View()
	for _, want := range []string{"Built-in Microphone", "USB Interface", "Input/Output"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestDeviceListEmpty(t *testing.T) {
	m := NewDeviceListModel()
	m = updatedModel(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	m = updatedModel(t, m, devicesMsg{devices: nil})

	if got := m.renderDevices(); !strings.Contains(got, "No audio devices") {
		t.Errorf("render = %q, want empty-list notice", got)
	}
}

func TestDeviceListNavigation(t *testing.T) {
	m := NewDeviceListModel()
	m = updatedModel(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	m = updatedModel(t, m, devicesMsg{devices: testDevices()})

	down := tea.KeyMsg{Type: tea.KeyDown}
	up := tea.KeyMsg{Type: tea.KeyUp}

	m = updatedModel(t, m, down)
	if m.selectedIndex != 1 {
		t.Errorf("selectedIndex = %d after down, want 1", m.selectedIndex)
	}

	m = updatedModel(t, m, down)
	m = updatedModel(t, m, down) // Clamped at the last device
	if m.selectedIndex != 2 {
		t.Errorf("selectedIndex = %d, want 2 (clamped)", m.selectedIndex)
	}

	m = updatedModel(t, m, up)
	if m.selectedIndex != 1 {
		t.Errorf("selectedIndex = %d after up, want 1", m.selectedIndex)
	}
}

func TestDeviceListErrorView(t *testing.T) {
	m := NewDeviceListModel()
	m = updatedModel(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	m = updatedModel(t, m, errMsg{err: errTest})

	if got := m.View(); !strings.Contains(got, "boom") {
		t.Errorf("view = %q, want the error text", got)
	}
}

func TestDeviceListQuit(t *testing.T) {
	m := NewDeviceListModel()
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Error("q should quit")
	}
}

var errTest = &testError{}

type testError struct{}

func (*testError) Error() string { return "boom" }
