// ABOUTME: Tests for the mixer console model
// ABOUTME: Drives a real mixer through key presses and checks the slot table
package ui

import (
	"math"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/yourgame/yourgame-go/pkg/audio"
	"github.com/yourgame/yourgame-go/pkg/audio/decode/decodetest"
	"github.com/yourgame/yourgame-go/pkg/audio/output"
	"github.com/yourgame/yourgame-go/pkg/mixer"
)

var stereo = audio.Format{SampleRate: 48000, Channels: 2}

func newTestModel(t *testing.T, files ...string) (Model, *mixer.Engine, *output.Volume) {
	t.Helper()
	e, err := mixer.New(mixer.Config{
		Channels:   stereo.Channels,
		SampleRate: stereo.SampleRate,
		MaxSources: 3,
		Device:     output.NewManualNull(),
		Opener:     decodetest.OpenOrDecode,
	})
	if err != nil {
		t.Fatalf("failed to create mixer: %v", err)
	}
	t.Cleanup(func() { e.Shutdown() })

	for _, name := range files {
		if err := e.StoreData(name, decodetest.Constant(stereo, 100, 0.5)); err != nil {
			t.Fatalf("failed to store %s: %v", name, err)
		}
	}

	volume := &output.Volume{}
	return NewModel(e, volume, "test console"), e, volume
}

func press(t *testing.T, m Model, keys ...tea.KeyMsg) Model {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(k)
		m = next.(Model)
	}
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keySpace = tea.KeyMsg{Type: tea.KeySpace}
	keyTab   = tea.KeyMsg{Type: tea.KeyTab}
	keyUp    = tea.KeyMsg{Type: tea.KeyUp}
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keyLeft  = tea.KeyMsg{Type: tea.KeyLeft}
	keyRight = tea.KeyMsg{Type: tea.KeyRight}
)

func closeTo(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-5
}

func TestNewModel(t *testing.T) {
	m, _, _ := newTestModel(t, "b.ogg", "a.ogg")

	if len(m.slots) != 3 {
		t.Errorf("expected 3 slots, got %d", len(m.slots))
	}
	for i, slot := range m.slots {
		if slot != nil {
			t.Errorf("expected slot %d to be free", i)
		}
	}
	if len(m.files) != 2 || m.files[0] != "a.ogg" {
		t.Errorf("expected sorted files [a.ogg b.ogg], got %v", m.files)
	}
	if m.Init() == nil {
		t.Error("expected Init to schedule a tick")
	}
}

func TestPlaySelectedFile(t *testing.T) {
	m, e, _ := newTestModel(t, "a.ogg", "b.ogg")

	m = press(t, m, keyTab, keyEnter)

	sources := e.Sources()
	if len(sources) != 1 || sources[0].File != "b.ogg" {
		t.Fatalf("expected b.ogg playing, got %+v", sources)
	}
	if sources[0].Loop {
		t.Error("expected enter to play without looping")
	}
	if m.slots[0] == nil || m.slots[0].File != "b.ogg" {
		t.Error("expected slot 0 to show b.ogg")
	}
	if !strings.Contains(m.notice, "slot 0") {
		t.Errorf("expected notice about slot 0, got %q", m.notice)
	}

	m = press(t, m, runes("l"))
	if m.selected != 1 {
		t.Errorf("expected selection to follow the new slot, got %d", m.selected)
	}
	if m.slots[1] == nil || !m.slots[1].Loop {
		t.Error("expected slot 1 to be looping")
	}
}

func TestPlayWithoutFiles(t *testing.T) {
	m, e, _ := newTestModel(t)

	m = press(t, m, keyEnter)
	if m.notice != "No stored files" {
		t.Errorf("expected no files notice, got %q", m.notice)
	}
	if len(e.Sources()) != 0 {
		t.Error("expected nothing to play")
	}
}

func TestPauseAndStop(t *testing.T) {
	m, e, _ := newTestModel(t, "a.ogg")

	m = press(t, m, keyEnter, keySpace)
	info, err := e.Source(0)
	if err != nil {
		t.Fatalf("expected slot 0 active: %v", err)
	}
	if !info.Paused {
		t.Error("expected space to pause")
	}

	m = press(t, m, keySpace)
	if info, _ := e.Source(0); info.Paused {
		t.Error("expected second space to resume")
	}

	m = press(t, m, runes("s"))
	if len(e.Sources()) != 0 {
		t.Error("expected s to stop the source")
	}
	if m.slots[0] != nil {
		t.Error("expected slot 0 to show free")
	}

	m = press(t, m, runes("s"))
	if !strings.Contains(m.notice, "free") {
		t.Errorf("expected free slot notice, got %q", m.notice)
	}
}

func TestSlotSelection(t *testing.T) {
	m, _, _ := newTestModel(t)

	m = press(t, m, keyUp)
	if m.selected != 0 {
		t.Errorf("expected selection to stay at 0, got %d", m.selected)
	}
	m = press(t, m, keyDown, keyDown, keyDown, keyDown)
	if m.selected != 2 {
		t.Errorf("expected selection to stop at last slot, got %d", m.selected)
	}
}

func TestBalanceKeys(t *testing.T) {
	m, e, _ := newTestModel(t, "a.ogg")
	m = press(t, m, keyEnter, keyRight)

	info, _ := e.Source(0)
	if !closeTo(info.Gains[0], 0.9) || !closeTo(info.Gains[1], 1) {
		t.Errorf("expected gains [0.9 1], got %v", info.Gains)
	}

	m = press(t, m, keyLeft, keyLeft)
	info, _ = e.Source(0)
	if !closeTo(info.Gains[0], 1) || !closeTo(info.Gains[1], 0.9) {
		t.Errorf("expected gains [1 0.9], got %v", info.Gains)
	}

	for i := 0; i < 20; i++ {
		m = press(t, m, keyLeft)
	}
	info, _ = e.Source(0)
	if !closeTo(info.Gains[0], 1) || !closeTo(info.Gains[1], 0) {
		t.Errorf("expected hard left [1 0], got %v", info.Gains)
	}
	if m.balance[0] != -1 {
		t.Errorf("expected balance clamped to -1, got %v", m.balance[0])
	}
}

func TestBalanceGains(t *testing.T) {
	tests := []struct {
		b        float32
		channels int
		expected []float32
	}{
		{0, 2, []float32{1, 1}},
		{-1, 2, []float32{1, 0}},
		{1, 2, []float32{0, 1}},
		{0.5, 2, []float32{0.5, 1}},
		{0.5, 4, []float32{0.5, 1, 1, 1}},
		{0.5, 1, []float32{1}},
	}

	for _, tt := range tests {
		got := BalanceGains(tt.b, tt.channels)
		if len(got) != len(tt.expected) {
			t.Fatalf("BalanceGains(%v, %d): expected %v, got %v", tt.b, tt.channels, tt.expected, got)
		}
		for i := range got {
			if !closeTo(got[i], tt.expected[i]) {
				t.Errorf("BalanceGains(%v, %d): expected %v, got %v", tt.b, tt.channels, tt.expected, got)
				break
			}
		}
	}
}

func TestVolumeKeys(t *testing.T) {
	m, _, volume := newTestModel(t)

	m = press(t, m, runes("-"), runes("-"))
	if volume.GetVolume() != 90 {
		t.Errorf("expected volume 90, got %d", volume.GetVolume())
	}
	m = press(t, m, runes("+"), runes("+"), runes("+"))
	if volume.GetVolume() != 100 {
		t.Errorf("expected volume clamped to 100, got %d", volume.GetVolume())
	}
	press(t, m, runes("m"))
	if !volume.IsMuted() {
		t.Error("expected m to mute")
	}
}

func TestTickRefreshesSlots(t *testing.T) {
	m, e, _ := newTestModel(t, "a.ogg")
	m = press(t, m, keyEnter)

	if err := e.Stop(0); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	next, cmd := m.Update(TickMsg{})
	m = next.(Model)
	if cmd == nil {
		t.Error("expected tick to schedule the next tick")
	}
	if m.slots[0] != nil {
		t.Error("expected tick to pick up the freed slot")
	}
}

func TestQuit(t *testing.T) {
	m, _, _ := newTestModel(t)

	_, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestView(t *testing.T) {
	m, _, _ := newTestModel(t, "a.ogg")

	if m.View() != "Loading..." {
		t.Errorf("expected loading view before size, got %q", m.View())
	}

	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m = next.(Model)
	m = press(t, m, runes("l"))

	view := m.View()
	for _, want := range []string{"test console", "48000Hz/2ch", "a.ogg", "play loop"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected view to contain %q", want)
		}
	}

	m = press(t, m, runes("d"))
	if !strings.Contains(m.View(), "DEBUG") {
		t.Error("expected debug section after d")
	}

	next, _ = m.Update(NoticeMsg("remote client joined"))
	m = next.(Model)
	if !strings.Contains(m.View(), "remote client joined") {
		t.Error("expected notice in view")
	}
}

func TestTruncateFunction(t *testing.T) {
	if truncate("short", 10) != "short" {
		t.Error("expected short string unchanged")
	}
	if got := truncate("a very long filename.ogg", 10); got != "a very ..." {
		t.Errorf("expected truncated string, got %q", got)
	}
}
