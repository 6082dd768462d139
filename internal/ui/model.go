// ABOUTME: Bubbletea model for the mixer console
// ABOUTME: Shows the slot table and drives play/stop/pause/balance from the keyboard
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/yourgame/yourgame-go/pkg/audio"
	"github.com/yourgame/yourgame-go/pkg/mixer"
)

// RefreshInterval is how often the slot table is re-read from the mixer
const RefreshInterval = 100 * time.Millisecond

// balanceStep is the change per left/right key press
const balanceStep = 0.1

// Controller is the mixer surface the console drives
type Controller interface {
	Format() audio.Format
	Capacity() int
	Play(name string, loop bool) (mixer.SourceID, error)
	Stop(id mixer.SourceID) error
	Pause(id mixer.SourceID, paused bool) error
	SetChannelGains(id mixer.SourceID, gains []float32) error
	Sources() []mixer.SourceInfo
	StoredFiles() []string
	Stats() mixer.Stats
}

// VolumeControl is an output volume the console can adjust
type VolumeControl interface {
	SetVolume(volume int)
	GetVolume() int
	SetMuted(muted bool)
	IsMuted() bool
}

// Model represents the TUI state
type Model struct {
	ctrl   Controller
	volume VolumeControl
	title  string

	// Slot table, indexed by slot; nil entries are free
	slots    []*mixer.SourceInfo
	balance  []float32
	selected int

	// Stored files
	files   []string
	fileIdx int

	stats     mixer.Stats
	notice    string
	showDebug bool

	// Dimensions
	width  int
	height int
}

// TickMsg triggers a refresh of the slot table
type TickMsg time.Time

// NoticeMsg shows a one-line notice below the table
type NoticeMsg string

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(RefreshInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case TickMsg:
		m.refresh()
		return m, tick()
	case NoticeMsg:
		m.notice = string(msg)
	}

	return m, nil
}

// refresh re-reads the slot table, file list and stats
func (m *Model) refresh() {
	for i := range m.slots {
		m.slots[i] = nil
	}
	for _, info := range m.ctrl.Sources() {
		if int(info.ID) < len(m.slots) {
			m.slots[info.ID] = &info
		}
	}
	for i, slot := range m.slots {
		if slot == nil {
			m.balance[i] = 0
		}
	}

	m.files = m.ctrl.StoredFiles()
	if m.fileIdx >= len(m.files) {
		m.fileIdx = 0
	}
	m.stats = m.ctrl.Stats()
}

// selectedFile returns the highlighted stored file
func (m Model) selectedFile() (string, bool) {
	if len(m.files) == 0 {
		return "", false
	}
	return m.files[m.fileIdx], true
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up":
		if m.selected > 0 {
			m.selected--
		}
	case "down":
		if m.selected < len(m.slots)-1 {
			m.selected++
		}
	case "tab":
		if len(m.files) > 0 {
			m.fileIdx = (m.fileIdx + 1) % len(m.files)
		}
	case "shift+tab":
		if len(m.files) > 0 {
			m.fileIdx = (m.fileIdx + len(m.files) - 1) % len(m.files)
		}
	case "enter":
		m.play(false)
	case "l":
		m.play(true)
	case " ":
		m.togglePause()
	case "s":
		m.stop()
	case "left":
		m.shiftBalance(-balanceStep)
	case "right":
		m.shiftBalance(balanceStep)
	case "m":
		if m.volume != nil {
			m.volume.SetMuted(!m.volume.IsMuted())
		}
	case "+", "=":
		if m.volume != nil {
			m.volume.SetVolume(m.volume.GetVolume() + 5)
		}
	case "-":
		if m.volume != nil {
			m.volume.SetVolume(m.volume.GetVolume() - 5)
		}
	case "d":
		m.showDebug = !m.showDebug
	}

	return m, nil
}

func (m *Model) play(loop bool) {
	file, ok := m.selectedFile()
	if !ok {
		m.notice = "No stored files"
		return
	}
	id, err := m.ctrl.Play(file, loop)
	if err != nil {
		m.notice = fmt.Sprintf("Play %s: %v", file, err)
		return
	}
	m.selected = int(id)
	m.notice = fmt.Sprintf("Playing %s in slot %d", file, id)
	m.refresh()
}

func (m *Model) togglePause() {
	slot := m.slots[m.selected]
	if slot == nil {
		m.notice = fmt.Sprintf("Slot %d is free", m.selected)
		return
	}
	if err := m.ctrl.Pause(slot.ID, !slot.Paused); err != nil {
		m.notice = err.Error()
		return
	}
	m.refresh()
}

func (m *Model) stop() {
	slot := m.slots[m.selected]
	if slot == nil {
		m.notice = fmt.Sprintf("Slot %d is free", m.selected)
		return
	}
	if err := m.ctrl.Stop(slot.ID); err != nil {
		m.notice = err.Error()
	}
	m.refresh()
}

func (m *Model) shiftBalance(delta float32) {
	slot := m.slots[m.selected]
	if slot == nil {
		return
	}
	channels := m.ctrl.Format().Channels
	if channels < 2 {
		m.notice = "Balance needs at least two channels"
		return
	}

	b := clampBalance(m.balance[m.selected] + delta)
	if err := m.ctrl.SetChannelGains(slot.ID, BalanceGains(b, channels)); err != nil {
		m.notice = err.Error()
		return
	}
	m.balance[m.selected] = b
	m.refresh()
}

func clampBalance(b float32) float32 {
	// snap to tenths
	b = float32(int(b*10+sign(b)*0.5)) / 10
	if b < -1 {
		return -1
	}
	if b > 1 {
		return 1
	}
	return b
}

func sign(v float32) float32 {
	if v < 0 {
		return -1
	}
	return 1
}

// BalanceGains returns gains for balance b in [-1, 1]: the first two
// channels get min(1-b, 1) and min(1+b, 1), any others stay at 1.
func BalanceGains(b float32, channels int) []float32 {
	gains := make([]float32, channels)
	for i := range gains {
		gains[i] = 1
	}
	if channels >= 2 {
		gains[0] = min(1-b, 1)
		gains[1] = min(1+b, 1)
	}
	return gains
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString(m.renderSlots())
	b.WriteString(m.renderFiles())
	if m.showDebug {
		b.WriteString(m.renderDebug())
	}
	b.WriteString(m.renderHelp())
	return b.String()
}

// renderHeader renders the device format and output volume
func (m Model) renderHeader() string {
	volume := "n/a"
	if m.volume != nil {
		volume = fmt.Sprintf("[%s] %d%%", renderBar(m.volume.GetVolume(), 100, 10), m.volume.GetVolume())
		if m.volume.IsMuted() {
			volume += " muted"
		}
	}

	return fmt.Sprintf(`┌─ %-52s ┐
│ Device: %-45s │
│ Volume: %-45s │
├──────────────────────────────────────────────────────┤
`, truncate(m.title, 52), m.ctrl.Format().String(), volume)
}

// renderSlots renders one line per slot
func (m Model) renderSlots() string {
	s := ""
	for i, slot := range m.slots {
		cursor := " "
		if i == m.selected {
			cursor = ">"
		}

		if slot == nil {
			s += fmt.Sprintf("│%s%2d  %-49s │\n", cursor, i, "-")
			continue
		}

		state := "play"
		if slot.Paused {
			state = "pause"
		}
		if slot.Loop {
			state += " loop"
		}
		line := fmt.Sprintf("%-10s %-22s %s", state, truncate(slot.File, 22), formatGains(slot.Gains))
		s += fmt.Sprintf("│%s%2d  %-49s │\n", cursor, i, truncate(line, 49))
	}
	return s
}

// renderFiles renders the selected stored file
func (m Model) renderFiles() string {
	file, ok := m.selectedFile()
	if !ok {
		file = "(none stored)"
	} else {
		file = fmt.Sprintf("%s (%d/%d)", file, m.fileIdx+1, len(m.files))
	}

	s := "├──────────────────────────────────────────────────────┤\n"
	s += fmt.Sprintf("│ File: %-47s │\n", truncate(file, 47))
	s += fmt.Sprintf("│ %-52s │\n", truncate(m.notice, 52))
	return s
}

// renderDebug renders mixer counters
func (m Model) renderDebug() string {
	return fmt.Sprintf(`│ DEBUG:                                               │
│   Periods: %-10d Frames: %-21d │
│   Retired: %-10d Decode errors: %-14d │
│   Stored:  %-10d Bytes: %-22d │
`, m.stats.Periods, m.stats.Frames, m.stats.Retired, m.stats.DecodeErrors, m.stats.StoredFiles, m.stats.StoredBytes)
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	return `│ ↑/↓:Slot ←/→:Balance enter:Play l:Loop space:Pause   │
│ s:Stop tab:File m:Mute +/-:Volume d:Debug q:Quit     │
└──────────────────────────────────────────────────────┘
`
}

func formatGains(gains []float32) string {
	parts := make([]string, len(gains))
	for i, g := range gains {
		parts[i] = fmt.Sprintf("%.1f", g)
	}
	return strings.Join(parts, " ")
}

// Utility functions
func renderBar(value, max, width int) string {
	filled := (value * width) / max
	bar := ""
	for i := 0; i < width; i++ {
		if i < filled {
			bar += "█"
		} else {
			bar += "░"
		}
	}
	return bar
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}
