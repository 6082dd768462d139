// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program for the mixer console
package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/yourgame/yourgame-go/pkg/mixer"
)

// NewModel creates a console model for ctrl. volume may be nil when the
// output device has no software volume.
func NewModel(ctrl Controller, volume VolumeControl, title string) Model {
	capacity := ctrl.Capacity()
	m := Model{
		ctrl:    ctrl,
		volume:  volume,
		title:   title,
		slots:   make([]*mixer.SourceInfo, capacity),
		balance: make([]float32, capacity),
	}
	m.refresh()
	return m
}

// Run creates the console program; the caller runs it
func Run(ctrl Controller, volume VolumeControl, title string) *tea.Program {
	return tea.NewProgram(NewModel(ctrl, volume, title), tea.WithAltScreen())
}
