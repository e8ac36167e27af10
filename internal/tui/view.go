// Package tui draws the chat screen in the terminal with Bubble Tea.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/civicdesk/tomas/internal/chatui"
)

// Messages delivered to the Bubble Tea loop by ProgramView.
type (
	appendMsg     struct{ entry chatui.Entry }
	clearInputMsg struct{}
	loadingMsg    struct{ loading bool }
	focusInputMsg struct{}
	speakingMsg   struct {
		button   string
		speaking bool
	}
)

// Sender is satisfied by *tea.Program.
type Sender interface {
	Send(msg tea.Msg)
}

// ProgramView implements chatui.View by forwarding every call to the running
// program as a message, so all drawing happens on the event loop.
type ProgramView struct {
	sender Sender
}

var _ chatui.View = (*ProgramView)(nil)

// NewProgramView returns a view bound to no program yet; call Attach before
// the controller is used.
func NewProgramView() *ProgramView {
	return &ProgramView{}
}

// Attach binds the view to the program that renders it.
func (v *ProgramView) Attach(s Sender) {
	v.sender = s
}

func (v *ProgramView) send(msg tea.Msg) {
	if v.sender != nil {
		v.sender.Send(msg)
	}
}

func (v *ProgramView) AppendMessage(e chatui.Entry) { v.send(appendMsg{entry: e}) }
func (v *ProgramView) ClearInput()                  { v.send(clearInputMsg{}) }
func (v *ProgramView) SetLoading(loading bool)      { v.send(loadingMsg{loading: loading}) }
func (v *ProgramView) FocusInput()                  { v.send(focusInputMsg{}) }

func (v *ProgramView) SetSpeaking(button string, speaking bool) {
	v.send(speakingMsg{button: button, speaking: speaking})
}
