package views

import (
	"fmt"
	"strings"

	"github.com/matheus3301/huddle/internal/api"
	"github.com/matheus3301/huddle/internal/tui/ui"
	"github.com/rivo/tview"
)

// StatusBar displays the session, the shared counter and transient notices.
type StatusBar struct {
	*tview.TextView
	session  string
	channel  string
	state    string
	counter  string
	flash    string
	flashErr bool
	hints    []string
}

// NewStatusBar creates a new status bar.
func NewStatusBar(theme *ui.Theme) *StatusBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(theme.StatusBgColor)

	return &StatusBar{TextView: tv}
}

// SetStatus updates the session fields.
func (sb *StatusBar) SetStatus(s *api.StatusResponse) {
	if s == nil {
		return
	}
	sb.session, sb.channel, sb.state = s.Session, s.Channel, s.State
	sb.render()
}

// SetCounter updates the counter display.
func (sb *StatusBar) SetCounter(c *api.CounterResponse) {
	if c == nil {
		return
	}
	sb.counter = fmt.Sprintf("%d", c.Value)
	if c.LastWriter != nil {
		sb.counter += " by " + sanitize(c.LastWriter.Name)
	}
	sb.render()
}

// SetFlash sets a temporary message; an empty msg clears it.
func (sb *StatusBar) SetFlash(msg string, isError bool) {
	sb.flash, sb.flashErr = msg, isError
	sb.render()
}

// SetHints sets the key hints shown when no notice is active.
func (sb *StatusBar) SetHints(hints []string) {
	sb.hints = hints
	sb.render()
}

func (sb *StatusBar) render() {
	sb.Clear()

	line := fmt.Sprintf(" [::b]%s[-:-:-] #%s | %s | counter: [::b]%s[-:-:-]", sb.session, sb.channel, sb.state, sb.counter)
	switch {
	case sb.flash != "" && sb.flashErr:
		line += fmt.Sprintf(" | [red]%s[-]", tview.Escape(sb.flash))
	case sb.flash != "":
		line += fmt.Sprintf(" | [yellow]%s[-]", tview.Escape(sb.flash))
	case len(sb.hints) > 0:
		line += " | [::d]" + strings.Join(sb.hints, "  ") + "[-:-:-]"
	}

	_, _ = fmt.Fprint(sb, line)
}
