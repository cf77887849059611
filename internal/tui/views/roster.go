package views

import (
	"fmt"
	"time"

	"github.com/matheus3301/huddle/internal/api"
	"github.com/matheus3301/huddle/internal/tui/ui"
	"github.com/rivo/tview"
)

// Roster lists the peers in the session.
type Roster struct {
	*tview.Table
	theme *ui.Theme
}

// NewRoster creates the roster table.
func NewRoster(theme *ui.Theme) *Roster {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false)
	table.SetBorder(true).SetTitle(" Peers ").SetBorderColor(theme.BorderColor)
	return &Roster{Table: table, theme: theme}
}

// Update redraws the roster. selfID marks the local peer.
func (r *Roster) Update(peers []api.RosterEntry, selfID string, now time.Time) {
	r.Clear()
	r.SetTitle(fmt.Sprintf(" Peers (%d) ", len(peers)))

	for i, p := range peers {
		dot := tview.NewTableCell(" ●").SetTextColor(r.theme.IdleColor)
		if p.Online {
			dot.SetTextColor(r.theme.OnlineColor)
		}

		name := p.Name
		if name == "" {
			// Seen only through typing so far.
			name = shortID(p.ID)
		}
		nameCell := tview.NewTableCell(" " + sanitize(name)).SetExpansion(1).SetMaxWidth(24)
		if p.ID == selfID {
			nameCell.SetText(" " + sanitize(name) + " (you)").SetTextColor(r.theme.SelfColor)
		}

		activity := formatTimestamp(p.LastActivityTs, now)
		if p.IsTyping {
			activity = "typing…"
		}

		r.SetCell(i, 0, dot)
		r.SetCell(i, 1, nameCell)
		r.SetCell(i, 2, tview.NewTableCell(" "+activity).SetTextColor(r.theme.IdleColor))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
