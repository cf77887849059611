package views

import (
	"fmt"
	"time"

	"github.com/matheus3301/huddle/internal/protocol"
	"github.com/rivo/tview"
)

// Thread displays the chat log.
type Thread struct {
	*tview.TextView
	lastOwn string
}

// NewThread creates the message thread view.
func NewThread() *Thread {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true)
	tv.SetBorder(true).SetTitle(" Chat ")
	return &Thread{TextView: tv}
}

// Update redraws the thread from messages in display order.
func (t *Thread) Update(msgs []protocol.ChatMessage, selfID string, now time.Time) {
	t.Clear()
	t.lastOwn = ""

	for _, m := range msgs {
		sender := sanitize(m.By.Name)
		if m.AuthorID() == selfID {
			sender = "You"
			if !m.IsDeleted {
				t.lastOwn = m.ID
			}
		}

		body := sanitize(m.Text)
		if m.IsDeleted {
			by := "someone"
			if m.DeletedBy != nil {
				by = sanitize(m.DeletedBy.Name)
			}
			body = fmt.Sprintf("[::i]message deleted by %s[-:-:-]", by)
		}

		meta := formatTimestamp(m.Ts, now)
		if m.ExpiresAt != 0 {
			left := time.UnixMilli(m.ExpiresAt).Sub(now).Round(time.Second)
			meta += fmt.Sprintf(" ⏱ %s", left)
		}

		_, _ = fmt.Fprintf(t, "[::b]%s[-:-:-] [::d]%s  %s[-:-:-]\n%s\n\n", sender, meta, shortID(m.ID), body)
	}

	t.ScrollToEnd()
}

// LastOwn returns the id of the newest undeleted message by the local peer.
func (t *Thread) LastOwn() string {
	return t.lastOwn
}
