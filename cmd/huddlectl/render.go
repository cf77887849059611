package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/gookit/color"
	"github.com/matheus3301/huddle/internal/api"
	"github.com/matheus3301/huddle/internal/protocol"
	"github.com/olekukonko/tablewriter"
)

type printer struct {
	w    io.Writer
	json bool
}

func (p *printer) raw(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// line writes v as a single JSON line, for streams.
func (p *printer) line(v any) error {
	return json.NewEncoder(p.w).Encode(v)
}

func (p *printer) okf(format string, args ...any) {
	fmt.Fprintln(p.w, color.Green.Sprintf(format, args...))
}

func (p *printer) table(header []string) *tablewriter.Table {
	t := tablewriter.NewWriter(p.w)
	t.SetHeader(header)
	t.SetAutoWrapText(false)
	t.SetAutoFormatHeaders(true)
	t.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	t.SetAlignment(tablewriter.ALIGN_LEFT)
	t.SetCenterSeparator("")
	t.SetColumnSeparator("")
	t.SetRowSeparator("")
	t.SetHeaderLine(false)
	t.SetBorder(false)
	t.SetTablePadding("\t")
	return t
}

func (p *printer) status(s *api.StatusResponse) {
	fmt.Fprintf(p.w, "Session: %s\n", s.Session)
	fmt.Fprintf(p.w, "Channel: %s\n", s.Channel)
	fmt.Fprintf(p.w, "State:   %s\n", s.State)
	fmt.Fprintf(p.w, "Self:    %s (%s)\n", s.Self.Name, s.Self.ID)
	fmt.Fprintf(p.w, "Uptime:  %s\n", (time.Duration(s.UptimeMs) * time.Millisecond).Round(time.Second))
}

func (p *printer) roster(peers []api.RosterEntry, now time.Time) {
	t := p.table([]string{"Name", "ID", "Status", "Typing", "Last Seen"})
	for _, e := range peers {
		state := color.Gray.Sprint("idle")
		if e.Online {
			state = color.Green.Sprint("online")
		}
		typing := ""
		if e.IsTyping {
			typing = "typing..."
		}
		t.Append([]string{e.Name, e.ID, state, typing, ago(now, e.LastActivityTs)})
	}
	t.Render()
}

func (p *printer) messages(msgs []protocol.ChatMessage) {
	if len(msgs) == 0 {
		fmt.Fprintln(p.w, "No messages.")
		return
	}
	t := p.table([]string{"Time", "From", "Message", "ID", "Expires"})
	for _, m := range msgs {
		text := m.Text
		if m.IsDeleted {
			by := "someone"
			if m.DeletedBy != nil {
				by = m.DeletedBy.Name
			}
			text = color.Gray.Sprintf("(deleted by %s)", by)
		}
		expires := ""
		if m.ExpiresAt != 0 {
			expires = time.UnixMilli(m.ExpiresAt).Format(time.TimeOnly)
		}
		t.Append([]string{time.UnixMilli(m.Ts).Format(time.TimeOnly), m.By.Name, text, m.ID, expires})
	}
	t.Render()
}

func (p *printer) counter(c *api.CounterResponse) {
	fmt.Fprintf(p.w, "Counter: %s\n", color.Cyan.Sprint(strconv.FormatInt(c.Value, 10)))
	if c.LastWriter != nil {
		fmt.Fprintf(p.w, "Set by:  %s at %s\n", c.LastWriter.Name, time.UnixMilli(c.LastWriteTs).Format(time.TimeOnly))
	}
}

func (p *printer) event(e *api.WatchEvent) {
	fmt.Fprintf(p.w, "%s %s %s\n",
		time.UnixMilli(e.Ts).Format(time.TimeOnly),
		color.Yellow.Sprint(e.Kind),
		string(e.Payload))
}

func ago(now time.Time, ts int64) string {
	d := now.Sub(time.UnixMilli(ts))
	if d < time.Second {
		return "just now"
	}
	return d.Round(time.Second).String() + " ago"
}
