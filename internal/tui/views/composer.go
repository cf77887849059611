package views

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// Composer is the text input for messages and ':' commands.
type Composer struct {
	*tview.InputField
	onSubmit func(text string)
	onType   func()
}

// NewComposer creates a new message composer.
func NewComposer() *Composer {
	input := tview.NewInputField().
		SetLabel(" > ").
		SetPlaceholder("message, or :help").
		SetFieldWidth(0)

	c := &Composer{InputField: input}

	input.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter && c.onSubmit != nil {
			text := c.GetText()
			if text != "" {
				c.SetText("")
				c.onSubmit(text)
			}
		}
	})
	input.SetChangedFunc(func(text string) {
		if text != "" && c.onType != nil {
			c.onType()
		}
	})

	return c
}

// SetOnSubmit sets the callback for a submitted line.
func (c *Composer) SetOnSubmit(fn func(text string)) {
	c.onSubmit = fn
}

// SetOnType sets the callback run on every edit that leaves text behind.
func (c *Composer) SetOnType(fn func()) {
	c.onType = fn
}
