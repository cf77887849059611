package tui

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/huddle/internal/api"
	"github.com/matheus3301/huddle/internal/bus"
	"github.com/matheus3301/huddle/internal/client"
	"github.com/matheus3301/huddle/internal/tui/keys"
	"github.com/matheus3301/huddle/internal/tui/model"
	"github.com/matheus3301/huddle/internal/tui/ui"
	"github.com/matheus3301/huddle/internal/tui/views"
	"github.com/rivo/tview"
)

const (
	paneRoster   = "roster"
	paneThread   = "thread"
	paneComposer = "composer"

	flashFor = 4 * time.Second
)

// App is the main TUI application shell.
type App struct {
	app       *tview.Application
	vm        *model.ViewModel
	grpc      *client.Client
	clock     clock.Clock
	registry  *keys.Registry
	theme     *ui.Theme
	roster    *views.Roster
	thread    *views.Thread
	composer  *views.Composer
	statusBar *views.StatusBar
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewApp creates the TUI application.
func NewApp(c *client.Client) *App {
	ctx, cancel := context.WithCancel(context.Background())
	clk := clock.New()
	theme := ui.DefaultTheme()

	a := &App{
		app:       tview.NewApplication(),
		vm:        model.NewViewModel(c.Session, clk),
		grpc:      c,
		clock:     clk,
		registry:  keys.NewRegistry(),
		theme:     theme,
		roster:    views.NewRoster(theme),
		thread:    views.NewThread(),
		composer:  views.NewComposer(),
		statusBar: views.NewStatusBar(theme),
		ctx:       ctx,
		cancel:    cancel,
	}

	a.setupBindings()
	a.setupCallbacks()
	a.setupLayout()

	return a
}

func (a *App) setupBindings() {
	a.registry.AddGlobal("quit", &keys.Action{
		Rune: 'q', Key: tcell.KeyRune,
		Description: "q:quit", Visible: true,
		Handler: a.Stop,
	})
	a.registry.AddGlobal("compose", &keys.Action{
		Rune: 'i', Key: tcell.KeyRune,
		Description: "i:compose", Visible: true,
		Handler: func() { a.focus(a.composer.InputField) },
	})
	a.registry.AddGlobal("inc", &keys.Action{
		Rune: '+', Key: tcell.KeyRune,
		Description: "+/-:counter", Visible: true,
		Handler: func() { a.stepCounter(1) },
	})
	a.registry.AddGlobal("dec", &keys.Action{
		Rune: '-', Key: tcell.KeyRune,
		Handler: func() { a.stepCounter(-1) },
	})
	a.registry.AddPane(paneThread, "delete", &keys.Action{
		Rune: 'd', Key: tcell.KeyRune,
		Description: "d:delete last", Visible: true,
		Handler: a.deleteLastOwn,
	})
}

func (a *App) setupCallbacks() {
	a.composer.SetOnType(func() {
		go a.vm.Keystroke(a.ctx)
	})

	a.composer.SetOnSubmit(func(line string) {
		intent, err := ParseInput(line)
		if err != nil {
			a.notice(err)
			return
		}
		if intent.Kind == IntentQuit {
			a.Stop()
			return
		}
		go func() {
			a.flash(a.apply(intent))
			a.refresh(a.vm.LoadRoster)
		}()
	})
}

func (a *App) apply(in Intent) error {
	switch in.Kind {
	case IntentSend:
		return a.vm.Send(a.ctx, in.Text, in.ExpiresIn)
	case IntentDelete:
		return a.vm.Delete(a.ctx, in.MessageID)
	case IntentSetCounter:
		return a.vm.SetCounter(a.ctx, in.Value)
	case IntentStepCounter:
		return a.vm.StepCounter(a.ctx, in.Value)
	}
	return nil
}

func (a *App) setupLayout() {
	body := tview.NewFlex().
		AddItem(a.roster, 28, 0, false).
		AddItem(tview.NewFlex().
			SetDirection(tview.FlexRow).
			AddItem(a.thread, 0, 1, false).
			AddItem(a.composer, 1, 0, true), 0, 1, true)

	root := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(body, 0, 1, true).
		AddItem(a.statusBar, 1, 0, false)

	a.app.SetRoot(root, true)
	a.focus(a.thread.TextView)

	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		pane := a.pane()

		switch event.Key() {
		case tcell.KeyTab:
			a.cycleFocus()
			return nil
		case tcell.KeyEscape:
			if pane == paneComposer {
				go a.vm.StopTyping(a.ctx)
				a.focus(a.thread.TextView)
				return nil
			}
		}

		// Let the composer handle all keys normally.
		if pane == paneComposer {
			return event
		}

		if a.registry.HandleEvent(pane, event) {
			return nil
		}
		return event
	})
}

func (a *App) pane() string {
	switch a.app.GetFocus() {
	case a.composer.InputField:
		return paneComposer
	case a.roster.Table:
		return paneRoster
	default:
		return paneThread
	}
}

func (a *App) focus(p tview.Primitive) {
	for _, box := range []*tview.Box{a.roster.Box, a.thread.Box} {
		box.SetBorderColor(a.theme.BorderColor)
	}
	switch p {
	case a.roster.Table:
		a.roster.SetBorderColor(a.theme.BorderFocusColor)
	case a.thread.TextView:
		a.thread.SetBorderColor(a.theme.BorderFocusColor)
	}
	a.app.SetFocus(p)
	a.statusBar.SetHints(a.registry.Hints(a.pane()))
}

func (a *App) cycleFocus() {
	switch a.pane() {
	case paneRoster:
		a.focus(a.thread.TextView)
	case paneThread:
		a.focus(a.composer.InputField)
	default:
		a.focus(a.roster.Table)
	}
}

func (a *App) stepCounter(delta int64) {
	go func() {
		a.flash(a.vm.StepCounter(a.ctx, delta))
		a.redraw()
	}()
}

func (a *App) deleteLastOwn() {
	id := a.thread.LastOwn()
	if id == "" {
		a.notice(errors.New("no message of yours to delete"))
		return
	}
	go func() {
		a.flash(a.vm.Delete(a.ctx, id))
		a.redraw()
	}()
}

// flash shows err on the status bar; a nil err is ignored.
func (a *App) flash(err error) {
	if err == nil {
		return
	}
	a.vm.Flash.Error(err.Error(), flashFor)
	a.redraw()
}

// notice is flash for callers already on the UI goroutine.
func (a *App) notice(err error) {
	a.vm.Flash.Error(err.Error(), flashFor)
	a.statusBar.SetFlash(a.vm.Flash.Get())
}

// refresh runs load and redraws the screen.
func (a *App) refresh(loads ...func(context.Context) error) {
	for _, load := range loads {
		if err := load(a.ctx); err != nil {
			a.flash(err)
			return
		}
	}
	a.redraw()
}

func (a *App) redraw() {
	a.app.QueueUpdateDraw(a.render)
}

// render copies the view model into the widgets. Runs on the UI goroutine.
func (a *App) render() {
	roster, msgs, counter, status := a.vm.Snapshot()
	now := a.clock.Now()
	self := a.vm.SelfID()

	a.roster.Update(roster, self, now)
	a.thread.Update(msgs, self, now)
	a.statusBar.SetStatus(status)
	a.statusBar.SetCounter(counter)
	a.statusBar.SetFlash(a.vm.Flash.Get())
	a.statusBar.SetHints(a.registry.Hints(a.pane()))
}

// Run starts the TUI application.
func (a *App) Run() error {
	go func() {
		a.refresh(a.vm.LoadAll)
		go a.watch()
		a.tick()
	}()

	return a.app.Run()
}

// watch reloads the slice of state named by each daemon event.
func (a *App) watch() {
	stream, err := a.grpc.Session.Watch(a.ctx, &api.WatchRequest{})
	if err != nil {
		a.flash(err)
		return
	}
	for {
		evt, err := stream.Recv()
		if err != nil {
			if !errors.Is(err, io.EOF) && a.ctx.Err() == nil {
				a.flash(err)
			}
			return
		}
		switch evt.Kind {
		case bus.KindPresenceChanged:
			a.refresh(a.vm.LoadRoster)
		case bus.KindChatChanged:
			a.refresh(a.vm.LoadMessages)
		case bus.KindCounterChanged:
			a.refresh(a.vm.LoadCounter)
		case bus.KindStatusChanged:
			a.refresh(a.vm.LoadStatus)
		}
	}
}

// tick refreshes liveness and expiry countdowns, which change without events.
func (a *App) tick() {
	ticker := a.clock.Ticker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			a.refresh(a.vm.LoadRoster)
		case <-a.ctx.Done():
			return
		}
	}
}

// Stop clears the typing indicator and shuts down the TUI.
func (a *App) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	a.vm.StopTyping(ctx)
	a.cancel()
	a.app.Stop()
}
