package keys

import (
	"slices"

	"github.com/gdamore/tcell/v2"
	"github.com/samber/lo"
)

// Action represents a keybinding action.
type Action struct {
	Key         tcell.Key
	Rune        rune
	Description string
	Handler     func()
	Visible     bool
}

// Matches returns true if the event matches this action.
func (a *Action) Matches(ev *tcell.EventKey) bool {
	if a.Key != tcell.KeyRune {
		return ev.Key() == a.Key
	}
	return ev.Key() == tcell.KeyRune && ev.Rune() == a.Rune
}

// Registry holds keybindings for the whole screen and for single panes.
type Registry struct {
	global map[string]*Action
	panes  map[string]map[string]*Action
}

// NewRegistry creates a new keybinding registry.
func NewRegistry() *Registry {
	return &Registry{
		global: make(map[string]*Action),
		panes:  make(map[string]map[string]*Action),
	}
}

// AddGlobal registers a binding active in every pane except text input.
func (r *Registry) AddGlobal(name string, action *Action) {
	r.global[name] = action
}

// AddPane registers a binding active only while pane has focus.
func (r *Registry) AddPane(pane, name string, action *Action) {
	if r.panes[pane] == nil {
		r.panes[pane] = make(map[string]*Action)
	}
	r.panes[pane][name] = action
}

// Hints returns the visible binding descriptions for pane, pane bindings
// first, each group sorted by name.
func (r *Registry) Hints(pane string) []string {
	return append(visible(r.panes[pane]), visible(r.global)...)
}

func visible(actions map[string]*Action) []string {
	names := lo.Keys(actions)
	slices.Sort(names)
	return lo.FilterMap(names, func(name string, _ int) (string, bool) {
		a := actions[name]
		return a.Description, a.Visible
	})
}

// HandleEvent dispatches a key event to the matching action, preferring the
// pane's own bindings. Returns true if a handler ran.
func (r *Registry) HandleEvent(pane string, ev *tcell.EventKey) bool {
	for _, actions := range []map[string]*Action{r.panes[pane], r.global} {
		for _, a := range actions {
			if a.Matches(ev) {
				a.Handler()
				return true
			}
		}
	}
	return false
}
