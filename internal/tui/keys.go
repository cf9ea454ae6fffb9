package tui

import "github.com/charmbracelet/bubbles/key"

// Plain letters and home/end go to the filter input, so browser bindings stay
// on arrows and control keys.
type keyMap struct {
	Up          key.Binding
	Down        key.Binding
	Copy        key.Binding
	ClearFilter key.Binding
	HalfUp      key.Binding
	HalfDown    key.Binding
	PageUp      key.Binding
	PageDown    key.Binding
	Oldest      key.Binding
	Newest      key.Binding
	Quit        key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "ctrl+p"),
		key.WithHelp("up/dn", "conversation"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "ctrl+n"),
		key.WithHelp("up/dn", "conversation"),
	),
	Copy: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "copy transcript"),
	),
	ClearFilter: key.NewBinding(
		key.WithKeys("ctrl+l"),
		key.WithHelp("C-l", "clear filter"),
	),
	HalfUp: key.NewBinding(
		key.WithKeys("ctrl+u"),
		key.WithHelp("C-u/C-d", "scroll"),
	),
	HalfDown: key.NewBinding(
		key.WithKeys("ctrl+d"),
		key.WithHelp("C-u/C-d", "scroll"),
	),
	PageUp: key.NewBinding(
		key.WithKeys("pgup"),
	),
	PageDown: key.NewBinding(
		key.WithKeys("pgdown"),
	),
	Oldest: key.NewBinding(
		key.WithKeys("ctrl+home"),
		key.WithHelp("C-home/C-end", "oldest/newest"),
	),
	Newest: key.NewBinding(
		key.WithKeys("ctrl+end"),
	),
	Quit: key.NewBinding(
		key.WithKeys("esc", "ctrl+c"),
		key.WithHelp("esc", "quit"),
	),
}

// statusHelp lists the bindings shown in the status bar, one per action.
func (k keyMap) statusHelp() []key.Binding {
	return []key.Binding{k.Up, k.HalfUp, k.Oldest, k.ClearFilter, k.Copy, k.Quit}
}
