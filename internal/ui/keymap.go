package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings of the shortcut manager. It implements
// help.KeyMap.
type KeyMap struct {
	Add             key.Binding
	ToggleTemporary key.Binding
	Accept          key.Binding
	PrevField       key.Binding
	Dismiss         key.Binding
	Remove          key.Binding
	Quit            key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Add: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "add"),
		),
		ToggleTemporary: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "temporary"),
		),
		Accept: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "accept suggestion / next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "previous field"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "dismiss"),
		),
		Remove: key.NewBinding(
			key.WithKeys("delete", "ctrl+d"),
			key.WithHelp("del", "remove selected"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Add, k.ToggleTemporary, k.Accept, k.Remove, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Add, k.ToggleTemporary},
		{k.Accept, k.PrevField, k.Dismiss},
		{k.Remove, k.Quit},
	}
}
