package update

import "github.com/charmbracelet/bubbles/key"

// globalKeyHelp adapts the global key map to the bubbles help widget.
type globalKeyHelp struct {
	keys GlobalKeyMap
}

func (h globalKeyHelp) ShortHelp() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys(h.keys.Tasks), key.WithHelp(h.keys.Tasks, "tasks")),
		key.NewBinding(key.WithKeys(h.keys.Calendar), key.WithHelp(h.keys.Calendar, "calendar")),
		key.NewBinding(key.WithKeys(h.keys.Focus), key.WithHelp(h.keys.Focus, "focus")),
		key.NewBinding(key.WithKeys(h.keys.Forest), key.WithHelp(h.keys.Forest, "forest")),
		key.NewBinding(key.WithKeys(h.keys.Workspaces), key.WithHelp(h.keys.Workspaces, "workspaces")),
		key.NewBinding(key.WithKeys(h.keys.Quit), key.WithHelp(h.keys.Quit, "quit")),
	}
}

func (h globalKeyHelp) FullHelp() [][]key.Binding {
	return [][]key.Binding{h.ShortHelp()}
}
