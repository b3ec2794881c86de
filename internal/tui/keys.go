package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Submit key.Binding
	Retry  key.Binding
	Style  key.Binding
	Clear  key.Binding
	Focus  key.Binding
	Up     key.Binding
	Down   key.Binding
	Copy   key.Binding
	Export key.Binding
	Help   key.Binding
	Quit   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Submit: key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "summarize")),
		Retry:  key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "try again")),
		Style:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "style")),
		Clear:  key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "clear")),
		Focus:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "input/history")),
		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "newer")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "older")),
		Copy:   key.NewBinding(key.WithKeys("ctrl+y"), key.WithHelp("ctrl+y", "copy")),
		Export: key.NewBinding(key.WithKeys("ctrl+e"), key.WithHelp("ctrl+e", "export")),
		Help:   key.NewBinding(key.WithKeys("f1"), key.WithHelp("f1", "help")),
		Quit:   key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

// ShortHelp implements help.KeyMap
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Style, k.Focus, k.Copy, k.Export, k.Clear, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.Retry, k.Style, k.Clear},
		{k.Focus, k.Up, k.Down},
		{k.Copy, k.Export, k.Help, k.Quit},
	}
}
