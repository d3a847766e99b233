package ui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Quit    key.Binding
	Back    key.Binding
	Login   key.Binding
	Logout  key.Binding
	NewPost key.Binding
}

var Keys = KeyMap{
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Login:   key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "login")),
	Logout:  key.NewBinding(key.WithKeys("O"), key.WithHelp("O", "logout")),
	NewPost: key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new post")),
}
