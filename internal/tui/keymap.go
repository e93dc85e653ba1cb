package tui

import "charm.land/bubbles/v2/key"

// keyMap lists the board and task-detail bindings.
type keyMap struct {
	quit          key.Binding
	reload        key.Binding
	toggleHelp    key.Binding
	closeDetail   key.Binding
	toggleSubtask key.Binding
	deleteTask    key.Binding
	search        key.Binding
	addTask       key.Binding
	scrollLeft    key.Binding
	scrollRight   key.Binding
	scrollUp      key.Binding
	scrollDown    key.Binding
}

// newKeyMap constructs the default bindings.
func newKeyMap() keyMap {
	return keyMap{
		quit:          key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		reload:        key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		toggleHelp:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		closeDetail:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close task")),
		toggleSubtask: key.NewBinding(key.WithKeys("x"), key.WithHelp("x+1..9", "toggle subtask")),
		deleteTask:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete task")),
		search:        key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		addTask:       key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add task")),
		scrollLeft:    key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "scroll left")),
		scrollRight:   key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "scroll right")),
		scrollUp:      key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "scroll up")),
		scrollDown:    key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "scroll down")),
	}
}

// ShortHelp returns the footer bindings.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.search, k.addTask, k.reload, k.toggleHelp, k.quit}
}

// FullHelp returns the grouped bindings shown in the help overlay.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.search, k.addTask, k.reload, k.toggleHelp, k.quit},
		{k.scrollLeft, k.scrollRight, k.scrollUp, k.scrollDown},
		{k.closeDetail, k.toggleSubtask, k.deleteTask},
	}
}
