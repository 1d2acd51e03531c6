package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds every binding the views match against
type KeyMap struct {
	Quit   key.Binding
	Back   key.Binding
	Enter  key.Binding
	Tab    key.Binding
	Up     key.Binding
	Down   key.Binding
	Left   key.Binding
	Right  key.Binding
	New    key.Binding
	Edit   key.Binding
	Delete key.Binding
	Save   key.Binding

	Search   key.Binding
	Priority key.Binding
	Status   key.Binding
	Sort     key.Binding
	Project  key.Binding
	Clear    key.Binding
	Refresh  key.Binding

	CycleStatus key.Binding
	Complete    key.Binding
	Select      key.Binding
	BulkDelete  key.Binding
	BulkDone    key.Binding
	Comment     key.Binding

	Accept key.Binding
	Invite key.Binding
	Login  key.Binding
	Logout key.Binding
	Help   key.Binding
}

// DefaultKeyMap returns the standard bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Back:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Enter:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("↵", "open")),
		Tab:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Left:   key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev page")),
		Right:  key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next page")),
		New:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
		Edit:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		Delete: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Save:   key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),

		Search:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Priority: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "priority filter")),
		Status:   key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "status filter")),
		Sort:     key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "sort order")),
		Project:  key.NewBinding(key.WithKeys("P"), key.WithHelp("P", "project filter")),
		Clear:    key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "clear filters")),
		Refresh:  key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "refresh")),

		CycleStatus: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "next status")),
		Complete:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "complete")),
		Select:      key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "select")),
		BulkDelete:  key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "delete selected")),
		BulkDone:    key.NewBinding(key.WithKeys("X"), key.WithHelp("X", "complete selected")),
		Comment:     key.NewBinding(key.WithKeys("c", "a"), key.WithHelp("c", "comment")),

		Accept: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "accept")),
		Invite: key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "invite")),
		Login:  key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "log in")),
		Logout: key.NewBinding(key.WithKeys("ctrl+x"), key.WithHelp("ctrl+x", "log out")),
		Help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	}
}
