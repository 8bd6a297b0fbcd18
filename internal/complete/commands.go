package complete

// Command is one entry in the fixed slash-command registry. Registry order
// is ranking order; matches are never re-sorted.
type Command struct {
	Name        string
	Aliases     []string
	Description string
}

func (c Command) matches(query string) bool {
	if query == "" {
		return true
	}
	if contains(c.Name, query) {
		return true
	}
	for _, a := range c.Aliases {
		if contains(a, query) {
			return true
		}
	}
	return false
}

// DefaultCommands is the built-in registry in display order.
func DefaultCommands() []Command {
	return []Command{
		{Name: "new", Description: "Start a new session"},
		{Name: "sessions", Aliases: []string{"list"}, Description: "Browse sessions"},
		{Name: "clear", Aliases: []string{"reset"}, Description: "Clear the current session view"},
		{Name: "pin", Description: "Pin the current session"},
		{Name: "unpin", Description: "Unpin the current session"},
		{Name: "model", Description: "Switch model"},
		{Name: "thinking", Description: "Toggle thinking display"},
		{Name: "yolo", Description: "Toggle auto-approval of tool requests"},
		{Name: "workdir", Aliases: []string{"cd"}, Description: "Change the working directory"},
		{Name: "skills", Description: "List available skills"},
		{Name: "login", Description: "Configure authentication"},
		{Name: "logout", Description: "Clear stored credentials"},
		{Name: "help", Aliases: []string{"?"}, Description: "Show help"},
		{Name: "quit", Aliases: []string{"exit"}, Description: "Exit"},
	}
}
