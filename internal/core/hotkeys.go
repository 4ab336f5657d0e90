package core

// Hotkey binds a key chord to a named action.  The table is built once
// during bootstrap and never mutated afterwards.
type Hotkey struct {
	Key    string
	Action string
}

func defaultHotkeys() []Hotkey {
	return []Hotkey{
		{Key: "space", Action: "play-pause"},
		{Key: "s", Action: "stop"},
		{Key: "n", Action: "next"},
		{Key: "p", Action: "prev"},
		{Key: "f", Action: "fullscreen"},
		{Key: "m", Action: "mute"},
		{Key: "ctrl+up", Action: "volume-up"},
		{Key: "ctrl+down", Action: "volume-down"},
		{Key: "ctrl+q", Action: "quit"},
	}
}
