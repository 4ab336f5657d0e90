package modules

import "github.com/schokhani1999/vlc/config"

// LoadBuiltins registers the modules compiled into the binary:
// the interface modules and the copy strategies.
func (b *Bank) LoadBuiltins() error {
	builtins := []*Module{
		{
			Name:         "dummy",
			Description:  "Dummy interface",
			Capabilities: map[string]int{"interface": 1},
			Builtin:      true,
		},
		{
			Name:         "logger",
			Description:  "Logging interface",
			Capabilities: map[string]int{"interface": 10},
			Options: []config.Item{
				{Name: "logfile", Type: config.TypePath, Text: "file to write log messages to"},
			},
			Builtin: true,
		},
		{
			Name:         "hotkeys",
			Description:  "Hotkey handling interface",
			Capabilities: map[string]int{"interface": 20},
			Builtin:      true,
		},
		{
			Name:         "control",
			Description:  "Remote control interface over the local bus",
			Capabilities: map[string]int{"interface": 30},
			Builtin:      true,
		},
		{
			Name:         "copy-generic",
			Description:  "Generic byte copy",
			Capabilities: map[string]int{"copy": 1},
			Builtin:      true,
		},
		{
			Name:         "copy-pooled",
			Description:  "Pooled buffer copy for vector-capable hosts",
			Capabilities: map[string]int{"copy": 50},
			Builtin:      true,
		},
	}

	for _, m := range builtins {
		if err := b.add(m); err != nil {
			return err
		}
	}
	return nil
}
