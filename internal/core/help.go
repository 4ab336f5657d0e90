package core

import (
	"fmt"
	"io"
	"runtime"
	"sort"

	"github.com/schokhani1999/vlc/config"
	"github.com/schokhani1999/vlc/modules"
)

// Version is stamped by the build; the default marks development
// binaries.
var Version = "1.0.0-dev"

// PrintVersion writes the one-line version banner.
func PrintVersion(w io.Writer, name string) {
	fmt.Fprintf(w, "%s %s (%s/%s, %s)\n",
		name, Version, runtime.GOOS, runtime.GOARCH, runtime.Version())
}

// PrintHelp writes the option summary for every registered schema
// item.  Long form adds the value type and default.
func PrintHelp(w io.Writer, name string, s *config.Store, long bool) {
	fmt.Fprintf(w, "Usage: %s [options] [target]...\n\nOptions:\n", name)
	for _, it := range s.Items() {
		flag := "    --" + it.Name
		if it.Short != "" {
			flag = "-" + it.Short + ", --" + it.Name
		}
		fmt.Fprintf(w, "  %-28s %s\n", flag, it.Text)
		if long {
			fmt.Fprintf(w, "  %-28s   (%s, default %v)\n", "", it.Type, it.Default().Interface())
		}
	}
	fmt.Fprintf(w, "\nOptions after a target, prefixed with ':', apply to that target only.\n")
}

// PrintModuleList writes one line per known module with its
// capabilities.
func PrintModuleList(w io.Writer, bank *modules.Bank) {
	fmt.Fprintf(w, "Available modules:\n")
	for _, m := range bank.Modules() {
		caps := make([]string, 0, len(m.Capabilities))
		for c, score := range m.Capabilities {
			caps = append(caps, fmt.Sprintf("%s:%d", c, score))
		}
		sort.Strings(caps)
		fmt.Fprintf(w, "  %-16s %s %v\n", m.Name, m.Description, caps)
	}
}

// PrintModuleHelp writes the declared options of one module.
func PrintModuleHelp(w io.Writer, bank *modules.Bank, name string) error {
	m := bank.Find(name)
	if m == nil {
		return fmt.Errorf("no module named %q", name)
	}
	fmt.Fprintf(w, "%s: %s\n", m.Name, m.Description)
	if len(m.Options) == 0 {
		fmt.Fprintf(w, "  (no options)\n")
		return nil
	}
	for _, it := range m.Options {
		fmt.Fprintf(w, "  --%-26s %s\n", it.Name, it.Text)
	}
	return nil
}
