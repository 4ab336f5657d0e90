package config

// ── Compiled option schemas ──────────────────────────────────────────
//
// Two-phase schema: HelpItems and CoreItems are always available so
// that --help and --version work even when module discovery fails;
// module-declared options are merged in after discovery.

// HelpItems is the minimal schema injected before command-line parsing
// and retired once the full schema is merged.
func HelpItems() []Item {
	return []Item{
		{Name: "help", Type: TypeBool, Short: "h", Text: "print help and exit"},
		{Name: "longhelp", Type: TypeBool, Short: "H", Text: "print help on all options and exit"},
		{Name: "version", Type: TypeBool, Text: "print version information and exit"},
		{Name: "list", Type: TypeBool, Text: "print a list of available modules and exit"},
		{Name: "module", Type: TypeString, Short: "p", Text: "print help on a specific module and exit"},
		{Name: "reset-config", Type: TypeBool, Text: "reset the configuration to defaults"},
		{Name: "save-config", Type: TypeBool, Text: "save the current configuration"},
		{Name: "reset-plugins-cache", Type: TypeBool, Text: "delete the plugins cache before discovery"},
	}
}

// CoreItems is the configuration of the core itself, loaded together
// with the module bank so a short help can be produced early.
func CoreItems() []Item {
	return []Item{
		{Name: "verbose", Type: TypeInt, Short: "v", DefInt: 0, Text: "verbosity level (-1..2)"},
		{Name: "quiet", Type: TypeBool, Short: "q", Text: "errors-only output"},
		{Name: "color", Type: TypeBool, DefBool: true, Text: "colorized messages when on a terminal"},
		{Name: "language", Type: TypeString, DefString: "auto", Text: "interface language code"},

		{Name: "config", Type: TypePath, Text: "configuration file to use"},
		{Name: "plugin-path", Type: TypePath, DefString: "~/plugins", Text: "directory scanned for plugin descriptors"},

		{Name: "daemon", Type: TypeBool, Text: "run as a background process"},
		{Name: "pidfile", Type: TypePath, Text: "write the daemon process id to this file"},

		{Name: "one-instance", Type: TypeBool, Text: "allow only one running instance, forwarding targets to it"},
		{Name: "playlist-enqueue", Type: TypeBool, Text: "enqueue forwarded targets instead of playing them"},

		{Name: "intf", Type: TypeString, Text: "main interface module"},
		{Name: "extraintf", Type: TypeString, Text: "extra interface modules, colon-separated"},
		{Name: "control", Type: TypeString, Text: "control interface modules, colon-separated"},
		{Name: "file-logging", Type: TypeBool, Text: "log messages to a file"},

		{Name: "open", Type: TypeString, Text: "default target to open at startup"},
		{Name: "services-discovery", Type: TypeString, Text: "services discovery modules, comma-separated"},

		{Name: "stats", Type: TypeBool, Text: "collect and dump timing statistics"},
		{Name: "copy", Type: TypeString, Text: "preferred copy strategy module"},

		{Name: "fpu", Type: TypeBool, DefBool: true, Text: "use the FPU when available"},
		{Name: "mmx", Type: TypeBool, DefBool: true, Text: "use MMX when available"},
		{Name: "mmxext", Type: TypeBool, DefBool: true, Text: "use MMXEXT when available"},
		{Name: "3dn", Type: TypeBool, DefBool: true, Text: "use 3DNow! when available"},
		{Name: "sse", Type: TypeBool, DefBool: true, Text: "use SSE when available"},
		{Name: "sse2", Type: TypeBool, DefBool: true, Text: "use SSE2 when available"},
	}
}
