package core

// steps.go - the named bootstrap steps, in execution order.
//
// Ordering constraints that matter:
//   - the help schema is registered before command-line parsing so
//     --help/--version work even when module discovery fails;
//   - module discovery runs before the config file is loaded, so
//     module-declared defaults exist when the file overlays them;
//   - a configured language that differs from the bootstrap locale
//     re-runs the bank-init..cmdline-parse window exactly once, with
//     the plugin cache-delete flag carried across the re-run.

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/schokhani1999/vlc/config"
	"github.com/schokhani1999/vlc/internal/bus"
	"github.com/schokhani1999/vlc/internal/capability"
	"github.com/schokhani1999/vlc/internal/coordinator"
	"github.com/schokhani1999/vlc/internal/daemon"
	vlcerrors "github.com/schokhani1999/vlc/internal/errors"
	"github.com/schokhani1999/vlc/internal/logging"
	"github.com/schokhani1999/vlc/intf"
	"github.com/schokhani1999/vlc/playlist"
	"github.com/schokhani1999/vlc/util"
)

func bootstrapSteps() []Step {
	return []Step{
		{Name: "system-init", Fn: stepSystemInit},
		{Name: "name-resolution", Fn: stepNameResolution},
		{Name: "locale-init", Fn: stepLocaleInit},
		{Name: "module-bank-init", Fn: stepModuleBankInit},
		{Name: "help-module-inject", Fn: stepHelpModuleInject},
		{Name: "command-line-parse", Fn: stepCommandLineParse},
		{Name: "help-or-version-check", Fn: stepHelpOrVersionCheck},
		{Name: "config-path-resolve", Fn: stepConfigPathResolve},
		{Name: "daemonize-if-requested", Fn: stepDaemonizeIfRequested},
		{Name: "language-reload", Fn: stepLanguageReload},
		{Name: "module-discovery", Fn: stepModuleDiscovery},
		{Name: "help-module-removal", Fn: stepHelpModuleRemoval},
		{Name: "config-file-load", Fn: stepConfigFileLoad},
		{Name: "command-line-reapply", Fn: stepCommandLineReapply},
		{Name: "system-configure", Fn: stepSystemConfigure},
		{Name: "single-instance-check", Fn: stepSingleInstanceCheck},
		{Name: "verbosity-wiring", Fn: stepVerbosityWiring},
		{Name: "capability-override", Fn: stepCapabilityOverride},
		{Name: "copy-strategy-select", Fn: stepCopyStrategySelect},
		{Name: "hotkey-table-init", Fn: stepHotkeyTableInit},
		{Name: "playlist-create", Fn: stepPlaylistCreate},
		{Name: "extra-interface-load", Fn: stepExtraInterfaceLoad},
		{Name: "target-enqueue", Fn: stepTargetEnqueue},
	}
}

// reloadWindow is the slice of steps re-run once when the configured
// language differs from the bootstrap locale.
func reloadWindow() []Step {
	return []Step{
		{Name: "module-bank-init", Fn: stepModuleBankInit},
		{Name: "help-module-inject", Fn: stepHelpModuleInject},
		{Name: "command-line-parse", Fn: stepCommandLineParse},
	}
}

// ── Early environment ────────────────────────────────────────────────

func stepSystemInit(_ context.Context, r *Run) error {
	i := r.Inst
	i.Log.Debug().
		Stringer("id", i.ID).
		Str("capabilities", i.shared.Caps.String()).
		Msg("starting engine instance")
	return nil
}

func stepNameResolution(_ context.Context, r *Run) error {
	i := r.Inst
	home, err := os.UserHomeDir()
	if err != nil {
		// No home directory: path options stay relative.
		i.Log.Warn().Err(err).Msg("cannot resolve the home directory")
		home = "."
	}
	i.HomeDir = home
	i.UserDir = filepath.Join(home, ".vlc")
	i.Store.SetUserDir(i.UserDir)
	return nil
}

func stepLocaleInit(_ context.Context, r *Run) error {
	locale := os.Getenv("LC_ALL")
	if locale == "" {
		locale = os.Getenv("LANG")
	}
	if locale == "" {
		locale = "C"
	}
	// Strip the charset suffix: "en_US.UTF-8" carries the same
	// translations as "en_US".
	if i := strings.IndexByte(locale, '.'); i >= 0 {
		locale = locale[:i]
	}
	r.Inst.Locale = locale
	return nil
}

// ── Module bank and the help window ──────────────────────────────────

func stepModuleBankInit(_ context.Context, r *Run) error {
	i := r.Inst
	i.shared.Bank.Init()
	i.bankRefs++
	r.OnUnwind("module-bank-init", func() {
		if i.bankRefs > 0 {
			i.shared.Bank.End()
			i.bankRefs--
		}
	})
	return nil
}

func stepHelpModuleInject(_ context.Context, r *Run) error {
	r.Inst.Store.Register(config.HelpItems())
	r.Inst.Store.Register(config.CoreItems())
	return nil
}

func stepCommandLineParse(_ context.Context, r *Run) error {
	i := r.Inst
	fs := config.FlagSet(i.Name, i.Store)
	fs.Usage = func() {} // help is a step outcome, not a parse side effect
	if err := fs.Parse(r.Args); err != nil {
		return vlcerrors.Failure(vlcerrors.KindConfigParse, err)
	}
	r.fs = fs
	r.trailing = fs.Args()
	return config.CmdLinePass(fs).Apply(i.Store)
}

func stepHelpOrVersionCheck(_ context.Context, r *Run) error {
	i := r.Inst
	switch {
	case i.Store.GetBool("version"):
		PrintVersion(os.Stdout, i.Name)
	case i.Store.GetBool("help"):
		PrintHelp(os.Stdout, i.Name, i.Store, false)
	case i.Store.GetBool("longhelp"):
		PrintHelp(os.Stdout, i.Name, i.Store, true)
	case i.Store.GetBool("list"):
		if err := ensureBuiltins(i); err != nil {
			return err
		}
		PrintModuleList(os.Stdout, i.shared.Bank)
	case i.Store.GetString("module") != "":
		if err := ensureBuiltins(i); err != nil {
			return err
		}
		if err := PrintModuleHelp(os.Stdout, i.shared.Bank, i.Store.GetString("module")); err != nil {
			return vlcerrors.Failure(vlcerrors.KindModuleBank, err)
		}
	default:
		return nil
	}
	return vlcerrors.Exit(0)
}

// ensureBuiltins loads the compiled-in modules early so the help paths
// can enumerate them before full discovery.
func ensureBuiltins(i *Instance) error {
	if i.shared.Bank.Count() > 0 {
		return nil
	}
	if err := i.shared.Bank.LoadBuiltins(); err != nil {
		return vlcerrors.Failure(vlcerrors.KindModuleBank, err)
	}
	return nil
}

// ── Paths, daemon, locale reload ─────────────────────────────────────

func stepConfigPathResolve(_ context.Context, r *Run) error {
	i := r.Inst
	if path := i.Store.GetPath("config"); path != "" {
		i.ConfigFile = path
	} else {
		i.ConfigFile = filepath.Join(i.UserDir, "vlcrc.toml")
	}
	r.resetConfig = i.Store.GetBool("reset-config")
	if r.resetConfig {
		i.Log.Info().Str("file", i.ConfigFile).Msg("ignoring saved configuration")
	}
	return nil
}

func stepDaemonizeIfRequested(_ context.Context, r *Run) error {
	i := r.Inst
	if !i.Store.GetBool("daemon") {
		return nil
	}

	outcome, err := daemon.Daemonize()
	switch outcome {
	case daemon.ParentShouldExit:
		return vlcerrors.Exit(0)
	case daemon.Failed:
		return vlcerrors.Failure(vlcerrors.KindGeneric, err)
	}

	pidfile := i.Store.GetPath("pidfile")
	if err := daemon.WritePID(pidfile); err != nil {
		return vlcerrors.Failure(vlcerrors.KindGeneric, err)
	}
	if pidfile != "" {
		r.OnUnwind("daemonize-if-requested", func() { daemon.RemovePID(pidfile) })
	}
	return nil
}

func stepLanguageReload(ctx context.Context, r *Run) error {
	i := r.Inst
	if r.reloaded {
		return nil
	}

	// The language may live only in the config file, which the full
	// resolution has not loaded yet: overlay the core keys from the
	// file, then re-apply the command line so an explicit flag still
	// wins.
	if !r.resetConfig {
		if err := config.LoadConfigFile(i.Store, i.ConfigFile); err != nil {
			return vlcerrors.Failure(vlcerrors.KindConfigParse, err)
		}
	}
	if err := config.CmdLinePass(r.fs).Apply(i.Store); err != nil {
		return vlcerrors.Failure(vlcerrors.KindConfigParse, err)
	}

	lang := i.Store.GetString("language")
	if lang == "" || lang == "auto" || lang == i.Locale {
		return nil
	}

	// The configured language invalidates everything parsed under the
	// bootstrap locale: drop the bank share and run the window again.
	// Exactly once, carrying the cache-delete flag across.
	r.reloaded = true
	i.Log.Info().Str("from", i.Locale).Str("to", lang).Msg("reloading for language change")
	i.Locale = lang

	cacheDelete := i.shared.Bank.CacheDelete()
	if i.bankRefs > 0 {
		i.shared.Bank.End()
		i.bankRefs--
	}
	for _, step := range reloadWindow() {
		if err := step.Fn(ctx, r); err != nil {
			return err
		}
	}
	i.shared.Bank.SetCacheDelete(cacheDelete)
	return nil
}

// ── Discovery and full configuration ─────────────────────────────────

func stepModuleDiscovery(_ context.Context, r *Run) error {
	i := r.Inst
	bank := i.shared.Bank
	bank.SetCacheDelete(i.Store.GetBool("reset-plugins-cache"))

	if bank.Loaded() {
		// Another instance already ran discovery on the shared bank.
		return nil
	}
	if err := ensureBuiltins(i); err != nil {
		return err
	}
	if err := bank.LoadPlugins(i.Store.GetPath("plugin-path")); err != nil {
		return vlcerrors.Failure(vlcerrors.KindModuleBank, err)
	}
	i.Log.Debug().Int("modules", bank.Count()).Msg("module discovery complete")
	return nil
}

func stepHelpModuleRemoval(_ context.Context, r *Run) error {
	r.Inst.Store.CompleteHelpPhase()
	return nil
}

func stepConfigFileLoad(_ context.Context, r *Run) error {
	i := r.Inst
	file := i.ConfigFile
	if r.resetConfig {
		file = ""
	}
	r.pipeline = &config.Pipeline{
		Passes: []config.Pass{
			config.DefaultsPass(),
			config.ItemsPass("modules", i.shared.Bank.OptionItems()),
			config.FilePass(file),
		},
		CacheDelete: i.shared.Bank.CacheDelete(),
	}
	if err := r.pipeline.Resolve(i.Store); err != nil {
		return vlcerrors.Failure(vlcerrors.KindConfigParse, err)
	}
	return nil
}

func stepCommandLineReapply(_ context.Context, r *Run) error {
	i := r.Inst
	// Full schema, strict parse: an unknown flag is now a real error.
	fs := config.FlagSet(i.Name, i.Store)
	fs.Usage = func() {}
	if err := fs.Parse(r.Args); err != nil {
		return vlcerrors.Failure(vlcerrors.KindConfigParse, err)
	}
	r.fs = fs
	r.trailing = fs.Args()

	pass := config.CmdLinePass(fs)
	if err := pass.Apply(i.Store); err != nil {
		return vlcerrors.Failure(vlcerrors.KindConfigParse, err)
	}
	r.pipeline.Passes = append(r.pipeline.Passes, pass)
	return nil
}

func stepSystemConfigure(_ context.Context, r *Run) error {
	i := r.Inst
	i.Stats = i.Store.GetBool("stats")

	if i.Store.GetBool("save-config") {
		if err := config.SaveConfigFile(i.Store, i.ConfigFile); err != nil {
			return vlcerrors.Failure(vlcerrors.KindConfigParse, err)
		}
		i.Log.Info().Str("file", i.ConfigFile).Msg("configuration saved")
	}
	return nil
}

// ── Single instance ──────────────────────────────────────────────────

func stepSingleInstanceCheck(_ context.Context, r *Run) error {
	i := r.Inst
	i.bus = bus.New(bus.DefaultDir(), i.Log)
	r.OnUnwind("single-instance-check", func() {
		if i.bus != nil {
			i.bus.Close()
			i.bus = nil
		}
	})

	single := i.Store.GetBool("one-instance")
	i.coord = coordinator.New(i.bus, coordinator.EndpointName, single, i.Log)

	outcome, err := i.coord.ClaimOrDetect()
	switch outcome {
	case coordinator.OutcomePrimary:
		return nil
	case coordinator.OutcomeSecondary:
		// A claim error (not a live peer) also lands here.  Under the
		// single-instance policy an unreachable bus means the policy
		// cannot be enforced, so the bootstrap fails; without it the
		// instance runs uncoordinated.
		if err != nil {
			if single {
				return err
			}
			i.Log.Warn().Err(err).Msg("local bus unavailable, continuing uncoordinated")
		}
		return nil
	case coordinator.OutcomePeerUnreachable:
		return err
	case coordinator.OutcomePeerFound:
		items := forwardItems(r)
		if err := i.coord.Forward(items); err != nil {
			return err
		}
		for range items {
			i.Metrics.ItemForwarded()
		}
		i.Log.Info().Int("items", len(items)).Msg("targets handed to the running instance")
		return vlcerrors.Exit(0)
	}
	return err
}

// forwardItems flattens the run's targets into ordered work items for
// the peer.  Per-target options cannot cross the process boundary and
// are dropped with a warning.
func forwardItems(r *Run) []coordinator.WorkItem {
	enqueue := r.Inst.Store.GetBool("playlist-enqueue")
	targets := parseTargets(r.Inst, r.trailing, r.Inst.Store.GetString("open"))
	items := make([]coordinator.WorkItem, 0, len(targets))
	for _, tgt := range targets {
		if len(tgt.Options) > 0 {
			r.Inst.Log.Warn().Str("target", tgt.URI).
				Msg("per-target options are not forwarded")
		}
		items = append(items, coordinator.WorkItem{Target: tgt.URI, Enqueue: enqueue})
	}
	return items
}

// ── Instance wiring ──────────────────────────────────────────────────

func stepVerbosityWiring(_ context.Context, r *Run) error {
	i := r.Inst
	switch {
	case r.fs.Changed("verbose"):
		// An explicit flag beats both the environment and the file.
		i.Verbosity = int(i.Store.GetInt("verbose"))
	case !i.verbosityEnv:
		// No flag and no environment override: the resolved
		// configuration decides.
		i.Verbosity = int(i.Store.GetInt("verbose"))
	}
	if i.Store.GetBool("quiet") {
		i.Verbosity = -1
	}
	color := i.Color && i.Store.GetBool("color")
	i.Log = logging.New(os.Stderr, i.Verbosity, color)
	return nil
}

func stepCapabilityOverride(_ context.Context, r *Run) error {
	i := r.Inst
	mask := capability.MaskFromConfig(i.Store)
	i.caps = i.shared.Caps.Without(mask)
	if mask != 0 {
		i.Log.Debug().Str("capabilities", i.caps.String()).
			Msg("capability set reduced by configuration")
	}
	return nil
}

func stepCopyStrategySelect(_ context.Context, r *Run) error {
	i := r.Inst
	m := i.shared.Bank.Need("copy", i.Store.GetString("copy"))
	if m != nil && m.Name == "copy-pooled" && i.caps.Has(capability.SSE2) {
		i.copyStream = util.CopyPooled
	} else {
		i.copyStream = util.CopyPlain
	}
	if m != nil {
		i.Log.Debug().Str("module", m.Name).Msg("copy strategy selected")
	}
	return nil
}

func stepHotkeyTableInit(_ context.Context, r *Run) error {
	r.Inst.hotkeys = defaultHotkeys()
	return nil
}

// ── Playlist and interfaces ──────────────────────────────────────────

func stepPlaylistCreate(_ context.Context, r *Run) error {
	i := r.Inst
	pl, err := playlist.Create(i.ID)
	if err != nil {
		return vlcerrors.Failure(vlcerrors.KindPlaylistInit, err)
	}
	i.playlist = pl
	r.OnUnwind("playlist-create", func() {
		pl.Destroy()
		i.playlist = nil
	})

	if list := i.Store.GetString("services-discovery"); list != "" {
		pl.AddServicesDiscovery(splitList(list, ","))
	}
	return nil
}

func stepExtraInterfaceLoad(ctx context.Context, r *Run) error {
	i := r.Inst

	names := splitList(i.Store.GetString("extraintf"), ":")
	names = append(names, splitList(i.Store.GetString("control"), ":")...)

	// A primary instance under the single-instance policy must serve
	// the forwarding endpoint, whether or not the operator listed it.
	if i.Store.GetBool("one-instance") &&
		i.coord != nil && i.coord.Ownership() == coordinator.Primary &&
		!contains(names, "control") {
		names = append(names, "control")
	}

	for _, name := range names {
		handle, err := intf.Create(name, i.intfEnv(), nil)
		if err != nil {
			return err
		}
		handle.Start(ctx)
		i.intfs = append(i.intfs, handle)
		i.Metrics.InterfaceStarted()
		i.Log.Debug().Str("interface", handle.Name).Msg("extra interface started")
		r.OnUnwind("extra-interface-load", handle.Destroy)
	}
	return nil
}

func stepTargetEnqueue(_ context.Context, r *Run) error {
	i := r.Inst
	for _, tgt := range parseTargets(i, r.trailing, i.Store.GetString("open")) {
		if _, err := i.playlist.AddTarget(tgt.URI, tgt.Options, playlist.PolicyAppend); err != nil {
			return vlcerrors.Failure(vlcerrors.KindPlaylistInit, err)
		}
		i.Metrics.TargetEnqueued()
		i.Log.Debug().Str("target", tgt.URI).Strs("options", tgt.Options).Msg("target enqueued")
	}
	return nil
}

// ── Target parsing ───────────────────────────────────────────────────

// Target is one trailing command-line item with the ':'-prefixed
// options that followed it.
type Target struct {
	URI     string
	Options []string
}

// parseTargets splits the trailing arguments into targets.  A token
// starting with ':' is an option bound to the preceding target; one
// with no preceding target is dropped with a warning.  The open option,
// when set, becomes the first target.
func parseTargets(i *Instance, args []string, open string) []Target {
	var targets []Target
	if open != "" {
		targets = append(targets, Target{URI: open})
	}
	for _, arg := range args {
		if strings.HasPrefix(arg, ":") {
			if len(targets) == 0 {
				i.Log.Warn().Str("option", arg).Msg("target option with no target")
				continue
			}
			last := &targets[len(targets)-1]
			last.Options = append(last.Options, strings.TrimPrefix(arg, ":"))
			continue
		}
		targets = append(targets, Target{URI: arg})
	}
	return targets
}

func splitList(s, sep string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
