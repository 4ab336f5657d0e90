package core

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/schokhani1999/vlc/config"
	"github.com/schokhani1999/vlc/internal/bus"
	"github.com/schokhani1999/vlc/internal/capability"
	"github.com/schokhani1999/vlc/internal/coordinator"
	vlcerrors "github.com/schokhani1999/vlc/internal/errors"
	"github.com/schokhani1999/vlc/internal/logging"
	"github.com/schokhani1999/vlc/internal/metrics"
	"github.com/schokhani1999/vlc/intf"
	"github.com/schokhani1999/vlc/playlist"
	"github.com/schokhani1999/vlc/util"
)

// State is the lifecycle phase of one instance.  Transitions are
// strictly forward except the one re-entry of Initializing on language
// reload.
type State int

const (
	StateCreated State = iota
	StateInitializing
	StateRunning
	StateCleaningUp
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateInitializing:
		return "initializing"
	case StateRunning:
		return "running"
	case StateCleaningUp:
		return "cleaning-up"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Instance is one logical engine context.  Multiple instances may
// coexist in a process; each is owned and mutated by its creating
// goroutine, with the process-wide state behind Acquire/Release as the
// only shared resource.
type Instance struct {
	ID   uuid.UUID
	Name string

	Log       zerolog.Logger
	Verbosity int
	Color     bool

	// verbosityEnv records whether Verbosity came from an explicit
	// environment override, which the resolved configuration must not
	// overwrite.
	verbosityEnv bool

	HomeDir    string
	UserDir    string
	ConfigFile string
	Locale     string

	Store   *config.Store
	Metrics *metrics.Collector
	Stats   bool

	shared     *SharedState
	caps       capability.Snapshot
	copyStream util.StreamCopier
	hotkeys    []Hotkey

	playlist *playlist.Playlist
	intfs    []*intf.Intf
	vouts    []func()
	aouts    []func()
	announce []func()

	bus   bus.Bus
	coord *coordinator.Coordinator

	// bankRefs counts this instance's live holds on the shared module
	// bank, so Destroy never double-ends a share the unwind already
	// released.
	bankRefs int

	// undo holds the inverses that survived a successful bootstrap;
	// Destroy drains them in reverse order.
	undo []undoEntry

	mu    sync.Mutex
	state State
}

// New creates an instance in the Created state: acquires the shared
// process state, seeds verbosity from the environment, and detects
// color eligibility from stderr.
func New() *Instance {
	name := "vlc"
	if len(os.Args) > 0 && os.Args[0] != "" {
		name = filepath.Base(os.Args[0])
	}

	verbosity, verbosityEnv := logging.VerbosityFromEnv()
	color := logging.IsTerminal(os.Stderr)
	shared := Acquire()

	return &Instance{
		ID:           uuid.New(),
		Name:         name,
		Verbosity:    verbosity,
		verbosityEnv: verbosityEnv,
		Color:        color,
		Log:          logging.New(os.Stderr, verbosity, color),
		Store:        config.NewStore(),
		Metrics:      metrics.New(),
		shared:       shared,
		caps:         shared.Caps,
		copyStream:   util.CopyPlain,
		state:        StateCreated,
	}
}

// State returns the current lifecycle phase.
func (i *Instance) State() State {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

func (i *Instance) setState(s State) {
	i.mu.Lock()
	i.state = s
	i.mu.Unlock()
}

// Shared exposes the process-wide state this instance holds.
func (i *Instance) Shared() *SharedState { return i.shared }

// Playlist returns the instance's playlist, nil before PlaylistCreate.
func (i *Instance) Playlist() *playlist.Playlist { return i.playlist }

// CopyStream returns the selected copy strategy.
func (i *Instance) CopyStream() util.StreamCopier { return i.copyStream }

// Caps returns the instance's effective capability set: the process
// snapshot minus whatever the configuration masked out.
func (i *Instance) Caps() capability.Snapshot { return i.caps }

// Hotkeys returns the immutable key binding table.
func (i *Instance) Hotkeys() []Hotkey { return i.hotkeys }

// Init runs the bootstrap sequence over args.  On success the instance
// is Running.  An exit request (help, version, forwarding, daemon
// parent) and any failure both unwind and destroy the instance; the
// cause is returned for the caller to map to an exit code.
func (i *Instance) Init(ctx context.Context, args []string) error {
	i.setState(StateInitializing)

	run := &Run{Inst: i, Args: args}
	if err := runSteps(ctx, run, bootstrapSteps()); err != nil {
		i.Destroy()
		return err
	}

	// The inverses that survived the bootstrap belong to the instance
	// now; Destroy consumes them.
	i.undo, run.undo = run.undo, nil

	i.setState(StateRunning)
	return nil
}

// RunInterface creates the main interface module and blocks on it
// until ctx is cancelled.  With no interface configured the dummy
// module is used, which simply waits; daemon mode always prefers it.
func (i *Instance) RunInterface(ctx context.Context) error {
	name := i.Store.GetString("intf")
	if name == "" || i.Store.GetBool("daemon") {
		name = "dummy"
	}

	main, err := intf.Create(name, i.intfEnv(), nil)
	if err != nil {
		return vlcerrors.Failure(vlcerrors.KindInterfaceInit, err)
	}
	i.Metrics.InterfaceStarted()
	i.Log.Info().Str("interface", main.Name).Msg("running main interface")
	return main.Run(ctx)
}

func (i *Instance) intfEnv() intf.Env {
	return intf.Env{Log: i.Log, Playlist: i.playlist, Bus: i.bus}
}

// TrackVideoOutput registers a video output release hook.
func (i *Instance) TrackVideoOutput(release func()) {
	i.vouts = append(i.vouts, release)
}

// TrackAudioOutput registers an audio output release hook.
func (i *Instance) TrackAudioOutput(release func()) {
	i.aouts = append(i.aouts, release)
}

// TrackAnnounce registers an announce handler release hook.
func (i *Instance) TrackAnnounce(release func()) {
	i.announce = append(i.announce, release)
}

// Cleanup stops and destroys every owned handle, in order: interfaces,
// playlist, video outputs, audio outputs, announce handlers.  Callable
// only from Running; the instance record itself survives until
// Destroy.
func (i *Instance) Cleanup() {
	i.mu.Lock()
	if i.state != StateRunning {
		i.mu.Unlock()
		i.Log.Warn().Stringer("state", i.state).Msg("cleanup skipped: not running")
		return
	}
	i.state = StateCleaningUp
	i.mu.Unlock()

	i.Log.Debug().Msg("cleaning up owned resources")
	for _, handle := range i.intfs {
		handle.Destroy()
	}
	i.intfs = nil

	if i.playlist != nil {
		i.playlist.Destroy()
		i.playlist = nil
	}

	for _, release := range i.vouts {
		release()
	}
	i.vouts = nil
	for _, release := range i.aouts {
		release()
	}
	i.aouts = nil
	for _, release := range i.announce {
		release()
	}
	i.announce = nil

	if i.Stats {
		i.Log.Info().RawJSON("stats", []byte(i.Metrics.JSON())).Msg("statistics")
	}
}

// Destroy drains the surviving bootstrap inverses in reverse order,
// ends any remaining bank share, frees cached paths, closes the bus
// and releases the process-wide state.  Exactly once per New; a second
// call is a contract violation and panics.
func (i *Instance) Destroy() {
	i.mu.Lock()
	if i.state == StateDestroyed {
		i.mu.Unlock()
		panic("core: Instance.Destroy called twice")
	}
	i.state = StateDestroyed
	i.mu.Unlock()

	// Inverses the sequencer never consumed: interface/playlist
	// handles (idempotent after Cleanup), the bus, the bank share, the
	// daemon pidfile.
	for n := len(i.undo) - 1; n >= 0; n-- {
		e := i.undo[n]
		i.Log.Debug().Str("step", e.step).Msg("releasing")
		e.fn()
	}
	i.undo = nil

	for ; i.bankRefs > 0; i.bankRefs-- {
		i.shared.Bank.End()
	}
	i.HomeDir, i.UserDir, i.ConfigFile = "", "", ""

	if i.bus != nil {
		if err := i.bus.Close(); err != nil {
			i.Log.Err(err).Msg("closing the local bus")
		}
		i.bus = nil
	}

	Release(i.shared)
	i.shared = nil
}
