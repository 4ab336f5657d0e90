// Package intf implements the interface engine: named interface
// modules created against an instance's environment and driven
// through a run/stop lifecycle.
package intf

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/schokhani1999/vlc/internal/bus"
	vlcerrors "github.com/schokhani1999/vlc/internal/errors"
	"github.com/schokhani1999/vlc/playlist"
)

// Env is what an interface module may use: the owning instance's
// logger, its playlist, and (for the control interface) the local bus.
type Env struct {
	Log      zerolog.Logger
	Playlist *playlist.Playlist
	Bus      bus.Bus
}

// Runner is a started interface module.
type Runner interface {
	// Run blocks until the interface finishes or ctx is cancelled.
	Run(ctx context.Context) error
}

// Constructor builds a runner from the environment and the module's
// options.
type Constructor func(env Env, options []string) (Runner, error)

// builtin interface modules, keyed by name.
var builtin = map[string]Constructor{
	"dummy":   newDummy,
	"logger":  newLogger,
	"hotkeys": newHotkeys,
	"control": newControl,
}

// Intf is one created interface with its lifecycle handles.
type Intf struct {
	Name string

	runner Runner
	cancel context.CancelFunc
	done   chan struct{}
	err    error
	once   sync.Once
}

// Create instantiates the interface named by spec.  A spec of the form
// "name,none" (historical fallback-suppression syntax) uses only the
// first element.
func Create(spec string, env Env, options []string) (*Intf, error) {
	name := spec
	if i := strings.IndexByte(name, ','); i >= 0 {
		name = name[:i]
	}
	ctor, ok := builtin[name]
	if !ok {
		return nil, vlcerrors.Failuref(vlcerrors.KindInterfaceInit,
			"no interface module %q", name)
	}
	r, err := ctor(env, options)
	if err != nil {
		return nil, vlcerrors.Failure(vlcerrors.KindInterfaceInit, err)
	}
	return &Intf{Name: name, runner: r}, nil
}

// Run drives the interface on the calling goroutine until it finishes
// or ctx is cancelled.
func (i *Intf) Run(ctx context.Context) error {
	ctx, i.cancel = context.WithCancel(ctx)
	i.done = make(chan struct{})
	defer close(i.done)
	i.err = i.runner.Run(ctx)
	return i.err
}

// Start runs the interface in the background.
func (i *Intf) Start(ctx context.Context) {
	ctx, i.cancel = context.WithCancel(ctx)
	i.done = make(chan struct{})
	go func() {
		defer close(i.done)
		i.err = i.runner.Run(ctx)
	}()
}

// Destroy stops the interface and waits for it to finish.  Idempotent.
func (i *Intf) Destroy() {
	i.once.Do(func() {
		if i.cancel != nil {
			i.cancel()
		}
		if i.done != nil {
			<-i.done
		}
	})
}

// ── Builtin interface modules ────────────────────────────────────────

// dummyIntf does nothing until told to stop.  Preferred main interface
// in daemon mode.
type dummyIntf struct{}

func newDummy(Env, []string) (Runner, error) { return dummyIntf{}, nil }

func (dummyIntf) Run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

// loggerIntf mirrors playlist activity to the log.
type loggerIntf struct {
	log zerolog.Logger
	pl  *playlist.Playlist
}

func newLogger(env Env, _ []string) (Runner, error) {
	return &loggerIntf{log: env.Log, pl: env.Playlist}, nil
}

func (l *loggerIntf) Run(ctx context.Context) error {
	l.log.Info().Msg("logger interface started")
	<-ctx.Done()
	if l.pl != nil {
		l.log.Info().Int("targets", l.pl.Len()).Msg("logger interface stopping")
	}
	return nil
}

// hotkeysIntf owns the key-to-action dispatch; the table itself lives
// on the instance.
type hotkeysIntf struct{}

func newHotkeys(Env, []string) (Runner, error) { return hotkeysIntf{}, nil }

func (hotkeysIntf) Run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

// controlIntf serves the bus endpoint of a primary instance: peers
// forward their command-line targets here.
type controlIntf struct {
	env Env
}

func newControl(env Env, _ []string) (Runner, error) {
	if env.Bus == nil {
		return nil, vlcerrors.New("control interface requires the local bus")
	}
	if env.Playlist == nil {
		return nil, vlcerrors.New("control interface requires a playlist")
	}
	c := &controlIntf{env: env}
	// Register synchronously so the endpoint answers as soon as the
	// interface exists, not when its goroutine gets scheduled.
	env.Bus.RegisterHandler("playlist.AddTarget", c.handleAddTarget)
	return c, nil
}

// addTargetArgs mirrors the coordinator's forwarding payload.
type addTargetArgs struct {
	URI     string `msgpack:"uri"`
	Enqueue bool   `msgpack:"enqueue"`
}

type addTargetReply struct {
	OK bool `msgpack:"ok"`
}

func (c *controlIntf) Run(ctx context.Context) error {
	c.env.Log.Debug().Msg("control interface serving on the local bus")
	<-ctx.Done()
	return nil
}

func (c *controlIntf) handleAddTarget(raw []byte) (interface{}, error) {
	var args addTargetArgs
	if err := msgpack.Unmarshal(raw, &args); err != nil {
		return nil, err
	}
	policy := playlist.PolicyInsert
	if args.Enqueue {
		policy = playlist.PolicyAppend
	}
	if _, err := c.env.Playlist.AddTarget(args.URI, nil, policy); err != nil {
		return nil, err
	}
	c.env.Log.Info().Str("target", args.URI).Bool("enqueue", args.Enqueue).
		Msg("accepted forwarded target")
	return addTargetReply{OK: true}, nil
}
