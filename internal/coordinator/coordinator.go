// Package coordinator decides whether this process becomes the
// primary instance on the local bus or hands its work items to an
// already-running peer.
package coordinator

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/schokhani1999/vlc/internal/bus"
	vlcerrors "github.com/schokhani1999/vlc/internal/errors"
)

// EndpointName is the well-known bus name for this process type.  At
// most one process per bus may own it at a time; the bus enforces
// uniqueness.
const EndpointName = "org.videolan.vlc"

// PingMethod is the liveness probe served by every primary instance.
const PingMethod = "core.Ping"

// AddTargetMethod is the forwarding endpoint served by the control
// interface of a primary instance.
const AddTargetMethod = "playlist.AddTarget"

// Ownership is this process's relationship to the endpoint name.
type Ownership int

const (
	Unclaimed Ownership = iota
	Primary             // we own the name and serve requests on it
	Secondary           // a peer owns the name; we run uncontrolled
)

func (o Ownership) String() string {
	switch o {
	case Primary:
		return "primary"
	case Secondary:
		return "secondary"
	default:
		return "unclaimed"
	}
}

// Outcome is the result of a claim attempt.
type Outcome int

const (
	// OutcomePrimary: the name is ours; continue as the controlling
	// instance.
	OutcomePrimary Outcome = iota
	// OutcomePeerFound: a live peer owns the name and answered the
	// probe; forward work items and exit.
	OutcomePeerFound
	// OutcomePeerUnreachable: a peer owns the name but did not answer;
	// single-instance mode cannot proceed.
	OutcomePeerUnreachable
	// OutcomeSecondary: a peer owns the name but single-instance mode
	// was not requested; continue locally without claiming.
	OutcomeSecondary
)

// WorkItem is one target to hand to the peer's playlist, with its
// insertion policy.
type WorkItem struct {
	Target  string
	Enqueue bool // true: append without playing; false: play now
}

// forwardArgs is the wire form of a forwarded work item.
type forwardArgs struct {
	URI     string `msgpack:"uri"`
	Enqueue bool   `msgpack:"enqueue"`
}

// probeTimeout bounds the liveness round trip to an existing owner.
const probeTimeout = 3 * time.Second

// forwardTimeout bounds each per-item forwarding round trip.
const forwardTimeout = 10 * time.Second

// Coordinator claims the endpoint name or detects a running peer.
type Coordinator struct {
	bus            bus.Bus
	endpoint       string
	singleInstance bool
	ownership      Ownership
	log            zerolog.Logger
}

// New builds a coordinator for the given policy.  Nothing touches the
// bus until ClaimOrDetect.
func New(b bus.Bus, endpoint string, singleInstance bool, log zerolog.Logger) *Coordinator {
	return &Coordinator{
		bus:            b,
		endpoint:       endpoint,
		singleInstance: singleInstance,
		log:            log,
	}
}

// Ownership returns the current claim state.
func (c *Coordinator) Ownership() Ownership { return c.ownership }

// ClaimOrDetect attempts to become the unique holder of the endpoint
// name.  Idempotent: once Primary, further calls return OutcomePrimary
// without touching the bus again.
func (c *Coordinator) ClaimOrDetect() (Outcome, error) {
	if c.ownership == Primary {
		return OutcomePrimary, nil
	}

	owned, err := c.bus.ClaimName(c.endpoint)
	if err != nil {
		return OutcomeSecondary, err
	}
	if owned {
		c.ownership = Primary
		c.bus.RegisterHandler(PingMethod, func([]byte) (interface{}, error) {
			return nil, nil
		})
		c.log.Debug().Str("endpoint", c.endpoint).
			Msg("we are the primary owner of the endpoint")
		return OutcomePrimary, nil
	}

	if !c.singleInstance {
		c.ownership = Secondary
		c.log.Debug().Str("endpoint", c.endpoint).
			Msg("endpoint is already registered, continuing uncontrolled")
		return OutcomeSecondary, nil
	}

	// Probe the existing owner: without a responding control endpoint
	// we cannot hand our targets over.
	if err := c.bus.SendRequest(c.endpoint, PingMethod, nil, nil, probeTimeout); err != nil {
		c.log.Err(err).Msg("liveness probe failed")
		return OutcomePeerUnreachable, vlcerrors.Failuref(vlcerrors.KindPeerUnreachable,
			"single-instance mode is set but the running instance does not "+
				"answer on its control endpoint; enable the control interface "+
				"on it and restart, or disable single-instance mode")
	}

	c.log.Warn().Msg("another instance is running: forwarding targets to it")
	return OutcomePeerFound, nil
}

// Forward hands the work items to the peer, strictly in order, waiting
// for each acknowledgment before sending the next.  The first failure
// aborts: when this path is taken a duplicate local instance is
// disallowed, so there is no fallback.
func (c *Coordinator) Forward(items []WorkItem) error {
	for _, item := range items {
		c.log.Debug().Str("target", item.Target).Bool("enqueue", item.Enqueue).
			Msg("forwarding target to running instance")
		args := forwardArgs{URI: item.Target, Enqueue: item.Enqueue}
		if err := c.bus.SendRequest(c.endpoint, AddTargetMethod, args, nil, forwardTimeout); err != nil {
			return vlcerrors.Failure(vlcerrors.KindForward, err)
		}
	}
	return nil
}
