// Package bus implements the local inter-process bus used for
// single-instance coordination: a well-known name maps to a unix
// socket in the per-user runtime directory; the owner of the name
// serves request/reply calls on it.
//
// Wire format: each message is a 4-byte big-endian length prefix
// followed by a msgpack body.
package bus

import (
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	vlcerrors "github.com/schokhani1999/vlc/internal/errors"
)

// Handler serves one method: it receives the raw msgpack-encoded
// arguments and returns a reply value (msgpack-encoded for the
// caller) or an error.  Handlers must be safe for concurrent calls.
type Handler func(args []byte) (interface{}, error)

// Bus is the coordination surface the bootstrap core needs: claim a
// well-known name, serve requests under it, call a peer by name.
type Bus interface {
	// ClaimName attempts to register as the unique holder of name.
	// Returns true when this process now owns the name, false when a
	// live peer already holds it.
	ClaimName(name string) (bool, error)

	// RegisterHandler installs the handler for a method on the
	// claimed name.
	RegisterHandler(method string, h Handler)

	// SendRequest calls method on the owner of name and decodes the
	// reply into reply (which may be nil).  Bounded by timeout.
	SendRequest(name, method string, args, reply interface{}, timeout time.Duration) error

	// Close releases the claimed name and stops serving.
	Close() error
}

type request struct {
	Method string             `msgpack:"method"`
	Args   msgpack.RawMessage `msgpack:"args"`
}

type response struct {
	Err  string             `msgpack:"err"`
	Body msgpack.RawMessage `msgpack:"body"`
}

// probeDial bounds the liveness check against a possibly stale socket
// during a claim.
const probeDial = 500 * time.Millisecond

// serveTimeout bounds a single request/reply exchange on the server.
const serveTimeout = 10 * time.Second

// DefaultDir returns the directory holding the bus sockets: the
// per-user runtime directory when available.
func DefaultDir() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return dir
	}
	return os.TempDir()
}

// SocketBus is the unix-socket implementation of Bus.
type SocketBus struct {
	dir string
	log zerolog.Logger

	mu       sync.Mutex
	handlers map[string]Handler
	ln       net.Listener
	claimed  string
	closed   bool
	wg       sync.WaitGroup
}

// New returns a bus rooted at dir (DefaultDir when empty).
func New(dir string, log zerolog.Logger) *SocketBus {
	if dir == "" {
		dir = DefaultDir()
	}
	return &SocketBus{
		dir:      dir,
		log:      log,
		handlers: make(map[string]Handler),
	}
}

func (b *SocketBus) socketPath(name string) string {
	return filepath.Join(b.dir, name+".sock")
}

// ClaimName implements Bus.  A leftover socket from a crashed owner is
// detected by a probe dial and removed before retrying.
func (b *SocketBus) ClaimName(name string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ln != nil {
		return b.claimed == name, nil
	}

	path := b.socketPath(name)
	ln, err := net.Listen("unix", path)
	if err != nil {
		conn, derr := net.DialTimeout("unix", path, probeDial)
		if derr == nil {
			conn.Close()
			return false, nil // live owner
		}
		// Stale socket: remove and retry once.
		os.Remove(path)
		ln, err = net.Listen("unix", path)
		if err != nil {
			return false, &vlcerrors.BusError{Op: "claim", Endpoint: name, Err: err}
		}
	}

	b.ln = ln
	b.claimed = name
	b.wg.Add(1)
	go b.serve(ln)
	b.log.Debug().Str("endpoint", name).Msg("claimed bus name")
	return true, nil
}

// RegisterHandler implements Bus.
func (b *SocketBus) RegisterHandler(method string, h Handler) {
	b.mu.Lock()
	b.handlers[method] = h
	b.mu.Unlock()
}

func (b *SocketBus) handler(method string) (Handler, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	h, ok := b.handlers[method]
	return h, ok
}

func (b *SocketBus) serve(ln net.Listener) {
	defer b.wg.Done()
	for {
		conn, err := ln.Accept()
		if err != nil {
			return // listener closed
		}
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			b.handleConn(conn)
		}()
	}
}

// handleConn serves exactly one request/reply exchange.
func (b *SocketBus) handleConn(conn net.Conn) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(serveTimeout))

	payload, err := readFrame(conn)
	if err != nil {
		b.log.Debug().Err(err).Msg("bus: dropping malformed request")
		return
	}
	var req request
	if err := msgpack.Unmarshal(payload, &req); err != nil {
		b.log.Debug().Err(err).Msg("bus: dropping undecodable request")
		return
	}

	var resp response
	if h, ok := b.handler(req.Method); ok {
		ret, herr := h(req.Args)
		if herr != nil {
			resp.Err = herr.Error()
		} else if ret != nil {
			body, merr := msgpack.Marshal(ret)
			if merr != nil {
				resp.Err = merr.Error()
			} else {
				resp.Body = body
			}
		}
	} else {
		resp.Err = "unknown method " + req.Method
	}

	out, err := msgpack.Marshal(&resp)
	if err != nil {
		return
	}
	if err := writeFrame(conn, out); err != nil {
		b.log.Debug().Err(err).Msg("bus: reply write failed")
	}
}

// SendRequest implements Bus.
func (b *SocketBus) SendRequest(name, method string, args, reply interface{}, timeout time.Duration) error {
	var rawArgs msgpack.RawMessage
	if args != nil {
		enc, err := msgpack.Marshal(args)
		if err != nil {
			return &vlcerrors.BusError{Op: "send", Endpoint: name, Err: err}
		}
		rawArgs = enc
	}

	conn, err := net.DialTimeout("unix", b.socketPath(name), timeout)
	if err != nil {
		return &vlcerrors.BusError{Op: "dial", Endpoint: name, Err: err}
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(timeout))

	payload, err := msgpack.Marshal(&request{Method: method, Args: rawArgs})
	if err != nil {
		return &vlcerrors.BusError{Op: "send", Endpoint: name, Err: err}
	}
	if err := writeFrame(conn, payload); err != nil {
		return &vlcerrors.BusError{Op: "send", Endpoint: name, Err: err}
	}

	raw, err := readFrame(conn)
	if err != nil {
		return &vlcerrors.BusError{Op: "recv", Endpoint: name, Err: err}
	}
	var resp response
	if err := msgpack.Unmarshal(raw, &resp); err != nil {
		return &vlcerrors.BusError{Op: "recv", Endpoint: name, Err: err}
	}
	if resp.Err != "" {
		return &vlcerrors.BusError{Op: method, Endpoint: name, Err: vlcerrors.New(resp.Err)}
	}
	if reply != nil && resp.Body != nil {
		if err := msgpack.Unmarshal(resp.Body, reply); err != nil {
			return &vlcerrors.BusError{Op: "recv", Endpoint: name, Err: err}
		}
	}
	return nil
}

// Close implements Bus.
func (b *SocketBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	ln := b.ln
	claimed := b.claimed
	b.ln = nil
	b.mu.Unlock()

	if ln != nil {
		ln.Close()
		os.Remove(b.socketPath(claimed))
	}
	b.wg.Wait()
	return nil
}
