// Package playlist implements the minimal playlist engine the
// bootstrap core drives: an ordered list of targets with insert
// policies, owned by exactly one instance.
package playlist

import (
	"sync"

	"github.com/google/uuid"

	vlcerrors "github.com/schokhani1999/vlc/internal/errors"
)

// InsertPolicy controls where a new target lands.
type InsertPolicy int

const (
	// PolicyAppend adds the target at the end of the list.
	PolicyAppend InsertPolicy = iota
	// PolicyInsert adds the target at the front, so it plays next.
	PolicyInsert
)

// Item is one playlist entry: a target locator plus its bound options
// (the ":opt" tokens following the target on the command line).
type Item struct {
	ID      uuid.UUID
	URI     string
	Options []string
}

// Playlist is owned by one instance and destroyed with it.
type Playlist struct {
	mu       sync.Mutex
	owner    uuid.UUID
	items    []Item
	services []string
	closed   bool
}

// ErrClosed is returned when adding to a destroyed playlist.
var ErrClosed = vlcerrors.New("playlist is destroyed")

// Create builds an empty playlist for the owning instance.
func Create(owner uuid.UUID) (*Playlist, error) {
	return &Playlist{owner: owner}, nil
}

// AddTarget appends or inserts a target.  Safe for concurrent use:
// the control interface may add targets while the owner enqueues
// command-line files.
func (p *Playlist) AddTarget(uri string, options []string, policy InsertPolicy) (uuid.UUID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return uuid.Nil, ErrClosed
	}

	item := Item{ID: uuid.New(), URI: uri, Options: options}
	if policy == PolicyInsert {
		p.items = append([]Item{item}, p.items...)
	} else {
		p.items = append(p.items, item)
	}
	return item.ID, nil
}

// AddServicesDiscovery records the services-discovery modules
// configured for this playlist.
func (p *Playlist) AddServicesDiscovery(names []string) {
	p.mu.Lock()
	p.services = append(p.services, names...)
	p.mu.Unlock()
}

// Services returns the configured services-discovery modules.
func (p *Playlist) Services() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.services))
	copy(out, p.services)
	return out
}

// Items returns a snapshot of the current entries, in play order.
func (p *Playlist) Items() []Item {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Item, len(p.items))
	copy(out, p.items)
	return out
}

// Len returns the number of entries.
func (p *Playlist) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.items)
}

// Owner returns the owning instance id.
func (p *Playlist) Owner() uuid.UUID { return p.owner }

// Destroy releases the playlist.  Further AddTarget calls fail with
// ErrClosed; Destroy itself is idempotent.
func (p *Playlist) Destroy() {
	p.mu.Lock()
	p.closed = true
	p.items = nil
	p.services = nil
	p.mu.Unlock()
}
