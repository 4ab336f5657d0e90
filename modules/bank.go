// Package modules implements the module bank: discovery and
// capability descriptions for builtin and plugin modules.
//
// The bank is shared process-wide and reference-counted per instance:
// each InitBank must be paired with one EndBank, and the bank contents
// are released only when the last reference ends.  After discovery the
// module list is read-mostly; the bank serializes its own mutation.
package modules

import (
	"fmt"
	"sync"

	"github.com/schokhani1999/vlc/config"
)

// Module describes one discovered module: what it can do and which
// configuration options it declares.
type Module struct {
	Name         string
	Description  string
	Capabilities map[string]int // capability name -> score
	Options      []config.Item
	Builtin      bool
}

// Score returns the module's score for a capability (0 = not provided).
func (m *Module) Score(capability string) int {
	return m.Capabilities[capability]
}

// Bank is the process-wide module registry.
type Bank struct {
	mu          sync.Mutex
	refs        int
	cacheDelete bool
	loaded      bool
	modules     []*Module
}

// NewBank returns an empty, unreferenced bank.
func NewBank() *Bank { return &Bank{} }

// Init takes one reference on the bank.  Idempotent per instance as
// long as every Init is paired with one End.
func (b *Bank) Init() {
	b.mu.Lock()
	b.refs++
	b.mu.Unlock()
}

// End drops one reference.  When the last reference ends the module
// list is released and discovery state reset; the cache-delete flag
// survives so a re-initialization honors it.
func (b *Bank) End() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.refs == 0 {
		return // tolerated: End after a partially failed Init path
	}
	b.refs--
	if b.refs == 0 {
		b.modules = nil
		b.loaded = false
	}
}

// Refs returns the current reference count.
func (b *Bank) Refs() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.refs
}

// SetCacheDelete marks the plugins cache for deletion on the next
// discovery.
func (b *Bank) SetCacheDelete(v bool) {
	b.mu.Lock()
	b.cacheDelete = v
	b.mu.Unlock()
}

// CacheDelete reports whether the plugins cache is marked for deletion.
func (b *Bank) CacheDelete() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cacheDelete
}

// Count returns the number of discovered modules.
func (b *Bank) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.modules)
}

// Modules returns a copy of the discovered module list.
func (b *Bank) Modules() []*Module {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*Module, len(b.modules))
	copy(out, b.modules)
	return out
}

// OptionItems collects every module-declared option, in discovery
// order.  This feeds the module-defaults resolution pass.
func (b *Bank) OptionItems() []config.Item {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []config.Item
	for _, m := range b.modules {
		out = append(out, m.Options...)
	}
	return out
}

// Find returns the module with the given name.
func (b *Bank) Find(name string) *Module {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, m := range b.modules {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// Need selects the best module providing a capability.  A non-empty
// hint forces that module by name (nil if it does not provide the
// capability); otherwise the highest-scoring provider wins.  The hint
// "none" disables selection.
func (b *Bank) Need(capability, hint string) *Module {
	b.mu.Lock()
	defer b.mu.Unlock()

	if hint == "none" {
		return nil
	}
	if hint != "" {
		for _, m := range b.modules {
			if m.Name == hint && m.Score(capability) > 0 {
				return m
			}
		}
		return nil
	}

	var best *Module
	for _, m := range b.modules {
		if m.Score(capability) == 0 {
			continue
		}
		if best == nil || m.Score(capability) > best.Score(capability) {
			best = m
		}
	}
	return best
}

func (b *Bank) add(m *Module) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, existing := range b.modules {
		if existing.Name == m.Name {
			return fmt.Errorf("duplicate module %q", m.Name)
		}
	}
	b.modules = append(b.modules, m)
	return nil
}
