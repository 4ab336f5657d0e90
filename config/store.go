package config

import (
	"path/filepath"
	"strings"
	"sync"
)

// Phase tracks which part of the schema is live.  Before module
// discovery only the minimal help/core schema exists, so command-line
// parsing must tolerate unknown flags; once module options are merged
// the schema is complete and parsing becomes strict.
type Phase int

const (
	// PhaseHelp is the minimal pre-discovery schema: enough to answer
	// --help and --version even if the full module set fails to load.
	PhaseHelp Phase = iota
	// PhaseFull is the complete schema after module option merge.
	PhaseFull
)

// Store holds the option schema and the current value overlay.
// Values set by a later pass override earlier ones for the same key;
// passes never delete keys.
type Store struct {
	mu      sync.RWMutex
	schema  map[string]Item
	order   []string // registration order, for usage and persistence
	values  map[string]Value
	userDir string
	phase   Phase
}

// NewStore returns an empty store in the help phase.
func NewStore() *Store {
	return &Store{
		schema: make(map[string]Item),
		values: make(map[string]Value),
	}
}

// Register merges items into the schema.  Re-registering a name
// replaces its declaration but keeps any overlaid value.
func (s *Store) Register(items []Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range items {
		if _, seen := s.schema[it.Name]; !seen {
			s.order = append(s.order, it.Name)
		}
		s.schema[it.Name] = it
	}
}

// CompleteHelpPhase marks the schema as fully merged.
func (s *Store) CompleteHelpPhase() {
	s.mu.Lock()
	s.phase = PhaseFull
	s.mu.Unlock()
}

// Phase returns the current schema phase.
func (s *Store) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// SetUserDir sets the directory substituted for "~" in path values.
func (s *Store) SetUserDir(dir string) {
	s.mu.Lock()
	s.userDir = dir
	s.mu.Unlock()
}

// Items returns the schema in registration order.
func (s *Store) Items() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Item, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.schema[name])
	}
	return out
}

// Lookup returns the schema item for name.
func (s *Store) Lookup(name string) (Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.schema[name]
	return it, ok
}

// ── Reads ────────────────────────────────────────────────────────────
//
// Unknown keys return the zero value; the schema default applies when
// no pass has set the key.

// GetBool returns the effective boolean value for name.
func (s *Store) GetBool(name string) bool {
	return s.effective(name).Bool()
}

// GetInt returns the effective integer value for name.
func (s *Store) GetInt(name string) int64 {
	return s.effective(name).Int()
}

// GetFloat returns the effective float value for name.
func (s *Store) GetFloat(name string) float64 {
	return s.effective(name).Float()
}

// GetString returns the effective string value for name.
func (s *Store) GetString(name string) string {
	return s.effective(name).String()
}

// GetPath returns the effective path value for name, rewriting a
// leading "~/" with the resolved user directory.  The substitution is
// evaluated lazily on the first read and cached in the overlay.
func (s *Store) GetPath(name string) string {
	v := s.effective(name).String()
	if !strings.HasPrefix(v, "~/") {
		return v
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	expanded := filepath.Join(s.userDir, v[2:])
	s.values[name] = StringValue(expanded)
	return expanded
}

func (s *Store) effective(name string) Value {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.values[name]; ok {
		return v
	}
	if it, ok := s.schema[name]; ok {
		return it.Default()
	}
	return Value{}
}

// IsSet reports whether any pass has explicitly set name.
func (s *Store) IsSet(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.values[name]
	return ok
}

// ── Writes ───────────────────────────────────────────────────────────

// Set overlays a value for name.  The caller is one of the resolution
// passes; later passes override earlier ones.
func (s *Store) Set(name string, v Value) {
	s.mu.Lock()
	s.values[name] = v
	s.mu.Unlock()
}

// ResetAll drops the entire overlay, reverting every option to its
// compiled (or module-declared) default.  The schema survives.
func (s *Store) ResetAll() {
	s.mu.Lock()
	s.values = make(map[string]Value)
	s.mu.Unlock()
}

// setValues returns a stable copy of the explicit overlay, for
// persistence.
func (s *Store) setValues() map[string]Value {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Value, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}
