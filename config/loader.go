package config

// loader.go - the four resolution passes and config file persistence.
//
// Pass order (fixed, later passes win):
//   1. compiled defaults      (defaults.go)
//   2. module-declared defaults
//   3. persisted config file  (TOML)
//   4. command-line overrides (pflag)

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	flag "github.com/spf13/pflag"
)

// Pass is one layer of the resolution pipeline: a total function from
// the previous overlay to the next.  Passes only set or override keys,
// never delete them.
type Pass struct {
	Name  string
	Apply func(*Store) error
}

// Pipeline runs the four passes in order over a fresh overlay.  The
// plugin cache-delete flag is carried on the pipeline so a re-run
// (language reload) preserves it explicitly.
type Pipeline struct {
	Passes      []Pass
	CacheDelete bool
}

// Resolve drops the current overlay and re-applies every pass in
// order.  Deterministic: identical inputs yield an identical overlay.
func (p *Pipeline) Resolve(s *Store) error {
	s.ResetAll()
	for _, pass := range p.Passes {
		if err := pass.Apply(s); err != nil {
			return fmt.Errorf("pass %s: %w", pass.Name, err)
		}
	}
	return nil
}

// ── Pass constructors ────────────────────────────────────────────────

// DefaultsPass materializes the compiled default of every registered
// schema item into the overlay.
func DefaultsPass() Pass {
	return Pass{Name: "defaults", Apply: func(s *Store) error {
		for _, it := range s.Items() {
			s.Set(it.Name, it.Default())
		}
		return nil
	}}
}

// ItemsPass registers module-declared options and materializes their
// defaults.  This is the second resolution pass.
func ItemsPass(name string, items []Item) Pass {
	return Pass{Name: name, Apply: func(s *Store) error {
		s.Register(items)
		for _, it := range items {
			s.Set(it.Name, it.Default())
		}
		return nil
	}}
}

// FilePass overlays values from a TOML config file.  A missing file is
// not an error; a malformed one is.
func FilePass(path string) Pass {
	return Pass{Name: "file", Apply: func(s *Store) error {
		return LoadConfigFile(s, path)
	}}
}

// CmdLinePass overlays every flag the user explicitly set on the
// (already parsed) flag set.
func CmdLinePass(fs *flag.FlagSet) Pass {
	return Pass{Name: "cmdline", Apply: func(s *Store) error {
		return applyFlags(s, fs)
	}}
}

// ── Command line ─────────────────────────────────────────────────────

// FlagSet builds a pflag set from the registered schema.  In the help
// phase unknown flags are tolerated, because module-declared options
// have not been merged yet; in the full phase parsing is strict.
func FlagSet(name string, s *Store) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	if s.Phase() == PhaseHelp {
		fs.ParseErrorsWhitelist.UnknownFlags = true
	}
	for _, it := range s.Items() {
		switch it.Type {
		case TypeBool:
			fs.BoolP(it.Name, it.Short, it.DefBool, it.Text)
		case TypeInt:
			fs.Int64P(it.Name, it.Short, it.DefInt, it.Text)
		case TypeFloat:
			fs.Float64P(it.Name, it.Short, it.DefFloat, it.Text)
		default:
			fs.StringP(it.Name, it.Short, it.DefString, it.Text)
		}
	}
	return fs
}

func applyFlags(s *Store, fs *flag.FlagSet) error {
	var firstErr error
	fs.Visit(func(f *flag.Flag) {
		it, ok := s.Lookup(f.Name)
		if !ok {
			return // tolerated unknown from the help phase
		}
		var err error
		switch it.Type {
		case TypeBool:
			var b bool
			if b, err = fs.GetBool(f.Name); err == nil {
				s.Set(f.Name, BoolValue(b))
			}
		case TypeInt:
			var i int64
			if i, err = fs.GetInt64(f.Name); err == nil {
				s.Set(f.Name, IntValue(i))
			}
		case TypeFloat:
			var fl float64
			if fl, err = fs.GetFloat64(f.Name); err == nil {
				s.Set(f.Name, FloatValue(fl))
			}
		default:
			var str string
			if str, err = fs.GetString(f.Name); err == nil {
				s.Set(f.Name, StringValue(str))
			}
		}
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("option --%s: %w", f.Name, err)
		}
	})
	return firstErr
}

// ── Config file ──────────────────────────────────────────────────────

// LoadConfigFile overlays values from the TOML file at path.  Keys not
// (yet) present in the schema are ignored: the file may carry options
// of modules that have not been discovered on this run.
func LoadConfigFile(s *Store, path string) error {
	if path == "" {
		return nil
	}
	var raw map[string]interface{}
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("config file %s: %w", path, err)
	}
	for key, val := range raw {
		it, ok := s.Lookup(key)
		if !ok {
			continue
		}
		v, err := coerce(it, val)
		if err != nil {
			return fmt.Errorf("config file %s: %w", path, err)
		}
		s.Set(key, v)
	}
	return nil
}

func coerce(it Item, val interface{}) (Value, error) {
	switch it.Type {
	case TypeBool:
		if b, ok := val.(bool); ok {
			return BoolValue(b), nil
		}
	case TypeInt:
		if i, ok := val.(int64); ok {
			return IntValue(i), nil
		}
	case TypeFloat:
		switch n := val.(type) {
		case float64:
			return FloatValue(n), nil
		case int64:
			return FloatValue(float64(n)), nil
		}
	default:
		if s, ok := val.(string); ok {
			return StringValue(s), nil
		}
	}
	return Value{}, fmt.Errorf("option %s: expected %s, got %T", it.Name, it.Type, val)
}

// SaveConfigFile persists the effective value of every schema option
// to the TOML file at path, creating parent directories as needed.
func SaveConfigFile(s *Store, path string) error {
	if path == "" {
		return nil
	}
	out := make(map[string]interface{})
	for _, it := range s.Items() {
		out[it.Name] = s.effective(it.Name).Interface()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(out); err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}
	return nil
}
