package config

import (
	"testing"
)

func testStore() *Store {
	s := NewStore()
	s.Register(HelpItems())
	s.Register(CoreItems())
	return s
}

// ── Overlay semantics ────────────────────────────────────────────────

func TestDefaultsWithoutOverlay(t *testing.T) {
	s := testStore()

	if !s.GetBool("color") {
		t.Error("color should default to true")
	}
	if s.GetInt("verbose") != 0 {
		t.Errorf("verbose default = %d, want 0", s.GetInt("verbose"))
	}
	if s.GetString("language") != "auto" {
		t.Errorf("language default = %q, want auto", s.GetString("language"))
	}
	if s.GetBool("no-such-option") {
		t.Error("unknown key should read as zero value")
	}
}

func TestLastPassWins(t *testing.T) {
	s := testStore()

	s.Set("verbose", IntValue(1)) // file pass
	s.Set("verbose", IntValue(2)) // cmdline pass
	if got := s.GetInt("verbose"); got != 2 {
		t.Errorf("verbose = %d, want 2 (last pass wins)", got)
	}
}

func TestResetAll(t *testing.T) {
	s := testStore()
	s.Set("color", BoolValue(false))
	s.Set("intf", StringValue("dummy"))

	s.ResetAll()

	if !s.GetBool("color") {
		t.Error("ResetAll should revert color to its default")
	}
	if s.GetString("intf") != "" {
		t.Error("ResetAll should revert intf to its default")
	}
	if _, ok := s.Lookup("verbose"); !ok {
		t.Error("ResetAll must not drop the schema")
	}
}

// ── Path substitution ────────────────────────────────────────────────

func TestGetPathTildeSubstitution(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"tilde prefix", "~/foo/bar", "/home/someone/foo/bar"},
		{"absolute untouched", "/etc/vlcrc.toml", "/etc/vlcrc.toml"},
		{"relative untouched", "foo/bar", "foo/bar"},
		{"bare tilde untouched", "~", "~"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testStore()
			s.SetUserDir("/home/someone")
			s.Set("config", StringValue(tt.value))

			if got := s.GetPath("config"); got != tt.want {
				t.Errorf("GetPath() = %q, want %q", got, tt.want)
			}
			// Lazy substitution caches: a second read is identical.
			if got := s.GetPath("config"); got != tt.want {
				t.Errorf("second GetPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGetPathExpandsDefault(t *testing.T) {
	s := testStore()
	s.SetUserDir("/home/someone/.vlc")

	want := "/home/someone/.vlc/plugins"
	if got := s.GetPath("plugin-path"); got != want {
		t.Errorf("GetPath(plugin-path) = %q, want %q", got, want)
	}
}

// ── Two-phase schema ─────────────────────────────────────────────────

func TestPhaseTransition(t *testing.T) {
	s := testStore()
	if s.Phase() != PhaseHelp {
		t.Fatal("new store should start in the help phase")
	}
	s.CompleteHelpPhase()
	if s.Phase() != PhaseFull {
		t.Error("CompleteHelpPhase should move to the full phase")
	}
}

func TestRegisterMergeKeepsValues(t *testing.T) {
	s := testStore()
	s.Set("verbose", IntValue(2))

	// A module re-declaring an existing option must not clobber the
	// overlaid value.
	s.Register([]Item{{Name: "verbose", Type: TypeInt, DefInt: 1}})
	if got := s.GetInt("verbose"); got != 2 {
		t.Errorf("verbose = %d after re-register, want 2", got)
	}
}
