package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// ── Pipeline ─────────────────────────────────────────────────────────

func TestPipelineOrderAndOverride(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "vlcrc.toml", "verbose = 1\nintf = \"logger\"\n")

	s := testStore()
	fs := FlagSet("vlc", s)
	if err := fs.Parse([]string{"--verbose", "2"}); err != nil {
		t.Fatal(err)
	}

	moduleItems := []Item{
		{Name: "dummy-delay", Type: TypeInt, DefInt: 5, Text: "dummy interface delay"},
	}
	p := &Pipeline{Passes: []Pass{
		DefaultsPass(),
		ItemsPass("module defaults", moduleItems),
		FilePass(file),
		CmdLinePass(fs),
	}}
	if err := p.Resolve(s); err != nil {
		t.Fatal(err)
	}

	// cmdline beats file
	if got := s.GetInt("verbose"); got != 2 {
		t.Errorf("verbose = %d, want 2 (cmdline wins)", got)
	}
	// file beats defaults
	if got := s.GetString("intf"); got != "logger" {
		t.Errorf("intf = %q, want logger (file wins)", got)
	}
	// module defaults visible
	if got := s.GetInt("dummy-delay"); got != 5 {
		t.Errorf("dummy-delay = %d, want 5", got)
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "vlcrc.toml", "verbose = 1\ncolor = false\n")

	s := testStore()
	p := &Pipeline{Passes: []Pass{DefaultsPass(), FilePass(file)}}

	if err := p.Resolve(s); err != nil {
		t.Fatal(err)
	}
	first := s.setValues()

	// A later pass dirties the overlay; re-resolving must restore the
	// exact same result.
	s.Set("verbose", IntValue(9))
	if err := p.Resolve(s); err != nil {
		t.Fatal(err)
	}
	second := s.setValues()

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Resolve not idempotent:\nfirst  = %v\nsecond = %v", first, second)
	}
}

func TestPipelineCarriesCacheDelete(t *testing.T) {
	p := &Pipeline{Passes: []Pass{DefaultsPass()}, CacheDelete: true}
	s := testStore()
	if err := p.Resolve(s); err != nil {
		t.Fatal(err)
	}
	if !p.CacheDelete {
		t.Error("Resolve must not clear the cache-delete flag")
	}
}

// ── Config file ──────────────────────────────────────────────────────

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file is fine", func(t *testing.T) {
		s := testStore()
		if err := LoadConfigFile(s, filepath.Join(dir, "nope.toml")); err != nil {
			t.Errorf("missing file should not error: %v", err)
		}
	})

	t.Run("unknown keys ignored", func(t *testing.T) {
		s := testStore()
		file := writeFile(t, dir, "extra.toml", "verbose = 1\nsome-plugin-opt = \"x\"\n")
		if err := LoadConfigFile(s, file); err != nil {
			t.Errorf("unknown keys should be tolerated: %v", err)
		}
		if s.GetInt("verbose") != 1 {
			t.Error("known key not applied")
		}
	})

	t.Run("type mismatch rejected", func(t *testing.T) {
		s := testStore()
		file := writeFile(t, dir, "bad.toml", "verbose = \"loud\"\n")
		if err := LoadConfigFile(s, file); err == nil {
			t.Error("type mismatch should error")
		}
	})

	t.Run("malformed file rejected", func(t *testing.T) {
		s := testStore()
		file := writeFile(t, dir, "broken.toml", "verbose = = 1\n")
		if err := LoadConfigFile(s, file); err == nil {
			t.Error("malformed TOML should error")
		}
	})
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "vlcrc.toml")

	s := testStore()
	s.Set("verbose", IntValue(2))
	s.Set("intf", StringValue("dummy"))
	s.Set("color", BoolValue(false))
	if err := SaveConfigFile(s, path); err != nil {
		t.Fatal(err)
	}

	fresh := testStore()
	if err := LoadConfigFile(fresh, path); err != nil {
		t.Fatal(err)
	}
	if fresh.GetInt("verbose") != 2 || fresh.GetString("intf") != "dummy" || fresh.GetBool("color") {
		t.Error("saved values did not survive the round trip")
	}
}

// ── Command line ─────────────────────────────────────────────────────

func TestFlagSetTolerantInHelpPhase(t *testing.T) {
	s := testStore()

	fs := FlagSet("vlc", s)
	err := fs.Parse([]string{"--verbose", "2", "--waveout-gain", "0.5", "a.mp4"})
	if err != nil {
		t.Fatalf("help phase should tolerate unknown flags: %v", err)
	}
	if err := applyFlags(s, fs); err != nil {
		t.Fatal(err)
	}
	if s.GetInt("verbose") != 2 {
		t.Error("known flag not applied")
	}
}

func TestFlagSetStrictInFullPhase(t *testing.T) {
	s := testStore()
	s.CompleteHelpPhase()

	fs := FlagSet("vlc", s)
	fs.SetOutput(discard{})
	if err := fs.Parse([]string{"--no-such-flag"}); err == nil {
		t.Error("full phase should reject unknown flags")
	}
}

func TestCmdLinePassOnlyOverlaysChangedFlags(t *testing.T) {
	s := testStore()
	fs := FlagSet("vlc", s)
	if err := fs.Parse([]string{"--quiet"}); err != nil {
		t.Fatal(err)
	}
	if err := applyFlags(s, fs); err != nil {
		t.Fatal(err)
	}

	if !s.IsSet("quiet") {
		t.Error("changed flag should be overlaid")
	}
	if s.IsSet("verbose") {
		t.Error("untouched flag must not be overlaid")
	}
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
