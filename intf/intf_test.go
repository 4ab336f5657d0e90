package intf

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/schokhani1999/vlc/internal/bus"
	"github.com/schokhani1999/vlc/playlist"
)

func testEnv(t *testing.T) Env {
	t.Helper()
	pl, err := playlist.Create(uuid.New())
	if err != nil {
		t.Fatal(err)
	}
	return Env{Log: zerolog.Nop(), Playlist: pl}
}

// ── Creation ─────────────────────────────────────────────────────────

func TestCreateKnownModules(t *testing.T) {
	env := testEnv(t)
	for _, name := range []string{"dummy", "logger", "hotkeys"} {
		t.Run(name, func(t *testing.T) {
			i, err := Create(name, env, nil)
			if err != nil {
				t.Fatal(err)
			}
			if i.Name != name {
				t.Errorf("Name = %q, want %q", i.Name, name)
			}
		})
	}
}

func TestCreateUnknownModule(t *testing.T) {
	if _, err := Create("telnet", testEnv(t), nil); err == nil {
		t.Error("unknown module should fail")
	}
}

func TestCreateStripsFallbackSuffix(t *testing.T) {
	i, err := Create("dummy,none", testEnv(t), nil)
	if err != nil {
		t.Fatal(err)
	}
	if i.Name != "dummy" {
		t.Errorf("Name = %q, want dummy", i.Name)
	}
}

func TestControlRequiresBusAndPlaylist(t *testing.T) {
	env := testEnv(t)
	if _, err := Create("control", env, nil); err == nil {
		t.Error("control without a bus should fail")
	}

	env.Bus = bus.New(t.TempDir(), zerolog.Nop())
	defer env.Bus.Close()
	env.Playlist = nil
	if _, err := Create("control", env, nil); err == nil {
		t.Error("control without a playlist should fail")
	}
}

// ── Lifecycle ────────────────────────────────────────────────────────

func TestStartAndDestroy(t *testing.T) {
	i, err := Create("dummy", testEnv(t), nil)
	if err != nil {
		t.Fatal(err)
	}
	i.Start(context.Background())

	done := make(chan struct{})
	go func() {
		i.Destroy()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Destroy did not stop the interface")
	}

	// Second Destroy is a no-op.
	i.Destroy()
}

func TestRunStopsOnContextCancel(t *testing.T) {
	i, err := Create("logger", testEnv(t), nil)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- i.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v after cancel", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

// ── Control interface ────────────────────────────────────────────────

func TestControlFeedsPlaylist(t *testing.T) {
	dir := t.TempDir()

	env := testEnv(t)
	env.Bus = bus.New(dir, zerolog.Nop())
	defer env.Bus.Close()
	if owned, err := env.Bus.ClaimName("org.videolan.vlc"); err != nil || !owned {
		t.Fatalf("claim = (%v, %v)", owned, err)
	}

	i, err := Create("control", env, nil)
	if err != nil {
		t.Fatal(err)
	}
	i.Start(context.Background())
	defer i.Destroy()

	client := bus.New(dir, zerolog.Nop())
	defer client.Close()

	send := func(uri string, enqueue bool) {
		t.Helper()
		var reply addTargetReply
		err := client.SendRequest("org.videolan.vlc", "playlist.AddTarget",
			addTargetArgs{URI: uri, Enqueue: enqueue}, &reply, 2*time.Second)
		if err != nil {
			t.Fatal(err)
		}
		if !reply.OK {
			t.Error("handler did not acknowledge")
		}
	}
	send("a.mp4", false)
	send("b.mp4", true)

	items := env.Playlist.Items()
	if len(items) != 2 {
		t.Fatalf("playlist has %d items, want 2", len(items))
	}
	if items[0].URI != "a.mp4" || items[1].URI != "b.mp4" {
		t.Errorf("playlist order = [%s %s]", items[0].URI, items[1].URI)
	}
}

func TestControlRejectsBadPayload(t *testing.T) {
	env := testEnv(t)
	env.Bus = bus.New(t.TempDir(), zerolog.Nop())
	defer env.Bus.Close()
	if _, err := env.Bus.ClaimName("org.videolan.vlc"); err != nil {
		t.Fatal(err)
	}

	r, err := newControl(env, nil)
	if err != nil {
		t.Fatal(err)
	}
	c := r.(*controlIntf)

	bad, _ := msgpack.Marshal("not a struct")
	if _, err := c.handleAddTarget(bad); err == nil {
		t.Error("malformed payload should error")
	}
}
