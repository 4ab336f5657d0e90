package cmd

import (
	"context"
	"testing"
	"time"
)

func testEnv(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())
	t.Setenv("VLC_VERBOSE", "")
}

func TestExecuteVersion(t *testing.T) {
	testEnv(t)
	if code := Execute(context.Background(), []string{"--version"}); code != ExitSuccess {
		t.Errorf("exit code = %d, want %d", code, ExitSuccess)
	}
}

func TestExecuteHelp(t *testing.T) {
	testEnv(t)
	if code := Execute(context.Background(), []string{"--help"}); code != ExitSuccess {
		t.Errorf("exit code = %d, want %d", code, ExitSuccess)
	}
}

func TestExecuteUnknownFlag(t *testing.T) {
	testEnv(t)
	if code := Execute(context.Background(), []string{"--no-such-flag"}); code != ExitFailure {
		t.Errorf("exit code = %d, want %d", code, ExitFailure)
	}
}

func TestExecuteRunsUntilCancelled(t *testing.T) {
	testEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan int, 1)
	go func() { done <- Execute(ctx, []string{"-q", "a.mp4"}) }()

	// Let the bootstrap reach the interface loop, then stop it.
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case code := <-done:
		if code != ExitSuccess {
			t.Errorf("exit code = %d, want %d", code, ExitSuccess)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Execute did not return after cancellation")
	}
}
