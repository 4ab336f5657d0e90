package core

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestAcquireReleaseBalanced(t *testing.T) {
	if InstanceCount() != 0 {
		t.Fatalf("dirty global state: count = %d", InstanceCount())
	}

	h := Acquire()
	if h == nil || h.Bank == nil {
		t.Fatal("first acquire must populate the shared state")
	}
	if !Ready() {
		t.Error("state should be ready after acquire")
	}
	if InstanceCount() != 1 {
		t.Errorf("count = %d, want 1", InstanceCount())
	}

	h2 := Acquire()
	if h2 != h {
		t.Error("second acquire must return the same shared state")
	}

	Release(h2)
	if InstanceCount() != 1 {
		t.Errorf("count after one release = %d, want 1", InstanceCount())
	}
	Release(h)
	if InstanceCount() != 0 || Ready() {
		t.Error("last release must reset the state")
	}
}

func TestConcurrentAcquireRelease(t *testing.T) {
	const n = 64

	var teardowns atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})

	// The hook must be registered inside the first epoch; acquire one
	// hold first so the epoch is open while goroutines churn.
	outer := Acquire()
	OnProcessTeardown(func() { teardowns.Add(1) })

	for g := 0; g < n; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			h := Acquire()
			Release(h)
		}()
	}
	close(start)
	wg.Wait()

	if InstanceCount() != 1 {
		t.Errorf("count = %d, want 1 (outer hold)", InstanceCount())
	}
	if teardowns.Load() != 0 {
		t.Error("teardown ran while a hold remained")
	}

	Release(outer)
	if teardowns.Load() != 1 {
		t.Errorf("teardown ran %d times, want exactly 1", teardowns.Load())
	}
	if InstanceCount() != 0 {
		t.Errorf("final count = %d, want 0", InstanceCount())
	}
}

func TestTeardownOrderReversed(t *testing.T) {
	h := Acquire()

	var order []string
	OnProcessTeardown(func() { order = append(order, "first") })
	OnProcessTeardown(func() { order = append(order, "second") })

	Release(h)
	if len(order) != 2 || order[0] != "second" || order[1] != "first" {
		t.Errorf("teardown order = %v, want [second first]", order)
	}
}

func TestReleaseWithoutAcquirePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("unmatched release must panic")
		}
	}()
	Release(&SharedState{})
}

func TestDoubleReleasePanics(t *testing.T) {
	h := Acquire()
	Release(h)

	defer func() {
		if recover() == nil {
			t.Error("double release must panic")
		}
	}()
	Release(h)
}
