package config

import (
	"context"
	"os"
	"testing"
	"time"
)

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestWatcherReloads(t *testing.T) {
	path := writeConfig(t, "time_budget_ms: 100\n")
	initial, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	watcher, err := NewWatcher(path, initial)
	if err != nil {
		t.Fatal(err)
	}
	watcher.debounce = 10 * time.Millisecond

	changes := make(chan *File, 4)
	watcher.OnChange(func(f *File) { changes <- f })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- watcher.Run(ctx) }()

	// Give the watcher a moment to register before writing.
	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(path, []byte("time_budget_ms: 75\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "reload", func() bool { return watcher.Current().Engine.TimeBudgetMS == 75 })

	select {
	case f := <-changes:
		if f.Engine.TimeBudgetMS != 75 {
			t.Errorf("listener got budget %d", f.Engine.TimeBudgetMS)
		}
	case <-time.After(time.Second):
		t.Error("listener was not called")
	}

	// A broken file keeps the last good configuration.
	if err := os.WriteFile(path, []byte("time_budget_ms: [\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)
	if got := watcher.Current().Engine.TimeBudgetMS; got != 75 {
		t.Errorf("broken file replaced the config, budget now %d", got)
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run: %v", err)
	}
}

func TestNewWatcherNeedsPath(t *testing.T) {
	if _, err := NewWatcher("", nil); err == nil {
		t.Fatal("expected an error for an empty path")
	}
}
