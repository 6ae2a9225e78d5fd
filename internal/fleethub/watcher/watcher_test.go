package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

type countingReloader struct {
	calls atomic.Int32
	fired chan struct{}
}

func (r *countingReloader) Reload(context.Context) error {
	r.calls.Add(1)
	select {
	case r.fired <- struct{}{}:
	default:
	}
	return nil
}

func TestWatcherDebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "DB.json")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := &countingReloader{fired: make(chan struct{}, 1)}
	w := New(path, 100*time.Millisecond, r)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)

	// Unrelated files in the same directory are ignored.
	if err := os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte(`{"AAA":null}`), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	select {
	case <-r.fired:
	case <-time.After(5 * time.Second):
		t.Fatal("reload was not triggered")
	}

	time.Sleep(300 * time.Millisecond)
	if got := r.calls.Load(); got != 1 {
		t.Errorf("Reload called %d times, want 1", got)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatal(err)
	}
}
