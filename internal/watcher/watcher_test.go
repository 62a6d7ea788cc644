package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func Test_NewErrors(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for a missing watch target")
	}
	if _, err := New(t.TempDir()); err == nil {
		t.Error("expected error for a directory watch target")
	}
}

// Test_Watch writes the target and expects a debounced update.
func Test_Watch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("log_level: info\n"), 0644); err != nil {
		t.Fatalf("could not write watch target: %v", err)
	}

	notifier, err := New(path)
	if err != nil {
		t.Fatalf("unexpected notifier error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	watchErr := make(chan error, 1)
	go func() {
		watchErr <- notifier.Watch(ctx)
	}()

	// editors typically write more than once per save.
	for range 2 {
		if err := os.WriteFile(path, []byte("log_level: debug\n"), 0644); err != nil {
			t.Fatalf("could not rewrite watch target: %v", err)
		}
	}

	select {
	case <-notifier.Update():
	case <-time.After(3 * time.Second):
		t.Fatal("no update received for file write")
	}

	cancel()
	if err := <-watchErr; !errors.Is(err, context.Canceled) {
		t.Errorf("watch exit error got %v want context.Canceled", err)
	}
}
