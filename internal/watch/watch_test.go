package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func TestFile_DebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "supabase.json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- File(ctx, target, 200*time.Millisecond, quietLogger(), func() { calls.Add(1) })
	}()
	time.Sleep(100 * time.Millisecond)

	for i := 0; i < 3; i++ {
		_ = os.WriteFile(target, []byte(`{"n":`+string(rune('0'+i))+`}`), 0o600)
		time.Sleep(20 * time.Millisecond)
	}

	eventually(t, 3*time.Second, 50*time.Millisecond, func() bool {
		return calls.Load() >= 1
	}, "callback not fired after writes")

	time.Sleep(400 * time.Millisecond)
	if n := calls.Load(); n != 1 {
		t.Errorf("calls = %d, want 1 (debounced)", n)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("File returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("File did not stop on cancel")
	}
}

func TestFile_IgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "supabase.json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	go File(ctx, target, 50*time.Millisecond, quietLogger(), func() { calls.Add(1) })
	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0o600)
	time.Sleep(300 * time.Millisecond)
	if n := calls.Load(); n != 0 {
		t.Errorf("calls = %d, want 0", n)
	}
}

func TestFile_MissingDirectory(t *testing.T) {
	err := File(context.Background(), filepath.Join(t.TempDir(), "nope", "x.json"), 0, quietLogger(), func() {})
	if err == nil {
		t.Error("expected error for missing directory")
	}
}
