package reload

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Iron-Ham/lockable/internal/config"
	"github.com/Iron-Ham/lockable/internal/registry"
	"github.com/google/go-cmp/cmp"
)

const testDebounce = 20 * time.Millisecond

// startWatcher runs w until the test ends.
func startWatcher(t *testing.T, w *Watcher) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Run() error: %v", err)
		}
	})
}

// eventually polls cond until it holds or the deadline passes.
func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal(msg)
}

func writeDefs(t *testing.T, path string, defs []config.ResourceDef) {
	t.Helper()
	if err := config.WriteDefinitions(path, defs); err != nil {
		t.Fatalf("WriteDefinitions() error: %v", err)
	}
}

func TestWatcher_AppliesOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resources.yaml")
	writeDefs(t, path, []config.ResourceDef{{Name: "A"}})

	var calls atomic.Int32
	w, err := New(path, testDebounce, func() error {
		calls.Add(1)
		return nil
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	startWatcher(t, w)

	writeDefs(t, path, []config.ResourceDef{{Name: "A"}, {Name: "B"}})
	eventually(t, func() bool { return calls.Load() > 0 }, "apply was never called")
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "resources.yaml")
	writeDefs(t, path, []config.ResourceDef{{Name: "A"}})

	var calls atomic.Int32
	w, err := New(path, testDebounce, func() error {
		calls.Add(1)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	startWatcher(t, w)

	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(10 * testDebounce)
	if n := calls.Load(); n != 0 {
		t.Errorf("apply called %d times for an unrelated file", n)
	}
}

func TestWatcher_Debounces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resources.yaml")
	writeDefs(t, path, []config.ResourceDef{{Name: "A"}})

	var calls atomic.Int32
	w, err := New(path, 200*time.Millisecond, func() error {
		calls.Add(1)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	startWatcher(t, w)

	for range 5 {
		writeDefs(t, path, []config.ResourceDef{{Name: "A"}})
	}
	eventually(t, func() bool { return calls.Load() > 0 }, "apply was never called")
	time.Sleep(400 * time.Millisecond)
	if n := calls.Load(); n != 1 {
		t.Errorf("apply called %d times for one burst, want 1", n)
	}
}

func TestNew_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "resources.yaml")
	if _, err := New(path, 0, func() error { return nil }); err == nil {
		t.Error("New() should fail when the directory does not exist")
	}
}

func TestDefinitions_ReloadsRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resources.yaml")
	initial := []config.ResourceDef{{Name: "A", Labels: []string{"linux"}}}
	writeDefs(t, path, initial)

	reg, err := registry.New(initial)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := reg.Reserve([]string{"A"}, "alice", "alice"); err != nil {
		t.Fatal(err)
	}

	w, err := New(path, testDebounce, Definitions(reg, path, nil))
	if err != nil {
		t.Fatal(err)
	}
	startWatcher(t, w)

	writeDefs(t, path, []config.ResourceDef{
		{Name: "A", Labels: []string{"linux", "arm"}},
		{Name: "B", Labels: []string{"linux"}},
	})
	eventually(t, func() bool { return reg.Len() == 2 }, "registry was not reloaded")

	a, err := reg.FromName("A")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"linux", "arm"}, a.Labels); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}
	if a.Reservation == nil || a.Reservation.By != "alice" {
		t.Errorf("reservation lost across reload: %+v", a.Reservation)
	}
}

func TestDefinitions_InvalidFileKeepsRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resources.yaml")
	initial := []config.ResourceDef{{Name: "A"}}
	writeDefs(t, path, initial)

	reg, err := registry.New(initial)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("resources:\n  - name: X\n  - name: X\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := Definitions(reg, path, nil)(); err == nil {
		t.Fatal("apply should reject duplicate names")
	}
	if _, err := reg.FromName("A"); err != nil {
		t.Errorf("registry changed after a rejected reload: %v", err)
	}
}
