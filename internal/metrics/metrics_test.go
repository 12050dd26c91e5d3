package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestOperation(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg)

	r.Operation("reserve", "applied")
	r.Operation("reserve", "applied")
	r.Operation("reserve", "skipped")

	if got := testutil.ToFloat64(r.operations.WithLabelValues("reserve", "applied")); got != 2 {
		t.Errorf("reserve/applied = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.operations.WithLabelValues("reserve", "skipped")); got != 1 {
		t.Errorf("reserve/skipped = %v, want 1", got)
	}
}

func TestSnapshot(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg)

	r.Snapshot(3, map[string]int{"linux": 2, "windows": 0}, 1)
	r.Snapshot(3, map[string]int{"linux": 1}, 0)

	want := `
# HELP lockable_registry_free_resources Free resources carrying the label.
# TYPE lockable_registry_free_resources gauge
lockable_registry_free_resources{label="linux"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(want), "lockable_registry_free_resources"); err != nil {
		t.Error(err)
	}
	if got := testutil.ToFloat64(r.resources); got != 3 {
		t.Errorf("resources = %v, want 3", got)
	}
	if got := testutil.ToFloat64(r.queued); got != 0 {
		t.Errorf("queued = %v, want 0", got)
	}
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	r.Operation("reset", "applied")
	r.Snapshot(1, nil, 0)
	r.ObserveAcquire(0.1, true)
	if r.OperationCounter("reset", "applied") != nil || r.FreeGauge("linux") != nil || r.QueuedGauge() != nil {
		t.Error("accessors on a nil Recorder should return nil")
	}
}
