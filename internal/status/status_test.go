package status

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/Iron-Ham/lockable/internal/resource"
	"github.com/charmbracelet/x/ansi"
	"github.com/google/go-cmp/cmp"
)

var acquired = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func sampleResources() []resource.Resource {
	return []resource.Resource{
		{Name: "A", Reservation: &resource.Reservation{By: "alice", OnBehalf: "bob", At: acquired}},
		{Name: "B", LockedBy: "nightly#42"},
		{Name: "C", Queued: &resource.QueuedClaim{Claimant: "job-7", Project: "nightly"}},
		{Name: "D"},
		{Name: "E", Reservation: &resource.Reservation{By: "carol", At: acquired}, LockedBy: "ignored#1"},
		{Name: "F", Queued: &resource.QueuedClaim{Claimant: "job-8"}},
	}
}

func TestDocument_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(Report(sampleResources()))
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	want := `{"A":{"rsvd":"alice","user":"bob","acquired":"2024-03-01T09:30:00Z","locked":null},` +
		`"B":{"rsvd":null,"locked":"nightly#42"},` +
		`"C":{"rsvd":null,"locked":null,"queued":"nightly"},` +
		`"D":null,` +
		`"E":{"rsvd":"carol","acquired":"2024-03-01T09:30:00Z","locked":null},` +
		`"F":{"rsvd":null,"locked":null,"queued":"job-8"}}`
	if string(data) != want {
		t.Errorf("Marshal() =\n%s\nwant\n%s", data, want)
	}
}

func TestDocument_MarshalJSON_Empty(t *testing.T) {
	data, err := json.Marshal(Document{})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "{}" {
		t.Errorf("Marshal(empty) = %s, want {}", data)
	}
}

func TestDocument_Counts(t *testing.T) {
	got := Report(sampleResources()).Counts()
	want := map[resource.State]int{
		resource.StateReserved: 2,
		resource.StateLocked:   1,
		resource.StateQueued:   2,
		resource.StateFree:     1,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Counts() mismatch (-want +got):\n%s", diff)
	}
}

func TestHolder(t *testing.T) {
	tests := []struct {
		name string
		st   resource.Status
		want string
	}{
		{"delegated", resource.Status{State: resource.StateReserved, ReservedBy: "alice", OnBehalf: "bob"}, "alice for bob"},
		{"self", resource.Status{State: resource.StateReserved, ReservedBy: "alice", OnBehalf: "alice"}, "alice"},
		{"locked", resource.Status{State: resource.StateLocked, Build: "b#1"}, "b#1"},
		{"queued project", resource.Status{State: resource.StateQueued, Claimant: "j", Project: "p"}, "p"},
		{"free", resource.Status{State: resource.StateFree}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Holder(tt.st); got != tt.want {
				t.Errorf("Holder() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderTable(t *testing.T) {
	out := ansi.Strip(RenderTable(Report(sampleResources()), 0))
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")

	if len(lines) != 7 {
		t.Fatalf("RenderTable() produced %d lines, want header + 6:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "NAME") || !strings.Contains(lines[0], "HOLDER") {
		t.Errorf("header = %q", lines[0])
	}
	for i, want := range []string{"alice for bob", "nightly#42", "nightly", "free"} {
		if !strings.Contains(lines[i+1], want) {
			t.Errorf("line %d = %q, want it to contain %q", i+1, lines[i+1], want)
		}
	}
}

func TestRenderTable_TruncatesHolder(t *testing.T) {
	doc := Document{{
		Name:  "A",
		State: resource.StateLocked,
		Build: strings.Repeat("x", 200),
	}}
	out := ansi.Strip(RenderTable(doc, 60))
	if strings.Contains(out, strings.Repeat("x", 100)) {
		t.Errorf("holder was not truncated:\n%s", out)
	}
	if !strings.Contains(out, "...") {
		t.Errorf("truncated holder should end with an ellipsis:\n%s", out)
	}
}

func TestRenderSummary(t *testing.T) {
	got := ansi.Strip(RenderSummary(Report(sampleResources())))
	want := "free: 1  reserved: 2  locked: 1  queued: 2"
	if got != want {
		t.Errorf("RenderSummary() = %q, want %q", got, want)
	}
}
