package resource

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestDerive(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	queued := &QueuedClaim{Ticket: "t1", Claimant: "job-1", Project: "proj"}

	tests := []struct {
		name string
		res  Resource
		want Status
	}{
		{
			name: "free",
			res:  Resource{Name: "A"},
			want: Status{Name: "A", State: StateFree},
		},
		{
			name: "reserved with delegate",
			res:  Resource{Name: "A", Reservation: &Reservation{By: "alice", OnBehalf: "bob", At: at}},
			want: Status{Name: "A", State: StateReserved, ReservedBy: "alice", OnBehalf: "bob", Acquired: at},
		},
		{
			name: "locked",
			res:  Resource{Name: "A", LockedBy: "build#4"},
			want: Status{Name: "A", State: StateLocked, Build: "build#4"},
		},
		{
			name: "queued",
			res:  Resource{Name: "A", Queued: queued},
			want: Status{Name: "A", State: StateQueued, Claimant: "job-1", Project: "proj"},
		},
		{
			name: "reserved wins over locked and queued",
			res: Resource{
				Name:        "A",
				Reservation: &Reservation{By: "alice", At: at},
				LockedBy:    "build#4",
				Queued:      queued,
			},
			want: Status{Name: "A", State: StateReserved, ReservedBy: "alice", Acquired: at},
		},
		{
			name: "locked wins over queued",
			res:  Resource{Name: "A", LockedBy: "build#4", Queued: queued},
			want: Status{Name: "A", State: StateLocked, Build: "build#4"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Derive(tt.res)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Derive() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestIsFree(t *testing.T) {
	tests := []struct {
		name string
		res  Resource
		want bool
	}{
		{"empty", Resource{Name: "A"}, true},
		{"queued only", Resource{Name: "A", Queued: &QueuedClaim{Claimant: "x"}}, true},
		{"reserved", Resource{Name: "A", Reservation: &Reservation{By: "alice"}}, false},
		{"locked", Resource{Name: "A", LockedBy: "b1"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.res.IsFree(); got != tt.want {
				t.Errorf("IsFree() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClone(t *testing.T) {
	orig := Resource{
		Name:        "A",
		Labels:      []string{"linux"},
		Reservation: &Reservation{By: "alice"},
		Queued:      &QueuedClaim{Claimant: "job"},
	}
	c := orig.Clone()
	c.Labels[0] = "windows"
	c.Reservation.By = "mallory"
	c.Queued.Claimant = "other"

	if orig.Labels[0] != "linux" {
		t.Errorf("Labels aliased: %v", orig.Labels)
	}
	if orig.Reservation.By != "alice" {
		t.Errorf("Reservation aliased: %q", orig.Reservation.By)
	}
	if orig.Queued.Claimant != "job" {
		t.Errorf("Queued aliased: %q", orig.Queued.Claimant)
	}
}

func TestClearClaims(t *testing.T) {
	r := Resource{
		Name:        "A",
		Reservation: &Reservation{By: "alice"},
		LockedBy:    "b1",
		Queued:      &QueuedClaim{Claimant: "job"},
	}
	r.ClearClaims()
	if !r.IsFree() || r.IsQueued() {
		t.Errorf("ClearClaims() left state %+v", r)
	}
	if r.ReservedBy() != "" {
		t.Errorf("ReservedBy() = %q, want empty", r.ReservedBy())
	}
}

func TestNormalizeLabels(t *testing.T) {
	got := NormalizeLabels([]string{"linux", "", "x86", "linux"})
	want := []string{"linux", "x86"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("NormalizeLabels() mismatch (-want +got):\n%s", diff)
	}
}

func TestQueueLabel(t *testing.T) {
	if got := (Status{Claimant: "job", Project: "proj"}).QueueLabel(); got != "proj" {
		t.Errorf("QueueLabel() = %q, want proj", got)
	}
	if got := (Status{Claimant: "job"}).QueueLabel(); got != "job" {
		t.Errorf("QueueLabel() = %q, want job", got)
	}
}
