// Package status renders the reported state of every resource, either as
// the machine-readable state document consumed by dashboards and automation
// or as a styled table for terminals.
//
// The state document is one JSON object keyed by resource name in registry
// order. Each value is null for a free resource, or an object describing the
// single reported state:
//
//	{ "A": { "rsvd": "alice", "user": "bob", "acquired": "2024-03-01T09:30:00Z", "locked": null },
//	  "B": { "rsvd": null, "locked": "nightly#42" },
//	  "C": { "rsvd": null, "locked": null, "queued": "nightly" },
//	  "D": null }
//
// "user" is present only for reservations made on behalf of somebody else.
package status

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Iron-Ham/lockable/internal/resource"
)

// Document is the ordered state report.
type Document []resource.Status

// Report derives the state document for rs, keeping their order.
func Report(rs []resource.Resource) Document {
	doc := make(Document, 0, len(rs))
	for _, r := range rs {
		doc = append(doc, resource.Derive(r))
	}
	return doc
}

// Counts returns how many resources are in each state.
func (d Document) Counts() map[resource.State]int {
	counts := make(map[resource.State]int, 4)
	for _, st := range d {
		counts[st.State]++
	}
	return counts
}

type reservedEntry struct {
	Rsvd     string  `json:"rsvd"`
	User     string  `json:"user,omitempty"`
	Acquired string  `json:"acquired"`
	Locked   *string `json:"locked"`
}

type lockedEntry struct {
	Rsvd   *string `json:"rsvd"`
	Locked string  `json:"locked"`
}

type queuedEntry struct {
	Rsvd   *string `json:"rsvd"`
	Locked *string `json:"locked"`
	Queued string  `json:"queued"`
}

func entryFor(st resource.Status) any {
	switch st.State {
	case resource.StateReserved:
		return reservedEntry{
			Rsvd:     st.ReservedBy,
			User:     st.OnBehalf,
			Acquired: st.Acquired.UTC().Format(time.RFC3339),
		}
	case resource.StateLocked:
		return lockedEntry{Locked: st.Build}
	case resource.StateQueued:
		return queuedEntry{Queued: st.QueueLabel()}
	default:
		return nil
	}
}

// MarshalJSON encodes the document as an object whose keys keep registry
// order, which a Go map cannot.
func (d Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, st := range d {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(st.Name)
		if err != nil {
			return nil, fmt.Errorf("encoding resource name: %w", err)
		}
		val, err := json.Marshal(entryFor(st))
		if err != nil {
			return nil, fmt.Errorf("encoding state of %s: %w", st.Name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
