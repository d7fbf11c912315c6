// Package recordstore defines the client surface for the shared
// multi-device record store. It is pure I/O: reading, writing, deleting
// and querying typed raw records. Merge policy lives in the reconcile
// package; nothing here interprets record payloads.
package recordstore

import (
	"encoding/json"
	"time"
)

// Kind discriminates record types within the store.
type Kind string

const (
	KindProject        Kind = "Project"
	KindFocusedProject Kind = "FocusedProject"
	KindFocusTask      Kind = "FocusTask"
)

// Record is the raw envelope stored remotely. ID is caller-supplied and
// stable, so saves are idempotent upserts. Data carries the JSON payload
// for the kind; decoding (and skipping malformed payloads) is the
// caller's concern.
type Record struct {
	Kind       Kind            `json:"kind"`
	ID         string          `json:"id"`
	Data       json.RawMessage `json:"data"`
	ModifiedAt time.Time       `json:"modified_at"`
}
