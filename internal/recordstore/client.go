package recordstore

import "context"

// Client provides access to the shared record store.
//
// FetchAll pages through the store transparently: implementations loop on
// their continuation token until exhausted and return a fully materialized
// list. Save and Delete are batch-chunked; a failed chunk does not abort
// sibling chunks, and per-record failures are reported in the result so
// the caller can decide whether a partial write is acceptable (it usually
// is, since the next sync pass retries from scratch).
type Client interface {
	// FetchAll returns every record of the given kind.
	FetchAll(ctx context.Context, kind Kind) ([]Record, error)

	// FetchByIDs returns the records matching the given IDs. IDs with no
	// matching record are simply absent from the result, not an error.
	FetchByIDs(ctx context.Context, kind Kind, ids []string) ([]Record, error)

	// Save upserts the given records, keyed by each record's stable ID.
	Save(ctx context.Context, records []Record) (BatchResult, error)

	// Delete removes the records with the given IDs. Missing IDs are not
	// an error.
	Delete(ctx context.Context, kind Kind, ids []string) (BatchResult, error)

	// Query returns every record of the kind whose payload field equals
	// one of the given values.
	Query(ctx context.Context, kind Kind, field string, values []string) ([]Record, error)
}

// BatchResult reports the outcome of a chunked Save or Delete.
type BatchResult struct {
	Succeeded int
	Failures  []RecordFailure
}

// RecordFailure identifies a single record that could not be written or
// deleted.
type RecordFailure struct {
	ID  string
	Err error
}

// Partial reports whether some records failed while others succeeded.
func (r BatchResult) Partial() bool {
	return len(r.Failures) > 0 && r.Succeeded > 0
}
