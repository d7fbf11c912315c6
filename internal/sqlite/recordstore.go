package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rpggio/focusboard/internal/recordstore"
)

const (
	defaultPageSize  = 100
	defaultChunkSize = 400
)

// RecordStore implements recordstore.Client on a SQLite database. It
// stands in for the hosted multi-device store: several devices (or tests)
// pointing at the same database file see the same records.
type RecordStore struct {
	db        *DB
	logger    *slog.Logger
	pageSize  int
	chunkSize int
}

// NewRecordStore creates a RecordStore with default paging and chunking.
func NewRecordStore(db *DB, logger *slog.Logger) *RecordStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecordStore{
		db:        db,
		logger:    logger,
		pageSize:  defaultPageSize,
		chunkSize: defaultChunkSize,
	}
}

// FetchAll returns every record of the kind, paging on the last seen ID
// until a short page signals exhaustion.
func (s *RecordStore) FetchAll(ctx context.Context, kind recordstore.Kind) ([]recordstore.Record, error) {
	var all []recordstore.Record
	cursor := ""

	for {
		rows, err := s.db.QueryContext(ctx, `
			SELECT id, data, modified_at FROM records
			WHERE kind = ? AND id > ?
			ORDER BY id
			LIMIT ?
		`, string(kind), cursor, s.pageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s records: %w", kind, err)
		}

		page, err := scanRecords(rows, kind)
		if err != nil {
			return nil, err
		}

		all = append(all, page...)
		if len(page) < s.pageSize {
			return all, nil
		}
		cursor = page[len(page)-1].ID
	}
}

// FetchByIDs returns the records matching the given IDs. Missing IDs are
// absent from the result, not an error.
func (s *RecordStore) FetchByIDs(ctx context.Context, kind recordstore.Kind, ids []string) ([]recordstore.Record, error) {
	var all []recordstore.Record
	for _, chunk := range chunkStrings(ids, s.chunkSize) {
		query := fmt.Sprintf(`
			SELECT id, data, modified_at FROM records
			WHERE kind = ? AND id IN (%s)
			ORDER BY id
		`, placeholders(len(chunk)))

		args := make([]any, 0, len(chunk)+1)
		args = append(args, string(kind))
		for _, id := range chunk {
			args = append(args, id)
		}

		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s records by id: %w", kind, err)
		}
		page, err := scanRecords(rows, kind)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
	}
	return all, nil
}

// Save upserts records in chunks. A failed chunk is reported per record
// and does not abort sibling chunks.
func (s *RecordStore) Save(ctx context.Context, records []recordstore.Record) (recordstore.BatchResult, error) {
	var result recordstore.BatchResult

	for _, chunk := range chunkRecords(records, s.chunkSize) {
		if err := s.saveChunk(ctx, chunk); err != nil {
			s.logger.Warn("record chunk save failed", "count", len(chunk), "error", err)
			for _, rec := range chunk {
				result.Failures = append(result.Failures, recordstore.RecordFailure{ID: rec.ID, Err: err})
			}
			continue
		}
		result.Succeeded += len(chunk)
	}

	return result, nil
}

func (s *RecordStore) saveChunk(ctx context.Context, chunk []recordstore.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (kind, id, data, modified_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(kind, id) DO UPDATE SET
			data = excluded.data,
			modified_at = excluded.modified_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range chunk {
		modified := rec.ModifiedAt
		if modified.IsZero() {
			modified = time.Now().UTC()
		}
		if _, err := stmt.ExecContext(ctx, string(rec.Kind), rec.ID, string(rec.Data), modified); err != nil {
			return fmt.Errorf("failed to upsert record %s: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit record chunk: %w", err)
	}
	return nil
}

// Delete removes records by ID in chunks with independent failure.
func (s *RecordStore) Delete(ctx context.Context, kind recordstore.Kind, ids []string) (recordstore.BatchResult, error) {
	var result recordstore.BatchResult

	for _, chunk := range chunkStrings(ids, s.chunkSize) {
		query := fmt.Sprintf(`DELETE FROM records WHERE kind = ? AND id IN (%s)`, placeholders(len(chunk)))
		args := make([]any, 0, len(chunk)+1)
		args = append(args, string(kind))
		for _, id := range chunk {
			args = append(args, id)
		}

		if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
			s.logger.Warn("record chunk delete failed", "count", len(chunk), "error", err)
			for _, id := range chunk {
				result.Failures = append(result.Failures, recordstore.RecordFailure{ID: id, Err: err})
			}
			continue
		}
		result.Succeeded += len(chunk)
	}

	return result, nil
}

// Query returns records of the kind whose payload field equals one of the
// given values.
func (s *RecordStore) Query(ctx context.Context, kind recordstore.Kind, field string, values []string) ([]recordstore.Record, error) {
	if len(values) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT id, data, modified_at FROM records
		WHERE kind = ? AND json_extract(data, ?) IN (%s)
		ORDER BY id
	`, placeholders(len(values)))

	args := make([]any, 0, len(values)+2)
	args = append(args, string(kind), "$."+field)
	for _, v := range values {
		args = append(args, v)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s records by %s: %w", kind, field, err)
	}
	return scanRecords(rows, kind)
}

func scanRecords(rows *sql.Rows, kind recordstore.Kind) ([]recordstore.Record, error) {
	defer rows.Close()

	var records []recordstore.Record
	for rows.Next() {
		var (
			rec  recordstore.Record
			data string
		)
		if err := rows.Scan(&rec.ID, &data, &rec.ModifiedAt); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		rec.Kind = kind
		rec.Data = json.RawMessage(data)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating record rows: %w", err)
	}
	return records, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func chunkStrings(items []string, size int) [][]string {
	var chunks [][]string
	for len(items) > size {
		chunks = append(chunks, items[:size])
		items = items[size:]
	}
	if len(items) > 0 {
		chunks = append(chunks, items)
	}
	return chunks
}

func chunkRecords(items []recordstore.Record, size int) [][]recordstore.Record {
	var chunks [][]recordstore.Record
	for len(items) > size {
		chunks = append(chunks, items[:size])
		items = items[size:]
	}
	if len(items) > 0 {
		chunks = append(chunks, items)
	}
	return chunks
}
