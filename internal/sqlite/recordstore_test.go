package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rpggio/focusboard/internal/recordstore"
	"github.com/rpggio/focusboard/internal/snapshot"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations())
	return db
}

func testRecord(id string, modifiedAt time.Time) recordstore.Record {
	data, _ := json.Marshal(map[string]string{"project_id": "p-" + id, "text": "task " + id})
	return recordstore.Record{
		Kind:       recordstore.KindFocusTask,
		ID:         id,
		Data:       data,
		ModifiedAt: modifiedAt,
	}
}

func TestRecordStoreSaveAndFetchAll(t *testing.T) {
	store := NewRecordStore(newTestDB(t), nil)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	var records []recordstore.Record
	for i := 0; i < 5; i++ {
		records = append(records, testRecord(fmt.Sprintf("id-%03d", i), now))
	}
	result, err := store.Save(ctx, records)
	require.NoError(t, err)
	require.Equal(t, 5, result.Succeeded)
	require.Empty(t, result.Failures)

	fetched, err := store.FetchAll(ctx, recordstore.KindFocusTask)
	require.NoError(t, err)
	require.Len(t, fetched, 5)
	require.Equal(t, "id-000", fetched[0].ID)
	require.JSONEq(t, string(records[0].Data), string(fetched[0].Data))
}

func TestRecordStoreFetchAllPagination(t *testing.T) {
	store := NewRecordStore(newTestDB(t), nil)
	store.pageSize = 3
	ctx := context.Background()
	now := time.Now().UTC()

	var records []recordstore.Record
	for i := 0; i < 10; i++ {
		records = append(records, testRecord(fmt.Sprintf("id-%03d", i), now))
	}
	_, err := store.Save(ctx, records)
	require.NoError(t, err)

	fetched, err := store.FetchAll(ctx, recordstore.KindFocusTask)
	require.NoError(t, err)
	require.Len(t, fetched, 10)
	for i, rec := range fetched {
		require.Equal(t, fmt.Sprintf("id-%03d", i), rec.ID)
	}
}

func TestRecordStoreSaveUpserts(t *testing.T) {
	store := NewRecordStore(newTestDB(t), nil)
	ctx := context.Background()

	first := testRecord("id-1", time.Now().UTC())
	_, err := store.Save(ctx, []recordstore.Record{first})
	require.NoError(t, err)

	updated := first
	updated.Data = json.RawMessage(`{"project_id":"p-id-1","text":"rewritten"}`)
	_, err = store.Save(ctx, []recordstore.Record{updated})
	require.NoError(t, err)

	fetched, err := store.FetchAll(ctx, recordstore.KindFocusTask)
	require.NoError(t, err)
	require.Len(t, fetched, 1)
	require.JSONEq(t, string(updated.Data), string(fetched[0].Data))
}

func TestRecordStoreKindsAreIsolated(t *testing.T) {
	store := NewRecordStore(newTestDB(t), nil)
	ctx := context.Background()

	task := testRecord("shared-id", time.Now().UTC())
	proj := task
	proj.Kind = recordstore.KindProject

	_, err := store.Save(ctx, []recordstore.Record{task, proj})
	require.NoError(t, err)

	tasks, err := store.FetchAll(ctx, recordstore.KindFocusTask)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	projects, err := store.FetchAll(ctx, recordstore.KindProject)
	require.NoError(t, err)
	require.Len(t, projects, 1)
}

func TestRecordStoreFetchByIDs(t *testing.T) {
	store := NewRecordStore(newTestDB(t), nil)
	store.chunkSize = 2
	ctx := context.Background()
	now := time.Now().UTC()

	var records []recordstore.Record
	for i := 0; i < 5; i++ {
		records = append(records, testRecord(fmt.Sprintf("id-%d", i), now))
	}
	_, err := store.Save(ctx, records)
	require.NoError(t, err)

	// Chunked lookup including a missing ID.
	fetched, err := store.FetchByIDs(ctx, recordstore.KindFocusTask, []string{"id-0", "id-2", "id-4", "missing"})
	require.NoError(t, err)
	require.Len(t, fetched, 3)

	fetched, err = store.FetchByIDs(ctx, recordstore.KindFocusTask, nil)
	require.NoError(t, err)
	require.Empty(t, fetched)
}

func TestRecordStoreDelete(t *testing.T) {
	store := NewRecordStore(newTestDB(t), nil)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := store.Save(ctx, []recordstore.Record{
		testRecord("id-1", now),
		testRecord("id-2", now),
		testRecord("id-3", now),
	})
	require.NoError(t, err)

	result, err := store.Delete(ctx, recordstore.KindFocusTask, []string{"id-1", "id-3"})
	require.NoError(t, err)
	require.Equal(t, 2, result.Succeeded)

	remaining, err := store.FetchAll(ctx, recordstore.KindFocusTask)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	require.Equal(t, "id-2", remaining[0].ID)
}

func TestRecordStoreQueryByPayloadField(t *testing.T) {
	store := NewRecordStore(newTestDB(t), nil)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := store.Save(ctx, []recordstore.Record{
		testRecord("id-1", now),
		testRecord("id-2", now),
		testRecord("id-3", now),
	})
	require.NoError(t, err)

	found, err := store.Query(ctx, recordstore.KindFocusTask, "project_id", []string{"p-id-1", "p-id-3"})
	require.NoError(t, err)
	require.Len(t, found, 2)

	found, err = store.Query(ctx, recordstore.KindFocusTask, "project_id", []string{"p-none"})
	require.NoError(t, err)
	require.Empty(t, found)
}

func TestKVSaveLoadRoundTrip(t *testing.T) {
	kv := NewKV(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, kv.Save(ctx, "shared_projects", []byte(`[{"id":"p1"}]`)))
	value, err := kv.Load(ctx, "shared_projects")
	require.NoError(t, err)
	require.JSONEq(t, `[{"id":"p1"}]`, string(value))

	// Overwrite replaces the value.
	require.NoError(t, kv.Save(ctx, "shared_projects", []byte(`[]`)))
	value, err = kv.Load(ctx, "shared_projects")
	require.NoError(t, err)
	require.Equal(t, `[]`, string(value))
}

func TestKVLoadMissingKey(t *testing.T) {
	kv := NewKV(newTestDB(t))

	_, err := kv.Load(context.Background(), "never_written")
	require.ErrorIs(t, err, snapshot.ErrNoValue)
}
