package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/compensation-engine/store"
)

func TestMemory_FindReturnsKeyAndMatchesFilter(t *testing.T) {
	// GIVEN: two records in a table
	// WHEN: finding with an equality filter
	// THEN: only matches return, each carrying its key under KeyField

	ctx := context.Background()
	mem := store.NewMemory()
	require.NoError(t, mem.UpsertByKey(ctx, "claims", "irn-1", store.Record{"irn": "irn-1", "worker_id": "w-1"}))
	require.NoError(t, mem.UpsertByKey(ctx, "claims", "irn-2", store.Record{"irn": "irn-2", "worker_id": "w-2"}))

	recs, err := mem.Find(ctx, "claims", store.Filter{"worker_id": "w-1"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "irn-1", recs[0][store.KeyField])
}

func TestMemory_UpsertReplacesWholeRecord(t *testing.T) {
	// GIVEN: a record with two fields
	// WHEN: upserting the same key with one field
	// THEN: the old field set is fully replaced

	ctx := context.Background()
	mem := store.NewMemory()
	require.NoError(t, mem.UpsertByKey(ctx, "claims", "irn-1", store.Record{"a": "1", "b": "2"}))
	require.NoError(t, mem.UpsertByKey(ctx, "claims", "irn-1", store.Record{"a": "9"}))

	recs, err := mem.Find(ctx, "claims", store.Filter{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "9", recs[0]["a"])
	assert.Empty(t, recs[0]["b"])
}

func TestMemory_InsertGeneratesDistinctKeys(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	k1, err := mem.Insert(ctx, "rows", store.Record{"n": "1"})
	require.NoError(t, err)
	k2, err := mem.Insert(ctx, "rows", store.Record{"n": "2"})
	require.NoError(t, err)
	assert.NotEqual(t, k1, k2)

	recs, err := mem.Find(ctx, "rows", store.Filter{})
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestMemory_DeleteByKeyIsIdempotent(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	require.NoError(t, mem.UpsertByKey(ctx, "rows", "k", store.Record{"n": "1"}))

	require.NoError(t, mem.DeleteByKey(ctx, "rows", "k"))
	require.NoError(t, mem.DeleteByKey(ctx, "rows", "k"), "missing key is not an error")

	recs, err := mem.Find(ctx, "rows", store.Filter{})
	require.NoError(t, err)
	assert.Empty(t, recs)
}
