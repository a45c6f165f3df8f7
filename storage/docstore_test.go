package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tmf.evalgo.org/model"
)

func TestMemoryDocStore_CreateThenGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryDocStore()

	doc := &model.Document{DocID: "d1", DocNumber: "REG-TMF-00001", Status: model.StatusDraft}
	require.NoError(t, store.Create(ctx, doc))
	assert.NotEmpty(t, doc.StoreRevision)

	fetched, err := store.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "REG-TMF-00001", fetched.DocNumber)
}

func TestMemoryDocStore_CreateDuplicateConflicts(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryDocStore()

	doc := &model.Document{DocID: "d1"}
	require.NoError(t, store.Create(ctx, doc))

	err := store.Create(ctx, &model.Document{DocID: "d1"})
	require.Error(t, err)
}

func TestMemoryDocStore_SaveRejectsStaleRevision(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryDocStore()

	doc := &model.Document{DocID: "d1", Status: model.StatusDraft}
	require.NoError(t, store.Create(ctx, doc))

	staleCopy := doc.Clone()

	doc.Status = model.StatusInQC
	require.NoError(t, store.Save(ctx, doc))

	staleCopy.Status = model.StatusWithdrawn
	err := store.Save(ctx, staleCopy)
	require.Error(t, err)
}

func TestMemoryDocStore_ByLineageAndAmendedFrom(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryDocStore()

	require.NoError(t, store.Create(ctx, &model.Document{DocID: "d1", LineageID: "l1"}))
	require.NoError(t, store.Create(ctx, &model.Document{DocID: "d2", LineageID: "l1", AmendedFrom: "d1"}))
	require.NoError(t, store.Create(ctx, &model.Document{DocID: "d3", LineageID: "l2"}))

	lineage, err := store.ByLineage(ctx, "l1")
	require.NoError(t, err)
	assert.Len(t, lineage, 2)

	amendments, err := store.ByAmendedFrom(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, amendments, 1)
	assert.Equal(t, "d2", amendments[0].DocID)
}

func TestMemoryDocStore_ListMyTasks(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryDocStore()

	require.NoError(t, store.Create(ctx, &model.Document{
		DocID:  "d1",
		Status: model.StatusInQC,
		QCBallots: []model.Ballot{
			{PrincipalID: "u2", Decision: model.DecisionPending},
		},
	}))
	require.NoError(t, store.Create(ctx, &model.Document{
		DocID:  "d2",
		Status: model.StatusApproved,
	}))

	tasks, err := store.List(ctx, ListFilter{PendingForPrincipal: "u2"})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "d1", tasks[0].DocID)
}

func TestMemoryDocStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryDocStore()

	require.NoError(t, store.Create(ctx, &model.Document{DocID: "d1"}))
	require.NoError(t, store.Delete(ctx, "d1"))

	_, err := store.Get(ctx, "d1")
	require.Error(t, err)
}

func TestMemoryDocStore_PendingSupersession(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryDocStore()

	require.NoError(t, store.Create(ctx, &model.Document{DocID: "d1", PendingSupersession: "d2"}))
	require.NoError(t, store.Create(ctx, &model.Document{DocID: "d3"}))

	pending, err := store.PendingSupersession(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "d1", pending[0].DocID)
}
