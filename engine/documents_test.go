package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tmf.evalgo.org/model"
	"tmf.evalgo.org/storage"
)

func TestEngine_ListDocuments_ReturnsLatestPerLineage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d, err := f.engine.CreateDocument(ctx, "u1", upload("v1"), model.TMFMetadata{})
	require.NoError(t, err)
	d, err = f.engine.SubmitReviewDirect(ctx, d.DocID, "u1", []string{"u3"})
	require.NoError(t, err)
	d, err = f.engine.ReviewBallot(ctx, d.DocID, "u3", model.DecisionApproved, "")
	require.NoError(t, err)
	d, err = f.engine.SubmitApproval(ctx, d.DocID, "u1", "u4")
	require.NoError(t, err)
	d, err = f.engine.FinalApproval(ctx, d.DocID, "u4", true, "ok")
	require.NoError(t, err)

	amendment, err := f.engine.Amend(ctx, d.DocID, "u1", upload("v2"))
	require.NoError(t, err)

	results, err := f.engine.ListDocuments(ctx, storage.ListFilter{})
	require.NoError(t, err)
	require.Len(t, results, 1, "only the latest version of the lineage should be listed")
	assert.Equal(t, amendment.DocID, results[0].DocID)
}

func TestEngine_ListMyTasks_ReturnsPendingBallotsAndDraftAuthorship(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	draft, err := f.engine.CreateDocument(ctx, "u1", upload("v1"), model.TMFMetadata{})
	require.NoError(t, err)

	inQC, err := f.engine.CreateDocument(ctx, "u1", upload("v2"), model.TMFMetadata{})
	require.NoError(t, err)
	inQC, err = f.engine.SubmitQC(ctx, inQC.DocID, "u1", []string{"u2"})
	require.NoError(t, err)

	authorTasks, err := f.engine.ListMyTasks(ctx, "u1")
	require.NoError(t, err)
	var authorDocIDs []string
	for _, d := range authorTasks {
		authorDocIDs = append(authorDocIDs, d.DocID)
	}
	assert.Contains(t, authorDocIDs, draft.DocID)
	assert.NotContains(t, authorDocIDs, inQC.DocID)

	qcTasks, err := f.engine.ListMyTasks(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, qcTasks, 1)
	assert.Equal(t, inQC.DocID, qcTasks[0].DocID)
}
