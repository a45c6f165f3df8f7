package statemachine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tmf.evalgo.org/model"
)

func draftDoc() *model.Document {
	return &model.Document{
		DocID:  "d1",
		Author: "u1",
		Status: model.StatusDraft,
	}
}

func TestDecide_SubmitQC(t *testing.T) {
	doc := draftDoc()
	actor := model.Principal{ID: "u1", Username: "u1"}

	next, entry, err := Decide(doc, model.EventSubmitQC, actor, Payload{})
	require.NoError(t, err)
	assert.Equal(t, model.StatusInQC, next.Status)
	assert.Equal(t, model.StageQC, next.CurrentStage)
	assert.Equal(t, "submit_qc", entry.Action)
	assert.Equal(t, model.StatusDraft, doc.Status, "original snapshot must not be mutated")
}

func TestDecide_SubmitQC_WrongActorRejected(t *testing.T) {
	doc := draftDoc()
	actor := model.Principal{ID: "someone-else"}

	_, _, err := Decide(doc, model.EventSubmitQC, actor, Payload{})
	require.Error(t, err)
}

func TestDecide_SubmitQC_AdminAuthorized(t *testing.T) {
	doc := draftDoc()
	actor := model.Principal{ID: "a1", Role: model.RoleAdmin}

	_, _, err := Decide(doc, model.EventSubmitQC, actor, Payload{})
	require.NoError(t, err)
}

func TestDecide_WrongPreconditionStatus(t *testing.T) {
	doc := draftDoc()
	doc.Status = model.StatusApproved
	actor := model.Principal{ID: "u1"}

	_, _, err := Decide(doc, model.EventSubmitQC, actor, Payload{})
	require.Error(t, err)
}

func TestDecide_TerminalStatusRejectsAllEvents(t *testing.T) {
	doc := draftDoc()
	doc.Status = model.StatusObsolete
	actor := model.Principal{ID: "u1"}

	_, _, err := Decide(doc, model.EventSubmitQC, actor, Payload{})
	require.Error(t, err)
}

func TestDecide_UploadCorrectedRevisionResetsBallotsWithHistory(t *testing.T) {
	doc := draftDoc()
	doc.Status = model.StatusUnderRevision
	doc.MinorVersion = 1
	doc.Revisions = []model.Revision{{BlobID: "b1", Filename: "proto.pdf"}}
	doc.ReviewBallots = []model.Ballot{
		{PrincipalID: "u3", Decision: model.DecisionRequestChanges, Comment: "fix section 2"},
	}
	actor := model.Principal{ID: "u1"}

	next, _, err := Decide(doc, model.EventUploadCorrectedRevision, actor, Payload{
		NewRevision: &model.Revision{BlobID: "b2", Filename: "proto_v2.pdf"},
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusInReview, next.Status)
	assert.Equal(t, 2, next.MinorVersion)
	assert.Equal(t, model.DecisionPending, next.ReviewBallots[0].Decision)
	assert.Equal(t, "fix section 2", next.ReviewBallots[0].PreviousComment)
	assert.Equal(t, "", next.ReviewBallots[0].Comment)
	assert.Equal(t, 1, next.ActiveRevision)
}

func TestDecide_Recall(t *testing.T) {
	doc := draftDoc()
	doc.Status = model.StatusInQC
	doc.QCBallots = []model.Ballot{{PrincipalID: "u2", Decision: model.DecisionPending}}
	actor := model.Principal{ID: "u1"}

	next, _, err := Decide(doc, model.EventRecall, actor, Payload{})
	require.NoError(t, err)
	assert.Equal(t, model.StatusDraft, next.Status)
	assert.Empty(t, next.QCBallots)
}

func TestDecide_RecallInvalidFromApproved(t *testing.T) {
	doc := draftDoc()
	doc.Status = model.StatusApproved
	actor := model.Principal{ID: "u1"}

	_, _, err := Decide(doc, model.EventRecall, actor, Payload{})
	require.Error(t, err)
}

func TestCanWithdraw(t *testing.T) {
	assert.True(t, CanWithdraw(model.StatusDraft))
	assert.True(t, CanWithdraw(model.StatusQCRejected))
	assert.False(t, CanWithdraw(model.StatusApproved))
	assert.False(t, CanWithdraw(model.StatusObsolete))
}

func TestAuthorizeDelete(t *testing.T) {
	doc := draftDoc()
	author := model.Principal{ID: "u1"}
	other := model.Principal{ID: "u9"}

	assert.True(t, AuthorizeDelete(doc, author))
	assert.False(t, AuthorizeDelete(doc, other))

	doc.Status = model.StatusApproved
	assert.False(t, AuthorizeDelete(doc, author))
}
