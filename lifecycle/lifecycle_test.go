package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tmf.evalgo.org/model"
)

func approvedDoc() *model.Document {
	return &model.Document{
		DocID:        "d1",
		Author:       "u1",
		Status:       model.StatusApproved,
		MajorVersion: 1,
		MinorVersion: 0,
	}
}

func TestMarkObsolete(t *testing.T) {
	doc := approvedDoc()
	qm := model.Principal{ID: "q1", Role: model.RoleQualityManager}

	next, entry, err := MarkObsolete(doc, qm)
	require.NoError(t, err)
	assert.Equal(t, model.StatusObsolete, next.Status)
	assert.Equal(t, "mark_obsolete", entry.Action)
}

func TestMarkObsolete_WrongRoleRejected(t *testing.T) {
	doc := approvedDoc()
	reviewer := model.Principal{ID: "r1", Role: model.RoleReviewer}

	_, _, err := MarkObsolete(doc, reviewer)
	require.Error(t, err)
}

func TestArchive_FromSuperseded(t *testing.T) {
	doc := approvedDoc()
	doc.Status = model.StatusSuperseded
	archivist := model.Principal{ID: "a1", Role: model.RoleArchivist}

	next, _, err := Archive(doc, archivist)
	require.NoError(t, err)
	assert.Equal(t, model.StatusArchived, next.Status)
}

func TestWithdraw_FromDraft(t *testing.T) {
	doc := approvedDoc()
	doc.Status = model.StatusDraft
	author := model.Principal{ID: "u1"}

	next, _, err := Withdraw(doc, author)
	require.NoError(t, err)
	assert.Equal(t, model.StatusWithdrawn, next.Status)
}

func TestWithdraw_InvalidFromApproved(t *testing.T) {
	doc := approvedDoc()
	author := model.Principal{ID: "u1"}

	_, _, err := Withdraw(doc, author)
	require.Error(t, err)
}

func TestAmend_CreatesDraftAmendment(t *testing.T) {
	predecessor := approvedDoc()
	predecessor.DocNumber = "REG-TMF-00001"
	predecessor.LineageID = "lineage-1"
	author := model.Principal{ID: "u1"}

	amendment, entry, err := Amend(predecessor, author, "d2", model.Revision{BlobID: "b2", Filename: "proto_v2.pdf"})
	require.NoError(t, err)
	assert.Equal(t, model.StatusDraft, amendment.Status)
	assert.Equal(t, "d1", amendment.AmendedFrom)
	assert.Equal(t, "REG-TMF-00001", amendment.DocNumber)
	assert.Equal(t, "lineage-1", amendment.LineageID)
	assert.Equal(t, 1, amendment.MajorVersion)
	assert.Equal(t, 1, amendment.MinorVersion)
	assert.Equal(t, "amend", entry.Action)
}

func TestAmend_RequiresApprovedPredecessor(t *testing.T) {
	predecessor := approvedDoc()
	predecessor.Status = model.StatusDraft
	author := model.Principal{ID: "u1"}

	_, _, err := Amend(predecessor, author, "d2", model.Revision{})
	require.Error(t, err)
}

func TestCheckAmendmentUniqueness_ConflictDetected(t *testing.T) {
	amendments := []model.Document{
		{DocID: "d2", AmendedFrom: "d1", Status: model.StatusInReview},
	}

	conflict, ok := CheckAmendmentUniqueness("d1", amendments)
	assert.False(t, ok)
	assert.Equal(t, "d2", conflict)
}

func TestCheckAmendmentUniqueness_NoConflictWhenAmendmentApproved(t *testing.T) {
	amendments := []model.Document{
		{DocID: "d2", AmendedFrom: "d1", Status: model.StatusApproved},
	}

	_, ok := CheckAmendmentUniqueness("d1", amendments)
	assert.True(t, ok)
}

func TestApplySupersession(t *testing.T) {
	predecessor := approvedDoc()
	amendment := &model.Document{DocID: "d2"}
	admin := model.Principal{ID: "sys", Role: model.RoleAdmin}

	next, entry, err := ApplySupersession(predecessor, amendment, admin)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSuperseded, next.Status)
	assert.Equal(t, "d2", next.SupersededBy)
	assert.Equal(t, "approve-amendment-side-effect", entry.Action)
}

func TestBeginSupersession(t *testing.T) {
	predecessor := approvedDoc()
	amendment := &model.Document{DocID: "d2"}

	next := BeginSupersession(predecessor, amendment)
	assert.Equal(t, "d2", next.PendingSupersession)
	assert.Equal(t, model.StatusApproved, predecessor.Status, "original snapshot must not be mutated")
}
