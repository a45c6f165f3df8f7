package engine

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tmf.evalgo.org/auth"
	"tmf.evalgo.org/db"
	"tmf.evalgo.org/model"
	"tmf.evalgo.org/security"
	"tmf.evalgo.org/storage"
	"tmf.evalgo.org/tmferrors"
)

type fixture struct {
	engine   *Engine
	docs     *storage.MemoryDocStore
	blobs    *storage.MemoryBlobStore
	identity *auth.MemoryIdentityDirectory
	nextID   int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	approverKey, err := security.GenerateKeyPair()
	require.NoError(t, err)
	approverPub, err := security.EncodePublicKeyPEM(&approverKey.PublicKey)
	require.NoError(t, err)

	principals := []model.Principal{
		{ID: "u1", Username: "author", Role: model.RoleContributor},
		{ID: "u2", Username: "qc", Role: model.RoleQC},
		{ID: "u3", Username: "reviewer-3", Role: model.RoleReviewer},
		{ID: "u5", Username: "reviewer-5", Role: model.RoleReviewer},
		{ID: "a1", Username: "admin", Role: model.RoleAdmin},
		{ID: "qm1", Username: "quality-mgr", Role: model.RoleQualityManager},
		{ID: "arch1", Username: "archivist", Role: model.RoleArchivist},
		{ID: "u4", Username: "approver", Role: model.RoleApprover, PublicKeyPEM: approverPub, PrivateKeyHandle: "u4-key"},
	}

	identity := auth.NewMemoryIdentityDirectory(principals)
	identity.SeedPrivateKey("u4-key", encodePrivateKeyPEM(t, approverKey))

	docs := storage.NewMemoryDocStore()
	blobs := storage.NewMemoryBlobStore()
	seqs := db.NewMemorySequenceAllocator()

	f := &fixture{docs: docs, blobs: blobs, identity: identity}
	f.engine = New(docs, blobs, identity, seqs)
	f.engine.newID = func() string {
		f.nextID++
		return idFromCounter(f.nextID)
	}
	return f
}

func idFromCounter(n int) string {
	return "doc-" + string(rune('a'+n%26)) + string(rune('0'+n%10)) + string(rune('A'+(n/10)%26))
}

func encodePrivateKeyPEM(t *testing.T, key *rsa.PrivateKey) string {
	t.Helper()
	der := x509.MarshalPKCS1PrivateKey(key)
	block := &pem.Block{Type: "RSA PRIVATE KEY", Bytes: der}
	return string(pem.EncodeToMemory(block))
}

func upload(content string) RevisionUpload {
	return RevisionUpload{Bytes: []byte(content), Filename: "proto.pdf", ContentType: "application/pdf"}
}

func TestEngine_S1_HappyPathWithQC(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc, err := f.engine.CreateDocument(ctx, "u1", upload("v1 bytes"), model.TMFMetadata{StudyID: "STUDY-1"})
	require.NoError(t, err)
	assert.Equal(t, "REG-TMF-00001", doc.DocNumber)
	assert.Equal(t, 0, doc.MajorVersion)
	assert.Equal(t, 1, doc.MinorVersion)
	assert.Equal(t, model.StatusDraft, doc.Status)

	doc, err = f.engine.SubmitQC(ctx, doc.DocID, "u1", []string{"u2"})
	require.NoError(t, err)
	assert.Equal(t, model.StatusInQC, doc.Status)

	doc, err = f.engine.QCBallot(ctx, doc.DocID, "u2", model.DecisionPass, "")
	require.NoError(t, err)
	assert.Equal(t, model.StatusQCComplete, doc.Status)

	doc, err = f.engine.SubmitReview(ctx, doc.DocID, "u1", []string{"u3"})
	require.NoError(t, err)
	assert.Equal(t, model.StatusInReview, doc.Status)

	doc, err = f.engine.ReviewBallot(ctx, doc.DocID, "u3", model.DecisionApproved, "")
	require.NoError(t, err)
	assert.Equal(t, model.StatusReviewComplete, doc.Status)

	doc, err = f.engine.SubmitApproval(ctx, doc.DocID, "u1", "u4")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPendingApproval, doc.Status)

	doc, err = f.engine.FinalApproval(ctx, doc.DocID, "u4", true, "ok")
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, doc.Status)
	assert.Equal(t, 1, doc.MajorVersion)
	assert.Equal(t, 0, doc.MinorVersion)
	require.NotNil(t, doc.Signature)

	ok, err := f.engine.VerifySignature(ctx, doc.DocID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEngine_S2_ChangesRequestedResetsBallots(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc, err := f.engine.CreateDocument(ctx, "u1", upload("v1"), model.TMFMetadata{})
	require.NoError(t, err)
	doc, err = f.engine.SubmitReviewDirect(ctx, doc.DocID, "u1", []string{"u3", "u5"})
	require.NoError(t, err)
	assert.Equal(t, model.StatusInReview, doc.Status)

	doc, err = f.engine.ReviewBallot(ctx, doc.DocID, "u3", model.DecisionRequestChanges, "fix §2")
	require.NoError(t, err)
	assert.Equal(t, model.StatusUnderRevision, doc.Status)

	var u3Ballot model.Ballot
	for _, b := range doc.ReviewBallots {
		if b.PrincipalID == "u3" {
			u3Ballot = b
		}
	}
	assert.Equal(t, "fix §2", u3Ballot.Comment)

	doc, err = f.engine.UploadCorrectedRevision(ctx, doc.DocID, "u1", upload("v2"))
	require.NoError(t, err)
	assert.Equal(t, model.StatusInReview, doc.Status)
	assert.Equal(t, 2, doc.MinorVersion)

	for _, b := range doc.ReviewBallots {
		assert.Equal(t, model.DecisionPending, b.Decision)
		if b.PrincipalID == "u3" {
			assert.Equal(t, "fix §2", b.PreviousComment)
		}
	}

	doc, err = f.engine.ReviewBallot(ctx, doc.DocID, "u3", model.DecisionApproved, "")
	require.NoError(t, err)
	assert.Equal(t, model.StatusInReview, doc.Status)
	doc, err = f.engine.ReviewBallot(ctx, doc.DocID, "u5", model.DecisionApproved, "")
	require.NoError(t, err)
	assert.Equal(t, model.StatusReviewComplete, doc.Status)
}

func TestEngine_S3_AmendmentSupersedes(t *testing.T) {
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
	require.Equal(t, model.StatusApproved, d.Status)

	amendment, err := f.engine.Amend(ctx, d.DocID, "u1", upload("typo fix"))
	require.NoError(t, err)
	assert.Equal(t, model.StatusDraft, amendment.Status)
	assert.Equal(t, d.DocID, amendment.AmendedFrom)
	assert.Equal(t, d.MajorVersion, amendment.MajorVersion)
	assert.Equal(t, d.MinorVersion+1, amendment.MinorVersion)

	_, err = f.engine.Amend(ctx, d.DocID, "u1", upload("second attempt"))
	require.Error(t, err)
	kind, ok := tmferrors.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, tmferrors.DuplicateAmendmentKind, kind)

	canAmend, conflict, err := f.engine.CanAmend(ctx, d.DocID)
	require.NoError(t, err)
	assert.False(t, canAmend)
	assert.Equal(t, amendment.DocID, conflict)

	amendment, err = f.engine.SubmitReviewDirect(ctx, amendment.DocID, "u1", []string{"u3"})
	require.NoError(t, err)
	amendment, err = f.engine.ReviewBallot(ctx, amendment.DocID, "u3", model.DecisionApproved, "")
	require.NoError(t, err)
	amendment, err = f.engine.SubmitApproval(ctx, amendment.DocID, "u1", "u4")
	require.NoError(t, err)
	amendment, err = f.engine.FinalApproval(ctx, amendment.DocID, "u4", true, "ok")
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, amendment.Status)
	assert.Equal(t, d.MajorVersion+1, amendment.MajorVersion)
	assert.Equal(t, 0, amendment.MinorVersion)

	predecessor, err := f.engine.GetDocument(ctx, d.DocID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSuperseded, predecessor.Status)
	assert.Equal(t, amendment.DocID, predecessor.SupersededBy)
}

func TestEngine_S4_AdminOverrideFailsQCRegardlessOfOtherBallots(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc, err := f.engine.CreateDocument(ctx, "u1", upload("v1"), model.TMFMetadata{})
	require.NoError(t, err)
	doc, err = f.engine.SubmitQC(ctx, doc.DocID, "u1", []string{"u2", "u3"})
	require.NoError(t, err)

	doc, err = f.engine.QCBallot(ctx, doc.DocID, "a1", model.DecisionFail, "missing fields")
	require.NoError(t, err)
	assert.Equal(t, model.StatusQCRejected, doc.Status)
}

func TestEngine_S5_WithdrawThenDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc, err := f.engine.CreateDocument(ctx, "u1", upload("v1"), model.TMFMetadata{})
	require.NoError(t, err)

	doc, err = f.engine.Withdraw(ctx, doc.DocID, "u1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusWithdrawn, doc.Status)

	blobID := doc.Revisions[0].BlobID
	require.NoError(t, f.engine.Delete(ctx, doc.DocID, "u1"))

	_, err = f.engine.GetDocument(ctx, doc.DocID)
	require.Error(t, err)
	kind, ok := tmferrors.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, tmferrors.NotFoundKind, kind)

	_, err = f.blobs.Get(ctx, blobID)
	require.Error(t, err)
}

func TestEngine_S6_SignatureInvariantUnderKeyRotation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc, err := f.engine.CreateDocument(ctx, "u1", upload("v1"), model.TMFMetadata{})
	require.NoError(t, err)
	doc, err = f.engine.SubmitReviewDirect(ctx, doc.DocID, "u1", []string{"u3"})
	require.NoError(t, err)
	doc, err = f.engine.ReviewBallot(ctx, doc.DocID, "u3", model.DecisionApproved, "")
	require.NoError(t, err)
	doc, err = f.engine.SubmitApproval(ctx, doc.DocID, "u1", "u4")
	require.NoError(t, err)
	doc, err = f.engine.FinalApproval(ctx, doc.DocID, "u4", true, "ok")
	require.NoError(t, err)

	rotatedKey, err := security.GenerateKeyPair()
	require.NoError(t, err)
	rotatedPub, err := security.EncodePublicKeyPEM(&rotatedKey.PublicKey)
	require.NoError(t, err)
	f.identity.RotatePublicKey("u4", rotatedPub)
	f.identity.SeedPrivateKey("u4-key", encodePrivateKeyPEM(t, rotatedKey))

	ok, err := f.engine.VerifySignature(ctx, doc.DocID)
	require.NoError(t, err)
	assert.True(t, ok, "verify_signature must use the snapshotted public key, not the rotated one")
}

func TestEngine_RevisionRoundTripIsByteIdentical(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	payload := "exact bytes \x00\x01\x02"
	doc, err := f.engine.CreateDocument(ctx, "u1", RevisionUpload{Bytes: []byte(payload), Filename: "x.bin", ContentType: "application/octet-stream"}, model.TMFMetadata{})
	require.NoError(t, err)

	data, _, err := f.engine.PreviewRevision(ctx, doc.DocID)
	require.NoError(t, err)
	assert.Equal(t, payload, string(data))
}

func TestEngine_LineageSharesDocNumber(t *testing.T) {
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

	lineage, err := f.engine.GetLineage(ctx, d.LineageID)
	require.NoError(t, err)
	require.Len(t, lineage, 2)
	for _, v := range lineage {
		assert.Equal(t, d.DocNumber, v.DocNumber)
	}
	assert.Equal(t, d.DocNumber, amendment.DocNumber)
}
