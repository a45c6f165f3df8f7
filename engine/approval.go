package engine

import (
	"context"
	"time"

	"tmf.evalgo.org/lifecycle"
	"tmf.evalgo.org/model"
	"tmf.evalgo.org/security"
	"tmf.evalgo.org/tmferrors"
	"tmf.evalgo.org/workflow"
)

// FinalApproval implements final_approval (spec §4.5): the designated
// approver's decision is cast, and if it resolves Approved, the active
// revision's bytes are signed and the signature bound to the Document
// in the same compare-and-set write that flips its status and bumps
// its version to the next major. A RequestChanges decision sends the
// document to Approval Rejected with no signing attempt.
//
// If doc.AmendedFrom is set, a successful approval also triggers the
// predecessor's supersession as a two-phase commit (spec §5): the
// predecessor is first marked pending_supersession, then — once this
// write to the amendment itself has committed — finalized to
// Superseded. A crash between the two leaves the predecessor
// discoverable by the background reconciler (engine/reconciler.go).
func (e *Engine) FinalApproval(ctx context.Context, docID, actorID string, approved bool, comment string) (*model.Document, error) {
	const op = "engine.FinalApproval"
	actor, err := e.resolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	unlock := e.locks.Lock(docID)
	defer unlock()

	doc, err := e.docs.Get(ctx, docID)
	if err != nil {
		return nil, err
	}
	if doc.Status != model.StatusPendingApproval {
		return nil, tmferrors.InvalidState(op, "final_approval not valid from status %s", doc.Status)
	}

	ballot, outcome, err := workflow.CastApproval(doc, actor, approved, comment)
	if err != nil {
		return nil, err
	}

	next := doc.Clone()
	next.ApproverBallot = &ballot

	if outcome == workflow.OutcomeFail || (outcome == workflow.OutcomeAdmin && !approved) {
		next.Status = model.StatusApprovalRejected
		next.CurrentStage = model.StageNone
		next.History = append(next.History, ballotAudit(model.EventFinalApproval, actor, ballot.Decision, comment, next.Status))
		if err := e.docs.Save(ctx, next); err != nil {
			return nil, err
		}
		return next, nil
	}

	rev, ok := next.ActiveRevisionRecord()
	if !ok {
		return nil, tmferrors.InvalidState(op, "document %s has no active revision to sign", docID)
	}
	payload, err := e.blobs.Get(ctx, rev.BlobID)
	if err != nil {
		return nil, err
	}

	keyPEM, err := e.identity.ResolvePrivateKey(ctx, actor.PrivateKeyHandle)
	if err != nil {
		return nil, tmferrors.SignatureFailed(op, "resolving signing key for %s: %v", actor.ID, err)
	}
	privateKey, err := security.DecodePrivateKeyPEM(keyPEM)
	if err != nil {
		return nil, tmferrors.SignatureFailed(op, "decoding signing key for %s: %v", actor.ID, err)
	}
	sigB64, err := security.SignDetached(privateKey, payload)
	if err != nil {
		return nil, tmferrors.SignatureFailed(op, "signing revision %s: %v", rev.BlobID, err)
	}

	next.Status = model.StatusApproved
	next.CurrentStage = model.StageNone
	next.MajorVersion++
	next.MinorVersion = 0
	next.Signature = &model.Signature{
		DetachedSignatureB64:    sigB64,
		SignerPrincipal:         actor.ID,
		SignerPublicKeySnapshot: actor.PublicKeyPEM,
		SignedAt:                time.Now().UTC(),
		SignedBlobID:            rev.BlobID,
	}
	next.History = append(next.History, ballotAudit(model.EventFinalApproval, actor, ballot.Decision, comment, next.Status))

	if next.AmendedFrom == "" {
		if err := e.docs.Save(ctx, next); err != nil {
			return nil, err
		}
		return next, nil
	}

	predecessor, err := e.docs.Get(ctx, next.AmendedFrom)
	if err != nil {
		return nil, err
	}
	pending := lifecycle.BeginSupersession(predecessor, next)
	if err := e.docs.Save(ctx, pending); err != nil {
		return nil, err
	}
	if err := e.docs.Save(ctx, next); err != nil {
		return nil, err
	}

	superseded, entry, err := lifecycle.ApplySupersession(pending, next, actor)
	if err != nil {
		return nil, err
	}
	superseded.History = append(superseded.History, entry)
	if err := e.docs.Save(ctx, superseded); err != nil {
		// The predecessor stays pending_supersession; the background
		// reconciler (engine/reconciler.go) finishes this on its next pass.
		return next, nil
	}

	return next, nil
}

// VerifySignature implements verify_signature: independently
// re-verifies doc.DocID's bound signature against the exact blob it
// was computed over and the public key snapshotted at signing time.
func (e *Engine) VerifySignature(ctx context.Context, docID string) (bool, error) {
	const op = "engine.VerifySignature"
	doc, err := e.docs.Get(ctx, docID)
	if err != nil {
		return false, err
	}
	if doc.Signature == nil {
		return false, tmferrors.InvalidState(op, "document %s has no signature to verify", docID)
	}

	payload, err := e.blobs.Get(ctx, doc.Signature.SignedBlobID)
	if err != nil {
		return false, err
	}
	publicKey, err := security.DecodePublicKeyPEM(doc.Signature.SignerPublicKeySnapshot)
	if err != nil {
		return false, tmferrors.SignatureFailed(op, "decoding signer public key: %v", err)
	}
	return security.VerifyDetached(publicKey, payload, doc.Signature.DetachedSignatureB64)
}
