package engine

import (
	"context"

	"tmf.evalgo.org/lifecycle"
	"tmf.evalgo.org/model"
	"tmf.evalgo.org/tmferrors"
)

// Withdraw implements withdraw: the author pulls doc.DocID out of any
// in-flight status into Withdrawn.
func (e *Engine) Withdraw(ctx context.Context, docID, actorID string) (*model.Document, error) {
	actor, err := e.resolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	return e.withDoc(ctx, docID, func(doc *model.Document) (*model.Document, model.AuditEntry, error) {
		return lifecycle.Withdraw(doc, actor)
	})
}

// MarkObsolete implements mark_obsolete: Approved -> Obsolete.
func (e *Engine) MarkObsolete(ctx context.Context, docID, actorID string) (*model.Document, error) {
	actor, err := e.resolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	return e.withDoc(ctx, docID, func(doc *model.Document) (*model.Document, model.AuditEntry, error) {
		return lifecycle.MarkObsolete(doc, actor)
	})
}

// Archive implements archive: Approved or Superseded -> Archived.
func (e *Engine) Archive(ctx context.Context, docID, actorID string) (*model.Document, error) {
	actor, err := e.resolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	return e.withDoc(ctx, docID, func(doc *model.Document) (*model.Document, model.AuditEntry, error) {
		return lifecycle.Archive(doc, actor)
	})
}

// Delete implements delete (spec §4.7): a hard removal of the
// Document record, valid only from Draft or Withdrawn. Every
// revision's blob is then best-effort deleted; a blob deletion failure
// is not rolled back, since the Document record is already gone and
// blob storage is content-addressed garbage the Blob Store can reclaim
// independently.
func (e *Engine) Delete(ctx context.Context, docID, actorID string) error {
	const op = "engine.Delete"
	unlock := e.locks.Lock(docID)
	defer unlock()

	actor, err := e.resolveActor(ctx, actorID)
	if err != nil {
		return err
	}
	doc, err := e.docs.Get(ctx, docID)
	if err != nil {
		return err
	}
	if !lifecycle.AuthorizeDelete(doc, actor) {
		return tmferrors.Unauthorized(op, "actor %s may not delete document %s", actor.ID, docID)
	}

	if err := e.docs.Delete(ctx, docID); err != nil {
		return err
	}

	for _, rev := range doc.Revisions {
		_ = e.blobs.Delete(ctx, rev.BlobID)
	}
	return nil
}

// Amend implements amend (spec §4.6): creates a new Draft document
// continuing predecessorID's lineage, after checking no other
// in-progress amendment of the same predecessor already exists.
func (e *Engine) Amend(ctx context.Context, predecessorID, actorID string, upload RevisionUpload) (*model.Document, error) {
	const op = "engine.Amend"
	actor, err := e.resolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	existing, err := e.docs.ByAmendedFrom(ctx, predecessorID)
	if err != nil {
		return nil, err
	}
	if conflictDocID, ok := lifecycle.CheckAmendmentUniqueness(predecessorID, existing); !ok {
		return nil, tmferrors.DuplicateAmendment(op, conflictDocID)
	}

	blobID, err := e.blobs.Put(ctx, upload.Bytes)
	if err != nil {
		return nil, err
	}

	predecessor, err := e.docs.Get(ctx, predecessorID)
	if err != nil {
		return nil, err
	}

	amendment, entry, err := lifecycle.Amend(predecessor, actor, e.newID(), model.Revision{
		BlobID:        blobID,
		Filename:      upload.Filename,
		ContentType:   upload.ContentType,
		AuthorComment: upload.AuthorComment,
	})
	if err != nil {
		return nil, err
	}
	amendment.History = append(amendment.History, entry)

	if err := e.docs.Create(ctx, amendment); err != nil {
		return nil, err
	}
	return amendment, nil
}

// CanAmend implements can_amend: reports whether predecessorID may be
// amended right now, and if not, the doc_id of the in-progress
// amendment blocking it.
func (e *Engine) CanAmend(ctx context.Context, predecessorID string) (bool, string, error) {
	existing, err := e.docs.ByAmendedFrom(ctx, predecessorID)
	if err != nil {
		return false, "", err
	}
	conflictDocID, ok := lifecycle.CheckAmendmentUniqueness(predecessorID, existing)
	return ok, conflictDocID, nil
}
