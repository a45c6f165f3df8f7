package engine

import (
	"context"
	"sort"
	"time"

	"tmf.evalgo.org/db"
	"tmf.evalgo.org/model"
	"tmf.evalgo.org/statemachine"
	"tmf.evalgo.org/storage"
	"tmf.evalgo.org/tmferrors"
)

// RevisionUpload is the caller-supplied payload for create_document,
// upload_corrected_revision, and upload_revised_revision.
type RevisionUpload struct {
	Bytes         []byte
	Filename      string
	ContentType   string
	AuthorComment string
}

const docNumberSequence = "doc_number"

// CreateDocument implements create_document: it commits the initial
// revision's bytes to the Blob Store before the Document ever
// references them (spec §5's "blob, then document" write order), then
// allocates doc_number and creates the record in Draft at version 0.1.
func (e *Engine) CreateDocument(ctx context.Context, actorID string, upload RevisionUpload, metadata model.TMFMetadata) (*model.Document, error) {
	const op = "engine.CreateDocument"

	actor, err := e.resolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if len(upload.Bytes) == 0 || upload.Filename == "" {
		return nil, tmferrors.InvalidInput(op, "file bytes and filename are required")
	}

	blobID, err := e.blobs.Put(ctx, upload.Bytes)
	if err != nil {
		return nil, tmferrors.StorageFailure(op, err)
	}

	seq, err := e.sequences.Next(ctx, docNumberSequence)
	if err != nil {
		return nil, tmferrors.StorageFailure(op, err)
	}

	now := time.Now().UTC()
	docID := e.newID()
	doc := &model.Document{
		DocID:        docID,
		DocNumber:    db.NextDocNumber(seq),
		LineageID:    e.newID(),
		MajorVersion: 0,
		MinorVersion: 1,
		Status:       model.StatusDraft,
		Author:       actor.ID,
		TMFMetadata:  metadata,
		Revisions: []model.Revision{{
			BlobID:        blobID,
			Filename:      upload.Filename,
			ContentType:   upload.ContentType,
			AuthorComment: upload.AuthorComment,
			UploadedAt:    now,
			Uploader:      actor.ID,
		}},
		ActiveRevision: 0,
		History: []model.AuditEntry{{
			Action:    "create_document",
			ActorID:   actor.ID,
			ActorName: actor.Username,
			Timestamp: now,
			Details:   "created " + docID,
		}},
	}

	if err := e.docs.Create(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// GetDocument implements get_document.
func (e *Engine) GetDocument(ctx context.Context, docID string) (*model.Document, error) {
	return e.docs.Get(ctx, docID)
}

// GetLineage implements get_lineage: every version of lineageID,
// ordered by (major_version, minor_version).
func (e *Engine) GetLineage(ctx context.Context, lineageID string) ([]model.Document, error) {
	docs, err := e.docs.ByLineage(ctx, lineageID)
	if err != nil {
		return nil, err
	}
	sortByVersion(docs)
	return docs, nil
}

// ListDocuments implements list_documents: the latest (by
// major/minor version) document of every lineage matching filter.
func (e *Engine) ListDocuments(ctx context.Context, filter storage.ListFilter) ([]model.Document, error) {
	all, err := e.docs.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	latest := make(map[string]model.Document, len(all))
	for _, d := range all {
		current, ok := latest[d.LineageID]
		if !ok || versionLess(current, d) {
			latest[d.LineageID] = d
		}
	}

	out := make([]model.Document, 0, len(latest))
	for _, d := range latest {
		out = append(out, d)
	}
	sortByVersion(out)
	return out, nil
}

// ListMyTasks implements list_my_tasks: documents where actorID holds
// a Pending ballot, or is the drafting author of a Draft document.
func (e *Engine) ListMyTasks(ctx context.Context, actorID string) ([]model.Document, error) {
	return e.docs.List(ctx, storage.ListFilter{PendingForPrincipal: actorID})
}

// PreviewRevision implements preview_revision: the bytes and content
// type of the currently active revision.
func (e *Engine) PreviewRevision(ctx context.Context, docID string) ([]byte, string, error) {
	const op = "engine.PreviewRevision"
	doc, err := e.docs.Get(ctx, docID)
	if err != nil {
		return nil, "", err
	}
	rev, ok := doc.ActiveRevisionRecord()
	if !ok {
		return nil, "", tmferrors.InvalidState(op, "document %s has no active revision", docID)
	}
	data, err := e.blobs.Get(ctx, rev.BlobID)
	if err != nil {
		return nil, "", err
	}
	return data, rev.ContentType, nil
}

// UploadCorrectedRevision implements upload_corrected_revision: a new
// revision is committed to the Blob Store, then the Document
// transitions Under Revision -> In Review with every review ballot
// reset to Pending (spec §4.1/§4.3).
func (e *Engine) UploadCorrectedRevision(ctx context.Context, docID, actorID string, upload RevisionUpload) (*model.Document, error) {
	return e.uploadRevision(ctx, docID, actorID, upload, model.EventUploadCorrectedRevision)
}

// UploadRevisedRevision implements upload_revised_revision: a new
// revision after a hard rejection, returning the Document to Draft.
func (e *Engine) UploadRevisedRevision(ctx context.Context, docID, actorID string, upload RevisionUpload) (*model.Document, error) {
	return e.uploadRevision(ctx, docID, actorID, upload, model.EventUploadRevisedRevision)
}

func (e *Engine) uploadRevision(ctx context.Context, docID, actorID string, upload RevisionUpload, event model.Event) (*model.Document, error) {
	const op = "engine.uploadRevision"
	actor, err := e.resolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if len(upload.Bytes) == 0 || upload.Filename == "" {
		return nil, tmferrors.InvalidInput(op, "file bytes and filename are required")
	}

	blobID, err := e.blobs.Put(ctx, upload.Bytes)
	if err != nil {
		return nil, tmferrors.StorageFailure(op, err)
	}

	return e.withDoc(ctx, docID, func(doc *model.Document) (*model.Document, model.AuditEntry, error) {
		return statemachine.Decide(doc, event, actor, statemachine.Payload{
			Comment: upload.AuthorComment,
			NewRevision: &model.Revision{
				BlobID:        blobID,
				Filename:      upload.Filename,
				ContentType:   upload.ContentType,
				AuthorComment: upload.AuthorComment,
			},
		})
	})
}

func versionLess(a, b model.Document) bool {
	if a.MajorVersion != b.MajorVersion {
		return a.MajorVersion < b.MajorVersion
	}
	return a.MinorVersion < b.MinorVersion
}

func sortByVersion(docs []model.Document) {
	sort.Slice(docs, func(i, j int) bool { return versionLess(docs[i], docs[j]) })
}
