// Package lifecycle implements the Lifecycle Manager (C9): the
// tail-of-life transitions (obsolete, archive, withdraw, delete) and
// the amendment/supersession machinery of spec §4.6/§4.7/§5. Like
// statemachine and workflow, every function here is a pure decision
// over Document snapshots; the engine package performs the actual
// Blob Store and Document Store I/O around these calls.
//
// Grounded on storage/s3aws.go's best-effort delete-after-primary-
// commit idiom (Delete removes the Document first; blob cleanup is
// the caller's job afterward and its failure is logged, not rolled
// back) and the two-phase pending_supersession marker described in
// spec §5, carried as a plain field on the Document record.
package lifecycle

import (
	"time"

	"tmf.evalgo.org/model"
	"tmf.evalgo.org/statemachine"
	"tmf.evalgo.org/tmferrors"
)

// MarkObsolete transitions doc from Approved to Obsolete.
func MarkObsolete(doc *model.Document, actor model.Principal) (*model.Document, model.AuditEntry, error) {
	const op = "lifecycle.MarkObsolete"
	if !statemachine.AuthorizeObsolete(actor) {
		return nil, model.AuditEntry{}, tmferrors.Unauthorized(op, "actor %s may not mark documents obsolete", actor.ID)
	}
	if doc.Status != model.StatusApproved {
		return nil, model.AuditEntry{}, tmferrors.InvalidState(op, "mark_obsolete requires status Approved, got %s", doc.Status)
	}
	next := doc.Clone()
	next.Status = model.StatusObsolete
	return next, audit("mark_obsolete", actor, "status -> Obsolete"), nil
}

// Archive transitions doc from Approved or Superseded to Archived.
func Archive(doc *model.Document, actor model.Principal) (*model.Document, model.AuditEntry, error) {
	const op = "lifecycle.Archive"
	if !statemachine.AuthorizeArchive(actor) {
		return nil, model.AuditEntry{}, tmferrors.Unauthorized(op, "actor %s may not archive documents", actor.ID)
	}
	if doc.Status != model.StatusApproved && doc.Status != model.StatusSuperseded {
		return nil, model.AuditEntry{}, tmferrors.InvalidState(op, "archive requires status Approved or Superseded, got %s", doc.Status)
	}
	next := doc.Clone()
	next.Status = model.StatusArchived
	return next, audit("archive", actor, "status -> Archived"), nil
}

// Withdraw transitions doc to Withdrawn from Draft, In QC, In Review,
// Pending Approval, QC Rejected, Approval Rejected, or Under Revision.
func Withdraw(doc *model.Document, actor model.Principal) (*model.Document, model.AuditEntry, error) {
	const op = "lifecycle.Withdraw"
	if !statemachine.AuthorizeSubmit(doc, actor) {
		return nil, model.AuditEntry{}, tmferrors.Unauthorized(op, "actor %s may not withdraw document %s", actor.ID, doc.DocID)
	}
	if !statemachine.CanWithdraw(doc.Status) {
		return nil, model.AuditEntry{}, tmferrors.InvalidState(op, "withdraw not valid from status %s", doc.Status)
	}
	next := doc.Clone()
	next.Status = model.StatusWithdrawn
	return next, audit("withdraw", actor, "status -> Withdrawn"), nil
}

// AuthorizeDelete reports whether the deletion precondition of §4.1
// and §4.2 holds. Kept as a thin re-export so callers in this package
// need only import lifecycle, not statemachine, for delete checks.
func AuthorizeDelete(doc *model.Document, actor model.Principal) bool {
	return statemachine.AuthorizeDelete(doc, actor)
}

// Amend creates a new Document record amending predecessor, which
// must be Approved. The caller (engine) is responsible for the
// amendment-uniqueness check (spec §4.6) before calling Amend, and for
// assigning the new doc_id and lineage continuity.
func Amend(predecessor *model.Document, actor model.Principal, newDocID string, revision model.Revision) (*model.Document, model.AuditEntry, error) {
	const op = "lifecycle.Amend"
	if !statemachine.AuthorizeSubmit(predecessor, actor) {
		return nil, model.AuditEntry{}, tmferrors.Unauthorized(op, "actor %s may not amend document %s", actor.ID, predecessor.DocID)
	}
	if predecessor.Status != model.StatusApproved {
		return nil, model.AuditEntry{}, tmferrors.InvalidState(op, "amend requires predecessor status Approved, got %s", predecessor.Status)
	}

	revision.UploadedAt = time.Now().UTC()
	revision.Uploader = actor.ID

	amendment := &model.Document{
		DocID:        newDocID,
		DocNumber:    predecessor.DocNumber,
		LineageID:    predecessor.LineageID,
		MajorVersion: predecessor.MajorVersion,
		MinorVersion: predecessor.MinorVersion + 1,
		Status:       model.StatusDraft,
		Author:       actor.ID,
		TMFMetadata:  predecessor.TMFMetadata,
		Revisions:    []model.Revision{revision},
		AmendedFrom:  predecessor.DocID,
		History: []model.AuditEntry{
			audit("amend", actor, "amendment of "+predecessor.DocID),
		},
	}
	return amendment, audit("amend", actor, "created amendment "+newDocID), nil
}

// CheckAmendmentUniqueness implements spec §4.6: before creating an
// amendment of predecessorID, no other in-progress document may
// already amend it. inProgress is the caller-supplied set of documents
// with amended_from == predecessorID (the engine fetches these via the
// Document Store's lineage index); CheckAmendmentUniqueness only
// applies the status filter and reports the first conflict found.
func CheckAmendmentUniqueness(predecessorID string, amendments []model.Document) (conflictDocID string, ok bool) {
	for _, d := range amendments {
		if d.AmendedFrom == predecessorID && model.InProgressStatuses[d.Status] {
			return d.DocID, false
		}
	}
	return "", true
}

// ApplySupersession implements the predecessor-side half of spec
// §4.3/§4.5 step 4 and the two-phase commit of §5: once an amendment
// has been committed Approved, its predecessor flips to Superseded and
// records superseded_by. The caller is responsible for the
// pending_supersession marker discipline around the two writes; this
// function only computes the predecessor's new snapshot.
func ApplySupersession(predecessor *model.Document, amendment *model.Document, actor model.Principal) (*model.Document, model.AuditEntry, error) {
	const op = "lifecycle.ApplySupersession"
	if predecessor.Status != model.StatusApproved {
		return nil, model.AuditEntry{}, tmferrors.InvalidState(op, "supersession requires predecessor status Approved, got %s", predecessor.Status)
	}
	next := predecessor.Clone()
	next.Status = model.StatusSuperseded
	next.SupersededBy = amendment.DocID
	next.PendingSupersession = ""
	return next, audit("approve-amendment-side-effect", actor, "superseded by "+amendment.DocID), nil
}

// BeginSupersession marks predecessor as pending supersession by
// amendment (the first phase of the two-phase commit in spec §5),
// returning the snapshot the engine should persist before flipping the
// amendment itself to Approved.
func BeginSupersession(predecessor *model.Document, amendment *model.Document) *model.Document {
	next := predecessor.Clone()
	next.PendingSupersession = amendment.DocID
	return next
}

func audit(action string, actor model.Principal, details string) model.AuditEntry {
	return model.AuditEntry{
		Action:    action,
		ActorID:   actor.ID,
		ActorName: actor.Username,
		Timestamp: time.Now().UTC(),
		Details:   details,
	}
}
