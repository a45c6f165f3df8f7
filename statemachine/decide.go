package statemachine

import (
	"time"

	"tmf.evalgo.org/model"
	"tmf.evalgo.org/tmferrors"
)

// Payload carries the event-specific input a caller supplies alongside
// an Event. Only the fields relevant to the event in question need be
// set; Decide ignores the rest.
type Payload struct {
	Comment     string
	ActorName   string
	NewRevision *model.Revision
}

// Decide applies a "plain" event — one whose new status depends only
// on the current status, not on a ballot tally — to doc on behalf of
// actor. It returns a new Document (doc is never mutated) and the
// AuditEntry to append, or a typed error.
//
// Ballot-stage events (qc_ballot, review_ballot, final_approval) and
// lifecycle events (mark_obsolete, archive, withdraw, delete, amend)
// are not handled here; see the workflow and lifecycle packages.
func Decide(doc *model.Document, event model.Event, actor model.Principal, payload Payload) (*model.Document, model.AuditEntry, error) {
	const op = "statemachine.Decide"

	if doc.Status.IsTerminal() {
		return nil, model.AuditEntry{}, tmferrors.InvalidState(op, "document %s is in terminal status %s", doc.DocID, doc.Status)
	}

	switch event {
	case model.EventSubmitQC, model.EventSubmitReviewDirect, model.EventSubmitReview, model.EventSubmitApproval:
		if !IsSubmitEvent(event) || !AuthorizeSubmit(doc, actor) {
			return nil, model.AuditEntry{}, tmferrors.Unauthorized(op, "actor %s may not submit document %s", actor.ID, doc.DocID)
		}
		to, ok := PlainTransition(event, doc.Status)
		if !ok {
			return nil, model.AuditEntry{}, tmferrors.InvalidState(op, "event %s not valid from status %s", event, doc.Status)
		}
		next := doc.Clone()
		next.Status = to
		applyStageEntry(next, event, to)
		return next, entry(event, actor, payload, "status -> "+string(to)), nil

	case model.EventUploadCorrectedRevision, model.EventUploadRevisedRevision:
		if !AuthorizeSubmit(doc, actor) {
			return nil, model.AuditEntry{}, tmferrors.Unauthorized(op, "actor %s may not upload a revision for document %s", actor.ID, doc.DocID)
		}
		if payload.NewRevision == nil {
			return nil, model.AuditEntry{}, tmferrors.InvalidInput(op, "a revision payload is required")
		}
		to, ok := PlainTransition(event, doc.Status)
		if !ok {
			return nil, model.AuditEntry{}, tmferrors.InvalidState(op, "event %s not valid from status %s", event, doc.Status)
		}
		next := doc.Clone()
		next.MinorVersion++
		rev := *payload.NewRevision
		rev.UploadedAt = nowUTC()
		rev.Uploader = actor.ID
		next.Revisions = append(next.Revisions, rev)
		next.ActiveRevision = len(next.Revisions) - 1
		next.Status = to
		if event == model.EventUploadCorrectedRevision {
			resetBallotsWithHistory(next.ReviewBallots)
			next.ApproverBallot = nil
			next.CurrentStage = model.StageTechnicalReview
		} else {
			next.QCBallots = nil
			next.ReviewBallots = nil
			next.ApproverBallot = nil
			next.CurrentStage = model.StageNone
		}
		return next, entry(event, actor, payload, "new revision uploaded, status -> "+string(to)), nil

	case model.EventRecall:
		if !AuthorizeSubmit(doc, actor) {
			return nil, model.AuditEntry{}, tmferrors.Unauthorized(op, "actor %s may not recall document %s", actor.ID, doc.DocID)
		}
		to, ok := CanRecall(doc.Status)
		if !ok {
			return nil, model.AuditEntry{}, tmferrors.InvalidState(op, "recall not valid from status %s", doc.Status)
		}
		next := doc.Clone()
		next.Status = to
		switch doc.Status {
		case model.StatusInQC:
			next.QCBallots = nil
			next.ReviewBallots = nil
			next.ApproverBallot = nil
			next.CurrentStage = model.StageNone
		case model.StatusInReview:
			next.ReviewBallots = nil
			next.ApproverBallot = nil
			next.CurrentStage = model.StageQC
		case model.StatusPendingApproval:
			next.ApproverBallot = nil
			next.CurrentStage = model.StageTechnicalReview
		}
		return next, entry(event, actor, payload, "recalled to "+string(to)), nil

	default:
		return nil, model.AuditEntry{}, tmferrors.InvalidInput(op, "event %s is not handled by the plain state machine", event)
	}
}

func applyStageEntry(doc *model.Document, event model.Event, to model.Status) {
	switch event {
	case model.EventSubmitQC:
		doc.CurrentStage = model.StageQC
	case model.EventSubmitReviewDirect, model.EventSubmitReview:
		doc.CurrentStage = model.StageTechnicalReview
	case model.EventSubmitApproval:
		doc.CurrentStage = model.StageFinalApproval
	}
}

// resetBallotsWithHistory resets each ballot to Pending, preserving its
// prior comment as PreviousComment for traceability (spec §4.3).
func resetBallotsWithHistory(ballots []model.Ballot) []model.Ballot {
	for i := range ballots {
		ballots[i].PreviousComment = ballots[i].Comment
		ballots[i].Comment = ""
		ballots[i].Decision = model.DecisionPending
		ballots[i].DecidedAt = time.Time{}
	}
	return ballots
}

func entry(event model.Event, actor model.Principal, payload Payload, details string) model.AuditEntry {
	name := payload.ActorName
	if name == "" {
		name = actor.Username
	}
	return model.AuditEntry{
		Action:    string(event),
		ActorID:   actor.ID,
		ActorName: name,
		Timestamp: nowUTC(),
		Details:   details,
	}
}

// nowUTC is the single seam the state machine calls for "now",
// matching the append-only history's non-decreasing timestamp
// requirement (spec §3 invariant 6) without needing a literal clock
// dependency threaded through every function signature.
var nowUTC = func() time.Time { return time.Now().UTC() }
