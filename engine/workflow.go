package engine

import (
	"context"
	"time"

	"tmf.evalgo.org/model"
	"tmf.evalgo.org/statemachine"
	"tmf.evalgo.org/tmferrors"
	"tmf.evalgo.org/workflow"
)

// SubmitQC implements submit_qc: the author moves doc.DocID from
// Draft into In QC, seeding one Pending ballot per reviewerIDs (spec
// §3 invariant 7).
func (e *Engine) SubmitQC(ctx context.Context, docID, actorID string, reviewerIDs []string) (*model.Document, error) {
	return e.submitStage(ctx, docID, actorID, model.EventSubmitQC, reviewerIDs, func(doc *model.Document, seeded []model.Ballot) {
		doc.QCBallots = seeded
	})
}

// SubmitReviewDirect implements submit_review_direct: the author
// skips QC and moves straight from Draft into In Review.
func (e *Engine) SubmitReviewDirect(ctx context.Context, docID, actorID string, reviewerIDs []string) (*model.Document, error) {
	return e.submitStage(ctx, docID, actorID, model.EventSubmitReviewDirect, reviewerIDs, func(doc *model.Document, seeded []model.Ballot) {
		doc.ReviewBallots = seeded
	})
}

// SubmitReview implements submit_review: QC Complete -> In Review.
func (e *Engine) SubmitReview(ctx context.Context, docID, actorID string, reviewerIDs []string) (*model.Document, error) {
	return e.submitStage(ctx, docID, actorID, model.EventSubmitReview, reviewerIDs, func(doc *model.Document, seeded []model.Ballot) {
		doc.ReviewBallots = seeded
	})
}

// SubmitApproval implements submit_approval: Review Complete ->
// Pending Approval, with the single designated approver's ballot
// seeded Pending.
func (e *Engine) SubmitApproval(ctx context.Context, docID, actorID, approverID string) (*model.Document, error) {
	const op = "engine.SubmitApproval"
	actor, err := e.resolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if approverID == "" {
		return nil, tmferrors.InvalidInput(op, "an approver must be designated")
	}

	return e.withDoc(ctx, docID, func(doc *model.Document) (*model.Document, model.AuditEntry, error) {
		next, entry, err := statemachine.Decide(doc, model.EventSubmitApproval, actor, statemachine.Payload{})
		if err != nil {
			return nil, model.AuditEntry{}, err
		}
		next.ApproverBallot = &model.Ballot{PrincipalID: approverID, Decision: model.DecisionPending}
		return next, entry, nil
	})
}

func (e *Engine) submitStage(ctx context.Context, docID, actorID string, event model.Event, reviewerIDs []string, seed func(doc *model.Document, seeded []model.Ballot)) (*model.Document, error) {
	const op = "engine.submitStage"
	actor, err := e.resolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if len(reviewerIDs) == 0 {
		return nil, tmferrors.InvalidInput(op, "at least one reviewer must be designated")
	}

	return e.withDoc(ctx, docID, func(doc *model.Document) (*model.Document, model.AuditEntry, error) {
		next, entry, err := statemachine.Decide(doc, event, actor, statemachine.Payload{})
		if err != nil {
			return nil, model.AuditEntry{}, err
		}
		seed(next, workflow.SeedPending(reviewerIDs))
		return next, entry, nil
	})
}

// QCBallot implements qc_ballot: actorID casts or updates their QC
// decision. When every ballot resolves to Pass, the document advances
// to QC Complete; any Fail resolves it to QC Rejected immediately.
func (e *Engine) QCBallot(ctx context.Context, docID, actorID string, decision model.Decision, comment string) (*model.Document, error) {
	const op = "engine.QCBallot"
	actor, err := e.resolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	return e.withDoc(ctx, docID, func(doc *model.Document) (*model.Document, model.AuditEntry, error) {
		if doc.Status != model.StatusInQC {
			return nil, model.AuditEntry{}, tmferrors.InvalidState(op, "qc_ballot not valid from status %s", doc.Status)
		}
		ballots, outcome, err := workflow.CastQC(doc.QCBallots, actor, decision, comment)
		if err != nil {
			return nil, model.AuditEntry{}, err
		}
		next := doc.Clone()
		next.QCBallots = ballots

		switch outcome {
		case workflow.OutcomeFail:
			next.Status = model.StatusQCRejected
			next.CurrentStage = model.StageNone
		case workflow.OutcomePass, workflow.OutcomeAdmin:
			if outcome == workflow.OutcomeAdmin && decision == model.DecisionFail {
				next.Status = model.StatusQCRejected
				next.CurrentStage = model.StageNone
				break
			}
			next.Status = model.StatusQCComplete
			next.CurrentStage = model.StageNone
		}
		return next, ballotAudit(model.EventQCBallot, actor, decision, comment, next.Status), nil
	})
}

// ReviewBallot implements review_ballot: a reviewer's Technical
// Review decision. A single RequestChanges sends the document to
// Under Revision; unanimous Approved resolves it to Review Complete.
func (e *Engine) ReviewBallot(ctx context.Context, docID, actorID string, decision model.Decision, comment string) (*model.Document, error) {
	const op = "engine.ReviewBallot"
	actor, err := e.resolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	return e.withDoc(ctx, docID, func(doc *model.Document) (*model.Document, model.AuditEntry, error) {
		if doc.Status != model.StatusInReview {
			return nil, model.AuditEntry{}, tmferrors.InvalidState(op, "review_ballot not valid from status %s", doc.Status)
		}
		ballots, outcome, err := workflow.CastReview(doc.ReviewBallots, actor, decision, comment)
		if err != nil {
			return nil, model.AuditEntry{}, err
		}
		next := doc.Clone()
		next.ReviewBallots = ballots

		switch outcome {
		case workflow.OutcomeFail:
			next.Status = model.StatusUnderRevision
			next.CurrentStage = model.StageNone
		case workflow.OutcomePass, workflow.OutcomeAdmin:
			if outcome == workflow.OutcomeAdmin && decision == model.DecisionRequestChanges {
				next.Status = model.StatusUnderRevision
				next.CurrentStage = model.StageNone
				break
			}
			next.Status = model.StatusReviewComplete
			next.CurrentStage = model.StageNone
		}
		return next, ballotAudit(model.EventReviewBallot, actor, decision, comment, next.Status), nil
	})
}

// Recall implements recall: the author pulls doc.DocID back to the
// status it occupied before its current in-flight stage, discarding
// that stage's ballots (spec §4.8).
func (e *Engine) Recall(ctx context.Context, docID, actorID string) (*model.Document, error) {
	actor, err := e.resolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	return e.withDoc(ctx, docID, func(doc *model.Document) (*model.Document, model.AuditEntry, error) {
		return statemachine.Decide(doc, model.EventRecall, actor, statemachine.Payload{})
	})
}

func ballotAudit(event model.Event, actor model.Principal, decision model.Decision, comment string, newStatus model.Status) model.AuditEntry {
	return model.AuditEntry{
		Action:    string(event),
		ActorID:   actor.ID,
		ActorName: actor.Username,
		Timestamp: time.Now().UTC(),
		Details:   "decision " + string(decision) + ", status -> " + string(newStatus),
	}
}
