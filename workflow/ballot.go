// Package workflow implements the Workflow Coordinator (C8): per-stage
// ballot bookkeeping and the deterministic stage-outcome computation
// that drives the document state machine's QC and Technical Review
// transitions. It holds no persistent state of its own — every
// function here operates on the ballot slice carried on a Document
// snapshot and returns a new slice plus an Outcome for the caller to
// act on.
//
// The donor has no ballot-aggregation concept; the bookkeeping
// discipline below — a principal mutated in place by id, timestamp
// advancing on re-cast — generalizes statemanager/manager.go's
// map-of-state pattern to a slice keyed by principal_id instead of
// operation id, and the "lock held only long enough to read, never
// across the outcome computation" discipline mirrors
// coordinator/coordinator.go's handler-dispatch locking.
package workflow

import (
	"time"

	"tmf.evalgo.org/model"
	"tmf.evalgo.org/tmferrors"
)

// Outcome is the result of casting a ballot: whether the stage is
// still open, and if not, which way it resolved.
type Outcome string

const (
	OutcomeOpen    Outcome = "open"
	OutcomePass    Outcome = "pass"
	OutcomeFail    Outcome = "fail"
	OutcomeAdmin   Outcome = "admin"
)

// Stage distinguishes which decision alphabet a ballot set uses.
type Stage int

const (
	StageQC Stage = iota
	StageReview
)

// CastQC casts or updates actor's QC ballot against ballots and
// returns the new ballot slice and the stage outcome. decision must be
// Pass or Fail.
func CastQC(ballots []model.Ballot, actor model.Principal, decision model.Decision, comment string) ([]model.Ballot, Outcome, error) {
	return cast(ballots, actor, decision, comment, StageQC)
}

// CastReview casts or updates actor's Technical Review ballot.
// decision must be Approved or RequestChanges.
func CastReview(ballots []model.Ballot, actor model.Principal, decision model.Decision, comment string) ([]model.Ballot, Outcome, error) {
	return cast(ballots, actor, decision, comment, StageReview)
}

func cast(ballots []model.Ballot, actor model.Principal, decision model.Decision, comment string, stage Stage) ([]model.Ballot, Outcome, error) {
	const op = "workflow.cast"

	if !validDecision(stage, decision) {
		return nil, "", tmferrors.InvalidInput(op, "decision %s is not valid for this stage", decision)
	}

	next := append([]model.Ballot(nil), ballots...)

	if actor.IsAdmin() {
		next = upsert(next, model.Ballot{
			PrincipalID: actor.ID,
			Decision:    decision,
			DecidedAt:   time.Now().UTC(),
			Comment:     comment,
		})
		return next, OutcomeAdmin, nil
	}

	idx := indexOf(next, actor.ID)
	if idx < 0 {
		return nil, "", tmferrors.Unauthorized(op, "actor %s has no ballot in this stage", actor.ID)
	}
	next[idx].Decision = decision
	next[idx].DecidedAt = time.Now().UTC()
	next[idx].Comment = comment

	return next, computeOutcome(next, stage), nil
}

// computeOutcome applies spec §4.4's aggregation rule: any failing
// decision resolves the stage immediately; all decisions being the
// passing kind resolves it the other way; anything else leaves it
// open.
func computeOutcome(ballots []model.Ballot, stage Stage) Outcome {
	allPass := true
	for _, b := range ballots {
		if isFail(stage, b.Decision) {
			return OutcomeFail
		}
		if !isPass(stage, b.Decision) {
			allPass = false
		}
	}
	if allPass && len(ballots) > 0 {
		return OutcomePass
	}
	return OutcomeOpen
}

func isPass(stage Stage, d model.Decision) bool {
	if stage == StageQC {
		return d == model.DecisionPass
	}
	return d == model.DecisionApproved
}

func isFail(stage Stage, d model.Decision) bool {
	if stage == StageQC {
		return d == model.DecisionFail
	}
	return d == model.DecisionRequestChanges
}

func validDecision(stage Stage, d model.Decision) bool {
	if stage == StageQC {
		return d == model.DecisionPass || d == model.DecisionFail
	}
	return d == model.DecisionApproved || d == model.DecisionRequestChanges
}

func indexOf(ballots []model.Ballot, principalID string) int {
	for i, b := range ballots {
		if b.PrincipalID == principalID {
			return i
		}
	}
	return -1
}

// upsert inserts b if no ballot for b.PrincipalID exists in ballots,
// or replaces the existing entry in place (spec §4.4 ballot
// uniqueness).
func upsert(ballots []model.Ballot, b model.Ballot) []model.Ballot {
	if idx := indexOf(ballots, b.PrincipalID); idx >= 0 {
		ballots[idx] = b
		return ballots
	}
	return append(ballots, b)
}

// SeedPending returns a fresh ballot set with one Pending entry per
// principal id, as created when a stage is entered via a submit event
// (spec §3 invariant 7).
func SeedPending(principalIDs []string) []model.Ballot {
	ballots := make([]model.Ballot, 0, len(principalIDs))
	for _, id := range principalIDs {
		ballots = append(ballots, model.Ballot{
			PrincipalID: id,
			Decision:    model.DecisionPending,
		})
	}
	return ballots
}

// CastApproval resolves the single-ballot final-approval stage
// (spec §4.5): the designated approver, or an Admin, casts Approved or
// RequestChanges-equivalent rejection. Unlike QC/Review there is only
// ever one ballot, so the outcome is the ballot's own decision.
func CastApproval(doc *model.Document, actor model.Principal, approved bool, comment string) (model.Ballot, Outcome, error) {
	const op = "workflow.CastApproval"

	switch {
	case actor.IsAdmin():
	case doc.ApproverBallot != nil && doc.ApproverBallot.PrincipalID == actor.ID:
	default:
		return model.Ballot{}, "", tmferrors.Unauthorized(op, "actor %s is not the designated approver for document %s", actor.ID, doc.DocID)
	}

	decision := model.DecisionRequestChanges
	outcome := OutcomeFail
	if approved {
		decision = model.DecisionApproved
		outcome = OutcomePass
	}
	ballot := model.Ballot{
		PrincipalID: actor.ID,
		Decision:    decision,
		DecidedAt:   time.Now().UTC(),
		Comment:     comment,
	}
	if actor.IsAdmin() {
		outcome = OutcomeAdmin
	}
	return ballot, outcome, nil
}
