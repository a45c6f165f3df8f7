// Package statemachine implements the document state machine (C7): a
// pure decision function over a Document snapshot, a proposed Event,
// and the acting Principal. It performs no I/O — persistence,
// signature issuance, and blob access are invoked by the engine package
// around calls into this one.
//
// The transition table below generalizes the donor's
// coordinator/phases.go Phase/ValidTransitions idiom: that package
// models a single linear workflow phase advancing automatically
// (Phase -> []Phase), whereas a Document's Status advances only in
// response to a named Event, so the table here is keyed by
// (Event, Status) rather than Status alone.
package statemachine

import "tmf.evalgo.org/model"

// transitionKey identifies one row of the allowed-transitions table.
type transitionKey struct {
	Event model.Event
	From  model.Status
}

// transitions is the closed precondition -> new-status table from
// spec §4.1. Events whose outcome depends on a ballot decision
// (qc_ballot, review_ballot, final_approval) are resolved dynamically
// by the workflow coordinator and have no rows in this table.
var transitions = map[transitionKey]model.Status{
	{model.EventSubmitQC, model.StatusDraft}:            model.StatusInQC,
	{model.EventSubmitReviewDirect, model.StatusDraft}:  model.StatusInReview,
	{model.EventSubmitReview, model.StatusQCComplete}:    model.StatusInReview,
	{model.EventUploadCorrectedRevision, model.StatusUnderRevision}: model.StatusInReview,
	{model.EventSubmitApproval, model.StatusReviewComplete}:         model.StatusPendingApproval,
	{model.EventUploadRevisedRevision, model.StatusQCRejected}:       model.StatusDraft,
	{model.EventUploadRevisedRevision, model.StatusApprovalRejected}: model.StatusDraft,
}

// recallTargets implements spec §4.8: recall returns an in-flight
// document to the status it occupied just before its current stage.
var recallTargets = map[model.Status]model.Status{
	model.StatusInQC:            model.StatusDraft,
	model.StatusInReview:        model.StatusQCComplete,
	model.StatusPendingApproval: model.StatusReviewComplete,
}

// withdrawableFrom is the set of statuses withdraw is accepted from.
var withdrawableFrom = map[model.Status]bool{
	model.StatusDraft:             true,
	model.StatusInQC:              true,
	model.StatusInReview:          true,
	model.StatusPendingApproval:   true,
	model.StatusQCRejected:        true,
	model.StatusApprovalRejected:  true,
	model.StatusUnderRevision:     true,
}

// CanRecall reports whether from is a status recall accepts, and the
// status it would return to.
func CanRecall(from model.Status) (model.Status, bool) {
	to, ok := recallTargets[from]
	return to, ok
}

// CanWithdraw reports whether withdraw is accepted from the given
// status.
func CanWithdraw(from model.Status) bool {
	return withdrawableFrom[from]
}

// PlainTransition looks up the new status for events whose outcome
// does not depend on a ballot decision. ok is false if the event is
// not one of those, or the precondition status does not match.
func PlainTransition(event model.Event, from model.Status) (model.Status, bool) {
	to, ok := transitions[transitionKey{event, from}]
	return to, ok
}
