package statemachine

import "tmf.evalgo.org/model"

// submitEvents is the set of events authorized only for the
// document's author or an Admin (spec §4.2).
var submitEvents = map[model.Event]bool{
	model.EventSubmitQC:               true,
	model.EventSubmitReview:            true,
	model.EventSubmitReviewDirect:      true,
	model.EventSubmitApproval:          true,
	model.EventUploadCorrectedRevision: true,
	model.EventUploadRevisedRevision:   true,
	model.EventAmend:                   true,
	model.EventRecall:                  true,
}

// AuthorizeSubmit reports whether actor may invoke a submit-class
// event against doc.
func AuthorizeSubmit(doc *model.Document, actor model.Principal) bool {
	return actor.IsAdmin() || actor.ID == doc.Author
}

// IsSubmitEvent reports whether event belongs to the submit-class
// authorization predicate.
func IsSubmitEvent(event model.Event) bool {
	return submitEvents[event]
}

// AuthorizeBallot reports whether actor may cast a ballot in the given
// ballot set: actor must already hold a Pending ballot, or be Admin
// (whose ballot is added on the fly and is final for the stage).
func AuthorizeBallot(ballots []model.Ballot, actor model.Principal) bool {
	if actor.IsAdmin() {
		return true
	}
	for _, b := range ballots {
		if b.PrincipalID == actor.ID {
			return true
		}
	}
	return false
}

// AuthorizeFinalApproval reports whether actor may cast the final
// approval decision: actor is the designated approver, or Admin.
func AuthorizeFinalApproval(doc *model.Document, actor model.Principal) bool {
	if actor.IsAdmin() {
		return true
	}
	if doc.ApproverBallot == nil {
		return false
	}
	return doc.ApproverBallot.PrincipalID == actor.ID
}

// AuthorizeObsolete reports whether actor may mark a document
// obsolete: Quality Manager or Admin.
func AuthorizeObsolete(actor model.Principal) bool {
	return actor.IsAdmin() || actor.Role == model.RoleQualityManager
}

// AuthorizeArchive reports whether actor may archive a document:
// Archivist or Admin.
func AuthorizeArchive(actor model.Principal) bool {
	return actor.IsAdmin() || actor.Role == model.RoleArchivist
}

// AuthorizeDelete reports whether actor may delete doc: author or
// Admin, and doc.Status is Draft or Withdrawn.
func AuthorizeDelete(doc *model.Document, actor model.Principal) bool {
	if doc.Status != model.StatusDraft && doc.Status != model.StatusWithdrawn {
		return false
	}
	return actor.IsAdmin() || actor.ID == doc.Author
}
