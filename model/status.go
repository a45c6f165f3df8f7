// Package model defines the data types shared across the document
// lifecycle engine: the Document aggregate, its Revisions, Ballots,
// Signature, and append-only history, plus the Status and decision
// alphabets that the state machine and workflow coordinator operate
// over.
package model

// Status is the status of a Document. The set is closed; no other
// value is valid.
type Status string

const (
	StatusDraft             Status = "Draft"
	StatusInQC               Status = "In QC"
	StatusQCComplete         Status = "QC Complete"
	StatusQCRejected         Status = "QC Rejected"
	StatusInReview           Status = "In Review"
	StatusUnderRevision      Status = "Under Revision"
	StatusReviewComplete     Status = "Review Complete"
	StatusPendingApproval    Status = "Pending Approval"
	StatusApprovalRejected   Status = "Approval Rejected"
	StatusApproved           Status = "Approved"
	StatusSuperseded         Status = "Superseded"
	StatusObsolete           Status = "Obsolete"
	StatusWithdrawn          Status = "Withdrawn"
	StatusArchived           Status = "Archived"
)

// terminal holds the statuses for which no state-machine event is
// accepted except read/verify operations.
var terminal = map[Status]bool{
	StatusSuperseded: true,
	StatusObsolete:   true,
	StatusWithdrawn:  true,
	StatusArchived:   true,
}

// IsTerminal reports whether s accepts no further state-machine events.
func (s Status) IsTerminal() bool {
	return terminal[s]
}

// everApproved is the set of statuses a document can only reach after
// having passed through Approved at least once.
var everApproved = map[Status]bool{
	StatusApproved:   true,
	StatusSuperseded: true,
	StatusObsolete:   true,
	StatusArchived:   true,
}

// WasEverApproved reports whether s is only reachable for a document
// that has been Approved at some point in its history (invariant 3,
// spec §3).
func (s Status) WasEverApproved() bool {
	return everApproved[s]
}

// Stage identifies which workflow stage, if any, a Document currently
// occupies.
type Stage string

const (
	StageNone            Stage = "none"
	StageQC              Stage = "QC"
	StageTechnicalReview Stage = "TechnicalReview"
	StageFinalApproval   Stage = "FinalApproval"
)

// Role is a Principal's role within the engine. Authorization
// predicates in the state machine consult Role alongside ownership.
type Role string

const (
	RoleContributor    Role = "Contributor"
	RoleQC             Role = "QC"
	RoleReviewer       Role = "Reviewer"
	RoleApprover       Role = "Approver"
	RoleQualityManager Role = "Quality Manager"
	RoleArchivist      Role = "Archivist"
	RoleAdmin          Role = "Admin"
)

// Decision is a reviewer's ballot outcome. QC stages use Pass/Fail;
// Technical Review stages use Approved/RequestChanges. Pending marks a
// ballot slot reserved for a principal who has not yet decided.
type Decision string

const (
	DecisionPending        Decision = "Pending"
	DecisionPass           Decision = "Pass"
	DecisionFail           Decision = "Fail"
	DecisionApproved       Decision = "Approved"
	DecisionRequestChanges Decision = "RequestChanges"
)

// Event is the closed set of state-machine events the engine accepts.
type Event string

const (
	EventSubmitQC               Event = "submit_qc"
	EventSubmitReviewDirect      Event = "submit_review_direct"
	EventQCBallot                Event = "qc_ballot"
	EventSubmitReview            Event = "submit_review"
	EventReviewBallot            Event = "review_ballot"
	EventUploadCorrectedRevision Event = "upload_corrected_revision"
	EventSubmitApproval          Event = "submit_approval"
	EventFinalApproval           Event = "final_approval"
	EventUploadRevisedRevision   Event = "upload_revised_revision"
	EventRecall                  Event = "recall"
	EventWithdraw                Event = "withdraw"
	EventAmend                   Event = "amend"
	EventMarkObsolete            Event = "mark_obsolete"
	EventArchive                 Event = "archive"
	EventDelete                  Event = "delete"
	EventVerifySignature         Event = "verify_signature"
)
