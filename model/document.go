package model

import "time"

// Principal is the external, read-only identity the engine resolves
// through the Identity Directory (C2). The engine never stores
// plaintext private keys; PrivateKeyHandle is an opaque reference the
// Crypto Primitive resolves when the holder personally triggers a
// signing event.
type Principal struct {
	ID               string `json:"id"`
	Username         string `json:"username"`
	Role             Role   `json:"role"`
	PublicKeyPEM     string `json:"public_key_pem"`
	PrivateKeyHandle string `json:"private_key_handle,omitempty"`
}

// IsAdmin reports whether p holds the Admin role, which the state
// machine treats as implicitly authorized for every event kind.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// TMFMetadata is the opaque record of recognized TMF classification
// fields carried by a Document. Each field is a free-form string;
// validation of the controlled vocabularies they draw from happens
// outside the engine.
type TMFMetadata struct {
	StudyID     string `json:"study_id"`
	Country     string `json:"country"`
	SiteID      string `json:"site_id"`
	TMFZone     string `json:"tmf_zone"`
	TMFSection  string `json:"tmf_section"`
	TMFArtifact string `json:"tmf_artifact"`
}

// Revision is a single uploaded file payload within a Document's life.
type Revision struct {
	BlobID         string    `json:"blob_id"`
	Filename       string    `json:"filename"`
	ContentType    string    `json:"content_type"`
	AuthorComment  string    `json:"author_comment,omitempty"`
	UploadedAt     time.Time `json:"uploaded_at"`
	Uploader       string    `json:"uploader"`
}

// Ballot is a single reviewer's decision record for a given stage.
type Ballot struct {
	PrincipalID      string    `json:"principal_id"`
	Decision         Decision  `json:"decision"`
	DecidedAt        time.Time `json:"decided_at"`
	Comment          string    `json:"comment,omitempty"`
	PreviousComment  string    `json:"previous_comment,omitempty"`
}

// DueDates holds the informational, non-enforced deadlines per stage.
type DueDates struct {
	QC       *time.Time `json:"qc,omitempty"`
	Review   *time.Time `json:"review,omitempty"`
	Approval *time.Time `json:"approval,omitempty"`
}

// Signature is the immutable record of a final approval's
// cryptographic binding. Once present on a Document it is never
// mutated or removed.
type Signature struct {
	DetachedSignatureB64   string    `json:"detached_signature_b64"`
	SignerPrincipal        string    `json:"signer_principal"`
	SignerPublicKeySnapshot string   `json:"signer_public_key_snapshot"`
	SignedAt               time.Time `json:"signed_at"`
	SignedBlobID           string    `json:"signed_blob_id"`
}

// AuditEntry is one append-only record of how a Document reached its
// current status. Entries are never edited or reordered; Timestamp is
// monotonic non-decreasing with respect to the previous entry of the
// same Document.
type AuditEntry struct {
	Action    string    `json:"action"`
	ActorID   string    `json:"actor_id"`
	ActorName string    `json:"actor_name"`
	Timestamp time.Time `json:"timestamp"`
	Details   string    `json:"details,omitempty"`
}

// Document is the central entity of the engine: a single version
// within a lineage, carrying its own revisions, reviewer tallies, and
// append-only history.
type Document struct {
	DocID          string       `json:"doc_id"`
	DocNumber      string       `json:"doc_number"`
	LineageID      string       `json:"lineage_id"`
	MajorVersion   int          `json:"major_version"`
	MinorVersion   int          `json:"minor_version"`
	Status         Status       `json:"status"`
	Author         string       `json:"author"`
	TMFMetadata    TMFMetadata  `json:"tmf_metadata"`
	Revisions      []Revision   `json:"revisions"`
	ActiveRevision int          `json:"active_revision"`
	QCBallots      []Ballot     `json:"qc_ballots"`
	ReviewBallots  []Ballot     `json:"review_ballots"`
	ApproverBallot *Ballot      `json:"approver_ballot,omitempty"`
	CurrentStage   Stage        `json:"current_stage"`
	DueDates       DueDates     `json:"due_dates"`
	AmendedFrom    string       `json:"amended_from,omitempty"`
	SupersededBy   string       `json:"superseded_by,omitempty"`

	// PendingSupersession holds the doc_id of a not-yet-approved
	// amendment while the two-phase supersession commit (spec §5) is
	// in flight. A background reconciler scans for documents where
	// this is set but the corresponding amendment never reached
	// Approved (or already did, leaving this document still marked),
	// and finishes the second phase.
	PendingSupersession string `json:"pending_supersession,omitempty"`

	Signature *Signature   `json:"signature,omitempty"`
	History   []AuditEntry `json:"history"`

	// VersionCounter backs the optimistic compare-and-set at the
	// storage boundary (spec §5); the Document Store increments it on
	// every committed write and rejects a write whose expected value
	// does not match the stored value with a Conflict error. CouchDB
	// implementations may use `_rev` directly instead and leave this
	// field unused.
	VersionCounter int `json:"version_counter"`

	// StoreRevision is an opaque storage-layer concurrency token (the
	// CouchDB `_rev` value) threaded through so the Document Store can
	// perform its own optimistic write without the rest of the engine
	// knowing the storage technology.
	StoreRevision string `json:"-"`
}

// ActiveRevisionRecord returns the Revision currently facing reviewers.
// The caller must not mutate the result.
func (d *Document) ActiveRevisionRecord() (Revision, bool) {
	if d.ActiveRevision < 0 || d.ActiveRevision >= len(d.Revisions) {
		return Revision{}, false
	}
	return d.Revisions[d.ActiveRevision], true
}

// Clone returns a deep-enough copy of d so callers (principally the
// pure state machine) can compute a new Document without mutating the
// caller's snapshot in place.
func (d *Document) Clone() *Document {
	clone := *d
	clone.Revisions = append([]Revision(nil), d.Revisions...)
	clone.QCBallots = append([]Ballot(nil), d.QCBallots...)
	clone.ReviewBallots = append([]Ballot(nil), d.ReviewBallots...)
	clone.History = append([]AuditEntry(nil), d.History...)
	if d.ApproverBallot != nil {
		b := *d.ApproverBallot
		clone.ApproverBallot = &b
	}
	if d.Signature != nil {
		s := *d.Signature
		clone.Signature = &s
	}
	return &clone
}

// InProgressStatuses is the set of statuses considered "in flight" for
// amendment-uniqueness (spec §4.6) and supersession-descendant checks
// (testable property 5).
var InProgressStatuses = map[Status]bool{
	StatusDraft:           true,
	StatusInQC:            true,
	StatusQCComplete:      true,
	StatusInReview:        true,
	StatusUnderRevision:   true,
	StatusReviewComplete:  true,
	StatusPendingApproval: true,
}
