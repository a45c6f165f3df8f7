package storage

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"tmf.evalgo.org/model"
	"tmf.evalgo.org/tmferrors"
)

// DocStore is the Document Store (C5) plus the Lineage Index (C6):
// Document records keyed by doc_id, with a secondary index over
// lineage_id for amendment-uniqueness checks and "latest of lineage"
// lookups.
//
// Every write is a compare-and-set against the Document's storage
// concurrency token (Document.StoreRevision): a caller that read a
// stale snapshot gets tmferrors.Conflict back and is expected to
// re-fetch and retry (spec §5).
type DocStore interface {
	Get(ctx context.Context, docID string) (*model.Document, error)

	// Create inserts a brand-new Document record. Fails with Conflict
	// if docID already exists.
	Create(ctx context.Context, doc *model.Document) error

	// Save performs the compare-and-set write: doc.StoreRevision must
	// match the currently stored revision. On success, Save updates
	// doc.StoreRevision to the new value.
	Save(ctx context.Context, doc *model.Document) error

	// ByLineage returns every Document in lineageID, in no particular
	// order; callers needing the latest sort by (MajorVersion,
	// MinorVersion) themselves.
	ByLineage(ctx context.Context, lineageID string) ([]model.Document, error)

	// ByAmendedFrom returns every Document whose AmendedFrom equals
	// predecessorID, for the amendment-uniqueness check (spec §4.6).
	ByAmendedFrom(ctx context.Context, predecessorID string) ([]model.Document, error)

	// Delete performs the hard removal required by spec §4.7.
	Delete(ctx context.Context, docID string) error

	// List returns documents matching a case-insensitive substring
	// search over doc_number (filenames are not searched) and an
	// actor-scoped task filter, paginated.
	List(ctx context.Context, filter ListFilter) ([]model.Document, error)

	// PendingSupersession returns documents with a non-empty
	// PendingSupersession marker, for the background reconciler
	// (spec §5).
	PendingSupersession(ctx context.Context) ([]model.Document, error)
}

// ListFilter narrows List's results.
type ListFilter struct {
	Search string

	// PendingForPrincipal, if set, restricts to documents where this
	// principal id holds a Pending ballot, or is the drafting author
	// of a Draft document (list_my_tasks, spec §6).
	PendingForPrincipal string

	Offset int
	Limit  int
}

// MemoryDocStore is an in-process DocStore for unit tests and local
// development. Revisions are tracked with a simple monotonically
// increasing integer rather than a CouchDB `_rev` string.
type MemoryDocStore struct {
	mu   sync.RWMutex
	docs map[string]*model.Document
}

func NewMemoryDocStore() *MemoryDocStore {
	return &MemoryDocStore{docs: make(map[string]*model.Document)}
}

var _ DocStore = (*MemoryDocStore)(nil)

func (s *MemoryDocStore) Get(_ context.Context, docID string) (*model.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[docID]
	if !ok {
		return nil, tmferrors.NotFound("storage.MemoryDocStore.Get", "document %s not found", docID)
	}
	return doc.Clone(), nil
}

func (s *MemoryDocStore) Create(_ context.Context, doc *model.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.docs[doc.DocID]; exists {
		return tmferrors.Conflict("storage.MemoryDocStore.Create", "document %s already exists", doc.DocID)
	}
	stored := doc.Clone()
	stored.VersionCounter = 1
	stored.StoreRevision = "1"
	s.docs[doc.DocID] = stored
	doc.VersionCounter = stored.VersionCounter
	doc.StoreRevision = stored.StoreRevision
	return nil
}

func (s *MemoryDocStore) Save(_ context.Context, doc *model.Document) error {
	const op = "storage.MemoryDocStore.Save"
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.docs[doc.DocID]
	if !ok {
		return tmferrors.NotFound(op, "document %s not found", doc.DocID)
	}
	if current.StoreRevision != doc.StoreRevision {
		return tmferrors.Conflict(op, "document %s was modified concurrently", doc.DocID)
	}

	stored := doc.Clone()
	stored.VersionCounter = current.VersionCounter + 1
	stored.StoreRevision = strconv.Itoa(stored.VersionCounter)
	s.docs[doc.DocID] = stored
	doc.VersionCounter = stored.VersionCounter
	doc.StoreRevision = stored.StoreRevision
	return nil
}

func (s *MemoryDocStore) ByLineage(_ context.Context, lineageID string) ([]model.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Document
	for _, d := range s.docs {
		if d.LineageID == lineageID {
			out = append(out, *d.Clone())
		}
	}
	return out, nil
}

func (s *MemoryDocStore) ByAmendedFrom(_ context.Context, predecessorID string) ([]model.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Document
	for _, d := range s.docs {
		if d.AmendedFrom == predecessorID {
			out = append(out, *d.Clone())
		}
	}
	return out, nil
}

func (s *MemoryDocStore) Delete(_ context.Context, docID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[docID]; !ok {
		return tmferrors.NotFound("storage.MemoryDocStore.Delete", "document %s not found", docID)
	}
	delete(s.docs, docID)
	return nil
}

func (s *MemoryDocStore) List(_ context.Context, filter ListFilter) ([]model.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []model.Document
	for _, d := range s.docs {
		if filter.PendingForPrincipal != "" && !hasPendingOrIsAuthor(d, filter.PendingForPrincipal) {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(d.DocNumber), strings.ToLower(filter.Search)) {
			continue
		}
		matched = append(matched, *d.Clone())
	}

	if filter.Offset > len(matched) {
		return nil, nil
	}
	end := len(matched)
	if filter.Limit > 0 && filter.Offset+filter.Limit < end {
		end = filter.Offset + filter.Limit
	}
	return matched[filter.Offset:end], nil
}

func (s *MemoryDocStore) PendingSupersession(_ context.Context) ([]model.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Document
	for _, d := range s.docs {
		if d.PendingSupersession != "" {
			out = append(out, *d.Clone())
		}
	}
	return out, nil
}

func hasPendingOrIsAuthor(d *model.Document, principalID string) bool {
	if d.Status == model.StatusDraft && d.Author == principalID {
		return true
	}
	for _, b := range d.QCBallots {
		if b.PrincipalID == principalID && b.Decision == model.DecisionPending {
			return true
		}
	}
	for _, b := range d.ReviewBallots {
		if b.PrincipalID == principalID && b.Decision == model.DecisionPending {
			return true
		}
	}
	if d.ApproverBallot != nil && d.ApproverBallot.PrincipalID == principalID && d.ApproverBallot.Decision == model.DecisionPending {
		return true
	}
	return false
}
