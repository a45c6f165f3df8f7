// Package engine is the orchestration core (C11's non-transport half):
// it wires the Identity Directory (C2), Blob Store (C1), Document
// Store/Lineage Index (C5/C6), Sequence Allocator (C3), Crypto
// Primitive (C4), and the pure statemachine/workflow/lifecycle
// packages (C7/C8/C9) together behind the operation list of spec §6.
//
// Grounded on the donor auth.go's authService struct discipline:
// collaborators are explicit constructor fields, never package-level
// globals, so a caller (httpapi, tests, the reconciler) can swap in
// fakes freely.
package engine

import (
	"context"

	"github.com/google/uuid"

	"tmf.evalgo.org/auth"
	"tmf.evalgo.org/coordinator"
	"tmf.evalgo.org/db"
	"tmf.evalgo.org/model"
	"tmf.evalgo.org/storage"
)

// Engine is the document-lifecycle engine: every spec §6 operation is
// a method on this type.
type Engine struct {
	docs      storage.DocStore
	blobs     storage.BlobStore
	identity  auth.IdentityDirectory
	sequences db.SequenceAllocator
	locks     *coordinator.DocLock

	// newID generates doc_id/lineage_id values; overridden in tests for
	// deterministic fixtures.
	newID func() string
}

// New builds an Engine around its explicit collaborators.
func New(docs storage.DocStore, blobs storage.BlobStore, identity auth.IdentityDirectory, sequences db.SequenceAllocator) *Engine {
	return &Engine{
		docs:      docs,
		blobs:     blobs,
		identity:  identity,
		sequences: sequences,
		locks:     coordinator.NewDocLock(),
		newID:     func() string { return uuid.NewString() },
	}
}

// withDoc fetches docID, runs fn under that document's in-process
// lock, and persists fn's result via a compare-and-set Save. Retrying
// a storage Conflict is the caller's responsibility (spec §5); this
// helper does not loop.
func (e *Engine) withDoc(ctx context.Context, docID string, fn func(doc *model.Document) (*model.Document, model.AuditEntry, error)) (*model.Document, error) {
	unlock := e.locks.Lock(docID)
	defer unlock()

	current, err := e.docs.Get(ctx, docID)
	if err != nil {
		return nil, err
	}

	next, entry, err := fn(current)
	if err != nil {
		return nil, err
	}
	next.History = append(next.History, entry)

	if err := e.docs.Save(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

func (e *Engine) resolveActor(ctx context.Context, principalID string) (model.Principal, error) {
	return e.identity.Get(ctx, principalID)
}
