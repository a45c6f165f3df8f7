package storage

import (
	"context"
	"strings"

	"tmf.evalgo.org/db"
	"tmf.evalgo.org/model"
	"tmf.evalgo.org/tmferrors"
)

// couchDocument is the CouchDB-on-the-wire shape of a Document: the
// model type plus the `_id`/`_rev` pair CouchDB needs to address and
// version it. Document.StoreRevision carries `_rev` back out to the
// rest of the engine without the model package knowing about CouchDB.
type couchDocument struct {
	ID  string `json:"_id"`
	Rev string `json:"_rev,omitempty"`
	model.Document
}

// CouchDocStore is the CouchDB-backed DocStore (C5/C6). Grounded on
// auth/storage_couchdb.go's CouchDBUserStore: SaveGenericDocument's
// _id/_rev round trip for optimistic concurrency, and
// db.NewQueryBuilder()...Build() + db.FindTyped[T] for the lineage and
// amendment-uniqueness secondary-index queries.
type CouchDocStore struct {
	service *db.CouchDBService
}

// NewCouchDocStore wraps an already-connected CouchDBService.
func NewCouchDocStore(service *db.CouchDBService) *CouchDocStore {
	return &CouchDocStore{service: service}
}

var _ DocStore = (*CouchDocStore)(nil)

func (s *CouchDocStore) Get(_ context.Context, docID string) (*model.Document, error) {
	const op = "storage.CouchDocStore.Get"
	var doc couchDocument
	if err := s.service.GetGenericDocument(docID, &doc); err != nil {
		if couchErr, ok := err.(*db.CouchDBError); ok && couchErr.IsNotFound() {
			return nil, tmferrors.NotFound(op, "document %s not found", docID)
		}
		return nil, tmferrors.StorageFailure(op, err)
	}
	out := doc.Document
	out.StoreRevision = doc.Rev
	return &out, nil
}

func (s *CouchDocStore) Create(_ context.Context, doc *model.Document) error {
	const op = "storage.CouchDocStore.Create"
	if existing, _ := s.Get(context.Background(), doc.DocID); existing != nil {
		return tmferrors.Conflict(op, "document %s already exists", doc.DocID)
	}

	wire := couchDocument{ID: doc.DocID, Document: *doc}
	resp, err := s.service.SaveGenericDocument(wire)
	if err != nil {
		return tmferrors.StorageFailure(op, err)
	}
	doc.StoreRevision = resp.Rev
	return nil
}

func (s *CouchDocStore) Save(_ context.Context, doc *model.Document) error {
	const op = "storage.CouchDocStore.Save"
	wire := couchDocument{ID: doc.DocID, Rev: doc.StoreRevision, Document: *doc}

	resp, err := s.service.SaveGenericDocument(wire)
	if err != nil {
		if couchErr, ok := err.(*db.CouchDBError); ok && couchErr.IsConflict() {
			return tmferrors.Conflict(op, "document %s was modified concurrently", doc.DocID)
		}
		return tmferrors.StorageFailure(op, err)
	}
	doc.StoreRevision = resp.Rev
	return nil
}

func (s *CouchDocStore) ByLineage(_ context.Context, lineageID string) ([]model.Document, error) {
	return s.findBy("lineage_id", lineageID)
}

func (s *CouchDocStore) ByAmendedFrom(_ context.Context, predecessorID string) ([]model.Document, error) {
	return s.findBy("amended_from", predecessorID)
}

func (s *CouchDocStore) findBy(field, value string) ([]model.Document, error) {
	const op = "storage.CouchDocStore.findBy"
	query := db.NewQueryBuilder().
		Where(field, "$eq", value).
		Build()

	rows, err := db.FindTyped[couchDocument](s.service, query)
	if err != nil {
		return nil, tmferrors.StorageFailure(op, err)
	}

	out := make([]model.Document, 0, len(rows))
	for _, row := range rows {
		doc := row.Document
		doc.StoreRevision = row.Rev
		out = append(out, doc)
	}
	return out, nil
}

func (s *CouchDocStore) Delete(_ context.Context, docID string) error {
	const op = "storage.CouchDocStore.Delete"
	existing, err := s.Get(context.Background(), docID)
	if err != nil {
		return err
	}
	if err := db.DeleteGenericDocument(s.service, docID, existing.StoreRevision); err != nil {
		return tmferrors.StorageFailure(op, err)
	}
	return nil
}

func (s *CouchDocStore) List(_ context.Context, filter ListFilter) ([]model.Document, error) {
	const op = "storage.CouchDocStore.List"
	qb := db.NewQueryBuilder()
	if filter.Limit > 0 {
		qb = qb.Limit(filter.Limit)
	}
	query := qb.Skip(filter.Offset).Build()
	if p := filter.PendingForPrincipal; p != "" {
		pending := map[string]interface{}{"$elemMatch": map[string]interface{}{"principal_id": p, "decision": "Pending"}}
		query.Selector = map[string]interface{}{"$or": []interface{}{
			map[string]interface{}{"qc_ballots": pending},
			map[string]interface{}{"review_ballots": pending},
			map[string]interface{}{"approver_ballot.principal_id": p, "approver_ballot.decision": "Pending"},
			map[string]interface{}{"status": "Draft", "author": p},
		}}
	}

	rows, err := db.FindTyped[couchDocument](s.service, query)
	if err != nil {
		return nil, tmferrors.StorageFailure(op, err)
	}

	out := make([]model.Document, 0, len(rows))
	for _, row := range rows {
		if filter.Search != "" && !strings.Contains(strings.ToLower(row.Document.DocNumber), strings.ToLower(filter.Search)) {
			continue
		}
		doc := row.Document
		doc.StoreRevision = row.Rev
		out = append(out, doc)
	}
	return out, nil
}

func (s *CouchDocStore) PendingSupersession(_ context.Context) ([]model.Document, error) {
	const op = "storage.CouchDocStore.PendingSupersession"
	query := db.NewQueryBuilder().
		Where("pending_supersession", "ne", "").
		Build()

	rows, err := db.FindTyped[couchDocument](s.service, query)
	if err != nil {
		return nil, tmferrors.StorageFailure(op, err)
	}

	out := make([]model.Document, 0, len(rows))
	for _, row := range rows {
		doc := row.Document
		doc.StoreRevision = row.Rev
		out = append(out, doc)
	}
	return out, nil
}
