package auth

import (
	"context"

	"tmf.evalgo.org/db"
	"tmf.evalgo.org/model"
	"tmf.evalgo.org/tmferrors"
)

// principalRecord is the CouchDB-on-the-wire shape of a Principal. The
// private key handle resolves separately, through keyMaterialRecord,
// since the engine never wants an ordinary principal lookup to bring
// key bytes along for the ride.
type principalRecord struct {
	ID               string     `json:"_id"`
	Rev              string     `json:"_rev,omitempty"`
	Username         string     `json:"username"`
	Role             model.Role `json:"role"`
	PublicKeyPEM     string     `json:"public_key_pem"`
	PrivateKeyHandle string     `json:"private_key_handle,omitempty"`
}

// keyMaterialRecord holds the PEM-encoded private key behind a handle,
// stored separately from principalRecord so that an ordinary directory
// read never has key material attached.
type keyMaterialRecord struct {
	ID         string `json:"_id"`
	Rev        string `json:"_rev,omitempty"`
	PrivateKey string `json:"private_key_pem"`
}

// CouchIdentityDirectory implements IdentityDirectory against CouchDB.
// Grounded on auth/storage_couchdb.go's CouchDBUserStore: the same
// GetGenericDocument/_id round trip, minus the password, refresh-token,
// and audit-log plumbing this engine has no use for.
type CouchIdentityDirectory struct {
	service *db.CouchDBService
}

// NewCouchIdentityDirectory wraps an already-connected CouchDBService.
func NewCouchIdentityDirectory(service *db.CouchDBService) *CouchIdentityDirectory {
	return &CouchIdentityDirectory{service: service}
}

var _ IdentityDirectory = (*CouchIdentityDirectory)(nil)

func (d *CouchIdentityDirectory) Get(_ context.Context, principalID string) (model.Principal, error) {
	const op = "auth.CouchIdentityDirectory.Get"
	var rec principalRecord
	if err := d.service.GetGenericDocument(principalID, &rec); err != nil {
		if couchErr, ok := err.(*db.CouchDBError); ok && couchErr.IsNotFound() {
			return model.Principal{}, tmferrors.NotFound(op, "principal %s not found", principalID)
		}
		return model.Principal{}, tmferrors.StorageFailure(op, err)
	}
	return model.Principal{
		ID:               rec.ID,
		Username:         rec.Username,
		Role:             rec.Role,
		PublicKeyPEM:     rec.PublicKeyPEM,
		PrivateKeyHandle: rec.PrivateKeyHandle,
	}, nil
}

func (d *CouchIdentityDirectory) ResolvePrivateKey(_ context.Context, handle string) (string, error) {
	const op = "auth.CouchIdentityDirectory.ResolvePrivateKey"
	var rec keyMaterialRecord
	if err := d.service.GetGenericDocument(handle, &rec); err != nil {
		if couchErr, ok := err.(*db.CouchDBError); ok && couchErr.IsNotFound() {
			return "", tmferrors.NotFound(op, "no key material for handle %s", handle)
		}
		return "", tmferrors.StorageFailure(op, err)
	}
	return rec.PrivateKey, nil
}
