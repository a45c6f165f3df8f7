package auth

import (
	"context"

	"tmf.evalgo.org/model"
	"tmf.evalgo.org/tmferrors"
)

// IdentityDirectory is the Identity Directory (C2): an external,
// read-only collaborator the engine consults to resolve a principal id
// into a model.Principal. It never creates, updates, or deletes
// accounts — account lifecycle, password policy, and login all belong
// to the system that owns this directory.
type IdentityDirectory interface {
	// Get resolves principalID to its current Principal, or
	// tmferrors.NotFound if no such principal exists.
	Get(ctx context.Context, principalID string) (model.Principal, error)

	// ResolvePrivateKey turns a Principal's opaque PrivateKeyHandle
	// into a loaded PEM-encoded private key, for the holder's own
	// signing moment (spec §4.5). Returns tmferrors.NotFound if the
	// handle has no corresponding key material.
	ResolvePrivateKey(ctx context.Context, handle string) (string, error)
}

// MemoryIdentityDirectory is a fixed, in-process IdentityDirectory for
// unit tests and local development: a seeded map rather than a live
// connection to an external system.
type MemoryIdentityDirectory struct {
	principals  map[string]model.Principal
	privateKeys map[string]string
}

// NewMemoryIdentityDirectory builds a directory seeded with principals.
func NewMemoryIdentityDirectory(principals []model.Principal) *MemoryIdentityDirectory {
	d := &MemoryIdentityDirectory{
		principals:  make(map[string]model.Principal, len(principals)),
		privateKeys: make(map[string]string),
	}
	for _, p := range principals {
		d.principals[p.ID] = p
	}
	return d
}

var _ IdentityDirectory = (*MemoryIdentityDirectory)(nil)

// SeedPrivateKey registers the PEM key material behind handle, for
// tests that need ResolvePrivateKey to succeed.
func (d *MemoryIdentityDirectory) SeedPrivateKey(handle, pem string) {
	d.privateKeys[handle] = pem
}

// RotatePublicKey replaces principalID's current public key, simulating
// the key rotation a signer may perform after a Document has already
// been signed (spec §8 testable property: signature verification must
// not be affected by a later rotation, since it checks the snapshot
// carried on the Signature record, not the Identity Directory's
// current value).
func (d *MemoryIdentityDirectory) RotatePublicKey(principalID, publicKeyPEM string) {
	p, ok := d.principals[principalID]
	if !ok {
		return
	}
	p.PublicKeyPEM = publicKeyPEM
	d.principals[principalID] = p
}

func (d *MemoryIdentityDirectory) Get(_ context.Context, principalID string) (model.Principal, error) {
	p, ok := d.principals[principalID]
	if !ok {
		return model.Principal{}, tmferrors.NotFound("auth.MemoryIdentityDirectory.Get", "principal %s not found", principalID)
	}
	return p, nil
}

func (d *MemoryIdentityDirectory) ResolvePrivateKey(_ context.Context, handle string) (string, error) {
	pem, ok := d.privateKeys[handle]
	if !ok {
		return "", tmferrors.NotFound("auth.MemoryIdentityDirectory.ResolvePrivateKey", "no key material for handle %s", handle)
	}
	return pem, nil
}
