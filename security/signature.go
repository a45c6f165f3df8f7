// Package security provides cryptographic and authentication
// utilities. This file implements the Crypto Primitive (C4): RSA-2048
// PKCS#1 v1.5 / SHA-256 detached signing and verification over raw
// revision bytes, plus PEM encode/decode helpers for the public-key
// snapshot carried on a Document's Signature record.
//
// No third-party library in the example pack signs with RSA
// PKCS#1v1.5 — security/certs.go only generates ECDSA CSRs and checks
// TLS certificate expiry, and jwt.go signs HS256 JWS envelopes via
// lestrrat-go/jwx, a different wire format entirely. Since spec §4.5
// pins an exact scheme ("base64(PKCS#1 v1.5 RSA-2048 signature of
// SHA-256(blob))"), this is implemented directly against the standard
// library rather than inventing a dependency to wrap it.
package security

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
)

// KeySize is the RSA modulus size the engine requires for signing
// keys (spec §4.5: "RSA-2048").
const KeySize = 2048

// SignDetached computes the PKCS#1 v1.5 / SHA-256 detached signature
// of payload under privateKey and returns it base64-standard-encoded,
// ready to store on a Document's Signature record.
func SignDetached(privateKey *rsa.PrivateKey, payload []byte) (string, error) {
	digest := sha256.Sum256(payload)
	sig, err := rsa.SignPKCS1v15(rand.Reader, privateKey, crypto.SHA256, digest[:])
	if err != nil {
		return "", fmt.Errorf("security: sign detached: %w", err)
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}

// VerifyDetached reports whether sigB64 is a valid PKCS#1 v1.5 /
// SHA-256 detached signature of payload under publicKey.
func VerifyDetached(publicKey *rsa.PublicKey, payload []byte, sigB64 string) (bool, error) {
	sig, err := base64.StdEncoding.DecodeString(sigB64)
	if err != nil {
		return false, fmt.Errorf("security: decode signature: %w", err)
	}
	digest := sha256.Sum256(payload)
	err = rsa.VerifyPKCS1v15(publicKey, crypto.SHA256, digest[:], sig)
	if err != nil {
		return false, nil
	}
	return true, nil
}

// EncodePublicKeyPEM encodes pub as a PKIX-DER PEM block, the format
// snapshotted onto a Document's Signature record so later key
// rotation at the Identity Directory never invalidates a past
// verification (spec §4.5).
func EncodePublicKeyPEM(pub *rsa.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("security: marshal public key: %w", err)
	}
	block := &pem.Block{Type: "PUBLIC KEY", Bytes: der}
	return string(pem.EncodeToMemory(block)), nil
}

// DecodePublicKeyPEM parses a PEM-encoded PKIX public key, as stored
// in Principal.PublicKeyPEM or a Signature's snapshot field.
func DecodePublicKeyPEM(pemStr string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(pemStr))
	if block == nil {
		return nil, fmt.Errorf("security: no PEM block found")
	}
	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("security: parse public key: %w", err)
	}
	rsaKey, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("security: key is not RSA")
	}
	return rsaKey, nil
}

// DecodePrivateKeyPEM parses a PEM-encoded PKCS#1 or PKCS#8 RSA
// private key. The engine uses this to turn the PEM returned by the
// Identity Directory's private-key-handle resolution into a usable
// signing key.
func DecodePrivateKeyPEM(pemStr string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(pemStr))
	if block == nil {
		return nil, fmt.Errorf("security: no PEM block found")
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("security: parse private key: %w", err)
	}
	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("security: key is not RSA")
	}
	return rsaKey, nil
}

// GenerateKeyPair generates a fresh RSA-2048 key pair, used by tests
// and by local development seeding of the Identity Directory stub.
func GenerateKeyPair() (*rsa.PrivateKey, error) {
	return rsa.GenerateKey(rand.Reader, KeySize)
}
