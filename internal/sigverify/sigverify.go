// Package sigverify implements Ed25519 verification of the minisign
// legacy signature format against a primary/secondary pinned key pair,
// with revocation-list checking (spec.md §4.5).
package sigverify

import (
	"crypto/ed25519"

	"github.com/llm-cost/llm-cost/internal/errs"
)

// Signature layout offsets within the minisign legacy binary blob: a
// 2-byte algorithm identifier, an 8-byte key id, then a 64-byte Ed25519
// signature.
const (
	algIDLen     = 2
	keyIDLen     = 8
	sigLen       = ed25519.SignatureSize
	minSigLen    = algIDLen + keyIDLen + sigLen
	maxSigLine   = 1024 // spec.md §4.5: reject signature lines > 1 KiB
)

// SignedBy identifies which pinned key verified a signature.
type SignedBy int

const (
	SignedByNone SignedBy = iota
	Primary
	Secondary
)

// VerificationResult describes the outcome of a successful verification.
type VerificationResult struct {
	Valid    bool
	SignedBy SignedBy
	KeyID    [keyIDLen]byte
}

// RevocationChecker reports whether a key id has been revoked.
type RevocationChecker interface {
	IsRevokedKeyID(keyID [keyIDLen]byte) bool
}

// KeySet holds the two build-time-pinned Ed25519 public keys: primary
// and a cold-spare secondary.
type KeySet struct {
	Primary   ed25519.PublicKey
	Secondary ed25519.PublicKey
}

// Verify checks data against sig using keys, honoring revocations in
// revoked, per the ordered checks in spec.md §4.5:
//  1. extract key id, reject if the signature is too short
//  2. reject revoked key ids before any cryptographic check
//  3. try the primary key
//  4. try the secondary key
//  5. otherwise fail with InvalidSignature
func Verify(data, sig []byte, keys KeySet, revoked RevocationChecker) (VerificationResult, error) {
	if len(sig) > maxSigLine {
		return VerificationResult{}, errs.Integrity("signature exceeds maximum line length")
	}
	if len(sig) < minSigLen {
		return VerificationResult{}, errs.Integrity("signature too short to contain a key id")
	}

	var keyID [keyIDLen]byte
	copy(keyID[:], sig[algIDLen:algIDLen+keyIDLen])

	if revoked != nil && revoked.IsRevokedKeyID(keyID) {
		return VerificationResult{}, errs.Integrity("signing key has been revoked").WithField("key_id", keyID)
	}

	sigBytes := sig[algIDLen+keyIDLen : algIDLen+keyIDLen+sigLen]

	if len(keys.Primary) == ed25519.PublicKeySize && ed25519.Verify(keys.Primary, data, sigBytes) {
		return VerificationResult{Valid: true, SignedBy: Primary, KeyID: keyID}, nil
	}
	if len(keys.Secondary) == ed25519.PublicKeySize && ed25519.Verify(keys.Secondary, data, sigBytes) {
		return VerificationResult{Valid: true, SignedBy: Secondary, KeyID: keyID}, nil
	}

	return VerificationResult{}, errs.Integrity("signature does not verify against any pinned key")
}

// mapRevocationChecker adapts a plain key-id set to RevocationChecker.
type mapRevocationChecker map[[keyIDLen]byte]struct{}

func (m mapRevocationChecker) IsRevokedKeyID(id [keyIDLen]byte) bool {
	_, ok := m[id]
	return ok
}

// NewRevocationSet builds a RevocationChecker from a list of hex-decoded
// 8-byte key ids.
func NewRevocationSet(ids [][keyIDLen]byte) RevocationChecker {
	m := make(mapRevocationChecker, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}
