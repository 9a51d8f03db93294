package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// Domain prefixes for content-addressed identity.
// The version suffix leaves room for algorithm migration.
const (
	DomainManifest = "skelc/manifest/v1"
	DomainRegistry = "skelc/registry/v1"
)

// declNamespace scopes DeclIDs so they cannot collide with other UUIDv5
// users of the same names.
var declNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/roach88/skelc/decl"))

// NewDeclID derives the stable identity of a declaration from its
// translation unit and the id the front-end gave the node.
// The same inputs always yield the same ID, so two runs over one AST
// produce identical registries.
func NewDeclID(unit, nodeID string) DeclID {
	return DeclID(uuid.NewSHA1(declNamespace, []byte(unit+"\x00"+nodeID)).String())
}

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint is the content-addressed identity of a manifest.
func Fingerprint(m *Manifest) (string, error) {
	canonical, err := MarshalCanonical(m.Object())
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return hashWithDomain(DomainManifest, canonical), nil
}

// HashValue fingerprints an arbitrary canonical value under domain.
func HashValue(domain string, v Value) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", domain, err)
	}
	return hashWithDomain(domain, canonical), nil
}

// MustFingerprint is like Fingerprint but panics on error.
// Use only in tests or when the manifest is known to be well formed.
func MustFingerprint(m *Manifest) string {
	fp, err := Fingerprint(m)
	if err != nil {
		panic(err)
	}
	return fp
}
