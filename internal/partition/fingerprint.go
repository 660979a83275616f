package partition

import (
	"crypto/sha256"
	"fmt"
	"hash"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/blake3"

	"github.com/packsplit/packsplit/internal/graph"
)

// HashFunc names the fingerprint hash.
type HashFunc string

const (
	// HashXXH64 is the default: fast, non-cryptographic, 16 hex chars.
	HashXXH64 HashFunc = "xxhash64"

	// HashSHA256 produces 64 hex chars.
	HashSHA256 HashFunc = "sha256"

	// HashBLAKE3 produces 64 hex chars.
	HashBLAKE3 HashFunc = "blake3"
)

// ParseHashFunc parses a hash name. Empty selects HashXXH64.
func ParseHashFunc(s string) (HashFunc, error) {
	switch HashFunc(strings.ToLower(s)) {
	case "", HashXXH64, "xxhash":
		return HashXXH64, nil
	case HashSHA256:
		return HashSHA256, nil
	case HashBLAKE3:
		return HashBLAKE3, nil
	default:
		return "", fmt.Errorf("unknown hash function %q (valid: xxhash64, sha256, blake3)", s)
	}
}

// New returns a fresh hasher.
func (f HashFunc) New() hash.Hash {
	switch f {
	case HashSHA256:
		return sha256.New()
	case HashBLAKE3:
		return blake3.New()
	default:
		return xxhash.New()
	}
}

// Sum hashes data and returns the hex digest.
func (f HashFunc) Sum(data []byte) string {
	h := f.New()
	h.Write(data)
	return fmt.Sprintf("%x", h.Sum(nil))
}

// ModulesFingerprint hashes the modules with the given IDs. The IDs are
// sorted first, so the result is independent of input order. Each module
// contributes "id NUL contents NUL".
func ModulesFingerprint(f HashFunc, g *graph.Graph, ids []string) string {
	sorted := make([]string, len(ids))
	copy(sorted, ids)
	sort.Strings(sorted)

	h := f.New()
	for _, id := range sorted {
		h.Write([]byte(id))
		h.Write([]byte{0})
		if m, ok := g.Module(id); ok {
			h.Write(m.Contents)
		}
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
