package store

import (
	"crypto/sha256"
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/jward/phpreflect/internal/id"
)

// ContentHash fingerprints file contents. A stored declaration is only
// served while its file still hashes to the stored value.
func ContentHash(code []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(code))
}

// SymbolKey maps a symbol to the indexed lookup key. Collisions are
// resolved by also comparing the encoded symbol.
func SymbolKey(sym id.ID) int64 {
	return int64(xxhash.Sum64String(sym.Encode()))
}
