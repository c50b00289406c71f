// Package fingerprint computes short content digests for anchored line ranges.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
)

// Length is the number of hex characters kept from the SHA-256 digest.
const Length = 12

// Of returns the fingerprint of text. Callers pass text with line endings already
// normalized to "\n".
func Of(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])[:Length]
}

// Matches reports whether stored is the fingerprint of text. An empty stored value
// never matches.
func Matches(stored, text string) bool {
	return stored != "" && stored == Of(text)
}
