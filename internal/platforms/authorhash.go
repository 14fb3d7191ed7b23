package platforms

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashAuthor turns a platform-native commenter identifier into the one-way
// hash stored in comments_detail. Raw identifiers must never be persisted;
// the hash is stable across runs so re-ingestion stays idempotent.
func HashAuthor(p Platform, nativeID string) string {
	if nativeID == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(string(p) + ":" + nativeID))
	return hex.EncodeToString(sum[:16])
}
