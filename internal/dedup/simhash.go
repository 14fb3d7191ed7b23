package dedup

import (
	"hash/fnv"
	"math/bits"
	"strings"
	"unicode"
)

// NormalizeText prepares content text for fingerprinting: lowercased,
// punctuation stripped, whitespace collapsed to single spaces.
func NormalizeText(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	lastSpace := true
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r), unicode.IsPunct(r), unicode.IsSymbol(r):
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// Simhash computes a 64-bit locality-sensitive fingerprint over the words
// of the normalized text. Texts whose fingerprints differ in few bits are
// near-duplicates. Per-word features keep a short reworded repost close to
// its source, where longer shingles would scatter every edit across three
// features and push otherwise-identical posts apart.
func Simhash(normalized string) uint64 {
	words := strings.Fields(normalized)
	if len(words) == 0 {
		return 0
	}

	var counts [64]int
	for _, word := range words {
		h := fnv.New64a()
		h.Write([]byte(word))
		v := h.Sum64()
		for i := 0; i < 64; i++ {
			if v&(1<<uint(i)) != 0 {
				counts[i]++
			} else {
				counts[i]--
			}
		}
	}

	var fp uint64
	for i := 0; i < 64; i++ {
		if counts[i] > 0 {
			fp |= 1 << uint(i)
		}
	}
	return fp
}

// Similarity is the fraction of matching bits between two fingerprints, in
// [0,1]. An all-zero fingerprint (empty text) never matches anything.
func Similarity(a, b uint64) float64 {
	if a == 0 || b == 0 {
		return 0
	}
	return 1.0 - float64(bits.OnesCount64(a^b))/64.0
}
