package engine

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// deriveRound produces the i-th derived seed in the chain by keying
// HMAC-SHA256 with the session seed and hashing the round index. Anyone
// holding the seed can recompute the full chain, which is the fairness
// guarantee: the house cannot pick thresholds after the fact.
func deriveRound(seed Seed, round int) Seed {
	h := hmac.New(sha256.New, seed[:])
	fmt.Fprintf(h, "round:%d", round)
	var out Seed
	copy(out[:], h.Sum(nil))
	return out
}

// deriveTagged hashes a derived seed with a domain-separation tag.
func deriveTagged(seed Seed, tag string) Seed {
	h := hmac.New(sha256.New, seed[:])
	h.Write([]byte(tag))
	var out Seed
	copy(out[:], h.Sum(nil))
	return out
}

// seedUint interprets the leading 8 bytes of a seed as a big-endian integer.
func seedUint(seed Seed) uint64 {
	return binary.BigEndian.Uint64(seed[:8])
}

// Difficulty maps a raw oracle value onto the playable difficulty range
// [1, 10].
func Difficulty(random Seed) int {
	return 1 + int(seedUint(random)%10)
}
