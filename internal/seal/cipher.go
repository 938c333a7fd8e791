package seal

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/sealrush/sealrush-go/internal/engine"
)

// The conditional-encryption scheme is external: ciphertexts are produced
// by the client against the oracle's public parameters, and the oracle
// releases the decryption key once the condition holds. The engine's only
// cryptographic duty is applying a released key to a committed ciphertext.
// The codec below is the fixed wire format both sides agree on: an 8-byte
// big-endian multiplier masked with an HMAC-derived pad.

const ciphertextLen = 8

func pad(key engine.Seed) [ciphertextLen]byte {
	h := hmac.New(sha256.New, key[:])
	h.Write([]byte("sealed-multiplier"))
	var p [ciphertextLen]byte
	copy(p[:], h.Sum(nil))
	return p
}

// EncryptMultiplier produces the ciphertext for a multiplier under a key.
// Used by the stub oracle and the tests; production ciphertexts arrive
// from the client already encrypted.
func EncryptMultiplier(multiplierBP int64, key engine.Seed) []byte {
	var buf [ciphertextLen]byte
	binary.BigEndian.PutUint64(buf[:], uint64(multiplierBP))
	p := pad(key)
	for i := range buf {
		buf[i] ^= p[i]
	}
	return buf[:]
}

// DecryptMultiplier applies a released key to a ciphertext. A malformed
// ciphertext is an error; range validation is the registry's job.
func DecryptMultiplier(ciphertext []byte, key engine.Seed) (int64, error) {
	if len(ciphertext) != ciphertextLen {
		return 0, fmt.Errorf("ciphertext must be %d bytes, got %d", ciphertextLen, len(ciphertext))
	}
	p := pad(key)
	var buf [ciphertextLen]byte
	for i := range buf {
		buf[i] = ciphertext[i] ^ p[i]
	}
	return int64(binary.BigEndian.Uint64(buf[:])), nil
}
