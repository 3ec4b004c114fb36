// Package auth implements the credential hasher and the signed session
// credential used by the TaskVault server.
package auth

import (
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/taskvault/taskvault/internal/common"
)

// Argon2id cost parameters. Fixed so that stored digests stay verifiable;
// bump them together with a digest migration, not in place.
const (
	saltLength   = 16
	argonTime    = 1
	argonMemory  = 64 * 1024 // KiB
	argonThreads = 4
	keyLength    = 32
)

// HashPassword derives a salted argon2id digest from the given password.
// A fresh random salt is generated per call, so two digests of the same
// password never match. The result is encoded as "hex(salt):hex(key)".
func HashPassword(password string) string {
	salt := common.GenerateRandByteArray(saltLength)
	key := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, keyLength)
	return hex.EncodeToString(salt) + ":" + hex.EncodeToString(key)
}

// VerifyPassword recomputes the derived key from password and the salt stored
// in digest and compares it to the stored key in constant time.
//
// Any malformed digest (wrong shape, bad hex, wrong lengths) yields false
// rather than an error, so a corrupted row can never skip the comparison.
func VerifyPassword(password, digest string) bool {
	saltHex, keyHex, ok := strings.Cut(digest, ":")
	if !ok {
		return false
	}
	salt, err := hex.DecodeString(saltHex)
	if err != nil || len(salt) != saltLength {
		return false
	}
	key, err := hex.DecodeString(keyHex)
	if err != nil || len(key) != keyLength {
		return false
	}
	candidate := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, keyLength)
	return subtle.ConstantTimeCompare(key, candidate) == 1
}
