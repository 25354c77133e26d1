package security

import (
	"crypto/sha256"
	"encoding/hex"
)

// SHA256Hex возвращает hex-строку SHA-256
func SHA256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
