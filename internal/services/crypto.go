package services

import (
	"crypto/sha256"

	"golang.org/x/crypto/pbkdf2"
)

// encryptionSalt for PBKDF2 - changing it invalidates every encrypted setting
var encryptionSalt = []byte("bubblegut-settings-v1")

// DeriveEncryptionKey derives the 32-byte AES key used for encrypted settings
func DeriveEncryptionKey(secret string) []byte {
	return pbkdf2.Key([]byte(secret), encryptionSalt, 100000, 32, sha256.New)
}
