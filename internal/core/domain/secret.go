package domain

import (
	"crypto/rand"
	"encoding/hex"

	"golang.org/x/crypto/bcrypt"
)

// =============================================================================
// Secret Generation
// =============================================================================

// Byte lengths before hex encoding.
const (
	passwordBytes  = 16
	secretKeyBytes = 32
)

// GeneratePassword produces a fresh database password. Every invocation
// reads new bytes from crypto/rand, so two materializations can never
// share a password by construction.
func GeneratePassword() (string, error) {
	return randomHex(passwordBytes)
}

// GenerateSecretKey produces the per-deployment session secret handed to
// the web frontend.
func GenerateSecretKey() (string, error) {
	return randomHex(secretKeyBytes)
}

// HashAdminPassword bcrypt-hashes the bootstrap admin password so only
// the hash lands in the materialized config file.
func HashAdminPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyAdminPassword reports whether password matches a hash produced by
// HashAdminPassword.
func VerifyAdminPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
