package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	// bcrypt cost factor (12 = ~250ms per hash on modern hardware)
	bcryptCost = 12

	minKeyLength = 16
)

// HashKey hashes an API key using bcrypt, for use as API_KEY_HASH
func HashKey(key string) (string, error) {
	if err := ValidateKeyStrength(key); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash key: %w", err)
	}
	return string(hash), nil
}

// CheckKey compares an API key with a bcrypt hash
func CheckKey(key, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)); err != nil {
		return fmt.Errorf("invalid key")
	}
	return nil
}

// ValidateKeyStrength rejects keys too short to resist guessing
func ValidateKeyStrength(key string) error {
	if len(key) < minKeyLength {
		return fmt.Errorf("API key must be at least %d characters long", minKeyLength)
	}
	return nil
}
