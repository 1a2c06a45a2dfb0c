package service

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/FACorreiaa/pocket-ledger/internal/domain/auth/common"
)

const minPasswordLength = 8

// ValidatePassword enforces the minimum password policy.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return common.ErrWeakPassword
	}
	return nil
}

// HashPassword hashes password with bcrypt's default cost.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// ComparePassword reports whether password matches the stored hash.
func ComparePassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
