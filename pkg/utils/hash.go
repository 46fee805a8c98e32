// Package utils holds small shared helpers.
package utils

import "golang.org/x/crypto/bcrypt"

// hashCost is the bcrypt work factor for new password hashes. Existing
// hashes keep the cost they were created with.
const hashCost = bcrypt.DefaultCost

// HashPassword returns the bcrypt hash of a plain password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether plain matches the stored bcrypt hash.
func CheckPassword(plain, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}
