// Package auth implements the password hashing primitive shared by the
// services: salted adaptive hashing via bcrypt.
package auth

import "golang.org/x/crypto/bcrypt"

// HashCost is the bcrypt cost factor applied to newly hashed passwords.
const HashCost = 10

// HashPassword produces a salted one-way hash of password. The hash embeds
// its own salt and cost, so no extra bookkeeping is required to verify it.
func HashPassword(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), HashCost)
}

// CheckPassword reports whether password matches the stored hash. The
// comparison runs in constant time with respect to the password.
func CheckPassword(hash []byte, password string) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}
