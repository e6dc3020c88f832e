package provider

import "golang.org/x/crypto/bcrypt"

// HashPassword hashes a password with bcrypt at the default cost, for callers
// building a VerifyFunc over their own user table.
func HashPassword(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
}

// VerifyPassword reports whether password matches the stored bcrypt hash.
func VerifyPassword(hash []byte, password string) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}
