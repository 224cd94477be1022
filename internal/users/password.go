package users

import "golang.org/x/crypto/bcrypt"

// HashPassword hashes a plaintext password. Identities that never set a
// real password (a lobby participant who only ever authenticates via a
// short-lived bearer token) get one derived from their username, the
// same placeholder role original_source's `hash_password(username)`
// call served at lobby-registration time.
func HashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether plaintext matches hash.
func CheckPassword(hash, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
