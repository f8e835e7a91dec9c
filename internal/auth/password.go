package auth

import "golang.org/x/crypto/bcrypt"

// HashSecret hashes credential material with the configured cost.
// Directory operations never read secrets back; hashing is used when
// records are created (demo seeding here, the credential flow elsewhere).
func HashSecret(secret string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CompareSecret verifies credential material against its hash.
func CompareSecret(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}
