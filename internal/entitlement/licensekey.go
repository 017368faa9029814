package entitlement

import "golang.org/x/crypto/bcrypt"

// HashLicenseKey hashes a raw license key for at-rest storage.
func HashLicenseKey(key string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(key), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CompareLicenseKey checks a raw key against its stored hash.
func CompareLicenseKey(hashedKey, rawKey string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedKey), []byte(rawKey))
}

// KeyLast4 returns the trailing characters kept for display purposes.
func KeyLast4(key string) string {
	if len(key) <= 4 {
		return key
	}
	return key[len(key)-4:]
}
