// SignageFleet Kiosk Coordination Server
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword hashes an admin password at account-creation time. Password
// storage itself (where the hash lives) is an external collaborator per
// spec.md's Non-goals; this is only the hashing primitive used by the login
// handler in internal/api.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	return string(hash), err
}

// CheckPassword reports whether plain matches the stored bcrypt hash.
func CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
