package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// ErrPasswordTooLong is returned for passwords over MaxPasswordBytes.
var ErrPasswordTooLong = fmt.Errorf("password must not exceed %d bytes", MaxPasswordBytes)

// HashPasswordCost returns a bcrypt hash using the given cost. Costs outside
// bcrypt's range fall back to the default.
func HashPasswordCost(password string, cost int) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrPasswordTooLong
		}
		return "", err
	}
	return string(hashed), nil
}

// CheckPassword compares a plaintext password against a bcrypt hash in
// constant time. It returns nil on match.
func CheckPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// NewDummyHash returns a hash of a throwaway password at cost, for use with
// BurnPasswordCheck. Use the same cost as real password hashes.
func NewDummyHash(cost int) (string, error) {
	return HashPasswordCost("messagely-dummy-password", cost)
}

// BurnPasswordCheck performs a comparison against dummyHash and discards the
// result, so a login for an unknown user takes as long as one with a wrong
// password.
func BurnPasswordCheck(dummyHash, password string) {
	_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
}
