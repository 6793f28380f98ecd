// Package password wraps the one-way password hashing primitive used for
// account credentials. Hashes are bcrypt; verification is constant-time by
// construction of the underlying comparison.
package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrMismatch is returned when a candidate password does not match the hash.
var ErrMismatch = errors.New("password does not match")

// dummyHash is compared against when the target account does not exist, so a
// login attempt costs the same whether or not the email is registered.
var dummyHash, _ = Hash("correct-horse-battery-staple")

// Hash generates a bcrypt hash for the given cleartext password.
func Hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// Verify validates the given cleartext password against the stored hash.
// It returns ErrMismatch when the password is wrong.
func Verify(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatch
		}
		return err
	}
	return nil
}

// VerifyDummy burns one bcrypt comparison against a fixed hash and always
// fails. It keeps the response time of a login against an unknown email in
// line with a real comparison, denying a timing oracle for email enumeration.
func VerifyDummy(password string) error {
	_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
	return ErrMismatch
}
