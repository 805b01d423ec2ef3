// Package authutil holds password hashing and password policy checks shared
// by registration, sign-in and seeding.
package authutil

import (
	"errors"
	"strings"

	"github.com/dalemusser/projectdash/internal/app/system/inputval"
	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordLength bounds the input accepted for hashing.
const MaxPasswordLength = 128

var (
	ErrPasswordTooLong = errors.New("Password must be at most 128 characters")
	ErrPasswordCommon  = errors.New("This password is too common. Please choose another")
)

// commonPasswords is checked case-insensitively. Entries that would pass the
// character-class policy matter most.
var commonPasswords = map[string]struct{}{
	"123456":      {},
	"password":    {},
	"qwerty":      {},
	"abc123":      {},
	"iloveyou":    {},
	"letmein":     {},
	"football":    {},
	"welcome":     {},
	"password1!":  {},
	"p@ssw0rd":    {},
	"p@ssword1":   {},
	"qwerty123!":  {},
	"welcome1!":   {},
	"admin123!":   {},
	"changeme1!":  {},
	"passw0rd!":   {},
	"letmein123!": {},
}

// ValidatePassword applies the length limit, the common-password list and
// the character-class policy, in that order.
func ValidatePassword(pw string) error {
	if len(pw) > MaxPasswordLength {
		return ErrPasswordTooLong
	}
	if _, ok := commonPasswords[strings.ToLower(pw)]; ok {
		return ErrPasswordCommon
	}
	if msg := inputval.CheckPassword(pw); msg != "" {
		return errors.New(msg)
	}
	return nil
}

// PasswordRules describes the policy for form help text.
func PasswordRules() string {
	return "Use at least 8 characters, including an uppercase letter, a lowercase letter, a number and a special character (" + inputval.PasswordSpecials + ")."
}

// HashPassword hashes pw with the default bcrypt cost.
func HashPassword(pw string) (string, error) {
	return HashPasswordCost(pw, bcrypt.DefaultCost)
}

// HashPasswordCost hashes pw with the given bcrypt cost.
func HashPasswordCost(pw string, cost int) (string, error) {
	if len(pw) > MaxPasswordLength {
		return "", ErrPasswordTooLong
	}
	b, err := bcrypt.GenerateFromPassword([]byte(pw), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword reports whether pw matches the bcrypt hash.
func CheckPassword(pw, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}
