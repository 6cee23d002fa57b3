package util

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"unicode"

	"golang.org/x/crypto/argon2"
)

const (
	minPasswordLength = 10
	saltLength        = 16
)

var (
	ErrPasswordTooShort  = errors.New("password must be at least 10 characters long")
	ErrPasswordTooSimple = errors.New("password must mix letters, digits and symbols")
	errEmptyPassword     = errors.New("password cannot be empty")
	errEmptySalt         = errors.New("salt cannot be empty")
)

// argon2id parameters for stored password hashes.
var argonParams = struct {
	time    uint32
	memory  uint32
	threads uint8
	keyLen  uint32
}{time: 1, memory: 64 * 1024, threads: 4, keyLen: 32}

func ValidatePassword(password string) error {
	if len([]rune(password)) < minPasswordLength {
		return ErrPasswordTooShort
	}
	var letter, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r), unicode.IsSymbol(r):
			symbol = true
		}
	}
	if !letter || !digit || !symbol {
		return ErrPasswordTooSimple
	}
	return nil
}

func HashPassword(password string, salt []byte) ([]byte, error) {
	if password == "" {
		return nil, errEmptyPassword
	}
	if len(salt) == 0 {
		return nil, errEmptySalt
	}
	return argon2.IDKey([]byte(password), salt, argonParams.time, argonParams.memory, argonParams.threads, argonParams.keyLen), nil
}

// DerivePassword hashes password with a fresh random salt.
func DerivePassword(password string) (hash, salt []byte, err error) {
	salt = make([]byte, saltLength)
	if _, err = rand.Read(salt); err != nil {
		return nil, nil, err
	}
	hash, err = HashPassword(password, salt)
	if err != nil {
		return nil, nil, err
	}
	return hash, salt, nil
}

func VerifyPassword(password string, salt, expectedHash []byte) bool {
	if len(expectedHash) == 0 {
		return false
	}
	candidate, err := HashPassword(password, salt)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(candidate, expectedHash) == 1
}
