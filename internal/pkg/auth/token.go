package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidToken indicates a missing or mismatching operator token.
var ErrInvalidToken = errors.New("invalid token")

// TokenVerifier checks operator bearer tokens.
type TokenVerifier interface {
	// Enabled reports whether tokens are checked at all.
	Enabled() bool
	Verify(token string) error
}

// BcryptVerifier compares tokens against a bcrypt hash.
type BcryptVerifier struct {
	hash []byte
}

// NewBcryptVerifier validates the stored hash up front.
func NewBcryptVerifier(hash string) (*BcryptVerifier, error) {
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, fmt.Errorf("admin token hash: %w", err)
	}
	return &BcryptVerifier{hash: []byte(hash)}, nil
}

func (v *BcryptVerifier) Enabled() bool { return true }

// Verify returns ErrInvalidToken unless token matches the hash.
func (v *BcryptVerifier) Verify(token string) error {
	if token == "" {
		return ErrInvalidToken
	}
	if err := bcrypt.CompareHashAndPassword(v.hash, []byte(token)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidToken
		}
		return err
	}
	return nil
}

// OpenVerifier accepts every request. Used when no hash is configured.
type OpenVerifier struct{}

func (OpenVerifier) Enabled() bool       { return false }
func (OpenVerifier) Verify(string) error { return nil }

// HashToken produces the value expected in ADMIN_TOKEN_HASH.
func HashToken(token string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	encoded, err := bcrypt.GenerateFromPassword([]byte(token), cost)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}
