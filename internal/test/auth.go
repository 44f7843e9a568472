package test

import (
	pkgAuth "github.com/polkiloo/archstore/internal/pkg/auth"
)

// TokenVerifierStub accepts a single fixed token.
type TokenVerifierStub struct {
	Token string
	Err   error
}

// Enabled reports that the stub checks tokens.
func (TokenVerifierStub) Enabled() bool { return true }

// Verify compares token with the configured value.
func (s TokenVerifierStub) Verify(token string) error {
	if s.Err != nil {
		return s.Err
	}
	if token == "" || token != s.Token {
		return pkgAuth.ErrInvalidToken
	}
	return nil
}
