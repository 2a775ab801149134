package domain

import "errors"

var (
	ErrKeyNotFound          = errors.New("key-not-found")
	ErrDuplicateWord        = errors.New("duplicate-word")
	UnexpectedDatabaseError = errors.New("unexpected-database-error")
	UnexpectedStoreError    = errors.New("unexpected-store-error")
)

var (
	ErrInvalidSigningAlg             = errors.New("invalid-signing-alg")
	ErrExpiredToken                  = errors.New("expired-token")
	ErrInvalidTokenSignature         = errors.New("invalid-token-signature")
	ErrCorruptedToken                = errors.New("corrupted-token")
	UnexpectedTokenGenerationError   = errors.New("unexpected-token-generation-error")
	UnexpectedTokenVerificationError = errors.New("unexpected-token-verification-error")
)

var UnexpectedPasswordHashError = errors.New("unexpected-password-hash-error")
