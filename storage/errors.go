package storage

import goerrors "github.com/goliatone/go-errors"

const (
	TextCodeEmptyKey         = "STORAGE_EMPTY_KEY"
	TextCodeIdentityRequired = "STORAGE_IDENTITY_REQUIRED"
	TextCodeSealFailed       = "STORAGE_SEAL_FAILED"
	TextCodeUnsealFailed     = "STORAGE_UNSEAL_FAILED"
)

// ErrEmptyKey is returned for operations on the empty key.
var ErrEmptyKey = goerrors.New("storage key must not be empty", goerrors.CategoryBadInput).
	WithTextCode(TextCodeEmptyKey).
	WithCode(goerrors.CodeBadRequest)

// ErrIdentityRequired is returned when a sealed store is built without an
// age identity.
var ErrIdentityRequired = goerrors.New("age identity is required", goerrors.CategoryBadInput).
	WithTextCode(TextCodeIdentityRequired).
	WithCode(goerrors.CodeBadRequest)

var ErrSealFailed = goerrors.New("could not seal value", goerrors.CategoryInternal).
	WithTextCode(TextCodeSealFailed).
	WithCode(goerrors.CodeInternal)

// ErrUnsealFailed is returned when a stored value cannot be decrypted, for
// example after the identity was rotated.
var ErrUnsealFailed = goerrors.New("could not unseal value", goerrors.CategoryInternal).
	WithTextCode(TextCodeUnsealFailed).
	WithCode(goerrors.CodeInternal)
