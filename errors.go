package courier

import goerrors "github.com/goliatone/go-errors"

const (
	TextCodeEventNotAccepted = "SESSION_EVENT_NOT_ACCEPTED"
	TextCodeInvalidEvent     = "SESSION_INVALID_EVENT"
	TextCodeRestoreFailed    = "SESSION_RESTORE_FAILED"
	TextCodePersistFailed    = "SESSION_PERSIST_FAILED"
	TextCodeStoreRequired    = "SESSION_STORE_REQUIRED"
)

// ErrEventNotAccepted is returned when the current state has no transition
// for the event, including while an asynchronous step is in flight.
var ErrEventNotAccepted = goerrors.New("session event not accepted in current state", goerrors.CategoryConflict).
	WithTextCode(TextCodeEventNotAccepted).
	WithCode(goerrors.CodeConflict)

// ErrInvalidEvent is returned when an event payload is incomplete or invalid.
var ErrInvalidEvent = goerrors.New("invalid session event", goerrors.CategoryValidation).
	WithTextCode(TextCodeInvalidEvent).
	WithCode(goerrors.CodeBadRequest)

// ErrRestoreFailed marks a persisted session that could not be read or decoded.
// It is kept on the snapshot, never returned from Send.
var ErrRestoreFailed = goerrors.New("session restore failed", goerrors.CategoryOperation).
	WithTextCode(TextCodeRestoreFailed).
	WithCode(goerrors.CodeInternal)

// ErrPersistFailed marks a failed write or delete of the persisted session.
// It is kept on the snapshot, never returned from Send.
var ErrPersistFailed = goerrors.New("session persistence failed", goerrors.CategoryOperation).
	WithTextCode(TextCodePersistFailed).
	WithCode(goerrors.CodeInternal)

// ErrStoreRequired is returned when a machine is built without a SecureStore.
var ErrStoreRequired = goerrors.New("secure store is required", goerrors.CategoryBadInput).
	WithTextCode(TextCodeStoreRequired).
	WithCode(goerrors.CodeBadRequest)
