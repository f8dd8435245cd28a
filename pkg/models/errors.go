package models

import "errors"

// Errors returned by the embed, extract and detect operations.
// Callers match them with errors.Is; operations wrap them with context.
var (
	ErrMissingInput         = errors.New("missing image, password or message")
	ErrMessageTooLong       = errors.New("message too long")
	ErrCapacityExceeded     = errors.New("image too small for this message")
	ErrInvalidEnvelope      = errors.New("invalid message envelope")
	ErrDecryptionFailed     = errors.New("decryption failed")
	ErrNoMessageFound       = errors.New("no hidden message found")
	ErrUnsupportedCharacter = errors.New("character outside the single-byte range")
)
