// Package fserr defines the error taxonomy shared by every layer of the
// filesystem core. Sentinel errors are wrapped with fmt.Errorf("%w: ...")
// so callers can test them with errors.Is; only internal/bridge translates
// them into FUSE status codes.
package fserr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means a path component could not be resolved.
	ErrNotFound = errors.New("no such entry")

	// ErrNameTooLong means a filename exceeded the 240-byte dirent budget.
	ErrNameTooLong = errors.New("name too long")

	// ErrFileTooLarge means a logical block index fell outside the
	// direct/single-indirect/double-indirect addressing range.
	ErrFileTooLarge = errors.New("file too large")

	// ErrInvalidState means an on-disk record had an unexpected size or
	// shape at load time.
	ErrInvalidState = errors.New("invalid on-disk state")

	// ErrStorage means the key-value store returned a non-OK result.
	// Callers treat it as fatal.
	ErrStorage = errors.New("storage failure")

	// ErrIsDirectory / ErrNotDirectory guard type-specific operations.
	ErrIsDirectory  = errors.New("is a directory")
	ErrNotDirectory = errors.New("not a directory")
)

// Storage wraps an underlying store error so errors.Is(err, ErrStorage)
// succeeds while the original diagnostic is preserved for logging.
func Storage(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrStorage, err)
}

// InvalidState wraps a descriptive message into ErrInvalidState.
func InvalidState(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, msg)
}
