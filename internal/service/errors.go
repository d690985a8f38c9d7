package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the target record vanished or was never visible to the owner.
	ErrNotFound = errors.New("not found")
	// ErrTransport means the habit store could not be reached or a listener failed.
	ErrTransport = errors.New("store unavailable")
	// ErrValidation means a required field was missing or malformed.
	ErrValidation = errors.New("validation failed")
	// ErrUpload means the asset host rejected or dropped an upload.
	ErrUpload = errors.New("upload failed")
)

func validationError(err error) error {
	return fmt.Errorf("%w: %w", ErrValidation, err)
}

func transportError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrTransport, err)
}
