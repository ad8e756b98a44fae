package service

import (
	"errors"
	"fmt"
)

var (
	ErrIDRequired = errors.New("id is required")
	ErrNotFound   = errors.New("document not found")
	ErrReaderNil  = errors.New("reader is nil")

	ErrFilenameRequired   = errors.New("filename is required")
	ErrInvalidContentType = errors.New("file must be an image")
	ErrFileTooLarge       = errors.New("file exceeds the upload limit")
	ErrEmptyFile          = errors.New("file is empty")
	ErrUserNotFound       = errors.New("user not found")
	ErrOrgNotFound        = errors.New("organization not found")

	ErrMissingFields      = errors.New("please fill all the fields")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrPasswordTooLong    = errors.New("password must be at most 72 bytes")
	ErrEmailTaken         = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
)

// CommitError reports the upload stage at which a commit was abandoned.
type CommitError struct {
	Stage State
	Err   error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("commit failed while %s: %v", e.Stage, e.Err)
}

func (e *CommitError) Unwrap() error { return e.Err }

// FailedStage returns the stage recorded on err, if any.
func FailedStage(err error) (State, bool) {
	var ce *CommitError
	if errors.As(err, &ce) {
		return ce.Stage, true
	}
	return "", false
}
