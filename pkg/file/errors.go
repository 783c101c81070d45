package file

import "errors"

var (
	ErrInvalidConfig     = errors.New("file: invalid storage configuration")
	ErrTypeNotAllowed    = errors.New("file: content type not allowed")
	ErrFileTooLarge      = errors.New("file: upload exceeds the size limit")
	ErrFailedToSave      = errors.New("file: failed to save")
	ErrFailedToDelete    = errors.New("file: failed to delete")
	ErrUnknownDriver     = errors.New("file: unknown storage driver")
	ErrPathOutsideOfBase = errors.New("file: path escapes the storage directory")
)
