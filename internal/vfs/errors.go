package vfs

import (
	"errors"
	"io/fs"
)

var (
	// ErrNotFound reports a missing path. It is fs.ErrNotExist.
	ErrNotFound = fs.ErrNotExist
	// ErrAlreadyExists reports a path collision. It is fs.ErrExist.
	ErrAlreadyExists = fs.ErrExist
	// ErrPermission reports an operation on the protected root.
	ErrPermission = fs.ErrPermission
	// ErrDirectoryNotEmpty reports rmdir on a directory with children.
	ErrDirectoryNotEmpty = errors.New("directory not empty")

	// ErrIsADirectory reports a directory where a file was required.
	// It also matches ErrNotFound: there is no file at that path.
	ErrIsADirectory error = kindError{msg: "is a directory"}
	// ErrNotADirectory reports a file where a directory was required.
	// It also matches ErrNotFound: there is no directory at that path.
	ErrNotADirectory error = kindError{msg: "not a directory"}
)

type kindError struct {
	msg string
}

func (e kindError) Error() string { return e.msg }

func (e kindError) Is(target error) bool {
	return target == ErrNotFound
}

func pathErr(op, p string, err error) error {
	return &fs.PathError{Op: op, Path: p, Err: err}
}
