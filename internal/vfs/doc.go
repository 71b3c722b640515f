// Package vfs provides the in-memory, path-addressed filesystem that backs
// every workspace session.
//
// A Filesystem owns a tree of directory and file entries rooted at a fixed
// path (for example "/workspace") plus an index from canonical path to
// entry, kept consistent with the tree on every mutation. All paths handed
// to a Filesystem are canonicalized with Normalize first, so relative paths
// and absolute paths outside the root both land inside it.
//
// Components:
//   - Normalize / Path: canonical path model (segments + root)
//   - Filesystem: mkdir, read, write, unlink, rmdir, listdir, glob, walk
//   - Handle: pathlib-style object wrapper delegating to a Filesystem
//
// Errors:
//   - Structural failures are returned as *fs.PathError wrapping one of
//     ErrNotFound, ErrAlreadyExists, ErrIsADirectory, ErrNotADirectory,
//     ErrDirectoryNotEmpty or ErrPermission, so errors.Is works against
//     both these sentinels and the io/fs ones.
//
// Concurrency:
//   - A single RWMutex guards the tree and index. Individual operations are
//     atomic; sequences of operations are not.
//
// Example Usage:
//
//	fsys := vfs.New("/workspace")
//	_ = fsys.Mkdir("/workspace/src", true, true)
//	_ = fsys.WriteText("src/main.py", "print('hi')")
//	matches, _ := fsys.Glob("/workspace", "**/*.py")
package vfs
