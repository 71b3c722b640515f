package filesystem

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/dkedar7/cowork-dash/backend/internal/vfs"
)

// EmptyFileReminder is returned by Read for a file with no content.
const EmptyFileReminder = "System reminder: File exists but has empty contents"

// Backend exposes one session workspace through the file tool surface the
// agent runtime consumes. Failures are reported inside results and
// strings; nothing here returns a Go error for a missing or mistyped path.
type Backend struct {
	fs *vfs.Filesystem
}

// NewBackend wraps fs.
func NewBackend(fs *vfs.Filesystem) *Backend {
	return &Backend{fs: fs}
}

// Filesystem returns the wrapped workspace.
func (b *Backend) Filesystem() *vfs.Filesystem { return b.fs }

// NormalizePath maps p into the workspace.
func (b *Backend) NormalizePath(p string) string {
	return b.fs.Normalize(p)
}

// LsInfo lists the direct children of a directory. A missing path or a
// file yields an empty listing.
func (b *Backend) LsInfo(p string) []FileInfo {
	dir := b.NormalizePath(p)
	names, err := b.fs.Listdir(dir)
	if err != nil {
		return []FileInfo{}
	}

	out := make([]FileInfo, 0, len(names))
	for _, name := range names {
		info, err := b.fs.Stat(path.Join(dir, name))
		if err != nil {
			continue
		}
		out = append(out, toFileInfo(info))
	}
	return out
}

func toFileInfo(info vfs.Info) FileInfo {
	if info.IsDir {
		return FileInfo{Path: info.Path + "/", IsDir: true}
	}
	return FileInfo{Path: info.Path, Size: info.Size}
}

// Read renders a file with cat -n style line numbers. offset skips that
// many lines; limit <= 0 reads to the end.
func (b *Backend) Read(p string, offset, limit int) string {
	name := b.NormalizePath(p)
	content, err := b.fs.ReadText(name)
	if err != nil {
		return readError(name, err)
	}
	if strings.TrimSpace(content) == "" {
		return EmptyFileReminder
	}

	lines := splitLines(content)
	if offset < 0 {
		offset = 0
	}
	if offset >= len(lines) {
		return fmt.Sprintf("Error: Line offset %d exceeds file length (%d lines)", offset, len(lines))
	}

	end := len(lines)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}

	var sb strings.Builder
	for i := offset; i < end; i++ {
		if i > offset {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "%6d\t%s", i+1, lines[i])
	}
	return sb.String()
}

func readError(name string, err error) string {
	if errors.Is(err, vfs.ErrIsADirectory) {
		return fmt.Sprintf("Error: '%s' is a directory", name)
	}
	if errors.Is(err, vfs.ErrNotFound) {
		return fmt.Sprintf("Error: File '%s' not found", name)
	}
	return fmt.Sprintf("Error reading file '%s': %v", name, err)
}

// splitLines splits on "\n" and drops a single trailing empty line, so
// "a\nb\n" has two lines.
func splitLines(content string) []string {
	lines := strings.Split(content, "\n")
	if n := len(lines); n > 1 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// Write creates a new file. Existing paths are never overwritten; missing
// parent directories are created.
func (b *Backend) Write(p, content string) WriteResult {
	name := b.NormalizePath(p)
	if b.fs.Exists(name) {
		return WriteResult{
			Path:  name,
			Error: fmt.Sprintf("Cannot write to %s because it already exists. Read and then make an edit, or write to a new path.", name),
		}
	}
	if err := b.writeFile(name, []byte(content)); err != nil {
		return WriteResult{Path: name, Error: fmt.Sprintf("Error writing file '%s': %v", name, err)}
	}
	return WriteResult{Path: name}
}

func (b *Backend) writeFile(name string, content []byte) error {
	if err := b.fs.MkdirAll(path.Dir(name)); err != nil {
		return err
	}
	return b.fs.WriteBytes(name, content)
}

// Edit replaces oldString with newString. Without replaceAll the string
// must occur exactly once.
func (b *Backend) Edit(p, oldString, newString string, replaceAll bool) EditResult {
	name := b.NormalizePath(p)
	fail := func(format string, args ...interface{}) EditResult {
		return EditResult{Path: name, Error: fmt.Sprintf(format, args...)}
	}

	content, err := b.fs.ReadText(name)
	if err != nil {
		return EditResult{Path: name, Error: readError(name, err)}
	}
	if oldString == "" {
		return fail("Error: old_string must not be empty")
	}

	n := strings.Count(content, oldString)
	switch {
	case n == 0:
		return fail("Error: String not found in file: '%s'", oldString)
	case n > 1 && !replaceAll:
		return fail("Error: String '%s' appears %d times in file. Use replace_all=True to replace all instances, or provide a more specific string with surrounding context.", oldString, n)
	}

	if replaceAll {
		content = strings.ReplaceAll(content, oldString, newString)
	} else {
		content = strings.Replace(content, oldString, newString, 1)
	}
	if err := b.fs.WriteText(name, content); err != nil {
		return fail("Error writing file '%s': %v", name, err)
	}
	return EditResult{Path: name, Occurrences: n}
}

// GrepRaw finds lines containing pattern literally. The search covers every
// file under p (the root when empty), or p itself when it names a file.
// A non-empty glob keeps only files whose name or path relative to the
// search base matches it. The string result is a non-empty error message
// when the arguments are invalid.
func (b *Backend) GrepRaw(pattern, p, glob string) ([]GrepMatch, string) {
	glob = strings.TrimPrefix(glob, "/")
	if glob != "" && !doublestar.ValidatePattern(glob) {
		return nil, fmt.Sprintf("Invalid glob pattern: %s", glob)
	}

	base := b.NormalizePath(p)
	var files []string
	switch {
	case b.fs.IsFile(base):
		files = []string{base}
		base = path.Dir(base)
	case b.fs.IsDir(base):
		entries, _ := b.fs.Entries(base)
		for _, info := range entries {
			if !info.IsDir {
				files = append(files, info.Path)
			}
		}
	}

	matches := []GrepMatch{}
	for _, file := range files {
		if glob != "" && !vfs.MatchPattern(glob, path.Base(file)) && !vfs.MatchPattern(glob, vfs.Relative(base, file)) {
			continue
		}
		content, err := b.fs.ReadText(file)
		if err != nil {
			continue
		}
		for i, line := range splitLines(content) {
			if strings.Contains(line, pattern) {
				matches = append(matches, GrepMatch{Path: file, Line: i + 1, Text: line})
			}
		}
	}
	return matches, ""
}

// GlobInfo returns files and directories under p matching pattern.
func (b *Backend) GlobInfo(pattern, p string) []FileInfo {
	infos, err := b.fs.GlobInfo(b.NormalizePath(p), pattern)
	if err != nil {
		return []FileInfo{}
	}
	out := make([]FileInfo, 0, len(infos))
	for _, info := range infos {
		out = append(out, toFileInfo(info))
	}
	return out
}

// UploadFiles writes every file, overwriting existing ones and creating
// parents. Each file succeeds or fails on its own.
func (b *Backend) UploadFiles(files []FileUpload) []FileUploadResponse {
	out := make([]FileUploadResponse, 0, len(files))
	for _, f := range files {
		resp := FileUploadResponse{Path: f.Path}
		if strings.TrimSpace(f.Path) == "" {
			resp.Error = ErrTagInvalidPath
			out = append(out, resp)
			continue
		}
		name := b.NormalizePath(f.Path)
		if b.fs.IsDir(name) {
			resp.Error = ErrTagIsDirectory
		} else if err := b.writeFile(name, f.Content); err != nil {
			resp.Error = transferTag(err)
		}
		out = append(out, resp)
	}
	return out
}

// DownloadFiles reads every file. Missing paths and directories are
// reported per file.
func (b *Backend) DownloadFiles(paths []string) []FileDownloadResponse {
	out := make([]FileDownloadResponse, 0, len(paths))
	for _, p := range paths {
		resp := FileDownloadResponse{Path: p}
		content, err := b.fs.ReadBytes(b.NormalizePath(p))
		if err != nil {
			resp.Error = transferTag(err)
		} else {
			resp.Content = content
		}
		out = append(out, resp)
	}
	return out
}

func transferTag(err error) string {
	switch {
	case errors.Is(err, vfs.ErrIsADirectory):
		return ErrTagIsDirectory
	case errors.Is(err, vfs.ErrNotADirectory):
		return ErrTagInvalidPath
	case errors.Is(err, vfs.ErrPermission):
		return ErrTagPermissionDenied
	case errors.Is(err, vfs.ErrNotFound):
		return ErrTagFileNotFound
	}
	return ErrTagInvalidPath
}
