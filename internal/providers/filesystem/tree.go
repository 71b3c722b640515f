package filesystem

import (
	"encoding/base64"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/bytedance/sonic"
	"github.com/gabriel-vasile/mimetype"
	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/dkedar7/cowork-dash/backend/internal/vfs"
)

// Tree item kinds.
const (
	TypeFile   = "file"
	TypeFolder = "folder"
)

// ErrBinaryFile is returned by ReadFileContent for content that cannot be
// shown as text.
var ErrBinaryFile = errors.New("binary file cannot be displayed")

var textExtensions = map[string]bool{
	".txt": true, ".md": true, ".markdown": true, ".rst": true, ".log": true,
	".py": true, ".pyi": true, ".ipynb": true, ".r": true, ".jl": true,
	".js": true, ".mjs": true, ".cjs": true, ".ts": true, ".tsx": true, ".jsx": true,
	".json": true, ".jsonl": true, ".yaml": true, ".yml": true, ".toml": true,
	".ini": true, ".cfg": true, ".conf": true, ".env": true, ".properties": true,
	".csv": true, ".tsv": true, ".xml": true, ".html": true, ".htm": true,
	".css": true, ".scss": true, ".less": true, ".svg": true,
	".sh": true, ".bash": true, ".zsh": true, ".fish": true, ".ps1": true,
	".sql": true, ".go": true, ".rs": true, ".java": true, ".kt": true, ".scala": true,
	".c": true, ".h": true, ".cc": true, ".cpp": true, ".hpp": true, ".cs": true,
	".rb": true, ".php": true, ".pl": true, ".lua": true, ".swift": true,
	".tex": true, ".bib": true, ".gitignore": true, ".dockerfile": true, ".mk": true,
}

var mimeTypes = map[string]string{
	".md":   "text/markdown",
	".csv":  "text/csv",
	".py":   "text/x-python",
	".txt":  "text/plain",
	".html": "text/html",
	".htm":  "text/html",
	".css":  "text/css",
	".js":   "application/javascript",
	".ts":   "application/typescript",
	".json": "application/json",
	".yaml": "application/x-yaml",
	".yml":  "application/x-yaml",
	".toml": "application/toml",
	".xml":  "application/xml",
	".svg":  "image/svg+xml",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".pdf":  "application/pdf",
	".zip":  "application/zip",
	".gz":   "application/gzip",
	".zst":  "application/zstd",
}

// IsTextFile reports whether a file name looks viewable as text. Names
// without an extension (Makefile, Dockerfile) count as text.
func IsTextFile(name string) bool {
	ext := strings.ToLower(path.Ext(name))
	if ext == "" || ext == name {
		return !strings.HasPrefix(name, ".") || textExtensions[ext]
	}
	return textExtensions[ext]
}

// TreeItem is one node of the workspace file tree. Path is relative to
// the workspace root.
type TreeItem struct {
	Name        string
	Path        string
	Type        string
	Viewable    bool
	HasChildren bool
	Children    []TreeItem
}

type fileJSON struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Type     string `json:"type"`
	Viewable bool   `json:"viewable"`
}

type folderJSON struct {
	Name        string     `json:"name"`
	Path        string     `json:"path"`
	Type        string     `json:"type"`
	HasChildren bool       `json:"has_children"`
	Children    []TreeItem `json:"children"`
}

// MarshalJSON emits files with a viewable flag and folders with
// has_children and a children array (empty when not loaded).
func (t TreeItem) MarshalJSON() ([]byte, error) {
	if t.Type != TypeFolder {
		return sonic.Marshal(fileJSON{Name: t.Name, Path: t.Path, Type: t.Type, Viewable: t.Viewable})
	}
	children := t.Children
	if children == nil {
		children = []TreeItem{}
	}
	return sonic.Marshal(folderJSON{
		Name: t.Name, Path: t.Path, Type: t.Type,
		HasChildren: t.HasChildren, Children: children,
	})
}

// BuildFileTree lists dir (relative to the workspace root, or absolute).
// Hidden entries are skipped; folders come before files and each group is
// sorted case-insensitively. When lazy is set folders are not descended.
func BuildFileTree(fs *vfs.Filesystem, dir string, lazy bool) ([]TreeItem, error) {
	return buildTree(fs, fs.Normalize(dir), lazy)
}

func buildTree(fs *vfs.Filesystem, dir string, lazy bool) ([]TreeItem, error) {
	names, err := fs.Listdir(dir)
	if err != nil {
		return nil, err
	}

	var folders, files []TreeItem
	for _, name := range names {
		if strings.HasPrefix(name, ".") {
			continue
		}
		full := path.Join(dir, name)
		item := TreeItem{Name: name, Path: vfs.Relative(fs.RootPath(), full)}

		if !fs.IsDir(full) {
			item.Type = TypeFile
			item.Viewable = IsTextFile(name)
			files = append(files, item)
			continue
		}

		item.Type = TypeFolder
		children, _ := fs.Listdir(full)
		item.HasChildren = len(children) > 0
		item.Children = []TreeItem{}
		if !lazy && item.HasChildren {
			if item.Children, err = buildTree(fs, full, false); err != nil {
				return nil, err
			}
		}
		folders = append(folders, item)
	}

	byName := func(items []TreeItem) {
		sort.SliceStable(items, func(i, j int) bool {
			return strings.ToLower(items[i].Name) < strings.ToLower(items[j].Name)
		})
	}
	byName(folders)
	byName(files)

	return append(append([]TreeItem{}, folders...), files...), nil
}

// LoadFolderContents returns the immediate children of a folder for lazy
// tree expansion.
func LoadFolderContents(fs *vfs.Filesystem, rel string) ([]TreeItem, error) {
	return BuildFileTree(fs, rel, true)
}

// ReadFileContent reads a file for display. Content that is not UTF-8 is
// decoded from its detected charset; binary files return ErrBinaryFile.
func ReadFileContent(fs *vfs.Filesystem, rel string) (content string, isText bool, charset string, err error) {
	name := fs.Normalize(rel)
	data, err := fs.ReadBytes(name)
	if err != nil {
		if errors.Is(err, vfs.ErrIsADirectory) {
			return "", false, "", fmt.Errorf("%s is a directory: %w", rel, err)
		}
		return "", false, "", fmt.Errorf("file not found: %s: %w", rel, err)
	}

	if !IsTextFile(path.Base(name)) || !looksLikeText(data) {
		return "", false, "", fmt.Errorf("%s: %w", rel, ErrBinaryFile)
	}
	if utf8.Valid(data) {
		return string(data), true, "UTF-8", nil
	}

	decoded, charset, err := decodeCharset(data)
	if err != nil {
		return "", false, "", fmt.Errorf("%s: %w", rel, err)
	}
	return decoded, true, charset, nil
}

// looksLikeText sniffs content so a binary blob behind a text extension is
// not rendered.
func looksLikeText(data []byte) bool {
	if len(data) == 0 {
		return true
	}
	for m := mimetype.Detect(data); m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

func decodeCharset(data []byte) (string, string, error) {
	best, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil {
		return "", "", fmt.Errorf("detect charset: %w", err)
	}
	enc, err := htmlindex.Get(best.Charset)
	if err != nil {
		return "", "", fmt.Errorf("unsupported charset %s: %w", best.Charset, err)
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", "", fmt.Errorf("decode %s: %w", best.Charset, err)
	}
	return string(out), best.Charset, nil
}

// WriteFile creates or overwrites a file, creating parent folders.
func WriteFile(fs *vfs.Filesystem, rel string, content []byte) error {
	name := fs.Normalize(rel)
	if err := fs.MkdirAll(path.Dir(name)); err != nil {
		return err
	}
	return fs.WriteBytes(name, content)
}

// CreateDirectory creates a folder.
func CreateDirectory(fs *vfs.Filesystem, rel string, parents, existOK bool) error {
	return fs.Mkdir(rel, parents, existOK)
}

// MimeType guesses a content type from the file name, falling back to
// sniffing the content.
func MimeType(name string, data []byte) string {
	if m, ok := mimeTypes[strings.ToLower(path.Ext(name))]; ok {
		return m
	}
	return mimetype.Detect(data).String()
}

// GetFileDownloadData returns base64 content, file name and MIME type.
// ok is false when the path is not a readable file.
func GetFileDownloadData(fs *vfs.Filesystem, rel string) (b64, filename, mime string, ok bool) {
	name := fs.Normalize(rel)
	data, err := fs.ReadBytes(name)
	if err != nil {
		return "", "", "", false
	}
	filename = path.Base(name)
	return base64.StdEncoding.EncodeToString(data), filename, MimeType(filename, data), true
}
