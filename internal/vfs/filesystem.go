package vfs

import (
	"path"
	"sort"
	"sync"
)

// entry is a node in the tree. Directories own their children exclusively.
type entry struct {
	dir      bool
	data     []byte
	children map[string]*entry
}

func newDir() *entry {
	return &entry{dir: true, children: make(map[string]*entry)}
}

func newFile(data []byte) *entry {
	return &entry{data: cloneBytes(data)}
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Info describes a single entry.
type Info struct {
	Path  string `json:"path"`
	Name  string `json:"name"`
	IsDir bool   `json:"is_dir"`
	Size  int64  `json:"size"`
}

// Filesystem is an in-memory tree of directories and files.
type Filesystem struct {
	root string

	mu    sync.RWMutex
	tree  *entry
	index map[string]*entry
}

// New creates an empty filesystem whose root directory is root ("/" when
// empty). The root always exists and cannot be removed.
func New(root string) *Filesystem {
	root = CleanRoot(root)
	tree := newDir()
	return &Filesystem{
		root:  root,
		tree:  tree,
		index: map[string]*entry{root: tree},
	}
}

// RootPath returns the canonical root path.
func (f *Filesystem) RootPath() string { return f.root }

// Normalize canonicalizes p against this filesystem's root.
func (f *Filesystem) Normalize(p string) string { return Normalize(f.root, p) }

// Path returns an object-style handle for p.
func (f *Filesystem) Path(p string) Handle {
	return Handle{fs: f, path: ParsePath(f.root, p)}
}

// Root returns the handle for the root directory.
func (f *Filesystem) Root() Handle { return f.Path(f.root) }

// Mkdir creates a directory. Missing ancestors are created only when
// parents is set; an existing directory is accepted only when existOK is set.
func (f *Filesystem) Mkdir(name string, parents, existOK bool) error {
	p := f.Normalize(name)

	f.mu.Lock()
	defer f.mu.Unlock()

	if e, ok := f.index[p]; ok {
		if e.dir && existOK {
			return nil
		}
		return pathErr("mkdir", p, ErrAlreadyExists)
	}

	parent, ok := f.index[path.Dir(p)]
	switch {
	case !ok && !parents:
		return f.missingParent("mkdir", p)
	case !ok:
		if err := f.mkdirAllLocked("mkdir", path.Dir(p)); err != nil {
			return err
		}
		parent = f.index[path.Dir(p)]
	case !parent.dir:
		return pathErr("mkdir", p, ErrNotADirectory)
	}

	f.linkLocked(p, parent, newDir())
	return nil
}

// MkdirAll creates p and any missing ancestors.
func (f *Filesystem) MkdirAll(name string) error {
	return f.Mkdir(name, true, true)
}

// WriteText creates or overwrites a file with UTF-8 text.
func (f *Filesystem) WriteText(name, content string) error {
	return f.write("write_text", name, []byte(content))
}

// WriteBytes creates or overwrites a file with raw bytes.
func (f *Filesystem) WriteBytes(name string, content []byte) error {
	return f.write("write_bytes", name, content)
}

func (f *Filesystem) write(op, name string, content []byte) error {
	p := f.Normalize(name)

	f.mu.Lock()
	defer f.mu.Unlock()

	if e, ok := f.index[p]; ok {
		if e.dir {
			return pathErr(op, p, ErrIsADirectory)
		}
		e.data = cloneBytes(content)
		return nil
	}

	parent, ok := f.index[path.Dir(p)]
	if !ok {
		return f.missingParent(op, p)
	}
	if !parent.dir {
		return pathErr(op, p, ErrNotADirectory)
	}

	f.linkLocked(p, parent, newFile(content))
	return nil
}

// ReadText returns a file's content as a string.
func (f *Filesystem) ReadText(name string) (string, error) {
	b, err := f.read("read_text", name)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadBytes returns a copy of a file's content.
func (f *Filesystem) ReadBytes(name string) ([]byte, error) {
	return f.read("read_bytes", name)
}

func (f *Filesystem) read(op, name string) ([]byte, error) {
	p := f.Normalize(name)

	f.mu.RLock()
	defer f.mu.RUnlock()

	e, ok := f.index[p]
	if !ok {
		return nil, pathErr(op, p, ErrNotFound)
	}
	if e.dir {
		return nil, pathErr(op, p, ErrIsADirectory)
	}
	return cloneBytes(e.data), nil
}

// Listdir returns the sorted names of a directory's direct children.
func (f *Filesystem) Listdir(name string) ([]string, error) {
	p := f.Normalize(name)

	f.mu.RLock()
	defer f.mu.RUnlock()

	e, ok := f.index[p]
	if !ok {
		return nil, pathErr("listdir", p, ErrNotFound)
	}
	if !e.dir {
		return nil, pathErr("listdir", p, ErrNotADirectory)
	}

	names := make([]string, 0, len(e.children))
	for n := range e.children {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

// Unlink removes a file. A missing path is an error unless missingOK.
func (f *Filesystem) Unlink(name string, missingOK bool) error {
	p := f.Normalize(name)

	f.mu.Lock()
	defer f.mu.Unlock()

	e, ok := f.index[p]
	if !ok {
		if missingOK {
			return nil
		}
		return pathErr("unlink", p, ErrNotFound)
	}
	if e.dir {
		return pathErr("unlink", p, ErrIsADirectory)
	}

	f.unlinkLocked(p, e)
	return nil
}

// Rmdir removes an empty directory. Non-empty directories are rejected
// with ErrDirectoryNotEmpty; use RemoveAll for recursive deletion.
func (f *Filesystem) Rmdir(name string) error {
	p := f.Normalize(name)

	f.mu.Lock()
	defer f.mu.Unlock()

	if p == f.root {
		return pathErr("rmdir", p, ErrPermission)
	}
	e, ok := f.index[p]
	if !ok {
		return pathErr("rmdir", p, ErrNotFound)
	}
	if !e.dir {
		return pathErr("rmdir", p, ErrNotADirectory)
	}
	if len(e.children) > 0 {
		return pathErr("rmdir", p, ErrDirectoryNotEmpty)
	}

	f.unlinkLocked(p, e)
	return nil
}

// RemoveAll deletes p and everything below it. A missing path is not an
// error. The root cannot be removed.
func (f *Filesystem) RemoveAll(name string) error {
	p := f.Normalize(name)

	f.mu.Lock()
	defer f.mu.Unlock()

	if p == f.root {
		return pathErr("remove_all", p, ErrPermission)
	}
	if e, ok := f.index[p]; ok {
		f.unlinkLocked(p, e)
	}
	return nil
}

// Exists reports whether p names a file or directory.
func (f *Filesystem) Exists(name string) bool {
	_, ok := f.lookup(name)
	return ok
}

// IsFile reports whether p names a file.
func (f *Filesystem) IsFile(name string) bool {
	e, ok := f.lookup(name)
	return ok && !e.dir
}

// IsDir reports whether p names a directory.
func (f *Filesystem) IsDir(name string) bool {
	e, ok := f.lookup(name)
	return ok && e.dir
}

func (f *Filesystem) lookup(name string) (*entry, bool) {
	p := f.Normalize(name)
	f.mu.RLock()
	defer f.mu.RUnlock()
	e, ok := f.index[p]
	return e, ok
}

// Stat describes the entry at p.
func (f *Filesystem) Stat(name string) (Info, error) {
	p := f.Normalize(name)

	f.mu.RLock()
	defer f.mu.RUnlock()

	e, ok := f.index[p]
	if !ok {
		return Info{}, pathErr("stat", p, ErrNotFound)
	}
	return infoFor(p, e), nil
}

func infoFor(p string, e *entry) Info {
	info := Info{Path: p, Name: path.Base(p), IsDir: e.dir}
	if p == Separator {
		info.Name = ""
	}
	if !e.dir {
		info.Size = int64(len(e.data))
	}
	return info
}

// Files returns a snapshot of every file keyed by canonical path.
func (f *Filesystem) Files() map[string][]byte {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make(map[string][]byte)
	for p, e := range f.index {
		if !e.dir {
			out[p] = cloneBytes(e.data)
		}
	}
	return out
}

// Entries returns Info for every entry strictly below base, sorted by path.
func (f *Filesystem) Entries(base string) ([]Info, error) {
	b := f.Normalize(base)

	f.mu.RLock()
	defer f.mu.RUnlock()

	be, ok := f.index[b]
	if !ok {
		return nil, pathErr("walk", b, ErrNotFound)
	}
	if !be.dir {
		return nil, pathErr("walk", b, ErrNotADirectory)
	}

	var out []Info
	for p, e := range f.index {
		if p != b && Within(b, p) {
			out = append(out, infoFor(p, e))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// Walk calls fn for every entry below base in sorted order. The callback
// runs without the filesystem lock held, so it may call back into f.
func (f *Filesystem) Walk(base string, fn func(info Info) error) error {
	entries, err := f.Entries(base)
	if err != nil {
		return err
	}
	for _, info := range entries {
		if err := fn(info); err != nil {
			return err
		}
	}
	return nil
}

// linkLocked attaches child under parent at canonical path p.
func (f *Filesystem) linkLocked(p string, parent, child *entry) {
	parent.children[path.Base(p)] = child
	f.index[p] = child
}

// unlinkLocked detaches e from its parent and drops it and its
// descendants from the index.
func (f *Filesystem) unlinkLocked(p string, e *entry) {
	if parent, ok := f.index[path.Dir(p)]; ok {
		delete(parent.children, path.Base(p))
	}
	f.dropIndexLocked(p, e)
}

func (f *Filesystem) dropIndexLocked(p string, e *entry) {
	delete(f.index, p)
	for name, child := range e.children {
		f.dropIndexLocked(p+Separator+name, child)
	}
}

// mkdirAllLocked creates every missing directory from root down to p.
func (f *Filesystem) mkdirAllLocked(op, p string) error {
	current := f.root
	parent := f.tree
	for _, seg := range Segments(Relative(f.root, p)) {
		if current == Separator {
			current += seg
		} else {
			current += Separator + seg
		}
		e, ok := f.index[current]
		if !ok {
			e = newDir()
			f.linkLocked(current, parent, e)
		} else if !e.dir {
			return pathErr(op, current, ErrNotADirectory)
		}
		parent = e
	}
	return nil
}

// missingParent reports why p's parent cannot hold it: the nearest
// existing ancestor is either a file (ErrNotADirectory) or p's chain is
// simply missing (ErrNotFound).
func (f *Filesystem) missingParent(op, p string) error {
	for dir := path.Dir(p); Within(f.root, dir); dir = path.Dir(dir) {
		if e, ok := f.index[dir]; ok {
			if !e.dir {
				return pathErr(op, p, ErrNotADirectory)
			}
			break
		}
		if dir == f.root || dir == Separator {
			break
		}
	}
	return pathErr(op, p, ErrNotFound)
}

// treeSize counts indexed entries; used by tests to check index/tree agreement.
func (f *Filesystem) treeSize() (indexed, reachable int) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var count func(e *entry) int
	count = func(e *entry) int {
		n := 1
		for _, c := range e.children {
			n += count(c)
		}
		return n
	}
	return len(f.index), count(f.tree)
}
