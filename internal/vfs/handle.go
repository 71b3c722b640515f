package vfs

// Handle is a pathlib-style view of one path inside a Filesystem. It is a
// value type; every method delegates to the owning filesystem.
type Handle struct {
	fs   *Filesystem
	path Path
}

// Filesystem returns the owning filesystem.
func (h Handle) Filesystem() *Filesystem { return h.fs }

// Path returns the underlying canonical path.
func (h Handle) Path() Path { return h.path }

func (h Handle) String() string { return h.path.String() }

// Name is the final path segment ("" for "/").
func (h Handle) Name() string { return h.path.Name() }

// Suffix is the final extension including the dot.
func (h Handle) Suffix() string { return h.path.Suffix() }

// Stem is Name without Suffix.
func (h Handle) Stem() string { return h.path.Stem() }

// Parent returns the handle one level up, never above the root.
func (h Handle) Parent() Handle { return Handle{fs: h.fs, path: h.path.Parent()} }

// Join returns a handle for h/elems...
func (h Handle) Join(elems ...string) Handle {
	return Handle{fs: h.fs, path: h.path.Join(elems...)}
}

// Equal compares paths, ignoring which filesystem they belong to.
func (h Handle) Equal(other Handle) bool { return h.path.Equal(other.path) }

func (h Handle) Exists() bool { return h.fs.Exists(h.String()) }
func (h Handle) IsFile() bool { return h.fs.IsFile(h.String()) }
func (h Handle) IsDir() bool  { return h.fs.IsDir(h.String()) }

func (h Handle) ReadText() (string, error)  { return h.fs.ReadText(h.String()) }
func (h Handle) ReadBytes() ([]byte, error) { return h.fs.ReadBytes(h.String()) }

func (h Handle) WriteText(content string) error  { return h.fs.WriteText(h.String(), content) }
func (h Handle) WriteBytes(content []byte) error { return h.fs.WriteBytes(h.String(), content) }

func (h Handle) Mkdir(parents, existOK bool) error {
	return h.fs.Mkdir(h.String(), parents, existOK)
}

func (h Handle) Unlink(missingOK bool) error { return h.fs.Unlink(h.String(), missingOK) }
func (h Handle) Rmdir() error                { return h.fs.Rmdir(h.String()) }

func (h Handle) Stat() (Info, error) { return h.fs.Stat(h.String()) }

// Iterdir returns handles for the direct children, sorted by name.
func (h Handle) Iterdir() ([]Handle, error) {
	names, err := h.fs.Listdir(h.String())
	if err != nil {
		return nil, err
	}
	out := make([]Handle, len(names))
	for i, name := range names {
		out[i] = h.Join(name)
	}
	return out, nil
}

// Glob matches pattern relative to this handle.
func (h Handle) Glob(pattern string) ([]Handle, error) {
	matches, err := h.fs.Glob(h.String(), pattern)
	if err != nil {
		return nil, err
	}
	out := make([]Handle, len(matches))
	for i, m := range matches {
		out[i] = h.fs.Path(m)
	}
	return out, nil
}
