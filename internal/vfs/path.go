package vfs

import (
	"path"
	"strings"
)

// Separator is the only path separator the virtual filesystem understands.
const Separator = "/"

// CleanRoot canonicalizes a configured root. An empty root means "/".
func CleanRoot(root string) string {
	if root == "" {
		return Separator
	}
	if !strings.HasPrefix(root, Separator) {
		root = Separator + root
	}
	return path.Clean(root)
}

// Within reports whether the canonical path p lies at or below root.
func Within(root, p string) bool {
	if root == Separator {
		return strings.HasPrefix(p, Separator)
	}
	return p == root || strings.HasPrefix(p, root+Separator)
}

// Normalize maps an arbitrary path string onto the canonical form used as
// a filesystem key:
//   - "" and "." resolve to root
//   - relative paths are anchored under root
//   - absolute paths already under root are kept
//   - absolute paths outside root are re-rooted beneath it
//
// Trailing separators, duplicate separators and "." segments are removed;
// ".." never climbs above root. Normalize is idempotent.
func Normalize(root, p string) string {
	root = CleanRoot(root)
	if p == "" || p == "." {
		return root
	}
	if !strings.HasPrefix(p, Separator) {
		p = root + Separator + p
	}
	p = path.Clean(p)
	if !Within(root, p) {
		p = path.Join(root, p)
	}
	return p
}

// Segments splits a path into its non-empty segments.
func Segments(p string) []string {
	parts := strings.Split(p, Separator)
	segs := parts[:0]
	for _, part := range parts {
		if part != "" {
			segs = append(segs, part)
		}
	}
	return segs
}

// Relative returns p relative to base, both canonical. The result is empty
// when p equals base.
func Relative(base, p string) string {
	if p == base {
		return ""
	}
	if base == Separator {
		return strings.TrimPrefix(p, Separator)
	}
	return strings.TrimPrefix(p, base+Separator)
}

// Path is an immutable canonical location: an ordered list of non-empty
// segments plus the root it was normalized against.
type Path struct {
	root string
	segs []string
}

// ParsePath normalizes s against root and splits it into segments.
func ParsePath(root, s string) Path {
	root = CleanRoot(root)
	return Path{root: root, segs: Segments(Normalize(root, s))}
}

// Root returns the root the path was normalized against.
func (p Path) Root() string { return p.root }

// Segments returns a copy of the path's segments.
func (p Path) Segments() []string {
	out := make([]string, len(p.segs))
	copy(out, p.segs)
	return out
}

// String renders the canonical absolute form.
func (p Path) String() string {
	return Separator + strings.Join(p.segs, Separator)
}

// IsRoot reports whether the path is the root itself.
func (p Path) IsRoot() bool {
	return p.String() == p.root
}

// Name is the final segment, or "" when there are no segments.
func (p Path) Name() string {
	if len(p.segs) == 0 {
		return ""
	}
	return p.segs[len(p.segs)-1]
}

// Suffix is the final extension of Name including the dot (".txt"). Names
// that start with their only dot, or end in a dot, have no suffix.
func (p Path) Suffix() string {
	name := p.Name()
	i := strings.LastIndex(name, ".")
	if i <= 0 || i == len(name)-1 {
		return ""
	}
	return name[i:]
}

// Stem is Name without Suffix.
func (p Path) Stem() string {
	return strings.TrimSuffix(p.Name(), p.Suffix())
}

// Parent drops the final segment. The parent of root is root.
func (p Path) Parent() Path {
	if p.IsRoot() || len(p.segs) == 0 {
		return p
	}
	return Path{root: p.root, segs: p.Segments()[:len(p.segs)-1]}
}

// Join appends elements and re-normalizes against the same root.
func (p Path) Join(elems ...string) Path {
	all := append([]string{p.String()}, elems...)
	return ParsePath(p.root, path.Join(all...))
}

// Equal reports whether both paths have the same segments.
func (p Path) Equal(other Path) bool {
	if len(p.segs) != len(other.segs) {
		return false
	}
	for i := range p.segs {
		if p.segs[i] != other.segs[i] {
			return false
		}
	}
	return true
}
