package vfs

import (
	"fmt"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Glob returns the sorted canonical paths below base that match pattern.
// A pattern containing "/" is matched against the path relative to base;
// one without is matched against the base name at any depth. "**" crosses
// directory boundaries; other wildcards stop at "/". Both files and
// directories can match.
func (f *Filesystem) Glob(base, pattern string) ([]string, error) {
	infos, err := f.GlobInfo(base, pattern)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(infos))
	for i, info := range infos {
		out[i] = info.Path
	}
	return out, nil
}

// GlobInfo is Glob returning entry descriptions instead of bare paths.
func (f *Filesystem) GlobInfo(base, pattern string) ([]Info, error) {
	anchored := strings.Contains(pattern, Separator)
	pattern = strings.TrimPrefix(pattern, Separator)
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("glob %q: %w", pattern, doublestar.ErrBadPattern)
	}

	b := f.Normalize(base)
	entries, err := f.Entries(b)
	if err != nil {
		return nil, err
	}

	var out []Info
	for _, info := range entries {
		rel := Relative(b, info.Path)
		if MatchPattern(pattern, rel) || (!anchored && MatchPattern(pattern, path.Base(rel))) {
			out = append(out, info)
		}
	}
	return out, nil
}

// MatchPattern reports whether a slash-separated relative path matches a
// doublestar pattern. Malformed patterns never match.
func MatchPattern(pattern, rel string) bool {
	ok, err := doublestar.Match(pattern, rel)
	return err == nil && ok
}
