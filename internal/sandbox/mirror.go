package sandbox

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync"

	"github.com/charlievieth/fastwalk"
	"github.com/dkedar7/cowork-dash/backend/internal/shared/paths"
	"github.com/dkedar7/cowork-dash/backend/internal/vfs"
)

// Mirror bridges a virtual filesystem and a host directory. Both
// directions copy the full tree; there is no incremental sync.
type Mirror struct {
	FS  *vfs.Filesystem
	Dir string
	// Canvas is the workspace-relative directory FromDisk preserves even
	// when it is absent on disk. Empty means paths.Canvas.
	Canvas string
}

// MirrorStats counts what a sync touched.
type MirrorStats struct {
	Dirs    int
	Files   int
	Bytes   int64
	Removed int
}

// ToDisk empties Dir and writes every entry of FS into it, with the
// filesystem root stripped from each path.
func (m Mirror) ToDisk() (MirrorStats, error) {
	var stats MirrorStats

	if err := os.MkdirAll(m.Dir, 0o755); err != nil {
		return stats, fmt.Errorf("create mirror dir: %w", err)
	}
	if err := clearDir(m.Dir); err != nil {
		return stats, err
	}

	root := m.FS.RootPath()
	err := m.FS.Walk(root, func(info vfs.Info) error {
		target := filepath.Join(m.Dir, filepath.FromSlash(vfs.Relative(root, info.Path)))
		if info.IsDir {
			stats.Dirs++
			return os.MkdirAll(target, 0o755)
		}

		data, err := m.FS.ReadBytes(info.Path)
		if err != nil {
			// Removed concurrently; skip it.
			return nil
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return err
		}
		stats.Files++
		stats.Bytes += int64(len(data))
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("sync to disk: %w", err)
	}
	return stats, nil
}

func clearDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read mirror dir: %w", err)
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return fmt.Errorf("clear mirror dir: %w", err)
		}
	}
	return nil
}

type diskEntry struct {
	rel   string
	isDir bool
}

// scan lists every directory and regular file below Dir. Symlinks and
// special files are not mirrored.
func (m Mirror) scan() ([]diskEntry, error) {
	var (
		mu      sync.Mutex
		entries []diskEntry
	)
	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, m.Dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == m.Dir {
			return nil
		}
		if !d.IsDir() && !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(m.Dir, p)
		if err != nil {
			return err
		}
		mu.Lock()
		entries = append(entries, diskEntry{rel: filepath.ToSlash(rel), isDir: d.IsDir()})
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].rel < entries[j].rel })
	return entries, nil
}

// FromDisk reconciles FS with Dir: every directory and file on disk is
// written back, and every virtual entry absent from disk is removed,
// except entries under the canvas directory.
func (m Mirror) FromDisk() (MirrorStats, error) {
	var stats MirrorStats
	root := m.FS.RootPath()

	entries, err := m.scan()
	if err != nil {
		return stats, fmt.Errorf("scan mirror dir: %w", err)
	}

	onDisk := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		vpath := path.Join(root, e.rel)
		onDisk[vpath] = struct{}{}

		if e.isDir {
			if m.FS.IsFile(vpath) {
				_ = m.FS.Unlink(vpath, true)
			}
			if err := m.FS.MkdirAll(vpath); err != nil {
				return stats, fmt.Errorf("sync from disk: %w", err)
			}
			stats.Dirs++
			continue
		}

		data, err := os.ReadFile(filepath.Join(m.Dir, filepath.FromSlash(e.rel)))
		if err != nil {
			return stats, fmt.Errorf("sync from disk: %w", err)
		}
		if m.FS.IsDir(vpath) {
			_ = m.FS.RemoveAll(vpath)
		}
		if err := m.FS.MkdirAll(path.Dir(vpath)); err != nil {
			return stats, fmt.Errorf("sync from disk: %w", err)
		}
		if err := m.FS.WriteBytes(vpath, data); err != nil {
			return stats, fmt.Errorf("sync from disk: %w", err)
		}
		stats.Files++
		stats.Bytes += int64(len(data))
	}

	canvas := m.Canvas
	if canvas == "" {
		canvas = paths.Canvas
	}
	canvas = path.Join(root, canvas)

	existing, err := m.FS.Entries(root)
	if err != nil {
		return stats, fmt.Errorf("sync from disk: %w", err)
	}
	// Deepest first so files go before their directories.
	for i := len(existing) - 1; i >= 0; i-- {
		info := existing[i]
		if _, ok := onDisk[info.Path]; ok || paths.InDir(canvas, info.Path) {
			continue
		}
		if info.IsDir {
			if names, err := m.FS.Listdir(info.Path); err == nil && len(names) == 0 {
				_ = m.FS.Rmdir(info.Path)
				stats.Removed++
			}
			continue
		}
		if err := m.FS.Unlink(info.Path, true); err == nil {
			stats.Removed++
		}
	}
	return stats, nil
}
