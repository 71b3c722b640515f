package filesystem

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/dkedar7/cowork-dash/backend/internal/shared/types"
	"github.com/dkedar7/cowork-dash/backend/internal/vfs"
)

// Archive compressions.
const (
	CompressionGzip = "gzip"
	CompressionZstd = "zstd"
	CompressionNone = "none"
)

// ArchiveStats summarizes an export or import.
type ArchiveStats struct {
	Files int   `json:"files"`
	Dirs  int   `json:"dirs"`
	Bytes int64 `json:"bytes"`
}

// ArchivesOps handles workspace archive export and import (tar, tar.gz, tar.zst)
type ArchivesOps struct {
	*FilesystemOps
}

// GetTools returns archive operation tool definitions
func (a *ArchivesOps) GetTools() []types.Tool {
	return []types.Tool{
		{
			ID:          "filesystem.archive.export",
			Name:        "Export Archive",
			Description: "Pack a directory into a tar archive inside the workspace",
			Parameters: []types.Parameter{
				{Name: "source", Type: "string", Description: "Directory to pack (default workspace root)", Required: false},
				{Name: "output", Type: "string", Description: "Archive path", Required: true},
				{Name: "compression", Type: "string", Description: "gzip, zstd or none (default from output suffix)", Required: false},
			},
			Returns: "object",
		},
		{
			ID:          "filesystem.archive.import",
			Name:        "Import Archive",
			Description: "Unpack a tar archive into a directory, overwriting files",
			Parameters: []types.Parameter{
				{Name: "archive", Type: "string", Description: "Archive path", Required: true},
				{Name: "destination", Type: "string", Description: "Destination directory (default workspace root)", Required: false},
			},
			Returns: "object",
		},
		{
			ID:          "filesystem.archive.list",
			Name:        "List Archive",
			Description: "List tar archive entries",
			Parameters: []types.Parameter{
				{Name: "archive", Type: "string", Description: "Archive path", Required: true},
			},
			Returns: "array",
		},
	}
}

// Export packs a directory into an archive file
func (a *ArchivesOps) Export(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	output, ok := GetString(params, "output")
	if !ok || output == "" {
		return Failure("output parameter required")
	}
	be, err := a.Backend(appCtx)
	if err != nil {
		return Failure(err.Error())
	}

	fs := be.Filesystem()
	source, _ := GetString(params, "source")
	src, out := fs.Normalize(source), fs.Normalize(output)
	compression, _ := GetString(params, "compression")
	if compression == "" {
		compression = CompressionFor(out)
	}

	var buf bytes.Buffer
	stats, err := ExportArchive(ctx, fs, src, &buf, compression, out)
	if err != nil {
		return Failure(fmt.Sprintf("archive export failed: %v", err))
	}
	if err := WriteFile(fs, out, buf.Bytes()); err != nil {
		return Failure(fmt.Sprintf("write failed: %v", err))
	}

	return Success(map[string]interface{}{
		"created":     true,
		"output":      out,
		"files":       stats.Files,
		"dirs":        stats.Dirs,
		"total_size":  stats.Bytes,
		"size":        buf.Len(),
		"compression": compression,
	})
}

// Import unpacks an archive file
func (a *ArchivesOps) Import(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	archive, ok := GetString(params, "archive")
	if !ok || archive == "" {
		return Failure("archive parameter required")
	}
	be, err := a.Backend(appCtx)
	if err != nil {
		return Failure(err.Error())
	}

	fs := be.Filesystem()
	data, err := fs.ReadBytes(archive)
	if err != nil {
		return Failure(fmt.Sprintf("open failed: %v", err))
	}
	destination, _ := GetString(params, "destination")
	dst := fs.Normalize(destination)

	stats, err := ImportArchive(ctx, fs, bytes.NewReader(data), dst, CompressionFor(archive))
	if err != nil {
		return Failure(fmt.Sprintf("archive import failed: %v", err))
	}
	return Success(map[string]interface{}{
		"extracted":   true,
		"destination": dst,
		"files":       stats.Files,
		"dirs":        stats.Dirs,
		"total_size":  stats.Bytes,
	})
}

// List lists archive entries
func (a *ArchivesOps) List(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	archive, ok := GetString(params, "archive")
	if !ok || archive == "" {
		return Failure("archive parameter required")
	}
	be, err := a.Backend(appCtx)
	if err != nil {
		return Failure(err.Error())
	}

	data, err := be.Filesystem().ReadBytes(archive)
	if err != nil {
		return Failure(fmt.Sprintf("open failed: %v", err))
	}

	entries := []map[string]interface{}{}
	err = readArchive(ctx, bytes.NewReader(data), CompressionFor(archive), func(hdr *tar.Header, _ io.Reader) error {
		entries = append(entries, map[string]interface{}{
			"name":   hdr.Name,
			"size":   hdr.Size,
			"is_dir": hdr.Typeflag == tar.TypeDir,
		})
		return nil
	})
	if err != nil {
		return Failure(fmt.Sprintf("archive list failed: %v", err))
	}
	return Success(map[string]interface{}{"archive": archive, "entries": entries, "count": len(entries)})
}

// CompressionFor picks a compression from an archive file name.
func CompressionFor(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".gz"), strings.HasSuffix(lower, ".tgz"):
		return CompressionGzip
	case strings.HasSuffix(lower, ".zst"), strings.HasSuffix(lower, ".tzst"):
		return CompressionZstd
	default:
		return CompressionNone
	}
}

// ExportArchive writes every entry under src to w as a tar stream. Entry
// names are relative to src. skip names a path left out of the archive,
// normally the archive being written.
func ExportArchive(ctx context.Context, fs *vfs.Filesystem, src string, w io.Writer, compression, skip string) (ArchiveStats, error) {
	var stats ArchiveStats
	src = fs.Normalize(src)
	if !fs.IsDir(src) {
		return stats, fmt.Errorf("%s: %w", src, vfs.ErrNotADirectory)
	}

	cw, err := compressWriter(w, compression)
	if err != nil {
		return stats, err
	}
	tw := tar.NewWriter(cw)
	modTime := time.Now()

	err = fs.Walk(src, func(info vfs.Info) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if info.Path == skip {
			return nil
		}
		rel := vfs.Relative(src, info.Path)

		if info.IsDir {
			stats.Dirs++
			return tw.WriteHeader(&tar.Header{
				Typeflag: tar.TypeDir, Name: rel + "/", Mode: 0o755, ModTime: modTime,
			})
		}

		data, err := fs.ReadBytes(info.Path)
		if err != nil {
			return err
		}
		hdr := &tar.Header{
			Typeflag: tar.TypeReg, Name: rel, Mode: 0o644, Size: int64(len(data)), ModTime: modTime,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if _, err := tw.Write(data); err != nil {
			return err
		}
		stats.Files++
		stats.Bytes += int64(len(data))
		return nil
	})
	if err != nil {
		return stats, err
	}
	if err := tw.Close(); err != nil {
		return stats, err
	}
	return stats, cw.Close()
}

// ImportArchive extracts a tar stream under dst, overwriting files.
// Entries that would land outside dst are skipped.
func ImportArchive(ctx context.Context, fs *vfs.Filesystem, r io.Reader, dst, compression string) (ArchiveStats, error) {
	var stats ArchiveStats
	dst = fs.Normalize(dst)
	if err := fs.MkdirAll(dst); err != nil {
		return stats, err
	}

	err := readArchive(ctx, r, compression, func(hdr *tar.Header, body io.Reader) error {
		target := path.Join(dst, path.Clean("/"+hdr.Name))
		if target == dst || !vfs.Within(dst, target) {
			return nil
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			stats.Dirs++
			return fs.MkdirAll(target)
		case tar.TypeReg:
			data, err := io.ReadAll(body)
			if err != nil {
				return err
			}
			if err := WriteFile(fs, target, data); err != nil {
				return err
			}
			stats.Files++
			stats.Bytes += int64(len(data))
		}
		return nil
	})
	return stats, err
}

func readArchive(ctx context.Context, r io.Reader, compression string, fn func(*tar.Header, io.Reader) error) error {
	dr, closeFn, err := decompressReader(r, compression)
	if err != nil {
		return err
	}
	defer closeFn()

	tr := tar.NewReader(dr)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(hdr, tr); err != nil {
			return err
		}
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func compressWriter(w io.Writer, compression string) (io.WriteCloser, error) {
	switch compression {
	case CompressionGzip:
		return gzip.NewWriter(w), nil
	case CompressionZstd:
		return zstd.NewWriter(w)
	case CompressionNone, "":
		return nopWriteCloser{w}, nil
	}
	return nil, fmt.Errorf("unsupported compression: %s", compression)
}

func decompressReader(r io.Reader, compression string) (io.Reader, func(), error) {
	switch compression {
	case CompressionGzip:
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("gzip failed: %w", err)
		}
		return gz, func() { gz.Close() }, nil
	case CompressionZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("zstd failed: %w", err)
		}
		return zr, zr.Close, nil
	case CompressionNone, "":
		return r, func() {}, nil
	}
	return nil, nil, fmt.Errorf("unsupported compression: %s", compression)
}
