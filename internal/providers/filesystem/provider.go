package filesystem

import (
	"context"
	"fmt"

	"github.com/dkedar7/cowork-dash/backend/internal/shared/types"
)

type toolFunc func(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error)

// Provider exposes session workspaces as the "filesystem" service.
type Provider struct {
	basic      *BasicOps
	search     *SearchOps
	operations *OperationsOps
	directory  *DirectoryOps
	metadata   *MetadataOps
	formats    *FormatsOps
	archives   *ArchivesOps

	handlers map[string]toolFunc
}

// NewProvider creates the filesystem provider over a session store.
func NewProvider(sessions Sessions) *Provider {
	ops := &FilesystemOps{Sessions: sessions}
	p := &Provider{
		basic:      &BasicOps{FilesystemOps: ops},
		search:     &SearchOps{FilesystemOps: ops},
		operations: &OperationsOps{FilesystemOps: ops},
		directory:  &DirectoryOps{FilesystemOps: ops},
		metadata:   &MetadataOps{FilesystemOps: ops},
		formats:    &FormatsOps{FilesystemOps: ops},
		archives:   &ArchivesOps{FilesystemOps: ops},
	}

	p.handlers = map[string]toolFunc{
		"filesystem.ls":             p.basic.List,
		"filesystem.read":           p.basic.Read,
		"filesystem.write":          p.basic.Write,
		"filesystem.edit":           p.basic.Edit,
		"filesystem.mkdir":          p.basic.Mkdir,
		"filesystem.delete":         p.basic.Delete,
		"filesystem.exists":         p.basic.Exists,
		"filesystem.grep":           p.search.Grep,
		"filesystem.glob":           p.search.Glob,
		"filesystem.upload":         p.operations.Upload,
		"filesystem.download":       p.operations.Download,
		"filesystem.copy":           p.operations.Copy,
		"filesystem.move":           p.operations.Move,
		"filesystem.tree":           p.directory.Tree,
		"filesystem.read_content":   p.directory.ReadContent,
		"filesystem.stat":           p.metadata.Stat,
		"filesystem.total_size":     p.metadata.TotalSize,
		"filesystem.mime_type":      p.metadata.MIMEType,
		"filesystem.json.read":      p.formats.JSONRead,
		"filesystem.json.write":     p.formats.JSONWrite,
		"filesystem.yaml.read":      p.formats.YAMLRead,
		"filesystem.yaml.write":     p.formats.YAMLWrite,
		"filesystem.toml.read":      p.formats.TOMLRead,
		"filesystem.toml.write":     p.formats.TOMLWrite,
		"filesystem.csv.read":       p.formats.CSVRead,
		"filesystem.archive.export": p.archives.Export,
		"filesystem.archive.import": p.archives.Import,
		"filesystem.archive.list":   p.archives.List,
	}
	return p
}

// Definition returns service metadata
func (p *Provider) Definition() types.Service {
	var tools []types.Tool
	tools = append(tools, p.basic.GetTools()...)
	tools = append(tools, p.search.GetTools()...)
	tools = append(tools, p.operations.GetTools()...)
	tools = append(tools, p.directory.GetTools()...)
	tools = append(tools, p.metadata.GetTools()...)
	tools = append(tools, p.formats.GetTools()...)
	tools = append(tools, p.archives.GetTools()...)

	return types.Service{
		ID:          "filesystem",
		Name:        "Workspace Filesystem",
		Description: "File and directory operations on the session's in-memory workspace",
		Category:    types.CategoryFilesystem,
		Capabilities: []string{
			"read",
			"write",
			"edit",
			"search",
			"transfer",
			"tree",
			"formats",
			"archives",
		},
		Tools: tools,
	}
}

// Execute routes to appropriate operation
func (p *Provider) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	fn, ok := p.handlers[toolID]
	if !ok {
		return Failure(fmt.Sprintf("unknown tool: %s", toolID))
	}
	if params == nil {
		params = map[string]interface{}{}
	}
	return fn(ctx, params, appCtx)
}
