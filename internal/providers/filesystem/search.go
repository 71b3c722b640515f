package filesystem

import (
	"context"

	"github.com/dkedar7/cowork-dash/backend/internal/shared/types"
)

// SearchOps handles search and filtering operations
type SearchOps struct {
	*FilesystemOps
}

// GetTools returns search operation tool definitions
func (s *SearchOps) GetTools() []types.Tool {
	return []types.Tool{
		{
			ID:          "filesystem.grep",
			Name:        "Search Content",
			Description: "Find lines containing a literal string",
			Parameters: []types.Parameter{
				{Name: "pattern", Type: "string", Description: "Text to search for", Required: true},
				{Name: "path", Type: "string", Description: "Directory or file to search (default workspace root)", Required: false},
				{Name: "glob", Type: "string", Description: "Only search files matching this pattern (e.g. '*.py')", Required: false},
			},
			Returns: "array",
		},
		{
			ID:          "filesystem.glob",
			Name:        "Advanced Glob",
			Description: "Match files and directories with ** patterns",
			Parameters: []types.Parameter{
				{Name: "pattern", Type: "string", Description: "Glob pattern (e.g., '**/*.py')", Required: true},
				{Name: "path", Type: "string", Description: "Base directory (default workspace root)", Required: false},
			},
			Returns: "array",
		},
	}
}

// Grep searches file content
func (s *SearchOps) Grep(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	pattern, ok := GetString(params, "pattern")
	if !ok || pattern == "" {
		return Failure("pattern parameter required")
	}
	be, err := s.Backend(appCtx)
	if err != nil {
		return Failure(err.Error())
	}

	path, _ := GetString(params, "path")
	glob, _ := GetString(params, "glob")
	matches, msg := be.GrepRaw(pattern, path, glob)
	if msg != "" {
		return Failure(msg)
	}
	return Success(map[string]interface{}{"pattern": pattern, "matches": matches, "count": len(matches)})
}

// Glob matches paths with doublestar patterns
func (s *SearchOps) Glob(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	pattern, ok := GetString(params, "pattern")
	if !ok || pattern == "" {
		return Failure("pattern parameter required")
	}
	be, err := s.Backend(appCtx)
	if err != nil {
		return Failure(err.Error())
	}

	path, _ := GetString(params, "path")
	entries := be.GlobInfo(pattern, path)
	return Success(map[string]interface{}{"pattern": pattern, "entries": entries, "count": len(entries)})
}
