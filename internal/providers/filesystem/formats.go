package filesystem

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"

	"github.com/dkedar7/cowork-dash/backend/internal/shared/types"
)

// FormatsOps handles structured file formats. Writes overwrite existing
// files.
type FormatsOps struct {
	*FilesystemOps
}

type codec struct {
	name      string
	unmarshal func([]byte, interface{}) error
	marshal   func(interface{}) ([]byte, error)
}

var (
	jsonCodec = codec{
		name:      "JSON",
		unmarshal: sonic.Unmarshal,
		marshal: func(v interface{}) ([]byte, error) {
			return sonic.ConfigStd.MarshalIndent(v, "", "  ")
		},
	}
	yamlCodec = codec{name: "YAML", unmarshal: yaml.Unmarshal, marshal: yaml.Marshal}
	tomlCodec = codec{name: "TOML", unmarshal: toml.Unmarshal, marshal: toml.Marshal}
)

// GetTools returns format operation tool definitions
func (f *FormatsOps) GetTools() []types.Tool {
	readParams := []types.Parameter{
		{Name: "path", Type: "string", Description: "File path", Required: true},
	}
	writeParams := []types.Parameter{
		{Name: "path", Type: "string", Description: "File path", Required: true},
		{Name: "data", Type: "object", Description: "Data to write", Required: true},
	}
	return []types.Tool{
		{ID: "filesystem.json.read", Name: "Read JSON", Description: "Parse JSON file", Parameters: readParams, Returns: "object"},
		{ID: "filesystem.json.write", Name: "Write JSON", Description: "Write JSON file (indented)", Parameters: writeParams, Returns: "boolean"},
		{ID: "filesystem.yaml.read", Name: "Read YAML", Description: "Parse YAML file", Parameters: readParams, Returns: "object"},
		{ID: "filesystem.yaml.write", Name: "Write YAML", Description: "Write YAML file", Parameters: writeParams, Returns: "boolean"},
		{ID: "filesystem.toml.read", Name: "Read TOML", Description: "Parse TOML file", Parameters: readParams, Returns: "object"},
		{ID: "filesystem.toml.write", Name: "Write TOML", Description: "Write TOML file", Parameters: writeParams, Returns: "boolean"},
		{
			ID:          "filesystem.csv.read",
			Name:        "Read CSV",
			Description: "Parse CSV file to array of objects",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File path", Required: true},
				{Name: "has_header", Type: "boolean", Description: "First row is header (default true)", Required: false},
			},
			Returns: "array",
		},
	}
}

// JSONRead parses a JSON file
func (f *FormatsOps) JSONRead(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	return f.read(params, appCtx, jsonCodec)
}

// JSONWrite writes a JSON file
func (f *FormatsOps) JSONWrite(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	return f.write(params, appCtx, jsonCodec)
}

// YAMLRead parses a YAML file
func (f *FormatsOps) YAMLRead(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	return f.read(params, appCtx, yamlCodec)
}

// YAMLWrite writes a YAML file
func (f *FormatsOps) YAMLWrite(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	return f.write(params, appCtx, yamlCodec)
}

// TOMLRead parses a TOML file
func (f *FormatsOps) TOMLRead(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	return f.read(params, appCtx, tomlCodec)
}

// TOMLWrite writes a TOML file
func (f *FormatsOps) TOMLWrite(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	return f.write(params, appCtx, tomlCodec)
}

func (f *FormatsOps) read(params map[string]interface{}, appCtx *types.Context, c codec) (*types.Result, error) {
	path, ok := GetString(params, "path")
	if !ok || path == "" {
		return Failure("path parameter required")
	}
	be, err := f.Backend(appCtx)
	if err != nil {
		return Failure(err.Error())
	}

	data, err := be.Filesystem().ReadBytes(path)
	if err != nil {
		return Failure(fmt.Sprintf("read failed: %v", err))
	}

	var parsed interface{}
	if err := c.unmarshal(data, &parsed); err != nil {
		return Failure(fmt.Sprintf("%s parse error: %v", c.name, err))
	}
	return Success(map[string]interface{}{"path": be.NormalizePath(path), "data": parsed})
}

func (f *FormatsOps) write(params map[string]interface{}, appCtx *types.Context, c codec) (*types.Result, error) {
	path, ok := GetString(params, "path")
	if !ok || path == "" {
		return Failure("path parameter required")
	}
	data, ok := params["data"]
	if !ok {
		return Failure("data parameter required")
	}
	be, err := f.Backend(appCtx)
	if err != nil {
		return Failure(err.Error())
	}

	encoded, err := c.marshal(data)
	if err != nil {
		return Failure(fmt.Sprintf("%s encoding error: %v", c.name, err))
	}
	if err := WriteFile(be.Filesystem(), path, encoded); err != nil {
		return Failure(fmt.Sprintf("write failed: %v", err))
	}
	return Success(map[string]interface{}{"written": true, "path": be.NormalizePath(path), "size": len(encoded)})
}

// CSVRead parses a CSV file
func (f *FormatsOps) CSVRead(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	path, ok := GetString(params, "path")
	if !ok || path == "" {
		return Failure("path parameter required")
	}
	be, err := f.Backend(appCtx)
	if err != nil {
		return Failure(err.Error())
	}

	data, err := be.Filesystem().ReadBytes(path)
	if err != nil {
		return Failure(fmt.Sprintf("read failed: %v", err))
	}
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		return Failure(fmt.Sprintf("CSV parse error: %v", err))
	}

	if !GetBool(params, "has_header", true) || len(records) == 0 {
		return Success(map[string]interface{}{"path": be.NormalizePath(path), "rows": records, "count": len(records)})
	}

	headers := records[0]
	rows := make([]map[string]string, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(record) {
				row[h] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return Success(map[string]interface{}{"path": be.NormalizePath(path), "headers": headers, "rows": rows, "count": len(rows)})
}
