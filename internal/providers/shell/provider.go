package shell

import (
	"context"
	"fmt"
	"time"

	"github.com/dkedar7/cowork-dash/backend/internal/sandbox"
	"github.com/dkedar7/cowork-dash/backend/internal/shared/types"
	"github.com/dkedar7/cowork-dash/backend/internal/vfs"
)

// Sessions resolves a session id to its workspace.
type Sessions interface {
	GetFilesystem(id string) (*vfs.Filesystem, bool)
}

// Provider implements sandboxed command execution
type Provider struct {
	sessions  Sessions
	executors *sandbox.Registry
}

// NewProvider creates a shell provider. Executors are taken from
// executors, one per session.
func NewProvider(sessions Sessions, executors *sandbox.Registry) *Provider {
	return &Provider{sessions: sessions, executors: executors}
}

// Definition returns service metadata
func (p *Provider) Definition() types.Service {
	return types.Service{
		ID:          "shell",
		Name:        "Sandboxed Shell",
		Description: "Run shell commands against the session workspace inside an isolated sandbox",
		Category:    types.CategorySystem,
		Capabilities: []string{
			"execute",
			"sandbox",
			"timeout",
			"sync",
		},
		Tools: p.getTools(),
	}
}

// Execute routes to appropriate operation
func (p *Provider) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	switch toolID {
	case "shell.execute":
		return p.execute(ctx, params, appCtx)
	case "shell.backend":
		return p.backend()
	case "shell.stats":
		return p.stats(appCtx)
	default:
		return nil, fmt.Errorf("unknown tool: %s", toolID)
	}
}

func (p *Provider) getTools() []types.Tool {
	return []types.Tool{
		{
			ID:          "shell.execute",
			Name:        "Execute Command",
			Description: "Run a bash command in the sandbox; workspace changes are synced back",
			Parameters: []types.Parameter{
				{
					Name:        "command",
					Type:        "string",
					Description: "Command line passed to bash -c",
					Required:    true,
				},
				{
					Name:        "timeout",
					Type:        "number",
					Description: "Timeout in seconds. Defaults to 60",
					Required:    false,
				},
				{
					Name:        "env",
					Type:        "object",
					Description: "Environment variables to set",
					Required:    false,
				},
			},
			Returns: "execution_result",
		},
		{
			ID:          "shell.backend",
			Name:        "Sandbox Backend",
			Description: "Report the sandbox backend in use",
			Parameters:  []types.Parameter{},
			Returns:     "backend_info",
		},
		{
			ID:          "shell.stats",
			Name:        "Execution Stats",
			Description: "Execution counters for the current session",
			Parameters:  []types.Parameter{},
			Returns:     "stats",
		},
	}
}

func (p *Provider) executor(appCtx *types.Context) (*sandbox.Executor, error) {
	id := appCtx.Session()
	if id == "" {
		return nil, fmt.Errorf("session_id required")
	}
	fs, ok := p.sessions.GetFilesystem(id)
	if !ok {
		return nil, fmt.Errorf("session %s not found", id)
	}
	return p.executors.GetExecutor(id, fs), nil
}

func (p *Provider) execute(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	command, ok := params["command"].(string)
	if !ok || command == "" {
		return failure("command parameter required")
	}
	exec, err := p.executor(appCtx)
	if err != nil {
		return failure(err.Error())
	}

	timeout, err := parseTimeout(params["timeout"])
	if err != nil {
		return failure(err.Error())
	}
	env, err := parseEnv(params["env"])
	if err != nil {
		return failure(err.Error())
	}

	res := exec.Execute(ctx, command, timeout, env)
	result := &types.Result{
		Success: res.Status == sandbox.StatusSuccess,
		Data: map[string]interface{}{
			"stdout":      res.Stdout,
			"stderr":      res.Stderr,
			"return_code": res.ReturnCode,
			"status":      res.Status,
		},
	}
	if !result.Success {
		msg := res.Stderr
		if msg == "" {
			msg = fmt.Sprintf("command exited with code %d", res.ReturnCode)
		}
		result.Error = &msg
	}
	return result, nil
}

func (p *Provider) backend() (*types.Result, error) {
	kind := p.executors.Kind()
	return &types.Result{
		Success: true,
		Data: map[string]interface{}{
			"backend":   string(kind),
			"available": kind != sandbox.KindNone,
		},
	}, nil
}

func (p *Provider) stats(appCtx *types.Context) (*types.Result, error) {
	id := appCtx.Session()
	if id == "" {
		return failure("session_id required")
	}
	exec, ok := p.executors.Lookup(id)
	if !ok {
		return &types.Result{Success: true, Data: map[string]interface{}{"runs": 0}}, nil
	}

	s := exec.Stats()
	data := map[string]interface{}{
		"backend":          string(s.Backend),
		"runs":             s.Runs,
		"failures":         s.Failures,
		"timeouts":         s.Timeouts,
		"last_duration_ms": s.LastDuration.Milliseconds(),
	}
	if s.LastRun != nil {
		data["last_run"] = s.LastRun.Format(time.RFC3339)
	}
	return &types.Result{Success: true, Data: data}, nil
}

// parseTimeout reads a timeout in seconds. Absent means the executor
// default.
func parseTimeout(v interface{}) (time.Duration, error) {
	var secs float64
	switch t := v.(type) {
	case nil:
		return 0, nil
	case float64:
		secs = t
	case int:
		secs = float64(t)
	case int64:
		secs = float64(t)
	default:
		return 0, fmt.Errorf("timeout must be a number of seconds")
	}
	if secs <= 0 {
		return 0, fmt.Errorf("timeout must be positive")
	}
	return time.Duration(secs * float64(time.Second)), nil
}

func parseEnv(v interface{}) (map[string]string, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case map[string]string:
		return t, nil
	case map[string]interface{}:
		env := make(map[string]string, len(t))
		for k, val := range t {
			if k == "" {
				return nil, fmt.Errorf("env keys must be non-empty")
			}
			env[k] = fmt.Sprint(val)
		}
		return env, nil
	default:
		return nil, fmt.Errorf("env must be an object")
	}
}

func failure(message string) (*types.Result, error) {
	msg := message
	return &types.Result{Success: false, Error: &msg}, nil
}
