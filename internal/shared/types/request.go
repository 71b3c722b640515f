package types

// CreateSessionRequest asks for a new workspace session. An empty ID lets
// the server generate one.
type CreateSessionRequest struct {
	ID string `json:"id"`
}

// ExecuteRequest represents a service execution request
type ExecuteRequest struct {
	ToolID    string                 `json:"tool_id" binding:"required"`
	Params    map[string]interface{} `json:"params"`
	SessionID *string                `json:"session_id,omitempty"`
}

// ShellRequest runs a command in a session's sandbox.
type ShellRequest struct {
	Command        string            `json:"command" binding:"required"`
	TimeoutSeconds int               `json:"timeout_seconds"`
	Env            map[string]string `json:"env"`
}

// WriteFileRequest replaces or creates a file through the HTTP API.
type WriteFileRequest struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"` // "utf-8" (default) or "base64"
}
