package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateID(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		required bool
		wantErr  bool
	}{
		{"generated session id", "sess_01HZY3V4K8Q2J6W5N7M9P0R1S2", true, false},
		{"hyphenated", "my-session", true, false},
		{"empty optional", "", false, false},
		{"empty required", "", true, true},
		{"slash", "a/b", true, true},
		{"dot dot", "..", true, true},
		{"too long", strings.Repeat("a", MaxIDLength+1), true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateID(tt.id, "session_id", tt.required)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateToolID(t *testing.T) {
	assert.NoError(t, ValidateToolID("filesystem.archive.export", "tool_id", true))
	assert.Error(t, ValidateToolID("filesystem read", "tool_id", true))
	assert.Error(t, ValidateToolID("", "tool_id", true))
}

func TestValidateCategory(t *testing.T) {
	assert.NoError(t, ValidateCategory("filesystem", true))
	assert.NoError(t, ValidateCategory("", false))
	assert.Error(t, ValidateCategory("File System", false))
}

func TestValidateQueryAndCommand(t *testing.T) {
	assert.NoError(t, ValidateQuery("read a file"))
	assert.Error(t, ValidateQuery("   "))
	assert.Error(t, ValidateQuery(""))

	assert.NoError(t, ValidateCommand("ls -la"))
	assert.Error(t, ValidateCommand(" \t"))
	assert.Error(t, ValidateCommand("echo \x00"))
}

func TestValidateEnv(t *testing.T) {
	assert.NoError(t, ValidateEnv(nil))
	assert.NoError(t, ValidateEnv(map[string]string{"FOO": "bar", "_X1": ""}))
	assert.Error(t, ValidateEnv(map[string]string{"1BAD": "x"}))
	assert.Error(t, ValidateEnv(map[string]string{"A-B": "x"}))
	assert.Error(t, ValidateEnv(map[string]string{"OK": "nul\x00"}))
}
