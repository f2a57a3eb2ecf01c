package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMCPCmd_HasServe(t *testing.T) {
	names := make([]string, 0)
	for _, cmd := range mcpCmd.Commands() {
		names = append(names, cmd.Name())
	}
	assert.Contains(t, names, "serve")
	assert.NotNil(t, mcpServeCmd.Flags().Lookup("port"))
}

func TestMCPServe_ErrorsWithoutServices(t *testing.T) {
	_, cleanup := setupTestServices(t)
	defer cleanup()
	queryService = nil

	_, err := execute(t, "", "mcp", "serve")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestServeCmd_ErrorsWithoutServices(t *testing.T) {
	_, cleanup := setupTestServices(t)
	defer cleanup()
	ingestionService = nil

	_, err := execute(t, "", "serve")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ingestion service not configured")
}
