package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Run("missing query service returns error", func(t *testing.T) {
		server, err := NewServer(&Ports{Ingestion: &mockIngestionService{}})
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingQueryService)
	})

	t.Run("valid ports creates server", func(t *testing.T) {
		server, err := newTestServer(&mockQueryService{}, &mockIngestionService{})
		require.NoError(t, err)
		assert.NotNil(t, server)
		assert.NotNil(t, server.Handler())
	})
}

func TestPorts_Validate(t *testing.T) {
	tests := []struct {
		name    string
		ports   *Ports
		wantErr error
	}{
		{"empty", &Ports{}, ErrMissingQueryService},
		{"query only", &Ports{Query: &mockQueryService{}}, ErrMissingIngestionService},
		{"ingestion only", &Ports{Ingestion: &mockIngestionService{}}, ErrMissingQueryService},
		{"all ports", &Ports{Query: &mockQueryService{}, Ingestion: &mockIngestionService{}}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ports.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}
