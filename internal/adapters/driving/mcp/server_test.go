package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Run("missing query service returns error", func(t *testing.T) {
		server, err := NewServer(&Ports{Documents: &mockDocumentService{}})
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingQueryService)
	})

	t.Run("valid ports creates server", func(t *testing.T) {
		server, err := NewServer(&Ports{Query: &mockQueryEngine{}, Documents: &mockDocumentService{}})
		require.NoError(t, err)
		assert.NotNil(t, server)
		assert.NotNil(t, server.Handler())
	})
}

func TestPorts_Validate(t *testing.T) {
	t.Run("empty ports", func(t *testing.T) {
		assert.ErrorIs(t, (&Ports{}).Validate(), ErrMissingQueryService)
	})

	t.Run("missing document service", func(t *testing.T) {
		ports := &Ports{Query: &mockQueryEngine{}}
		assert.ErrorIs(t, ports.Validate(), ErrMissingDocumentService)
	})

	t.Run("answer and ingest are optional", func(t *testing.T) {
		ports := &Ports{Query: &mockQueryEngine{}, Documents: &mockDocumentService{}}
		assert.NoError(t, ports.Validate())
	})

	t.Run("all ports is valid", func(t *testing.T) {
		ports := &Ports{
			Query:     &mockQueryEngine{},
			Answer:    &mockAnswerService{},
			Documents: &mockDocumentService{},
			Ingest:    &mockIngestService{},
		}
		assert.NoError(t, ports.Validate())
	})
}
